package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/flashkit/flashkit/internal/buf"
	"github.com/flashkit/flashkit/internal/format"
	"github.com/flashkit/flashkit/medium"
)

// Init lays out a fresh store on the medium: the one-time storage
// metadata, the write-ahead log root in region 0, and the remaining
// regions chained into the initial free list.
//
// Re-running Init on an already-initialized medium is destructive and
// refused unless the caller passes WithForce; it is never retried
// automatically.
func Init(m medium.Medium, opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	geo := m.Geometry()
	meta := format.Meta{
		Version:     format.Version,
		UUID:        uuid.New(),
		PageSize:    geo.PageSize,
		RegionSize:  geo.RegionSize,
		RegionCount: geo.RegionCount,
	}
	if err := meta.ValidateGeometry(); err != nil {
		return fmt.Errorf("store: %v: %w", err, ErrInvalidGeometry)
	}

	if err := checkUninitialized(m, cfg.force); err != nil {
		return err
	}
	if cfg.force {
		if err := eraseAll(m); err != nil {
			return err
		}
	}

	metaPage := make([]byte, format.MetaSize)
	if err := meta.Encode(metaPage); err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	if err := m.WriteMeta(0, metaPage); err != nil {
		return fmt.Errorf("store: write metadata: %w", err)
	}

	s := &Store{m: m, meta: meta, geo: geo, log: cfg.logger, erase: cfg.erase}

	// Region 0 anchors the WAL and carries the initial root snapshot:
	// every other region is on the free list.
	root := format.Header{
		Version:    format.Version,
		Sequence:   0,
		Collection: uint64(WALCollection),
		Type:       format.TypeWAL,
		FreeHead:   1,
		FreeTail:   geo.RegionCount - 1,
		Heads:      []format.HeadEntry{{Collection: uint64(WALCollection), Region: 0}},
	}
	if _, err := s.writeHeader(0, &root); err != nil {
		return err
	}

	// Regions 1..n-1 hold dummy headers and are pre-linked into the free
	// chain. Each free pointer records the digest of the header it links
	// from, and the last region's pointer stays unwritten: the tail of
	// the free list never knows its successor until one is freed.
	dummy := format.Header{
		Version:  format.Version,
		Type:     format.TypeFree,
		FreeHead: format.NoRegion,
		FreeTail: format.NoRegion,
	}
	for r := uint32(1); r < geo.RegionCount; r++ {
		page, err := s.writeHeader(RegionIndex(r), &dummy)
		if err != nil {
			return err
		}
		if r == geo.RegionCount-1 {
			break
		}
		fp := format.FreePointer{
			NextTail:   r + 1,
			HeaderHash: format.HashHeaderPage(page),
		}
		fpBytes := make([]byte, format.FreePointerSize)
		if err := fp.Encode(fpBytes); err != nil {
			return fmt.Errorf("store: encode free pointer for region %d: %w", r, err)
		}
		if err := m.Write(r, s.freePointerOffset(), fpBytes); err != nil {
			return fmt.Errorf("store: write free pointer to region %d: %w", r, err)
		}
	}

	if err := m.Sync(); err != nil {
		return fmt.Errorf("store: sync after init: %w", err)
	}
	cfg.logger.Debug("store initialized",
		"uuid", meta.UUID,
		"page_size", geo.PageSize,
		"region_size", geo.RegionSize,
		"region_count", geo.RegionCount)
	return nil
}

// checkUninitialized enforces the destructive-init authorization rule.
func checkUninitialized(m medium.Medium, force bool) error {
	metaBytes := make([]byte, format.MetaSize)
	if err := m.ReadMeta(0, metaBytes); err != nil {
		return fmt.Errorf("store: probe metadata: %w", err)
	}
	if buf.Blank(metaBytes) {
		return nil
	}
	if force {
		return nil
	}
	if _, err := format.ParseMeta(metaBytes); err == nil {
		return ErrAlreadyInitialized
	}
	return fmt.Errorf("store: metadata area holds unrecognized data, pass WithForce to overwrite: %w",
		ErrCorruptMetadata)
}

// eraseAll resets the metadata area and every region for a forced re-init.
func eraseAll(m medium.Medium) error {
	me, ok := m.(medium.MetaEraser)
	if !ok {
		return fmt.Errorf("store: medium cannot erase its metadata area: %w", ErrAlreadyInitialized)
	}
	if err := me.EraseMeta(); err != nil {
		return fmt.Errorf("store: erase metadata: %w", err)
	}
	geo := m.Geometry()
	for r := uint32(0); r < geo.RegionCount; r++ {
		if err := m.Erase(r); err != nil {
			return fmt.Errorf("store: erase region %d: %w", r, err)
		}
	}
	return nil
}
