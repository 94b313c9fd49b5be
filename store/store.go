package store

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flashkit/flashkit/internal/format"
	"github.com/flashkit/flashkit/medium"
)

// Store is the region allocator and root-snapshot coordinator for one
// medium. It assumes a single logical writer: all mutating operations read
// the current root and commit a successor, so concurrent commits require
// external serialization. Reads of already-committed state are safe at any
// time because headers are immutable once written.
type Store struct {
	m     medium.Medium
	meta  format.Meta
	geo   medium.Geometry
	log   *slog.Logger
	erase ErasePolicy
	root  RootSnapshot
}

// Open reads the storage metadata, scans every region for the newest
// structurally valid header, and returns a store positioned at that root.
// The scan is the dominant startup cost, O(region count) reads, and runs
// once per power cycle.
func Open(m medium.Medium, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	metaBytes := make([]byte, format.MetaSize)
	if err := m.ReadMeta(0, metaBytes); err != nil {
		return nil, fmt.Errorf("store: read metadata: %w", err)
	}
	meta, err := format.ParseMeta(metaBytes)
	if err != nil {
		return nil, fmt.Errorf("store: %v: %w", err, ErrCorruptMetadata)
	}
	if err := meta.ValidateGeometry(); err != nil {
		return nil, fmt.Errorf("store: %v: %w", err, ErrCorruptMetadata)
	}
	geo := m.Geometry()
	if meta.PageSize != geo.PageSize || meta.RegionSize != geo.RegionSize || meta.RegionCount != geo.RegionCount {
		return nil, fmt.Errorf("store: metadata geometry %d/%d/%d does not match medium %d/%d/%d: %w",
			meta.PageSize, meta.RegionSize, meta.RegionCount,
			geo.PageSize, geo.RegionSize, geo.RegionCount, ErrCorruptMetadata)
	}

	s := &Store{
		m:     m,
		meta:  meta,
		geo:   geo,
		log:   cfg.logger,
		erase: cfg.erase,
	}
	root, err := s.scan()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.log.Debug("store opened",
		"uuid", meta.UUID,
		"root", root.Root,
		"sequence", root.Sequence,
		"collections", len(root.Heads))
	return s, nil
}

// Root returns a copy of the current root snapshot.
func (s *Store) Root() RootSnapshot {
	return s.root.clone()
}

// CurrentSequence returns the sequence of the current root.
func (s *Store) CurrentSequence() uint64 {
	return s.root.Sequence
}

// GetHead returns the registered head region of a collection.
func (s *Store) GetHead(id CollectionID) (RegionIndex, bool) {
	return s.root.Head(id)
}

// UUID returns the storage identity stamped at initialization.
func (s *Store) UUID() uuid.UUID {
	return s.meta.UUID
}

// Geometry reports the medium layout the store operates on.
func (s *Store) Geometry() medium.Geometry {
	return s.geo
}

// UserDataSize returns the bytes of a region available to its occupying
// collection: everything between the header page and the reserved
// free-pointer page.
func (s *Store) UserDataSize() int {
	return int(s.geo.RegionSize) - 2*int(s.geo.PageSize)
}

// ReadUserData reads from a region's user data area. Offsets are relative
// to the start of the area.
func (s *Store) ReadUserData(r RegionIndex, off int, p []byte) error {
	if err := s.checkUserRange(r, off, len(p)); err != nil {
		return err
	}
	return s.m.Read(uint32(r), int(s.geo.PageSize)+off, p)
}

// WriteUserData writes into a region's user data area. The collection owns
// the layout; the store only enforces bounds. On flash media each page of
// the area can be programmed once per occupancy.
func (s *Store) WriteUserData(r RegionIndex, off int, p []byte) error {
	if err := s.checkUserRange(r, off, len(p)); err != nil {
		return err
	}
	return s.m.Write(uint32(r), int(s.geo.PageSize)+off, p)
}

// RegionInfo reads and summarizes one region's header. A structurally
// invalid header yields Valid == false, not an error; errors are reserved
// for medium failures.
func (s *Store) RegionInfo(r RegionIndex) (RegionInfo, error) {
	if uint32(r) >= s.geo.RegionCount {
		return RegionInfo{}, fmt.Errorf("store: region %s of %d: %w", r, s.geo.RegionCount, ErrInvalidRegion)
	}
	page, err := s.readHeaderPage(r)
	if err != nil {
		return RegionInfo{}, err
	}
	info := RegionInfo{Region: r}
	hdr, err := format.ParseHeader(page)
	if err != nil {
		return info, nil
	}
	if err := hdr.Validate(uint32(r), s.geo.RegionCount); err != nil {
		return info, nil
	}
	info.Valid = true
	info.Sequence = hdr.Sequence
	info.Collection = CollectionID(hdr.Collection)
	info.Type = hdr.Type
	info.HeadCount = len(hdr.Heads)
	return info, nil
}

// Sync flushes completed writes on the underlying medium. Collections
// call it after sealing user-data pages; commits sync themselves.
func (s *Store) Sync() error {
	return s.m.Sync()
}

// Close releases the underlying medium.
func (s *Store) Close() error {
	return s.m.Close()
}

func (s *Store) checkUserRange(r RegionIndex, off, n int) error {
	if uint32(r) >= s.geo.RegionCount {
		return fmt.Errorf("store: region %s of %d: %w", r, s.geo.RegionCount, ErrInvalidRegion)
	}
	if off < 0 || n < 0 || off+n > s.UserDataSize() {
		return fmt.Errorf("store: user data range [%d, %d) of %d: %w", off, off+n, s.UserDataSize(), ErrInvalidRegion)
	}
	return nil
}

func (s *Store) maxHeads() int {
	return format.MaxHeads(int(s.geo.PageSize))
}

func (s *Store) freePointerOffset() int {
	return int(s.geo.RegionSize) - int(s.geo.PageSize)
}

func (s *Store) readHeaderPage(r RegionIndex) ([]byte, error) {
	page := make([]byte, s.geo.PageSize)
	if err := s.m.Read(uint32(r), 0, page); err != nil {
		return nil, fmt.Errorf("store: read header of region %s: %w", r, err)
	}
	return page, nil
}

func (s *Store) readFreePointer(r RegionIndex) (format.FreePointer, bool, error) {
	page := make([]byte, s.geo.PageSize)
	if err := s.m.Read(uint32(r), s.freePointerOffset(), page); err != nil {
		return format.FreePointer{}, false, fmt.Errorf("store: read free pointer of region %s: %w", r, err)
	}
	return format.ParseFreePointer(page)
}

// blankPage returns a page-sized buffer in the erased state, so the bytes
// around an encoded record read back exactly like unprogrammed flash.
func (s *Store) blankPage() []byte {
	page := make([]byte, s.geo.PageSize)
	for i := range page {
		page[i] = 0xFF
	}
	return page
}

// writeHeader encodes hdr into a fresh header page, writes it into region
// r, and returns the page bytes for hashing.
func (s *Store) writeHeader(r RegionIndex, hdr *format.Header) ([]byte, error) {
	page := s.blankPage()
	if err := hdr.Encode(page); err != nil {
		return nil, fmt.Errorf("store: encode header for region %s: %w", r, err)
	}
	if err := s.m.Write(uint32(r), 0, page); err != nil {
		return nil, fmt.Errorf("store: write header to region %s: %w", r, err)
	}
	return page, nil
}
