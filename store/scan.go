package store

import (
	"fmt"

	"github.com/flashkit/flashkit/internal/format"
)

// scan reads every region header and reduces the structurally valid ones
// to the single newest root. There is no superblock: truth lives wherever
// the newest valid header happens to be, and this linear scan is the only
// way to find it.
//
// Root candidacy requires a non-empty head table. Dummy headers laid down
// by Init (free, sequence 0, no heads) are valid placeholders but can
// never name a root, which keeps the very first open unambiguous.
func (s *Store) scan() (RootSnapshot, error) {
	valid := make(map[RegionIndex]format.Header, s.geo.RegionCount)
	best := RootSnapshot{Root: NoRegion, FreeHead: NoRegion, FreeTail: NoRegion}
	var bestHdr format.Header
	found := false

	for i := uint32(0); i < s.geo.RegionCount; i++ {
		r := RegionIndex(i)
		page, err := s.readHeaderPage(r)
		if err != nil {
			return RootSnapshot{}, err
		}
		hdr, err := format.ParseHeader(page)
		if err != nil {
			s.log.Debug("region header invalid", "region", r, "err", err)
			continue
		}
		if err := hdr.Validate(i, s.geo.RegionCount); err != nil {
			s.log.Debug("region header invalid", "region", r, "err", err)
			continue
		}
		valid[r] = hdr
		if len(hdr.Heads) == 0 {
			continue // placeholder, not a candidate
		}
		switch {
		case !found || hdr.Sequence > bestHdr.Sequence:
			found = true
			bestHdr = hdr
			best.Root = r
		case hdr.Sequence == bestHdr.Sequence:
			return RootSnapshot{}, fmt.Errorf("store: regions %s and %s both carry sequence %d: %w",
				best.Root, r, hdr.Sequence, ErrAmbiguousRoot)
		}
	}
	if !found {
		return RootSnapshot{}, fmt.Errorf("store: no valid root header: %w", ErrCorruptMetadata)
	}

	best.Sequence = bestHdr.Sequence
	best.FreeHead = RegionIndex(bestHdr.FreeHead)
	best.FreeTail = RegionIndex(bestHdr.FreeTail)
	best.Heads = make(map[CollectionID]RegionIndex, len(bestHdr.Heads))
	for _, e := range bestHdr.Heads {
		best.Heads[CollectionID(e.Collection)] = RegionIndex(e.Region)
	}

	// A free marker is a commit written into the region being freed, and
	// a header never names its own region in the free-list pointers. The
	// marker therefore records the list as it was before the free, and
	// recovery appends the marker's own region as the tail.
	if bestHdr.Type == format.TypeFree {
		best.FreeTail = best.Root
		if best.FreeHead == NoRegion {
			best.FreeHead = best.Root
		}
	}

	// The recovered directory must be internally consistent: every head
	// entry names a region whose own header claims that collection.
	for id, r := range best.Heads {
		hdr, ok := valid[r]
		if !ok || hdr.Type == format.TypeFree || CollectionID(hdr.Collection) != id {
			return RootSnapshot{}, fmt.Errorf("store: head of collection %d points at region %s which does not claim it: %w",
				id, r, ErrCorruptMetadata)
		}
	}
	return best, nil
}

// ScanRegions summarizes every region header, in index order. Inspection
// tooling uses it; recovery itself uses the internal scan.
func (s *Store) ScanRegions() ([]RegionInfo, error) {
	infos := make([]RegionInfo, 0, s.geo.RegionCount)
	for i := uint32(0); i < s.geo.RegionCount; i++ {
		info, err := s.RegionInfo(RegionIndex(i))
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, nil
}
