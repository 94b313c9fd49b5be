package store

import (
	"fmt"

	"github.com/flashkit/flashkit/internal/format"
)

// Allocate pops the least-recently-freed region off the free list, claims
// it for the collection, and commits the claim as the new root snapshot.
// Allocation is never invisible to recovery: the claiming header is itself
// the commit, carrying the advanced sequence, the updated head directory,
// and the new free-list boundary.
//
// The free list is strictly FIFO. Popping the head and appending frees at
// the tail is what guarantees wear-leveling: the region held free longest
// is always reused first.
func (s *Store) Allocate(id CollectionID, t CollectionType) (RegionIndex, error) {
	if id == 0 {
		return NoRegion, fmt.Errorf("store: collection id 0 is reserved: %w", ErrInvalidCollection)
	}
	if !t.Known() || t == format.TypeFree {
		return NoRegion, fmt.Errorf("store: collection type %s not allocatable: %w", t, ErrInvalidCollection)
	}
	popped := s.root.FreeHead
	if popped == NoRegion {
		return NoRegion, ErrOutOfSpace
	}

	poppedPage, err := s.readHeaderPage(popped)
	if err != nil {
		return NoRegion, err
	}
	newHead, newTail, err := s.unlinkHead(popped, poppedPage)
	if err != nil {
		return NoRegion, err
	}

	heads := s.root.clone().Heads
	if _, exists := heads[id]; !exists && len(heads) >= s.maxHeads() {
		return NoRegion, fmt.Errorf("store: head table full at %d entries: %w", s.maxHeads(), ErrTooManyCollections)
	}
	heads[id] = popped

	hdr := format.Header{
		Version:    format.Version,
		Sequence:   s.root.Sequence + 1,
		Collection: uint64(id),
		Type:       t,
		FreeHead:   uint32(newHead),
		FreeTail:   uint32(newTail),
		Heads:      headEntries(heads),
	}
	if err := s.erase(s.m, popped); err != nil {
		return NoRegion, fmt.Errorf("store: erase region %s for reuse: %w", popped, err)
	}
	if _, err := s.writeHeader(popped, &hdr); err != nil {
		return NoRegion, err
	}

	// The claim header on the media is the commit. The in-memory root
	// advances before anything else can fail: rolling the sequence back
	// past a landed header would mint it twice, and recovery would find
	// two roots with the same sequence.
	s.root.Sequence = hdr.Sequence
	s.root.Root = popped
	s.root.FreeHead = newHead
	s.root.FreeTail = newTail
	s.root.Heads = heads

	if err := s.m.Sync(); err != nil {
		return NoRegion, fmt.Errorf("store: sync commit: %w", err)
	}
	s.log.Debug("region allocated",
		"region", popped, "collection", uint64(id), "type", t, "sequence", hdr.Sequence)
	return popped, nil
}

// unlinkHead works out the free-list boundaries that remain after popping
// the head region, validating the lazily-written link on the way.
func (s *Store) unlinkHead(popped RegionIndex, poppedPage []byte) (newHead, newTail RegionIndex, err error) {
	if popped == s.root.FreeTail {
		// Sole remaining free region. Its trailing page may still carry
		// a link from a free that never committed; the root snapshot is
		// the authority, so the link is ignored.
		return NoRegion, NoRegion, nil
	}
	fp, ok, err := s.readFreePointer(popped)
	if err != nil {
		return NoRegion, NoRegion, err
	}
	if !ok {
		return NoRegion, NoRegion, fmt.Errorf("store: region %s has no free pointer but is not the tail: %w",
			popped, ErrFreeListCorrupt)
	}
	if fp.HeaderHash != format.HashHeaderPage(poppedPage) {
		return NoRegion, NoRegion, fmt.Errorf("store: free pointer of region %s does not match its header: %w",
			popped, ErrFreeListCorrupt)
	}
	next := RegionIndex(fp.NextTail)
	if next == NoRegion || uint32(next) >= s.geo.RegionCount || next == popped {
		return NoRegion, NoRegion, fmt.Errorf("store: free pointer of region %s links to %s: %w",
			popped, next, ErrFreeListCorrupt)
	}
	return next, s.root.FreeTail, nil
}

// Free appends a region to the free-list tail. The region must not be any
// collection's declared head; freeing a head requires the explicit intent
// of FreeHead.
func (s *Store) Free(r RegionIndex) error {
	if uint32(r) >= s.geo.RegionCount {
		return fmt.Errorf("store: region %s of %d: %w", r, s.geo.RegionCount, ErrInvalidRegion)
	}
	for id, head := range s.root.Heads {
		if head == r {
			return fmt.Errorf("store: region %s is the head of collection %d, use FreeHead: %w",
				r, uint64(id), ErrInvalidRegion)
		}
	}
	if err := s.checkNotFree(r); err != nil {
		return err
	}
	return s.freeCommit(r, func(map[CollectionID]RegionIndex) {})
}

// FreeHead frees the declared head region of a collection, the
// oldest-first truncation path. The head directory delta and the free-list
// delta land in one commit: newHead becomes the collection's registered
// head, or the collection is dropped from the directory entirely when
// newHead is NoRegion.
func (s *Store) FreeHead(id CollectionID, newHead RegionIndex) error {
	cur, ok := s.root.Heads[id]
	if !ok {
		return fmt.Errorf("store: collection %d has no head: %w", uint64(id), ErrInvalidCollection)
	}
	if newHead != NoRegion {
		if uint32(newHead) >= s.geo.RegionCount || newHead == cur {
			return fmt.Errorf("store: replacement head %s: %w", newHead, ErrInvalidRegion)
		}
		info, err := s.RegionInfo(newHead)
		if err != nil {
			return err
		}
		if !info.Valid || info.Type == format.TypeFree || info.Collection != id {
			return fmt.Errorf("store: region %s does not belong to collection %d: %w",
				newHead, uint64(id), ErrInvalidRegion)
		}
	}
	return s.freeCommit(cur, func(heads map[CollectionID]RegionIndex) {
		if newHead == NoRegion {
			delete(heads, id)
		} else {
			heads[id] = newHead
		}
	})
}

// freeCommit runs the two-phase free protocol: commit a free marker into
// the region being freed, then complete the previous tail's lazily-written
// link as part of the same logical transaction, never as a background
// task.
func (s *Store) freeCommit(r RegionIndex, applyHeads func(map[CollectionID]RegionIndex)) error {
	prevTail := s.root.FreeTail
	var prevTailPage []byte
	if prevTail != NoRegion {
		var err error
		if prevTailPage, err = s.readHeaderPage(prevTail); err != nil {
			return err
		}
	}

	heads := s.root.clone().Heads
	applyHeads(heads)
	if len(heads) == 0 {
		// A root candidate needs a non-empty head directory; a commit
		// that dropped the last collection could never be recovered.
		return fmt.Errorf("store: freeing the last region of the last collection: %w", ErrInvalidCollection)
	}

	// The marker is the commit. It records the free list as it was before
	// this free, never naming its own region; recovery appends the
	// marker's region as the tail (see scan).
	marker := format.Header{
		Version:  format.Version,
		Sequence: s.root.Sequence + 1,
		Type:     format.TypeFree,
		FreeHead: uint32(s.root.FreeHead),
		FreeTail: uint32(prevTail),
		Heads:    headEntries(heads),
	}
	if err := s.erase(s.m, r); err != nil {
		return fmt.Errorf("store: erase region %s for free: %w", r, err)
	}
	if _, err := s.writeHeader(r, &marker); err != nil {
		return err
	}

	// The marker on the media is the commit. The in-memory root advances
	// before phase two: a faulted link write must not roll the sequence
	// back, or the next commit would mint it again and recovery would find
	// two roots with the same sequence. A link that never lands surfaces
	// later as ErrFreeListCorrupt when its region is popped.
	s.root.Sequence = marker.Sequence
	s.root.Root = r
	s.root.Heads = heads
	if s.root.FreeHead == NoRegion {
		s.root.FreeHead = r
	}
	s.root.FreeTail = r

	if err := s.m.Sync(); err != nil {
		return fmt.Errorf("store: sync commit: %w", err)
	}

	// Phase two: the previous tail learns its successor. Its trailing
	// page has stayed erased since it was freed, waiting for this write.
	if prevTail != NoRegion {
		fp := format.FreePointer{
			NextTail:   uint32(r),
			HeaderHash: format.HashHeaderPage(prevTailPage),
		}
		fpBytes := make([]byte, format.FreePointerSize)
		if err := fp.Encode(fpBytes); err != nil {
			return fmt.Errorf("store: encode free pointer for region %s: %w", prevTail, err)
		}
		if err := s.m.Write(uint32(prevTail), s.freePointerOffset(), fpBytes); err != nil {
			return fmt.Errorf("store: link region %s to %s: %w", prevTail, r, err)
		}
		if err := s.m.Sync(); err != nil {
			return fmt.Errorf("store: sync free link: %w", err)
		}
	}

	s.log.Debug("region freed", "region", r, "sequence", marker.Sequence, "prev_tail", prevTail)
	return nil
}

// checkNotFree rejects regions that are already on the free list. Free
// markers and init dummies both read back as free-typed headers, so one
// header read answers the question without walking the chain.
func (s *Store) checkNotFree(r RegionIndex) error {
	if r == s.root.FreeHead || r == s.root.FreeTail {
		return fmt.Errorf("store: region %s is already free: %w", r, ErrInvalidRegion)
	}
	info, err := s.RegionInfo(r)
	if err != nil {
		return err
	}
	if info.Valid && info.Type == format.TypeFree {
		return fmt.Errorf("store: region %s is already free: %w", r, ErrInvalidRegion)
	}
	return nil
}

// FreeRegions walks the free chain from head to tail, validating every
// lazily-written link on the way, and returns the members in pop order.
// The walk is read-only; corruption surfaces as ErrFreeListCorrupt.
func (s *Store) FreeRegions() ([]RegionIndex, error) {
	if s.root.FreeHead == NoRegion {
		return nil, nil
	}
	var chain []RegionIndex
	cur := s.root.FreeHead
	for {
		if len(chain) == int(s.geo.RegionCount) {
			return nil, fmt.Errorf("store: free chain longer than region table: %w", ErrFreeListCorrupt)
		}
		chain = append(chain, cur)
		if cur == s.root.FreeTail {
			return chain, nil
		}
		page, err := s.readHeaderPage(cur)
		if err != nil {
			return nil, err
		}
		fp, ok, err := s.readFreePointer(cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("store: free chain breaks at region %s: %w", cur, ErrFreeListCorrupt)
		}
		if fp.HeaderHash != format.HashHeaderPage(page) {
			return nil, fmt.Errorf("store: free pointer of region %s does not match its header: %w",
				cur, ErrFreeListCorrupt)
		}
		next := RegionIndex(fp.NextTail)
		if next == NoRegion || uint32(next) >= s.geo.RegionCount || next == cur {
			return nil, fmt.Errorf("store: free pointer of region %s links to %s: %w",
				cur, next, ErrFreeListCorrupt)
		}
		cur = next
	}
}

func headEntries(heads map[CollectionID]RegionIndex) []format.HeadEntry {
	if len(heads) == 0 {
		return nil
	}
	entries := make([]format.HeadEntry, 0, len(heads))
	for id, r := range heads {
		entries = append(entries, format.HeadEntry{Collection: uint64(id), Region: uint32(r)})
	}
	return entries
}
