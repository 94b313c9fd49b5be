package wal

import (
	"fmt"
	"sort"

	"github.com/flashkit/flashkit/internal/buf"
	"github.com/flashkit/flashkit/store"
)

// WAL is an append-only log stored in a chain of regions belonging to one
// collection. It is not safe for concurrent use.
type WAL struct {
	s  *store.Store
	id store.CollectionID

	// chain holds the member regions oldest to newest; seqs holds the
	// header sequence each member was claimed with. The last member is
	// the collection head.
	chain []store.RegionIndex
	seqs  []uint64

	pageSize int
	pagesPer int

	page    []byte
	pageIdx int
	off     int
	dirty   bool

	// pending is the link stamp owed to the head region before anything
	// else may be appended there. Set when a region was claimed but its
	// link never reached the media.
	pending *linkStamp
}

type linkStamp struct {
	prev    store.RegionIndex
	prevSeq uint64
}

// Create claims a first region for the collection and returns an empty
// log. The collection must not already have a head.
func Create(s *store.Store, id store.CollectionID) (*WAL, error) {
	if _, exists := s.GetHead(id); exists {
		return nil, fmt.Errorf("wal: collection %d already has a head: %w", uint64(id), store.ErrInvalidCollection)
	}
	if _, err := s.Allocate(id, store.TypeWAL); err != nil {
		return nil, err
	}
	return Open(s, id)
}

// Open recovers the log of a collection from its region headers. Member
// regions are ordered by the sequence their claiming header carries, and
// the link stamp each region opens with is checked against that order.
// The writer resumes at the first erased page of the head region.
func Open(s *store.Store, id store.CollectionID) (*WAL, error) {
	w := &WAL{
		s:        s,
		id:       id,
		pageSize: int(s.Geometry().PageSize),
	}
	w.pagesPer = s.UserDataSize() / w.pageSize
	w.page = erasedPage(w.pageSize)

	if err := w.recoverChain(); err != nil {
		return nil, err
	}
	if err := w.recoverPosition(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WAL) recoverChain() error {
	infos, err := w.s.ScanRegions()
	if err != nil {
		return err
	}
	var members []store.RegionInfo
	for _, info := range infos {
		if info.Valid && info.Collection == w.id && info.Type == store.TypeWAL {
			members = append(members, info)
		}
	}
	if len(members) == 0 {
		return fmt.Errorf("wal: collection %d: %w", uint64(w.id), ErrNoLog)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Sequence < members[j].Sequence })

	head, ok := w.s.GetHead(w.id)
	if !ok || head != members[len(members)-1].Region {
		return fmt.Errorf("wal: head %s does not carry the newest claim: %w", head, ErrChainBroken)
	}

	for i, m := range members {
		stamp, blank, err := w.readLinkStamp(m.Region)
		if err != nil {
			return err
		}
		switch {
		case blank:
			// An unwritten first page is legal only on the head: the
			// region was claimed and the crash hit before its stamp.
			if i != len(members)-1 {
				return fmt.Errorf("wal: region %s claims the log but opens blank: %w", m.Region, ErrChainBroken)
			}
			if i > 0 {
				w.pending = &linkStamp{prev: members[i-1].Region, prevSeq: members[i-1].Sequence}
			}
		case stamp == nil && i > 0:
			return fmt.Errorf("wal: region %s carries no link to its predecessor: %w", m.Region, ErrChainBroken)
		case stamp != nil && i == 0:
			// The stamped predecessor was truncated away; nothing left
			// to check it against.
		case stamp != nil:
			if stamp.prev != members[i-1].Region || stamp.prevSeq != members[i-1].Sequence {
				return fmt.Errorf("wal: region %s links region %s sequence %d, expected region %s sequence %d: %w",
					m.Region, stamp.prev, stamp.prevSeq, members[i-1].Region, members[i-1].Sequence, ErrChainBroken)
			}
		}
		w.chain = append(w.chain, m.Region)
		w.seqs = append(w.seqs, m.Sequence)
	}
	return nil
}

// readLinkStamp decodes the first record of a region. blank reports an
// unwritten first page; a nil stamp with blank false means the region
// opens with anything other than a link owned by this collection.
func (w *WAL) readLinkStamp(r store.RegionIndex) (stamp *linkStamp, blank bool, err error) {
	page := make([]byte, w.pageSize)
	if err := w.s.ReadUserData(r, 0, page); err != nil {
		return nil, false, err
	}
	if buf.Blank(page) {
		return nil, true, nil
	}
	// Under an external erase policy a reused region can open with stale
	// bytes from a prior occupant. The owner stamp rejects those as "no
	// stamp"; the chain check decides whether that is fatal.
	rec, _, ok, err := parseRecord(page, 0, w.id)
	if err != nil || !ok || rec.Kind != KindLink {
		return nil, false, nil
	}
	prev, prevSeq, err := decodeLinkPayload(rec.Payload)
	if err != nil {
		return nil, false, err
	}
	return &linkStamp{prev: prev, prevSeq: prevSeq}, false, nil
}

func (w *WAL) recoverPosition() error {
	head := w.head()
	page := make([]byte, w.pageSize)
	w.pageIdx = w.pagesPer
	for i := 0; i < w.pagesPer; i++ {
		if err := w.s.ReadUserData(head, i*w.pageSize, page); err != nil {
			return err
		}
		if buf.Blank(page) {
			w.pageIdx = i
			break
		}
	}
	return nil
}

func (w *WAL) head() store.RegionIndex { return w.chain[len(w.chain)-1] }

// Regions returns the member regions oldest to newest.
func (w *WAL) Regions() []store.RegionIndex {
	out := make([]store.RegionIndex, len(w.chain))
	copy(out, w.chain)
	return out
}

// MaxPayload returns the largest payload Append accepts. A region's first
// page must hold the link stamp and at least one record, so the bound
// reserves room for a stamp on every page.
func (w *WAL) MaxPayload() int {
	return w.pageSize - 2*recordOverhead - linkPayloadSize
}

// Append buffers a data record. The record reaches the media on the next
// Sync or Commit, or earlier when the page fills.
func (w *WAL) Append(payload []byte) error {
	return w.append(KindData, payload)
}

// Commit appends a commit record and forces everything buffered onto the
// media.
func (w *WAL) Commit() error {
	if err := w.append(KindCommit, nil); err != nil {
		return err
	}
	return w.Sync()
}

func (w *WAL) append(k Kind, payload []byte) error {
	if len(payload) > w.MaxPayload() {
		return fmt.Errorf("wal: payload of %d bytes, page holds %d: %w", len(payload), w.MaxPayload(), ErrRecordTooLarge)
	}
	if w.pending != nil {
		stamp := *w.pending
		w.pending = nil
		if err := w.put(KindLink, encodeLinkPayload(stamp.prev, stamp.prevSeq)); err != nil {
			w.pending = &stamp
			return err
		}
	}
	return w.put(k, payload)
}

func (w *WAL) put(k Kind, payload []byte) error {
	need := recordOverhead + len(payload)
	// Sealing a page or stamping a freshly claimed region can each eat
	// the room the record needed, so keep making room until it fits.
	for w.off+need > w.pageSize || w.pageIdx >= w.pagesPer {
		if w.dirty {
			if err := w.seal(); err != nil {
				return err
			}
			continue
		}
		if w.pageIdx >= w.pagesPer {
			if err := w.grow(); err != nil {
				return err
			}
		}
		if w.pending != nil {
			stamp := *w.pending
			w.pending = nil
			w.off += encodeRecord(w.page[w.off:], KindLink, w.id, encodeLinkPayload(stamp.prev, stamp.prevSeq))
			w.dirty = true
		}
		if w.off+need <= w.pageSize {
			break
		}
	}
	w.off += encodeRecord(w.page[w.off:], k, w.id, payload)
	w.dirty = true
	return nil
}

// seal writes the buffered page out. Pages are write-once, so the unused
// remainder stays erased and the writer moves on to the next page.
func (w *WAL) seal() error {
	if !w.dirty {
		return nil
	}
	if err := w.s.WriteUserData(w.head(), w.pageIdx*w.pageSize, w.page); err != nil {
		return err
	}
	w.pageIdx++
	w.page = erasedPage(w.pageSize)
	w.off = 0
	w.dirty = false
	return nil
}

// grow claims a fresh region as the new head. The claim is a root commit
// of its own; the link stamp follows as the region's first record.
func (w *WAL) grow() error {
	prev := w.head()
	prevSeq := w.seqs[len(w.seqs)-1]
	r, err := w.s.Allocate(w.id, store.TypeWAL)
	if err != nil {
		return err
	}
	w.chain = append(w.chain, r)
	w.seqs = append(w.seqs, w.s.CurrentSequence())
	w.pageIdx = 0
	w.page = erasedPage(w.pageSize)
	w.off = 0
	w.dirty = false
	w.pending = &linkStamp{prev: prev, prevSeq: prevSeq}
	return nil
}

// Sync seals the buffered page and flushes the medium.
func (w *WAL) Sync() error {
	if err := w.seal(); err != nil {
		return err
	}
	return w.s.Sync()
}

// TruncateOldest releases the oldest member region back to the free list.
// The head region is never truncated.
func (w *WAL) TruncateOldest() error {
	if len(w.chain) <= 1 {
		return ErrTruncateHead
	}
	if err := w.s.Free(w.chain[0]); err != nil {
		return err
	}
	w.chain = w.chain[1:]
	w.seqs = w.seqs[1:]
	return nil
}

func erasedPage(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = 0xFF
	}
	return p
}
