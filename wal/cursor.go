package wal

import (
	"github.com/flashkit/flashkit/internal/buf"
	"github.com/flashkit/flashkit/store"
)

// Cursor iterates the log's records oldest to newest. It snapshots the
// region chain at creation; records appended afterwards are not seen, and
// a TruncateOldest invalidates cursors that still cover the freed region.
//
// Iteration follows the scanner idiom:
//
//	cur := w.NewCursor()
//	for cur.Next() {
//		rec := cur.Record()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor struct {
	s        *store.Store
	id       store.CollectionID
	chain    []store.RegionIndex
	pageSize int
	pagesPer int

	regionIdx int
	pageIdx   int
	page      []byte
	off       int
	loaded    bool

	rec Record
	err error
}

// NewCursor returns a cursor positioned before the oldest record.
func (w *WAL) NewCursor() *Cursor {
	return &Cursor{
		s:        w.s,
		id:       w.id,
		chain:    w.Regions(),
		pageSize: w.pageSize,
		pagesPer: w.pagesPer,
		page:     make([]byte, w.pageSize),
	}
}

// Next advances to the next data or commit record. Link stamps are
// internal chain plumbing and are skipped. It returns false at the end of
// the log or on the first error; Err tells the two apart.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	for {
		rec, ok := c.step()
		if c.err != nil || !ok {
			return false
		}
		if rec.Kind == KindLink {
			continue
		}
		c.rec = rec
		return true
	}
}

// step yields the next raw record, loading pages and crossing region
// boundaries as needed. ok is false at the end of the log.
func (c *Cursor) step() (Record, bool) {
	for {
		if c.regionIdx >= len(c.chain) {
			return Record{}, false
		}
		if c.pageIdx >= c.pagesPer {
			c.regionIdx++
			c.pageIdx = 0
			c.loaded = false
			continue
		}
		if !c.loaded {
			if err := c.s.ReadUserData(c.chain[c.regionIdx], c.pageIdx*c.pageSize, c.page); err != nil {
				c.err = err
				return Record{}, false
			}
			if buf.Blank(c.page) {
				// First unwritten page ends the region's records. Later
				// regions of the chain were claimed after this one
				// filled, so the whole log ends here too.
				c.regionIdx = len(c.chain)
				return Record{}, false
			}
			c.loaded = true
			c.off = 0
		}
		rec, n, ok, err := parseRecord(c.page, c.off, c.id)
		if err != nil {
			c.err = err
			return Record{}, false
		}
		if !ok {
			c.pageIdx++
			c.loaded = false
			continue
		}
		c.off += n
		return rec, true
	}
}

// Record returns the record Next advanced to. The payload aliases the
// cursor's page buffer and is only valid until the next call to Next.
func (c *Cursor) Record() Record {
	return c.rec
}

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}
