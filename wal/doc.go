// Package wal implements an append-only log on top of a region store.
//
// # Overview
//
// A log occupies a chain of regions claimed by one collection. Records
// are buffered into page-sized chunks and written a whole page at a
// time, so the log honors write-once media: a page is written exactly
// once, sealed with erased bytes past the last record. When the head
// region fills, the writer claims a fresh region from the store's free
// list; the claim is a root commit, so a recovered store always knows
// the newest region of every log.
//
// Each region except the oldest opens with a link record stamping the
// region that precedes it and the header sequence that region was
// claimed with. Recovery orders the chain by header sequence alone and
// uses the stamps as a cross-check, which makes a crash between the
// claiming commit and the stamp harmless: Open notices the blank head
// and owes the stamp to the next append.
//
// Old records are reclaimed a region at a time: TruncateOldest hands the
// oldest member back to the free list, where FIFO reuse spreads wear
// across the media.
//
// # Usage
//
//	s, _ := store.Open(m)
//	w, err := wal.Open(s, store.WALCollection)
//	if err != nil { ... }
//	_ = w.Append([]byte("payload"))
//	_ = w.Commit()
//
//	cur := w.NewCursor()
//	for cur.Next() {
//		rec := cur.Record()
//		...
//	}
//	if err := cur.Err(); err != nil { ... }
//
// A WAL is single-writer; callers needing concurrency serialize above
// this package, same as for the store itself.
package wal
