// Package store implements a region-based storage allocator for raw flash
// and other byte-addressable persistent media on devices without a
// filesystem.
//
// # Overview
//
// The medium is divided into fixed-size regions. Multiple independent
// collections (maps, queues, sets, logs) share the region table; the store
// hands regions out in O(1), takes them back in O(1), and reuses the
// region that has been free the longest (strict FIFO), which spreads wear
// evenly across the device.
//
// There is no superblock. Every region begins with a Header that carries a
// complete copy-on-write snapshot of the global state: the free-list
// boundaries and the head region of every live collection, tagged with a
// strictly monotonic sequence. Every mutating operation writes exactly one
// new Header, so every write doubles as a potential new root. Open scans
// all regions and the newest structurally valid Header wins; a torn final
// write simply never wins the scan, leaving the previous root
// authoritative.
//
// # Usage
//
//	m, err := medium.NewMem(medium.Geometry{
//		PageSize:    256,
//		RegionSize:  4096,
//		RegionCount: 64,
//	})
//	if err != nil {
//		return err
//	}
//	if err := store.Init(m); err != nil {
//		return err
//	}
//	s, err := store.Open(m)
//	if err != nil {
//		return err
//	}
//
//	r, err := s.Allocate(7, store.TypeMap)
//	if err != nil {
//		return err
//	}
//	// Lay out collection data in the region's user area...
//	err = s.WriteUserData(r, 0, payload)
//
//	// Later, give the region back (oldest-first is the collection's
//	// policy; the store performs the mechanical free-list append).
//	err = s.Free(r)
//
// # Free-list linkage
//
// Free regions form a chain through lazily-written FreePointers in each
// region's reserved trailing page. The pointer is not written when a
// region is freed; it is written when the next region is freed onto the
// tail. The current tail therefore always has an unwritten pointer, which
// is exactly what the flash write-once rule requires.
//
// # Concurrency
//
// One logical writer owns the store; allocate, free, and commit are
// serialized by that owner. Snapshot reads of committed state are safe
// concurrently because written headers are immutable.
//
// # Related packages
//
//   - github.com/flashkit/flashkit/medium: the physical read/write/erase
//     surface, including the in-memory flash simulator.
//   - github.com/flashkit/flashkit/store/verify: invariant checks over a
//     recovered store, used by tests and flashctl.
//   - github.com/flashkit/flashkit/wal: a write-ahead-log collection built
//     on the store's public interface.
package store
