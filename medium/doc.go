// Package medium abstracts the physical storage under the region store: a
// metadata area followed by a fixed table of equally-sized regions, each
// addressed by index.
//
// The single hard constraint of the interface is the flash programming
// rule: each physical page within a region may be written at most once
// between erasures. Mem, the in-memory simulator, enforces the rule and is
// the medium used by tests (including crash-injection tests, via its fault
// hooks). File maps a flash image file for host-side tooling; it persists
// with msync/fdatasync but does not police the write-once rule, since an
// image on disk has no erase cycles to violate.
//
// Erase scheduling is a caller-level policy. The store only ever erases
// through its configured erase policy hook; the medium just exposes the
// primitive.
package medium
