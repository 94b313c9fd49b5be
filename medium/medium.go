package medium

import "fmt"

// Geometry describes the fixed layout of a medium: the metadata area (one
// region-sized reservation at the start) followed by RegionCount regions of
// RegionSize bytes, programmed in PageSize units.
type Geometry struct {
	PageSize    uint32
	RegionSize  uint32
	RegionCount uint32
}

// TotalSize returns the number of addressable bytes the geometry spans,
// metadata area included.
func (g Geometry) TotalSize() int64 {
	return int64(g.RegionSize) * (int64(g.RegionCount) + 1)
}

func (g Geometry) check() error {
	switch {
	case g.PageSize == 0 || g.RegionSize == 0 || g.RegionCount == 0:
		return fmt.Errorf("medium: zero geometry field: %w", ErrBadGeometry)
	case g.PageSize&(g.PageSize-1) != 0:
		return fmt.Errorf("medium: page size %d not a power of two: %w", g.PageSize, ErrBadGeometry)
	case g.RegionSize&(g.RegionSize-1) != 0:
		return fmt.Errorf("medium: region size %d not a power of two: %w", g.RegionSize, ErrBadGeometry)
	case g.RegionSize%g.PageSize != 0:
		return fmt.Errorf("medium: region size %d not a multiple of page size %d: %w",
			g.RegionSize, g.PageSize, ErrBadGeometry)
	}
	return nil
}

// Medium is the read/write/erase surface the store consumes. Offsets are
// region-relative; the metadata area has its own accessors because it
// precedes region 0 and is written exactly once in the device's life.
type Medium interface {
	// Geometry reports the fixed layout of the medium.
	Geometry() Geometry

	// ReadMeta reads from the metadata area at the given byte offset.
	ReadMeta(off int, p []byte) error

	// WriteMeta programs bytes into the metadata area.
	WriteMeta(off int, p []byte) error

	// Read reads from a region at the given byte offset.
	Read(region uint32, off int, p []byte) error

	// Write programs bytes into a region. Implementations that model
	// flash fail with ErrPageRewrite when a page is programmed twice
	// without an intervening erase.
	Write(region uint32, off int, p []byte) error

	// Erase resets a whole region to the erased state (0xFF).
	Erase(region uint32) error

	// Sync makes completed writes durable.
	Sync() error

	// Close releases the medium. The medium is unusable afterwards.
	Close() error
}

// MetaEraser is implemented by media whose metadata area can be erased.
// Destructive re-initialization requires it.
type MetaEraser interface {
	EraseMeta() error
}
