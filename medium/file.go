package medium

import (
	"fmt"
	"os"
)

// File is a flash image backed by a regular file, used by host-side
// tooling (flashctl) and by collections running against an image instead
// of a device. On unix the image is memory-mapped and flushed with
// msync/fdatasync; elsewhere it falls back to ReadAt/WriteAt.
//
// File does not enforce the page-write-once constraint: a disk image has
// no erase cycles to wear out. Mem is the medium that polices the rule.
type File struct {
	geo  Geometry
	f    *os.File
	data []byte // nil when mmap is unavailable
}

// CreateFile creates an erased (0xFF-filled) flash image of the given
// geometry at path. The file must not already exist.
func CreateFile(path string, geo Geometry) (*File, error) {
	if err := geo.check(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("medium: create image: %w", err)
	}
	if err := fillErased(f, 0, geo.TotalSize()); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	return finishOpen(f, geo)
}

// OpenFile opens an existing flash image whose size must match the
// geometry exactly.
func OpenFile(path string, geo Geometry) (*File, error) {
	if err := geo.check(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("medium: open image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("medium: open image: %w", err)
	}
	if info.Size() != geo.TotalSize() {
		f.Close()
		return nil, fmt.Errorf("medium: image is %d bytes, geometry needs %d: %w",
			info.Size(), geo.TotalSize(), ErrBadGeometry)
	}
	return finishOpen(f, geo)
}

func finishOpen(f *os.File, geo Geometry) (*File, error) {
	data, err := mapImage(f, geo.TotalSize())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("medium: map image: %w", err)
	}
	return &File{geo: geo, f: f, data: data}, nil
}

// Geometry reports the fixed layout of the medium.
func (fm *File) Geometry() Geometry { return fm.geo }

// ReadMeta reads from the metadata area.
func (fm *File) ReadMeta(off int, p []byte) error {
	return fm.readAt(0, off, p)
}

// WriteMeta writes into the metadata area.
func (fm *File) WriteMeta(off int, p []byte) error {
	return fm.writeAt(0, off, p)
}

// Read reads from a region.
func (fm *File) Read(region uint32, off int, p []byte) error {
	base, err := fm.regionBase(region)
	if err != nil {
		return err
	}
	return fm.readAt(base, off, p)
}

// Write writes into a region.
func (fm *File) Write(region uint32, off int, p []byte) error {
	base, err := fm.regionBase(region)
	if err != nil {
		return err
	}
	return fm.writeAt(base, off, p)
}

// Erase fills a region with 0xFF.
func (fm *File) Erase(region uint32) error {
	base, err := fm.regionBase(region)
	if err != nil {
		return err
	}
	return fm.fillRegion(base)
}

// EraseMeta fills the metadata area with 0xFF, enabling destructive re-init.
func (fm *File) EraseMeta() error {
	if fm.f == nil {
		return ErrClosed
	}
	return fm.fillRegion(0)
}

// Sync flushes the mapping (when mapped) and the file descriptor.
func (fm *File) Sync() error {
	if fm.f == nil {
		return ErrClosed
	}
	if fm.data != nil {
		if err := syncMapping(fm.data); err != nil {
			return fmt.Errorf("medium: msync: %w", err)
		}
		if err := syncFD(fm.f); err != nil {
			return fmt.Errorf("medium: fdatasync: %w", err)
		}
		return nil
	}
	return fm.f.Sync()
}

// Close flushes and releases the image.
func (fm *File) Close() error {
	if fm.f == nil {
		return nil
	}
	var first error
	if fm.data != nil {
		first = unmapImage(fm.data)
		fm.data = nil
	}
	if err := fm.f.Close(); first == nil {
		first = err
	}
	fm.f = nil
	return first
}

func (fm *File) regionBase(region uint32) (int64, error) {
	if fm.f == nil {
		return 0, ErrClosed
	}
	if region >= fm.geo.RegionCount {
		return 0, fmt.Errorf("medium: region %d of %d: %w", region, fm.geo.RegionCount, ErrOutOfBounds)
	}
	return int64(fm.geo.RegionSize) * int64(region+1), nil
}

func (fm *File) readAt(base int64, off int, p []byte) error {
	if fm.f == nil {
		return ErrClosed
	}
	if off < 0 || off+len(p) > int(fm.geo.RegionSize) {
		return fmt.Errorf("medium: read [%d, %d) of %d: %w", off, off+len(p), fm.geo.RegionSize, ErrOutOfBounds)
	}
	abs := base + int64(off)
	if fm.data != nil {
		copy(p, fm.data[abs:])
		return nil
	}
	if _, err := fm.f.ReadAt(p, abs); err != nil {
		return fmt.Errorf("medium: read image: %w", err)
	}
	return nil
}

func (fm *File) writeAt(base int64, off int, p []byte) error {
	if fm.f == nil {
		return ErrClosed
	}
	if off < 0 || off+len(p) > int(fm.geo.RegionSize) {
		return fmt.Errorf("medium: write [%d, %d) of %d: %w", off, off+len(p), fm.geo.RegionSize, ErrOutOfBounds)
	}
	abs := base + int64(off)
	if fm.data != nil {
		copy(fm.data[abs:], p)
		return nil
	}
	if _, err := fm.f.WriteAt(p, abs); err != nil {
		return fmt.Errorf("medium: %v: %w", err, ErrWriteFault)
	}
	return nil
}

func (fm *File) fillRegion(base int64) error {
	size := int64(fm.geo.RegionSize)
	if fm.data != nil {
		for i := base; i < base+size; i++ {
			fm.data[i] = 0xFF
		}
		return nil
	}
	return fillErased(fm.f, base, size)
}

func fillErased(f *os.File, off, n int64) error {
	blank := make([]byte, 64*1024)
	for i := range blank {
		blank[i] = 0xFF
	}
	for n > 0 {
		chunk := int64(len(blank))
		if chunk > n {
			chunk = n
		}
		if _, err := f.WriteAt(blank[:chunk], off); err != nil {
			return fmt.Errorf("medium: fill erased: %w", err)
		}
		off += chunk
		n -= chunk
	}
	return nil
}
