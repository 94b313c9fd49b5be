package store

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/flashkit/flashkit/internal/format"
	"github.com/flashkit/flashkit/medium"
)

// Identity is the public view of a medium's one-time storage metadata.
type Identity struct {
	Version  uint32
	UUID     uuid.UUID
	Geometry medium.Geometry
}

// Identity returns the storage metadata the store was opened with.
func (s *Store) Identity() Identity {
	return Identity{
		Version: s.meta.Version,
		UUID:    s.meta.UUID,
		Geometry: medium.Geometry{
			PageSize:    s.meta.PageSize,
			RegionSize:  s.meta.RegionSize,
			RegionCount: s.meta.RegionCount,
		},
	}
}

// ProbeImage reads just the storage metadata record from a flash image
// file, without opening the whole store. Tooling uses it to learn an
// image's geometry and identity.
func ProbeImage(path string) (Identity, error) {
	f, err := os.Open(path)
	if err != nil {
		return Identity{}, fmt.Errorf("store: probe image: %w", err)
	}
	defer f.Close()
	metaBytes := make([]byte, format.MetaSize)
	if _, err := f.ReadAt(metaBytes, 0); err != nil {
		return Identity{}, fmt.Errorf("store: probe image: %w", err)
	}
	meta, err := format.ParseMeta(metaBytes)
	if err != nil {
		return Identity{}, fmt.Errorf("store: %v: %w", err, ErrCorruptMetadata)
	}
	if err := meta.ValidateGeometry(); err != nil {
		return Identity{}, fmt.Errorf("store: %v: %w", err, ErrCorruptMetadata)
	}
	return Identity{
		Version: meta.Version,
		UUID:    meta.UUID,
		Geometry: medium.Geometry{
			PageSize:    meta.PageSize,
			RegionSize:  meta.RegionSize,
			RegionCount: meta.RegionCount,
		},
	}, nil
}

// OpenImage opens a flash image file, deriving the medium geometry from
// the image's own metadata. The returned store owns the medium; Close
// releases it.
func OpenImage(path string, opts ...Option) (*Store, error) {
	ident, err := ProbeImage(path)
	if err != nil {
		return nil, err
	}
	fm, err := medium.OpenFile(path, ident.Geometry)
	if err != nil {
		return nil, err
	}
	s, err := Open(fm, opts...)
	if err != nil {
		fm.Close()
		return nil, err
	}
	return s, nil
}

// CreateImage creates a fresh flash image file with the given geometry and
// initializes a store on it.
func CreateImage(path string, geo medium.Geometry, opts ...Option) error {
	fm, err := medium.CreateFile(path, geo)
	if err != nil {
		return err
	}
	if err := Init(fm, opts...); err != nil {
		fm.Close()
		os.Remove(path)
		return err
	}
	return fm.Close()
}
