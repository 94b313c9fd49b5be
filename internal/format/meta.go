package format

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/flashkit/flashkit/internal/buf"
)

// Meta is the immutable storage metadata record written once at
// initialization, at a fixed offset preceding all regions. It is the only
// stable location on the medium, acceptable because it is written exactly
// once in the device's life.
type Meta struct {
	Version     uint32
	UUID        uuid.UUID
	PageSize    uint32
	RegionSize  uint32
	RegionCount uint32
}

// Encode writes the metadata record into b, which must hold at least
// MetaSize bytes.
func (m *Meta) Encode(b []byte) error {
	if len(b) < MetaSize {
		return fmt.Errorf("meta: need %d bytes, have %d: %w", MetaSize, len(b), ErrTruncated)
	}
	copy(b[0x00:], MetaMagic)
	buf.PutU32(b, 0x04, m.Version)
	copy(b[0x08:0x18], m.UUID[:])
	buf.PutU32(b, 0x18, m.PageSize)
	buf.PutU32(b, 0x1C, m.RegionSize)
	buf.PutU32(b, 0x20, m.RegionCount)
	buf.PutU32(b, 0x24, Checksum(b[:0x24]))
	return nil
}

// ParseMeta validates and extracts the storage metadata record from b.
func ParseMeta(b []byte) (Meta, error) {
	if len(b) < MetaSize {
		return Meta{}, fmt.Errorf("meta: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(MetaMagic)], MetaMagic) {
		return Meta{}, fmt.Errorf("meta: %w", ErrMagicMismatch)
	}
	if got, want := buf.U32(b, 0x24), Checksum(b[:0x24]); got != want {
		return Meta{}, fmt.Errorf("meta: crc 0x%08X != 0x%08X: %w", got, want, ErrChecksumMismatch)
	}
	m := Meta{
		Version:     buf.U32(b, 0x04),
		PageSize:    buf.U32(b, 0x18),
		RegionSize:  buf.U32(b, 0x1C),
		RegionCount: buf.U32(b, 0x20),
	}
	copy(m.UUID[:], b[0x08:0x18])
	if m.Version != Version {
		return Meta{}, fmt.Errorf("meta: version %d: %w", m.Version, ErrVersionUnknown)
	}
	return m, nil
}

// ValidateGeometry checks the internal consistency of the recorded
// geometry: power-of-two page-aligned regions, at least two regions, and
// room in a region for the header page plus the reserved free-pointer page.
func (m *Meta) ValidateGeometry() error {
	switch {
	case !IsPow2(m.PageSize):
		return fmt.Errorf("meta: page size %d not a power of two: %w", m.PageSize, ErrInvalidField)
	case !IsPow2(m.RegionSize):
		return fmt.Errorf("meta: region size %d not a power of two: %w", m.RegionSize, ErrInvalidField)
	case m.RegionSize%m.PageSize != 0:
		return fmt.Errorf("meta: region size %d not page-aligned: %w", m.RegionSize, ErrInvalidField)
	case m.RegionSize < 3*m.PageSize:
		return fmt.Errorf("meta: region size %d leaves no user data area: %w", m.RegionSize, ErrInvalidField)
	case m.RegionCount < 2:
		return fmt.Errorf("meta: region count %d < 2: %w", m.RegionCount, ErrInvalidField)
	case m.PageSize < MetaSize || int(m.PageSize) < FreePointerSize:
		return fmt.Errorf("meta: page size %d too small for records: %w", m.PageSize, ErrInvalidField)
	}
	return nil
}
