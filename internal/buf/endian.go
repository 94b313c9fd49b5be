// Package buf contains helpers for endian-safe encoding and decoding of
// on-media records, plus bounds checks for untrusted lengths read back
// from flash.
package buf

import "encoding/binary"

// U16 reads a little-endian uint16 at off. Returns 0 when b is too short.
func U16(b []byte, off int) uint16 {
	if off < 0 || off+2 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[off:])
}

// U32 reads a little-endian uint32 at off. Returns 0 when b is too short.
func U32(b []byte, off int) uint32 {
	if off < 0 || off+4 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off:])
}

// U64 reads a little-endian uint64 at off. Returns 0 when b is too short.
func U64(b []byte, off int) uint64 {
	if off < 0 || off+8 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[off:])
}

// PutU16 writes a little-endian uint16 at off. The caller guarantees bounds.
func PutU16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// PutU32 writes a little-endian uint32 at off. The caller guarantees bounds.
func PutU32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// PutU64 writes a little-endian uint64 at off. The caller guarantees bounds.
func PutU64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}
