// Package format houses the bit-exact encoders and decoders for the
// on-media records: storage metadata, region headers, and free pointers.
// The goal is to keep the parsing focused, allocation-free where possible,
// and independent from the public API so higher-level packages can
// orchestrate the data in a more ergonomic form.
//
// All integers are little-endian. Every record carries a magic tag and a
// trailing CRC32-C checksum; a record that fails either check decodes as
// invalid, which the recovery scan treats as "this write never completed"
// rather than as a hard error.
package format

import "hash/crc32"

var (
	// MetaMagic is the four-byte tag at the start of the storage metadata
	// record, written once at initialization and never rewritten.
	MetaMagic = []byte{'F', 'S', 'M', 'T'}

	// HeaderMagic is the four-byte tag at the start of every region header.
	HeaderMagic = []byte{'F', 'S', 'H', 'D'}

	// FreePointerMagic is the four-byte tag at the start of a written free
	// pointer in a region's reserved trailing page.
	FreePointerMagic = []byte{'F', 'S', 'F', 'P'}
)

const (
	// Version is the current encoding version stamped into every record.
	Version = 1

	// MetaSize is the encoded size of the storage metadata record.
	//
	//	0x00  4   magic 'F' 'S' 'M' 'T'
	//	0x04  4   version
	//	0x08  16  storage UUID
	//	0x18  4   page size
	//	0x1C  4   region size
	//	0x20  4   region count
	//	0x24  4   CRC32-C of bytes [0x00, 0x24)
	MetaSize = 0x28

	// HeaderFixedSize is the encoded size of a region header before its
	// head table. The head table and CRC follow immediately.
	//
	//	0x00  4   magic 'F' 'S' 'H' 'D'
	//	0x04  4   version
	//	0x08  8   sequence
	//	0x10  8   collection id (0 for free markers and dummies)
	//	0x18  4   collection type
	//	0x1C  4   head count
	//	0x20  4   free list head region (NoRegion when absent)
	//	0x24  4   free list tail region (NoRegion when absent)
	//	0x28  ..  head entries, then CRC32-C of all preceding bytes
	HeaderFixedSize = 0x28

	// HeadEntrySize is the encoded size of one head table entry.
	//
	//	0x00  8   collection id
	//	0x08  4   head region
	//	0x0C  4   reserved, zero
	HeadEntrySize = 0x10

	// FreePointerSize is the encoded size of a free pointer record.
	//
	//	0x00  4   magic 'F' 'S' 'F' 'P'
	//	0x04  4   next tail region (NoRegion when the link ends a chain)
	//	0x08  32  SHA-256 of the linked-from region's header page
	//	0x28  4   CRC32-C of bytes [0x00, 0x28)
	FreePointerSize = 0x2C

	// HashSize is the size of the header digest stored in a free pointer.
	HashSize = 32

	// CRCSize is the size of the trailing checksum on every record.
	CRCSize = 4

	// NoRegion is the sentinel region index meaning "absent". Region
	// indices are plain integer handles into a fixed-size table, so the
	// all-ones value doubles as the erased-flash reading of the field.
	NoRegion uint32 = 0xFFFFFFFF
)

// crcTable is the Castagnoli polynomial table shared by all records.
var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC32-C of b.
func Checksum(b []byte) uint32 {
	return crc32.Checksum(b, crcTable)
}

// CollectionType tags the occupant of a region. TypeFree marks free-list
// members (dummy headers from initialization and free markers committed by
// Free); the remaining values are the collection kinds that can own a
// region's user data area.
type CollectionType uint32

const (
	TypeFree CollectionType = iota
	TypeWAL
	TypeMap
	TypeQueue
	TypeSet
	TypeLog
)

// Known reports whether t is a recognized collection type. Unrecognized
// values mark a header as structurally invalid.
func (t CollectionType) Known() bool {
	return t <= TypeLog
}

func (t CollectionType) String() string {
	switch t {
	case TypeFree:
		return "free"
	case TypeWAL:
		return "wal"
	case TypeMap:
		return "map"
	case TypeQueue:
		return "queue"
	case TypeSet:
		return "set"
	case TypeLog:
		return "log"
	default:
		return "unknown"
	}
}

// MaxHeads returns the number of head entries that fit in a header page of
// the given size.
func MaxHeads(pageSize int) int {
	n := (pageSize - HeaderFixedSize - CRCSize) / HeadEntrySize
	if n < 0 {
		return 0
	}
	return n
}

// IsPow2 reports whether v is a non-zero power of two.
func IsPow2(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}
