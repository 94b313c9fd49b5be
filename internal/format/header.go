package format

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/flashkit/flashkit/internal/buf"
)

// HeadEntry is one row of a header's collection directory: the region
// currently registered for a collection id.
type HeadEntry struct {
	Collection uint64
	Region     uint32
}

// Header is the root-snapshot record written at the start of a region when
// the region is claimed. Every header carries a full copy of the global
// state: the free-list boundary pointers and the head region of every live
// collection. The newest structurally valid header on the medium is the
// sole source of truth.
type Header struct {
	Version    uint32
	Sequence   uint64
	Collection uint64
	Type       CollectionType
	FreeHead   uint32
	FreeTail   uint32
	Heads      []HeadEntry
}

// EncodedLen returns the number of bytes Encode will produce.
func (h *Header) EncodedLen() int {
	return HeaderFixedSize + len(h.Heads)*HeadEntrySize + CRCSize
}

// Encode writes the header record into b. Head entries are sorted by
// collection id so equal snapshots always encode to identical bytes.
func (h *Header) Encode(b []byte) error {
	if len(b) < h.EncodedLen() {
		return fmt.Errorf("header: need %d bytes, have %d: %w", h.EncodedLen(), len(b), ErrTruncated)
	}
	heads := make([]HeadEntry, len(h.Heads))
	copy(heads, h.Heads)
	sort.Slice(heads, func(i, j int) bool { return heads[i].Collection < heads[j].Collection })

	copy(b[0x00:], HeaderMagic)
	buf.PutU32(b, 0x04, h.Version)
	buf.PutU64(b, 0x08, h.Sequence)
	buf.PutU64(b, 0x10, h.Collection)
	buf.PutU32(b, 0x18, uint32(h.Type))
	buf.PutU32(b, 0x1C, uint32(len(heads)))
	buf.PutU32(b, 0x20, h.FreeHead)
	buf.PutU32(b, 0x24, h.FreeTail)
	off := HeaderFixedSize
	for _, e := range heads {
		buf.PutU64(b, off, e.Collection)
		buf.PutU32(b, off+8, e.Region)
		buf.PutU32(b, off+12, 0)
		off += HeadEntrySize
	}
	buf.PutU32(b, off, Checksum(b[:off]))
	return nil
}

// ParseHeader validates and extracts a header record from b, typically a
// whole header page. A failure here means the header is structurally
// invalid; the recovery scan excludes such regions from root candidacy
// instead of treating the condition as fatal.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderFixedSize+CRCSize {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(HeaderMagic)], HeaderMagic) {
		return Header{}, fmt.Errorf("header: %w", ErrMagicMismatch)
	}
	count := int(buf.U32(b, 0x1C))
	if count > MaxHeads(len(b)) {
		return Header{}, fmt.Errorf("header: %d head entries exceed page capacity: %w", count, ErrInvalidField)
	}
	crcOff := HeaderFixedSize + count*HeadEntrySize
	if !buf.Has(b, crcOff, CRCSize) {
		return Header{}, fmt.Errorf("header: %w", ErrTruncated)
	}
	if got, want := buf.U32(b, crcOff), Checksum(b[:crcOff]); got != want {
		return Header{}, fmt.Errorf("header: crc 0x%08X != 0x%08X: %w", got, want, ErrChecksumMismatch)
	}
	h := Header{
		Version:    buf.U32(b, 0x04),
		Sequence:   buf.U64(b, 0x08),
		Collection: buf.U64(b, 0x10),
		Type:       CollectionType(buf.U32(b, 0x18)),
		FreeHead:   buf.U32(b, 0x20),
		FreeTail:   buf.U32(b, 0x24),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("header: version %d: %w", h.Version, ErrVersionUnknown)
	}
	if !h.Type.Known() {
		return Header{}, fmt.Errorf("header: collection type %d: %w", uint32(h.Type), ErrInvalidField)
	}
	if count > 0 {
		h.Heads = make([]HeadEntry, count)
		off := HeaderFixedSize
		for i := range h.Heads {
			h.Heads[i] = HeadEntry{
				Collection: buf.U64(b, off),
				Region:     buf.U32(b, off+8),
			}
			off += HeadEntrySize
		}
	}
	return h, nil
}

// Validate checks the header's cross-references against the region that
// holds it. A header never names its own region in the free-list pointers,
// every referenced region must be in range, collection ids in the head
// table are unique, and a non-free header's own collection entry points
// back at the owning region. Violations mark the header structurally
// invalid for root candidacy.
func (h *Header) Validate(owner, regionCount uint32) error {
	if err := checkRegionRef(h.FreeHead, owner, regionCount, "free list head"); err != nil {
		return err
	}
	if err := checkRegionRef(h.FreeTail, owner, regionCount, "free list tail"); err != nil {
		return err
	}
	if (h.FreeHead == NoRegion) != (h.FreeTail == NoRegion) {
		return fmt.Errorf("header: free list half-absent (head %s, tail %s): %w",
			regionString(h.FreeHead), regionString(h.FreeTail), ErrInvalidField)
	}
	if h.Type == TypeFree && h.Collection != 0 {
		return fmt.Errorf("header: free header claims collection %d: %w", h.Collection, ErrInvalidField)
	}
	if h.Type != TypeFree && h.Collection == 0 {
		return fmt.Errorf("header: %s header without collection id: %w", h.Type, ErrInvalidField)
	}
	seen := make(map[uint64]struct{}, len(h.Heads))
	ownEntry := false
	for _, e := range h.Heads {
		if e.Collection == 0 {
			return fmt.Errorf("header: head entry with reserved collection id 0: %w", ErrInvalidField)
		}
		if _, dup := seen[e.Collection]; dup {
			return fmt.Errorf("header: duplicate head entry for collection %d: %w", e.Collection, ErrInvalidField)
		}
		seen[e.Collection] = struct{}{}
		if e.Region >= regionCount {
			return fmt.Errorf("header: head of collection %d out of range (%d): %w", e.Collection, e.Region, ErrInvalidField)
		}
		if e.Collection == h.Collection {
			if e.Region != owner {
				return fmt.Errorf("header: own head entry points to region %d, not %d: %w", e.Region, owner, ErrInvalidField)
			}
			ownEntry = true
		}
	}
	if h.Type != TypeFree && !ownEntry {
		return fmt.Errorf("header: collection %d missing from own head table: %w", h.Collection, ErrInvalidField)
	}
	return nil
}

func checkRegionRef(r, owner, regionCount uint32, what string) error {
	if r == NoRegion {
		return nil
	}
	if r >= regionCount {
		return fmt.Errorf("header: %s out of range (%d): %w", what, r, ErrInvalidField)
	}
	if r == owner {
		return fmt.Errorf("header: %s references owning region %d: %w", what, owner, ErrInvalidField)
	}
	return nil
}

func regionString(r uint32) string {
	if r == NoRegion {
		return "none"
	}
	return fmt.Sprintf("%d", r)
}

// HashHeaderPage digests a full header page. Free pointers record this
// digest at link-write time so a pop can prove the link still describes
// the header it was written against.
func HashHeaderPage(page []byte) [HashSize]byte {
	return sha256.Sum256(page)
}
