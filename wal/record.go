package wal

import (
	"fmt"

	"github.com/flashkit/flashkit/internal/buf"
	"github.com/flashkit/flashkit/internal/format"
	"github.com/flashkit/flashkit/store"
)

// Kind discriminates log record types.
type Kind uint8

const (
	// KindData carries an application payload.
	KindData Kind = 1
	// KindLink stamps a region with the identity of the region that
	// precedes it in the log. It is always the first record of every
	// region except the oldest.
	KindLink Kind = 2
	// KindCommit marks everything appended before it as durable intent.
	KindCommit Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindLink:
		return "link"
	case KindCommit:
		return "commit"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) known() bool {
	return k == KindData || k == KindLink || k == KindCommit
}

// Record is one decoded log entry.
type Record struct {
	Kind    Kind
	Payload []byte
}

// On-page framing: a u32 length prefix followed by the body. The body is
// the kind byte, the owning collection id, the payload, and a trailing
// CRC32-C over everything before it. Pages are sealed by filling the
// remainder with erased bytes, so a length of 0 or 0xFFFFFFFF means the
// rest of the page is padding.
const (
	recordLenSize  = 4
	recordBodyMin  = 1 + 8 + format.CRCSize
	recordOverhead = recordLenSize + recordBodyMin

	padSentinel = 0xFFFFFFFF
)

// linkPayloadSize is a region index plus the header sequence the linked
// region carried when the link was written.
const linkPayloadSize = 4 + 8

func encodeLinkPayload(prev store.RegionIndex, prevSeq uint64) []byte {
	p := make([]byte, linkPayloadSize)
	buf.PutU32(p, 0, uint32(prev))
	buf.PutU64(p, 4, prevSeq)
	return p
}

func decodeLinkPayload(p []byte) (store.RegionIndex, uint64, error) {
	if len(p) != linkPayloadSize {
		return store.NoRegion, 0, fmt.Errorf("wal: link payload is %d bytes: %w", len(p), ErrCorruptRecord)
	}
	return store.RegionIndex(buf.U32(p, 0)), buf.U64(p, 4), nil
}

// encodeRecord appends the framed record to dst, which the caller has
// sized already. It returns the number of bytes written.
func encodeRecord(dst []byte, k Kind, id store.CollectionID, payload []byte) int {
	bodyLen := recordBodyMin + len(payload)
	buf.PutU32(dst, 0, uint32(bodyLen))
	body := dst[recordLenSize : recordLenSize+bodyLen]
	body[0] = byte(k)
	buf.PutU64(body, 1, uint64(id))
	copy(body[9:], payload)
	buf.PutU32(body, bodyLen-format.CRCSize, format.Checksum(body[:bodyLen-format.CRCSize]))
	return recordLenSize + bodyLen
}

// parseRecord decodes the record starting at off within a sealed page.
// ok is false when off points at padding or past the last record; the
// remainder of the page holds nothing further in that case.
func parseRecord(page []byte, off int, id store.CollectionID) (rec Record, n int, ok bool, err error) {
	if !buf.Has(page, off, recordLenSize) {
		return Record{}, 0, false, nil
	}
	bodyLen := buf.U32(page, off)
	if bodyLen == 0 || bodyLen == padSentinel {
		return Record{}, 0, false, nil
	}
	body, fits := buf.Slice(page, off+recordLenSize, int(bodyLen))
	if !fits || int(bodyLen) < recordBodyMin {
		return Record{}, 0, false, fmt.Errorf("wal: record length %d at offset %d: %w", bodyLen, off, ErrCorruptRecord)
	}
	crcAt := int(bodyLen) - format.CRCSize
	if buf.U32(body, crcAt) != format.Checksum(body[:crcAt]) {
		return Record{}, 0, false, fmt.Errorf("wal: record checksum mismatch at offset %d: %w", off, ErrCorruptRecord)
	}
	k := Kind(body[0])
	if !k.known() {
		return Record{}, 0, false, fmt.Errorf("wal: unknown record kind %d at offset %d: %w", body[0], off, ErrCorruptRecord)
	}
	if got := store.CollectionID(buf.U64(body, 1)); got != id {
		return Record{}, 0, false, fmt.Errorf("wal: record owned by collection %d, expected %d: %w",
			uint64(got), uint64(id), ErrCorruptRecord)
	}
	return Record{Kind: k, Payload: body[9:crcAt]}, recordLenSize + int(bodyLen), true, nil
}
