package format

import (
	"bytes"
	"fmt"

	"github.com/flashkit/flashkit/internal/buf"
)

// FreePointer is the lazily-written link stored in a region's reserved
// trailing page. It is not written when the region itself is freed; it is
// written later, when the next region is freed onto the free-list tail.
// Until then the page stays erased, which is why an erased page decodes as
// "absent" rather than as corruption.
type FreePointer struct {
	NextTail   uint32
	HeaderHash [HashSize]byte
}

// Encode writes the free pointer record into b, which must hold at least
// FreePointerSize bytes.
func (fp *FreePointer) Encode(b []byte) error {
	if len(b) < FreePointerSize {
		return fmt.Errorf("freeptr: need %d bytes, have %d: %w", FreePointerSize, len(b), ErrTruncated)
	}
	copy(b[0x00:], FreePointerMagic)
	buf.PutU32(b, 0x04, fp.NextTail)
	copy(b[0x08:0x08+HashSize], fp.HeaderHash[:])
	buf.PutU32(b, 0x28, Checksum(b[:0x28]))
	return nil
}

// ParseFreePointer extracts a free pointer from the reserved trailing page.
// It returns ok = false with a nil error when the page has never been
// written since the last erase.
func ParseFreePointer(b []byte) (fp FreePointer, ok bool, err error) {
	if buf.Blank(b) {
		return FreePointer{}, false, nil
	}
	if len(b) < FreePointerSize {
		return FreePointer{}, false, fmt.Errorf("freeptr: %w", ErrTruncated)
	}
	if !bytes.Equal(b[:len(FreePointerMagic)], FreePointerMagic) {
		return FreePointer{}, false, fmt.Errorf("freeptr: %w", ErrMagicMismatch)
	}
	if got, want := buf.U32(b, 0x28), Checksum(b[:0x28]); got != want {
		return FreePointer{}, false, fmt.Errorf("freeptr: crc 0x%08X != 0x%08X: %w", got, want, ErrChecksumMismatch)
	}
	fp.NextTail = buf.U32(b, 0x04)
	copy(fp.HeaderHash[:], b[0x08:0x08+HashSize])
	return fp, true, nil
}
