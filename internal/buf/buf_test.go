package buf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadsReturnZeroOutOfBounds(t *testing.T) {
	b := []byte{0x01, 0x02, 0x03}

	assert.Equal(t, uint16(0x0201), U16(b, 0))
	assert.Equal(t, uint16(0), U16(b, 2), "partial read past the end")
	assert.Equal(t, uint32(0), U32(b, 0), "three bytes cannot hold a u32")
	assert.Equal(t, uint64(0), U64(b, -1))
}

func TestSliceBounds(t *testing.T) {
	b := make([]byte, 8)

	got, ok := Slice(b, 4, 4)
	require.True(t, ok)
	assert.Len(t, got, 4)

	_, ok = Slice(b, 4, 5)
	assert.False(t, ok)

	_, ok = Slice(b, -1, 2)
	assert.False(t, ok)

	// Overflowing off+n must not wrap around into bounds.
	_, ok = Slice(b, 4, int(^uint(0)>>1))
	assert.False(t, ok)

	assert.True(t, Has(b, 8, 0), "zero-length slice at the end is in bounds")
}

func TestBlank(t *testing.T) {
	erased := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	zeroed := []byte{0x00, 0x00, 0x00, 0x00}
	written := []byte{0xFF, 0xFF, 0x07, 0xFF}
	mixed := []byte{0xFF, 0x00, 0xFF, 0x00}

	assert.True(t, Blank(erased))
	assert.True(t, Blank(zeroed), "zero-filled images count as never written")
	assert.True(t, Blank(nil))
	assert.False(t, Blank(written))
	assert.False(t, Blank(mixed), "mixing fill bytes means something wrote here")
}
