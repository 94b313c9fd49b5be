package medium

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGeometry() Geometry {
	return Geometry{PageSize: 128, RegionSize: 512, RegionCount: 8}
}

func newMem(t *testing.T) *Mem {
	t.Helper()
	m, err := NewMem(testGeometry())
	require.NoError(t, err)
	return m
}

func TestNewMemReadsErased(t *testing.T) {
	m := newMem(t)

	p := make([]byte, 512)
	require.NoError(t, m.Read(0, 0, p))
	for i, b := range p {
		require.Equal(t, byte(0xFF), b, "byte %d", i)
	}
}

func TestNewMemRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		geo  Geometry
	}{
		{"non-power-of-two page size", Geometry{PageSize: 100, RegionSize: 500, RegionCount: 2}},
		{"non-power-of-two region size", Geometry{PageSize: 128, RegionSize: 384, RegionCount: 2}},
		{"region smaller than page", Geometry{PageSize: 512, RegionSize: 128, RegionCount: 2}},
		{"zero region count", Geometry{PageSize: 128, RegionSize: 512, RegionCount: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMem(tt.geo)
			assert.ErrorIs(t, err, ErrBadGeometry)
		})
	}
}

func TestWriteOnce(t *testing.T) {
	m := newMem(t)
	page := make([]byte, 128)

	require.NoError(t, m.Write(2, 0, page))
	err := m.Write(2, 0, page)
	assert.ErrorIs(t, err, ErrPageRewrite, "reprogramming a written page")

	// Other pages of the region are still programmable.
	require.NoError(t, m.Write(2, 128, page))

	// Any byte overlap with a written page trips the rule too.
	err = m.Write(2, 128+64, page[:8])
	assert.ErrorIs(t, err, ErrPageRewrite)
}

func TestEraseResetsWrittenState(t *testing.T) {
	m := newMem(t)
	page := []byte{0x01, 0x02, 0x03, 0x04}

	require.NoError(t, m.Write(2, 0, page))
	require.NoError(t, m.Erase(2))

	p := make([]byte, 4)
	require.NoError(t, m.Read(2, 0, p))
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, p)

	require.NoError(t, m.Write(2, 0, page), "erase re-enables programming")

	// Erasing one region must not unlock its neighbors.
	require.NoError(t, m.Write(3, 0, page))
	require.NoError(t, m.Erase(2))
	assert.ErrorIs(t, m.Write(3, 0, page), ErrPageRewrite)
}

func TestBoundsChecks(t *testing.T) {
	m := newMem(t)
	p := make([]byte, 8)

	assert.ErrorIs(t, m.Read(8, 0, p), ErrOutOfBounds, "region out of range")
	assert.ErrorIs(t, m.Write(0, 512-4, p), ErrOutOfBounds, "write past region end")
	assert.ErrorIs(t, m.Read(0, -1, p), ErrOutOfBounds)
}

func TestFailWrites(t *testing.T) {
	m := newMem(t)
	page := make([]byte, 128)

	m.FailWrites(2)
	require.NoError(t, m.Write(0, 0, page))
	assert.ErrorIs(t, m.Write(0, 128, page), ErrWriteFault)

	// The fault is one-shot and nothing of the failed write persisted.
	p := make([]byte, 128)
	require.NoError(t, m.Read(0, 128, p))
	assert.Equal(t, byte(0xFF), p[0])
	require.NoError(t, m.Write(0, 128, page))
}

func TestTearWrite(t *testing.T) {
	m := newMem(t)
	page := make([]byte, 128)
	for i := range page {
		page[i] = 0xAB
	}

	m.TearWrite(16)
	assert.ErrorIs(t, m.Write(1, 0, page), ErrWriteFault)

	p := make([]byte, 128)
	require.NoError(t, m.Read(1, 0, p))
	assert.Equal(t, byte(0xAB), p[0])
	assert.Equal(t, byte(0xAB), p[15])
	assert.Equal(t, byte(0xFF), p[16], "bytes past the tear stay erased")

	// The torn page counts as written until erased.
	assert.ErrorIs(t, m.Write(1, 0, page), ErrPageRewrite)
}

func TestMetaAreaIsSeparate(t *testing.T) {
	m := newMem(t)
	meta := []byte{0xDE, 0xAD}

	require.NoError(t, m.WriteMeta(0, meta))
	require.NoError(t, m.Write(0, 0, meta), "region 0 is distinct from the metadata area")

	p := make([]byte, 2)
	require.NoError(t, m.ReadMeta(0, p))
	assert.Equal(t, meta, p)

	require.NoError(t, m.EraseMeta())
	require.NoError(t, m.ReadMeta(0, p))
	assert.Equal(t, []byte{0xFF, 0xFF}, p)
}

func TestClosedMediumRejectsAccess(t *testing.T) {
	m := newMem(t)
	require.NoError(t, m.Close())

	p := make([]byte, 8)
	assert.ErrorIs(t, m.Read(0, 0, p), ErrClosed)
	assert.ErrorIs(t, m.Write(0, 0, p), ErrClosed)
	assert.ErrorIs(t, m.Sync(), ErrClosed)
}
