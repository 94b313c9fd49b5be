package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkit/flashkit/internal/format"
	"github.com/flashkit/flashkit/internal/testutil"
	"github.com/flashkit/flashkit/medium"
	"github.com/flashkit/flashkit/store"
)

// headerOffset locates a region's header page inside the raw backing
// array: the metadata area occupies one region-sized slot before region 0.
func headerOffset(m *medium.Mem, r store.RegionIndex) int {
	return int(m.Geometry().RegionSize) * (int(r) + 1)
}

// plantHeader injects a raw header page, bypassing the write-once rule the
// way on-media corruption would.
func plantHeader(t *testing.T, m *medium.Mem, r store.RegionIndex, h format.Header) {
	t.Helper()
	page := make([]byte, m.Geometry().PageSize)
	for i := range page {
		page[i] = 0xFF
	}
	require.NoError(t, h.Encode(page))
	copy(m.Bytes()[headerOffset(m, r):], page)
}

func TestOpenIsIdempotent(t *testing.T) {
	s, m := testutil.NewStore(t)
	_, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)
	want := s.Root()

	s2 := testutil.Reopen(t, m)
	assert.Equal(t, want, s2.Root())

	s3 := testutil.Reopen(t, m)
	assert.Equal(t, want, s3.Root())
}

func TestOpenUnformattedMedium(t *testing.T) {
	m := testutil.NewMedium(t)

	_, err := store.Open(m)
	assert.ErrorIs(t, err, store.ErrCorruptMetadata)
}

func TestTornHeaderRollsBackToPreviousRoot(t *testing.T) {
	s, m := testutil.NewStore(t)
	r, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)
	require.Equal(t, uint64(1), s.Root().Sequence)

	// Damage the newest header the way a torn write would.
	m.Bytes()[headerOffset(m, r)+0x10] ^= 0x40

	s2 := testutil.Reopen(t, m)
	root := s2.Root()
	assert.Equal(t, uint64(0), root.Sequence, "recovery falls back to the last intact commit")
	assert.Equal(t, store.RegionIndex(0), root.Root)
	_, ok := s2.GetHead(7)
	assert.False(t, ok, "the torn allocation never happened")
}

func TestDuplicateSequenceIsAmbiguous(t *testing.T) {
	s, m := testutil.NewStore(t)
	_, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)

	// Plant a second structurally valid header carrying the same
	// sequence in region 2.
	plantHeader(t, m, 2, format.Header{
		Version:    format.Version,
		Sequence:   1,
		Collection: 9,
		Type:       format.TypeMap,
		FreeHead:   3,
		FreeTail:   7,
		Heads:      []format.HeadEntry{{Collection: 9, Region: 2}},
	})

	_, err = store.Open(m)
	assert.ErrorIs(t, err, store.ErrAmbiguousRoot)
}

func TestInconsistentHeadDirectoryRefused(t *testing.T) {
	_, m := testutil.NewStore(t)

	// A winning header whose directory names a region that does not
	// claim the collection. Region 3 still holds an init dummy.
	plantHeader(t, m, 2, format.Header{
		Version:    format.Version,
		Sequence:   50,
		Collection: 9,
		Type:       format.TypeMap,
		FreeHead:   4,
		FreeTail:   7,
		Heads: []format.HeadEntry{
			{Collection: 9, Region: 2},
			{Collection: 5, Region: 3},
		},
	})

	_, err := store.Open(m)
	assert.ErrorIs(t, err, store.ErrCorruptMetadata)
}

func TestRecoveryAppendsFreeMarkerRegion(t *testing.T) {
	s, m := testutil.NewStore(t)

	// Claim two regions for one collection, then free the orphaned one.
	// The free marker commit lives in the freed region itself.
	r1, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)
	_, err = s.Allocate(7, store.TypeMap)
	require.NoError(t, err)
	require.NoError(t, s.Free(r1))
	want := s.Root()
	require.Equal(t, r1, want.FreeTail)

	s2 := testutil.Reopen(t, m)
	root := s2.Root()
	assert.Equal(t, want.Sequence, root.Sequence)
	assert.Equal(t, r1, root.Root, "the marker is the newest commit")
	assert.Equal(t, want.FreeHead, root.FreeHead)
	assert.Equal(t, r1, root.FreeTail, "recovery appends the marker's own region as tail")
}

func TestRecoveryWithSingleFreedRegion(t *testing.T) {
	// Drain the free list completely, then free one region: the marker
	// records an empty list, and recovery must self-append it as both
	// head and tail.
	s, m := testutil.NewStore(t)
	var regions []store.RegionIndex
	for {
		r, err := s.Allocate(7, store.TypeMap)
		if err != nil {
			require.ErrorIs(t, err, store.ErrOutOfSpace)
			break
		}
		regions = append(regions, r)
	}
	require.Len(t, regions, 7)
	require.NoError(t, s.Free(regions[0]))

	s2 := testutil.Reopen(t, m)
	root := s2.Root()
	assert.Equal(t, regions[0], root.FreeHead)
	assert.Equal(t, regions[0], root.FreeTail)

	got, err := s2.Allocate(8, store.TypeQueue)
	require.NoError(t, err)
	assert.Equal(t, regions[0], got)
}
