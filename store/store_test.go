package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkit/flashkit/internal/testutil"
	"github.com/flashkit/flashkit/store"
)

func TestUserDataRoundTrip(t *testing.T) {
	s, m := testutil.NewStore(t)
	r, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)

	// Two user pages per region at the test geometry.
	assert.Equal(t, 256, s.UserDataSize())

	want := []byte("collection payload bytes")
	require.NoError(t, s.WriteUserData(r, 0, want))
	require.NoError(t, s.Sync())

	got := make([]byte, len(want))
	require.NoError(t, s.ReadUserData(r, 0, got))
	assert.Equal(t, want, got)

	// User data is plain region space: it survives a reopen untouched.
	s2 := testutil.Reopen(t, m)
	got = make([]byte, len(want))
	require.NoError(t, s2.ReadUserData(r, 0, got))
	assert.Equal(t, want, got)
}

func TestUserDataBounds(t *testing.T) {
	s, _ := testutil.NewStore(t)
	r, err := s.Allocate(7, store.TypeMap)
	require.NoError(t, err)

	p := make([]byte, 8)
	assert.ErrorIs(t, s.ReadUserData(r, s.UserDataSize()-4, p), store.ErrInvalidRegion,
		"reads never reach the reserved free-pointer page")
	assert.ErrorIs(t, s.WriteUserData(r, -1, p), store.ErrInvalidRegion)
	assert.ErrorIs(t, s.ReadUserData(100, 0, p), store.ErrInvalidRegion)
}

func TestRegionInfoReportsWithoutFailing(t *testing.T) {
	s, m := testutil.NewStore(t)
	r, err := s.Allocate(7, store.TypeQueue)
	require.NoError(t, err)

	info, err := s.RegionInfo(r)
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, store.CollectionID(7), info.Collection)
	assert.Equal(t, store.TypeQueue, info.Type)
	assert.Equal(t, uint64(1), info.Sequence)

	// A smashed header downgrades the report, it does not error.
	m.Bytes()[headerOffset(m, r)] ^= 0xFF
	info, err = s.RegionInfo(r)
	require.NoError(t, err)
	assert.False(t, info.Valid)
}

func TestIdentityMatchesInit(t *testing.T) {
	s, _ := testutil.NewStore(t)

	id := s.Identity()
	assert.Equal(t, testutil.Geometry(), id.Geometry)
	assert.Equal(t, s.UUID(), id.UUID)
	assert.NotZero(t, id.UUID)
}
