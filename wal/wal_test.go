package wal_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkit/flashkit/internal/testutil"
	"github.com/flashkit/flashkit/store"
	"github.com/flashkit/flashkit/wal"
)

// readAll drains a cursor, copying payloads of data records.
func readAll(t *testing.T, w *wal.WAL) [][]byte {
	t.Helper()
	var out [][]byte
	cur := w.NewCursor()
	for cur.Next() {
		rec := cur.Record()
		if rec.Kind != wal.KindData {
			continue
		}
		out = append(out, append([]byte(nil), rec.Payload...))
	}
	require.NoError(t, cur.Err())
	return out
}

func TestAppendCommitRead(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	want := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, p := range want {
		require.NoError(t, w.Append(p))
	}
	require.NoError(t, w.Commit())

	assert.Equal(t, want, readAll(t, w))

	// The commit record itself is visible to cursors.
	var kinds []wal.Kind
	cur := w.NewCursor()
	for cur.Next() {
		kinds = append(kinds, cur.Record().Kind)
	}
	require.NoError(t, cur.Err())
	assert.Equal(t, []wal.Kind{wal.KindData, wal.KindData, wal.KindData, wal.KindCommit}, kinds)
}

func TestEmptyLogReadsNothing(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	assert.Empty(t, readAll(t, w))
}

func TestReopenResumesAppending(t *testing.T) {
	s, m := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("before")))
	require.NoError(t, w.Commit())

	// Restart: both the store and the log are recovered from the medium.
	s2 := testutil.Reopen(t, m)
	w2, err := wal.Open(s2, store.WALCollection)
	require.NoError(t, err)
	require.NoError(t, w2.Append([]byte("after")))
	require.NoError(t, w2.Commit())

	assert.Equal(t, [][]byte{[]byte("before"), []byte("after")}, readAll(t, w2))
}

func TestUncommittedRecordsStayBuffered(t *testing.T) {
	s, m := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("committed")))
	require.NoError(t, w.Sync())
	require.NoError(t, w.Append([]byte("lost in the crash")))

	s2 := testutil.Reopen(t, m)
	w2, err := wal.Open(s2, store.WALCollection)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("committed")}, readAll(t, w2))
}

func TestGrowthClaimsChainedRegions(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	// Two 128-byte data pages per region: overflow the genesis region.
	var want [][]byte
	for i := 0; i < 12; i++ {
		p := []byte(fmt.Sprintf("record-%02d-padding-padding-padding", i))
		want = append(want, p)
		require.NoError(t, w.Append(p))
	}
	require.NoError(t, w.Commit())

	regions := w.Regions()
	require.Greater(t, len(regions), 1, "the log must have grown")
	assert.Equal(t, store.RegionIndex(0), regions[0])

	head, ok := s.GetHead(store.WALCollection)
	require.True(t, ok)
	assert.Equal(t, regions[len(regions)-1], head, "the newest region is the registered head")

	assert.Equal(t, want, readAll(t, w))
}

func TestChainSurvivesRestart(t *testing.T) {
	s, m := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	var want [][]byte
	for i := 0; i < 12; i++ {
		p := []byte(fmt.Sprintf("record-%02d-padding-padding-padding", i))
		want = append(want, p)
		require.NoError(t, w.Append(p))
	}
	require.NoError(t, w.Commit())
	wantRegions := w.Regions()

	s2 := testutil.Reopen(t, m)
	w2, err := wal.Open(s2, store.WALCollection)
	require.NoError(t, err)
	assert.Equal(t, wantRegions, w2.Regions())
	assert.Equal(t, want, readAll(t, w2))
}

func TestTruncateOldest(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	assert.ErrorIs(t, w.TruncateOldest(), wal.ErrTruncateHead, "a single-region log keeps its head")

	for i := 0; i < 12; i++ {
		require.NoError(t, w.Append([]byte(fmt.Sprintf("record-%02d-padding-padding-padding", i))))
	}
	require.NoError(t, w.Commit())
	regions := w.Regions()
	require.Greater(t, len(regions), 1)

	before := len(readAll(t, w))
	require.NoError(t, w.TruncateOldest())

	assert.Equal(t, regions[1:], w.Regions())
	assert.Less(t, len(readAll(t, w)), before, "records of the truncated region are gone")

	// The region went back to the store's free list.
	chain, err := s.FreeRegions()
	require.NoError(t, err)
	assert.Contains(t, chain, regions[0])
}

func TestCreateSecondLog(t *testing.T) {
	s, _ := testutil.NewStore(t)

	w, err := wal.Create(s, 9)
	require.NoError(t, err)
	require.NoError(t, w.Append([]byte("own lane")))
	require.NoError(t, w.Commit())
	assert.Equal(t, [][]byte{[]byte("own lane")}, readAll(t, w))

	_, err = wal.Create(s, 9)
	assert.ErrorIs(t, err, store.ErrInvalidCollection, "a collection gets one log")

	_, err = wal.Open(s, 12)
	assert.ErrorIs(t, err, wal.ErrNoLog)
}

func TestPayloadTooLarge(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := wal.Open(s, store.WALCollection)
	require.NoError(t, err)

	err = w.Append(make([]byte, w.MaxPayload()+1))
	assert.ErrorIs(t, err, wal.ErrRecordTooLarge)

	assert.NoError(t, w.Append(make([]byte, w.MaxPayload())))
}
