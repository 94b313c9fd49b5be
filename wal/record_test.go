package wal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashkit/flashkit/internal/testutil"
)

func sealedPage(records ...Record) []byte {
	page := erasedPage(128)
	off := 0
	for _, r := range records {
		off += encodeRecord(page[off:], r.Kind, 1, r.Payload)
	}
	return page
}

func TestRecordStream(t *testing.T) {
	page := sealedPage(
		Record{Kind: KindData, Payload: []byte("alpha")},
		Record{Kind: KindCommit},
	)

	rec, n, ok, err := parseRecord(page, 0, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindData, rec.Kind)
	assert.Equal(t, []byte("alpha"), rec.Payload)

	rec, n2, ok, err := parseRecord(page, n, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindCommit, rec.Kind)
	assert.Empty(t, rec.Payload)

	// Past the last record: sealed padding, clean stop.
	_, _, ok, err = parseRecord(page, n+n2, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordRejectsDamage(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(page []byte)
	}{
		{"payload bit flip", func(page []byte) { page[14] ^= 0x01 }},
		{"unknown kind", func(page []byte) { page[4] = 0x7E }},
		{"length overruns page", func(page []byte) { page[0] = 0xF0; page[1] = 0x00 }},
		{"undersized body", func(page []byte) { page[0] = 0x02 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := sealedPage(Record{Kind: KindData, Payload: []byte("alpha")})
			tt.mutate(page)
			_, _, _, err := parseRecord(page, 0, 1)
			assert.ErrorIs(t, err, ErrCorruptRecord)
		})
	}
}

func TestRecordWrongOwner(t *testing.T) {
	page := sealedPage(Record{Kind: KindData, Payload: []byte("alpha")})

	_, _, _, err := parseRecord(page, 0, 2)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

// A reused region can open with intact records from a prior occupant when
// the erase policy leaves wiping to someone else. Recovery must reject the
// stale bytes as an absent link and carry on, not fail the open.
func TestOpenSkipsStaleFirstRecord(t *testing.T) {
	s, _ := testutil.NewStore(t)
	w, err := Create(s, 9)
	require.NoError(t, err)

	page := erasedPage(w.pageSize)
	encodeRecord(page, KindData, 99, []byte("stale"))
	require.NoError(t, s.WriteUserData(w.head(), 0, page))

	w2, err := Open(s, 9)
	require.NoError(t, err)
	require.NoError(t, w2.Append([]byte("fresh")))
	require.NoError(t, w2.Sync())
}

func TestLinkPayload(t *testing.T) {
	prev, prevSeq, err := decodeLinkPayload(encodeLinkPayload(3, 41))
	require.NoError(t, err)
	assert.Equal(t, 3, int(prev))
	assert.Equal(t, uint64(41), prevSeq)

	_, _, err = decodeLinkPayload([]byte{0x01})
	assert.ErrorIs(t, err, ErrCorruptRecord)
}
