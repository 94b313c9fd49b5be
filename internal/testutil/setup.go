// Package testutil provides fixtures shared by the store, wal, and
// medium test suites: a canonical small geometry and helpers that hand
// back a formatted in-memory medium or an opened store.
package testutil

import (
	"testing"

	"github.com/flashkit/flashkit/medium"
	"github.com/flashkit/flashkit/store"
)

// Geometry returns the canonical test geometry: 128-byte pages, 512-byte
// regions (one header page, two user pages, one free-pointer page), and
// eight regions. Small enough that every scan and chain walk in a test
// stays readable in a hex dump.
func Geometry() medium.Geometry {
	return medium.Geometry{
		PageSize:    128,
		RegionSize:  512,
		RegionCount: 8,
	}
}

// NewMedium returns a blank in-memory medium with the canonical geometry.
func NewMedium(t *testing.T) *medium.Mem {
	t.Helper()
	m, err := medium.NewMem(Geometry())
	if err != nil {
		t.Fatalf("create medium: %v", err)
	}
	return m
}

// NewFormattedMedium returns an in-memory medium that has been through
// Init.
func NewFormattedMedium(t *testing.T) *medium.Mem {
	t.Helper()
	m := NewMedium(t)
	if err := store.Init(m); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return m
}

// NewStore formats a fresh in-memory medium and opens a store over it.
func NewStore(t *testing.T) (*store.Store, *medium.Mem) {
	t.Helper()
	m := NewFormattedMedium(t)
	s, err := store.Open(m)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, m
}

// Reopen discards the store's in-memory state and recovers a fresh one
// from the same medium, the way a restart after a crash would.
func Reopen(t *testing.T, m *medium.Mem) *store.Store {
	t.Helper()
	s, err := store.Open(m)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
