// Package verify provides validation functions for a recovered store.
// Tests use these helpers to prove the root-snapshot invariants hold after
// arbitrary operation sequences and injected crashes; flashctl exposes
// them as the verify subcommand.
package verify

import (
	"fmt"

	"github.com/flashkit/flashkit/store"
)

// ValidationError describes one violated invariant.
type ValidationError struct {
	Check   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("verify: %s: %s", e.Check, e.Message)
}

// Store validates all invariants in one call, returning the first
// violation found.
func Store(s *store.Store) error {
	if err := Root(s); err != nil {
		return err
	}
	if err := Heads(s); err != nil {
		return err
	}
	return FreeList(s)
}

// Root checks the root snapshot's own shape: the authoritative region
// exists, its boundaries agree, and the snapshot never names its own root
// region in a way the header could not have recorded.
func Root(s *store.Store) error {
	root := s.Root()
	geo := s.Geometry()
	if root.Root == store.NoRegion || uint32(root.Root) >= geo.RegionCount {
		return &ValidationError{"root", fmt.Sprintf("authoritative region %s out of range", root.Root)}
	}
	if (root.FreeHead == store.NoRegion) != (root.FreeTail == store.NoRegion) {
		return &ValidationError{"root", fmt.Sprintf(
			"free list half-absent: head %s, tail %s", root.FreeHead, root.FreeTail)}
	}
	info, err := s.RegionInfo(root.Root)
	if err != nil {
		return err
	}
	if !info.Valid {
		return &ValidationError{"root", fmt.Sprintf("authoritative region %s has no valid header", root.Root)}
	}
	if info.Sequence != root.Sequence {
		return &ValidationError{"root", fmt.Sprintf(
			"authoritative region %s carries sequence %d, snapshot says %d",
			root.Root, info.Sequence, root.Sequence)}
	}
	return nil
}

// Heads checks the collection directory: every entry names a region whose
// own header claims that collection, and no entry names a free region.
func Heads(s *store.Store) error {
	root := s.Root()
	for id, r := range root.Heads {
		info, err := s.RegionInfo(r)
		if err != nil {
			return err
		}
		switch {
		case !info.Valid:
			return &ValidationError{"heads", fmt.Sprintf(
				"collection %d heads invalid region %s", uint64(id), r)}
		case info.Type == store.TypeFree:
			return &ValidationError{"heads", fmt.Sprintf(
				"collection %d heads free region %s", uint64(id), r)}
		case info.Collection != id:
			return &ValidationError{"heads", fmt.Sprintf(
				"collection %d heads region %s, which claims collection %d",
				uint64(id), r, uint64(info.Collection))}
		}
	}
	return nil
}

// FreeList checks the free chain: it walks head to tail through valid
// links, every member carries a free-typed header, and no member is also
// a collection head.
func FreeList(s *store.Store) error {
	root := s.Root()
	chain, err := s.FreeRegions()
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		if root.FreeHead != store.NoRegion {
			return &ValidationError{"freelist", fmt.Sprintf(
				"empty walk but head is %s", root.FreeHead)}
		}
		return nil
	}
	if chain[0] != root.FreeHead || chain[len(chain)-1] != root.FreeTail {
		return &ValidationError{"freelist", fmt.Sprintf(
			"walk spans %s..%s, snapshot says %s..%s",
			chain[0], chain[len(chain)-1], root.FreeHead, root.FreeTail)}
	}
	seen := make(map[store.RegionIndex]struct{}, len(chain))
	for _, r := range chain {
		if _, dup := seen[r]; dup {
			return &ValidationError{"freelist", fmt.Sprintf("region %s appears twice", r)}
		}
		seen[r] = struct{}{}
		info, err := s.RegionInfo(r)
		if err != nil {
			return err
		}
		if !info.Valid || info.Type != store.TypeFree {
			return &ValidationError{"freelist", fmt.Sprintf(
				"member %s does not carry a free header", r)}
		}
	}
	for id, head := range root.Heads {
		if _, onChain := seen[head]; onChain {
			return &ValidationError{"freelist", fmt.Sprintf(
				"collection %d heads free-chain member %s", uint64(id), head)}
		}
	}
	return nil
}
