package store

import "errors"

var (
	// ErrInvalidGeometry indicates init parameters the medium cannot hold:
	// regions that are not page-aligned powers of two, fewer than two
	// regions, or a region size that does not evenly divide the medium.
	ErrInvalidGeometry = errors.New("store: invalid geometry")

	// ErrCorruptMetadata indicates unreadable or inconsistent storage
	// metadata, or a medium with no structurally valid root header at all.
	ErrCorruptMetadata = errors.New("store: corrupt metadata")

	// ErrAlreadyInitialized indicates an Init on a medium that already
	// carries storage metadata. Re-initialization is destructive and must
	// be explicitly authorized with WithForce.
	ErrAlreadyInitialized = errors.New("store: already initialized")

	// ErrAmbiguousRoot indicates two root candidates with the same
	// sequence. Sequences are unique by construction, so this is
	// corruption or a bug; it is fatal and never auto-resolved.
	ErrAmbiguousRoot = errors.New("store: ambiguous root")

	// ErrFreeListCorrupt indicates a free-list link that fails its header
	// digest check or a chain that ends where the root says it should not.
	// The failed operation is surfaced, never silently repaired.
	ErrFreeListCorrupt = errors.New("store: free list corrupt")

	// ErrOutOfSpace indicates an allocation with an empty free list. The
	// caller must free something or reject the write.
	ErrOutOfSpace = errors.New("store: out of space")

	// ErrInvalidRegion indicates caller misuse of a region argument:
	// out of range, already free, or a collection's declared head being
	// freed without explicit intent.
	ErrInvalidRegion = errors.New("store: invalid region")

	// ErrInvalidCollection indicates caller misuse of a collection
	// argument: the reserved id 0, an unknown type, or a collection with
	// no registered head.
	ErrInvalidCollection = errors.New("store: invalid collection")

	// ErrTooManyCollections indicates a head table that no longer fits in
	// a header page.
	ErrTooManyCollections = errors.New("store: too many collections")
)
