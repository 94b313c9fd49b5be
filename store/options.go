package store

import (
	"io"
	"log/slog"

	"github.com/flashkit/flashkit/medium"
)

// ErasePolicy decides how a region is prepared before the store reuses its
// header page. The store never erases outside this hook; when and whether
// physical erasure happens is a caller-level reclamation decision.
type ErasePolicy func(m medium.Medium, region RegionIndex) error

// EraseOnReuse is the default policy: erase the region through the medium
// right before its header page is rewritten.
func EraseOnReuse(m medium.Medium, region RegionIndex) error {
	return m.Erase(uint32(region))
}

// EraseNone leaves erasure entirely to the caller. Reusing a region whose
// pages were never erased out-of-band will fail the write on media that
// enforce the write-once rule.
func EraseNone(medium.Medium, RegionIndex) error {
	return nil
}

type config struct {
	logger *slog.Logger
	erase  ErasePolicy
	force  bool
}

func defaultConfig() config {
	return config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		erase:  EraseOnReuse,
	}
}

// Option configures Init and Open.
type Option func(*config)

// WithLogger installs a logger for debug-level commit and scan traces.
// Logging is discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithErasePolicy overrides the erase-before-reuse policy.
func WithErasePolicy(p ErasePolicy) Option {
	return func(c *config) {
		if p != nil {
			c.erase = p
		}
	}
}

// WithForce authorizes Init to destroy an already-initialized medium.
// Never applied automatically.
func WithForce() Option {
	return func(c *config) { c.force = true }
}
