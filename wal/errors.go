package wal

import "errors"

var (
	// ErrRecordTooLarge is returned when a payload cannot fit in a single
	// page even with the page to itself.
	ErrRecordTooLarge = errors.New("wal: record too large for page")

	// ErrCorruptRecord is returned when a sealed page holds a record that
	// fails structural or checksum validation.
	ErrCorruptRecord = errors.New("wal: corrupt record")

	// ErrChainBroken is returned when the regions claiming the log do not
	// form a single sequence-ordered chain with matching link stamps.
	ErrChainBroken = errors.New("wal: region chain broken")

	// ErrTruncateHead is returned by TruncateOldest when the log occupies
	// a single region; the head is never reclaimed out from under the
	// writer.
	ErrTruncateHead = errors.New("wal: cannot truncate the only region")

	// ErrNoLog is returned by Open when no region claims the collection.
	ErrNoLog = errors.New("wal: collection has no log")
)
