package format

import "errors"

var (
	// ErrTruncated indicates a buffer too short for the record it should hold.
	ErrTruncated = errors.New("format: truncated record")

	// ErrMagicMismatch indicates the record's magic tag is wrong or missing.
	ErrMagicMismatch = errors.New("format: magic mismatch")

	// ErrVersionUnknown indicates an encoding version this build cannot read.
	ErrVersionUnknown = errors.New("format: unknown version")

	// ErrChecksumMismatch indicates the trailing CRC does not cover the
	// decoded bytes, typically a torn write.
	ErrChecksumMismatch = errors.New("format: checksum mismatch")

	// ErrInvalidField indicates a field value that violates the record's
	// structural rules (bad type, oversized table, out-of-range index).
	ErrInvalidField = errors.New("format: invalid field")
)
