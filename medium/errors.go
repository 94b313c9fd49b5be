package medium

import "errors"

var (
	// ErrBadGeometry indicates a geometry the medium cannot represent.
	ErrBadGeometry = errors.New("medium: bad geometry")

	// ErrOutOfBounds indicates a read or write outside the addressed
	// region or metadata area.
	ErrOutOfBounds = errors.New("medium: access out of bounds")

	// ErrPageRewrite indicates a page programmed twice without an
	// intervening erase, a violation of the flash write-once constraint.
	ErrPageRewrite = errors.New("medium: page rewritten without erase")

	// ErrWriteFault indicates a failed or torn write. The store never
	// retries; retry policy belongs to the driver or the caller.
	ErrWriteFault = errors.New("medium: write fault")

	// ErrClosed indicates use of a medium after Close.
	ErrClosed = errors.New("medium: closed")
)
