package buf

import "math"

// AddOverflowSafe adds a and b, returning ok = false when the result would
// overflow int.
func AddOverflowSafe(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Slice returns the sub-slice [off:off+n] if it fits within len(b).
func Slice(b []byte, off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off > len(b) {
		return nil, false
	}
	end, ok := AddOverflowSafe(off, n)
	if !ok || end > len(b) {
		return nil, false
	}
	return b[off:end], true
}

// Has reports whether b[off:off+n] is within bounds.
func Has(b []byte, off, n int) bool {
	_, ok := Slice(b, off, n)
	return ok
}

// Blank reports whether p holds only erased bytes. Flash media read back
// 0xFF after an erase; a zero-filled page is treated the same so images
// produced by naive tooling still decode as "never written".
func Blank(p []byte) bool {
	if len(p) == 0 {
		return true
	}
	first := p[0]
	if first != 0xFF && first != 0x00 {
		return false
	}
	for _, b := range p {
		if b != first {
			return false
		}
	}
	return true
}
