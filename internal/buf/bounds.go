package buf

import (
	"fmt"
	"math"
)

// AddOverflowSafe adds a and b, returning ok = false when the result would overflow int.
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

// MulOverflowSafe multiplies two non-negative ints, returning ok = false when
// the result would overflow int. Negative operands are rejected.
func MulOverflowSafe(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// CheckRange validates that [offset, offset+length) lies within [0, limit).
// Returns the end offset if valid.
//
//	end, err := buf.CheckRange(off, len(p), capacity)
//	if err != nil {
//	    return fmt.Errorf("%w: %w", types.ErrOutOfBounds, err)
//	}
func CheckRange(offset, length, limit int) (int, error) {
	if offset < 0 {
		return 0, fmt.Errorf("negative offset: %d", offset)
	}
	if length < 0 {
		return 0, fmt.Errorf("negative length: %d", length)
	}
	end, ok := AddOverflowSafe(offset, length)
	if !ok {
		return 0, fmt.Errorf("overflow: offset=%d + length=%d", offset, length)
	}
	if end > limit {
		return 0, fmt.Errorf("bounds: end=%d > limit=%d", end, limit)
	}
	return end, nil
}

// PagesFor returns ceil(size/pageSize). pageSize must be positive.
func PagesFor(size, pageSize int) int {
	if size <= 0 {
		return 0
	}
	return (size-1)/pageSize + 1
}

// PageSpan returns the indexes of the first and last page touched by the
// non-empty byte range [offset, end). ok is false for an empty range.
func PageSpan(offset, end, pageSize int) (first, last int, ok bool) {
	if end <= offset {
		return 0, 0, false
	}
	return offset / pageSize, (end - 1) / pageSize, true
}
