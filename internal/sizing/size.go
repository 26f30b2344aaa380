// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"io"
	"math"
)

// FromInt32 converts an on-disk signed value to uint32, returning negErr if it is negative.
func FromInt32(v int32, negErr error) (uint32, error) {
	if v < 0 {
		return 0, negErr
	}
	return uint32(v), nil
}

// ToInt converts an int64 to int, returning overflowErr if it doesn't fit.
func ToInt(size int64, overflowErr error) (int, error) {
	if size < 0 || size > int64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// InRange reports whether [off, off+length) lies within [0, total).
func InRange(off, length, total int64) bool {
	if off < 0 || length < 0 || total < 0 {
		return false
	}
	end, ok := AddInt64(off, length)
	return ok && end <= total
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// SizeOf returns the total length of a seekable source and rewinds it to the start.
func SizeOf(s io.Seeker) (int64, error) {
	size, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return size, nil
}
