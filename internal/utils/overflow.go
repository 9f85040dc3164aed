package utils

import (
	"fmt"
	"math"
)

// CheckMultiplyOverflow checks if multiplying two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if a == 0 || b == 0 {
		return nil // No overflow when either is zero
	}

	if a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d exceeds uint64 max", a, b)
	}

	return nil
}

// SafeMultiply multiplies two uint64 values and returns the result if no
// overflow occurs. Returns 0 and an error if overflow would occur.
func SafeMultiply(a, b uint64) (uint64, error) {
	if err := CheckMultiplyOverflow(a, b); err != nil {
		return 0, err
	}
	return a * b, nil
}

// SafeBufferSize calculates dimensions-product times element size with
// overflow checking. Used to size chunk, block, and output buffers before
// allocation.
func SafeBufferSize(dimensions []uint64, elementSize uint64) (uint64, error) {
	if len(dimensions) == 0 {
		return 0, fmt.Errorf("no dimensions provided")
	}
	if elementSize == 0 {
		return 0, fmt.Errorf("element size cannot be zero")
	}

	size := uint64(1)
	for i, dim := range dimensions {
		if dim > 0 && size > math.MaxUint64/dim {
			return 0, fmt.Errorf("buffer size overflow at dimension %d: dimensions too large", i)
		}
		size *= dim
	}

	if size > math.MaxUint64/elementSize {
		return 0, fmt.Errorf("buffer size overflow: dims product %d, elem size %d", size, elementSize)
	}

	return size * elementSize, nil
}
