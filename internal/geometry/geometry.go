// Package geometry provides pure coordinate math for chunked N-dimensional
// arrays: grid derivation, half-open interval clipping, row-major offsets
// and strides, and ascending multi-index iteration over grid cells.
// It performs no I/O and knows nothing about compression.
package geometry

// GridShape returns the number of grid cells per axis for an array of the
// given shape partitioned into cells of the given size: ceil(shape[i]/cell[i]).
// Both slices must have the same length and cell sizes must be positive.
func GridShape(shape, cell []uint64) []uint64 {
	grid := make([]uint64, len(shape))
	for i := range shape {
		grid[i] = (shape[i] + cell[i] - 1) / cell[i]
	}
	return grid
}

// Clip intersects the half-open intervals [aStart, aStop) and [bStart, bStop).
// ok is false when the intervals do not overlap.
func Clip(aStart, aStop, bStart, bStop uint64) (start, stop uint64, ok bool) {
	start = aStart
	if bStart > start {
		start = bStart
	}
	stop = aStop
	if bStop < stop {
		stop = bStop
	}
	if start >= stop {
		return 0, 0, false
	}
	return start, stop, true
}

// CellRange returns the inclusive per-axis range [first, last] of grid cell
// indices whose nominal extent overlaps the half-open region [start, stop).
// The region must be non-empty on every axis.
func CellRange(start, stop, cell []uint64) (first, last []uint64) {
	first = make([]uint64, len(start))
	last = make([]uint64, len(start))
	for i := range start {
		first[i] = start[i] / cell[i]
		last[i] = (stop[i] - 1) / cell[i]
	}
	return first, last
}

// LinearIndex converts a multi-dimensional coordinate to a linear index in
// row-major (C-style) order, where the last axis varies fastest.
func LinearIndex(coords, dims []uint64) uint64 {
	offset := uint64(0)
	stride := uint64(1)
	for i := len(coords) - 1; i >= 0; i-- {
		offset += coords[i] * stride
		stride *= dims[i]
	}
	return offset
}

// Strides returns the row-major byte stride of each axis for an array of the
// given shape with fixed-size elements.
func Strides(dims []uint64, elemSize uint64) []uint64 {
	strides := make([]uint64, len(dims))
	stride := elemSize
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= dims[i]
	}
	return strides
}

// NumElements returns the product of all dimensions. An empty shape counts
// as a single (scalar) element.
func NumElements(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}
