package geometry

// CellIterator walks grid cell multi-indices between an inclusive first and
// last corner in ascending row-major order (outermost axis varies slowest).
// The traversal is deterministic and restartable via Reset, giving the
// planner a total order over chunks and blocks.
//
// Usage follows the scanner pattern:
//
//	it := NewCellIterator(first, last)
//	for it.Next() {
//	    cell := it.Cell()
//	    ...
//	}
type CellIterator struct {
	first []uint64
	last  []uint64
	cur   []uint64
	begun bool
	done  bool
}

// NewCellIterator returns an iterator over all multi-indices c with
// first[i] <= c[i] <= last[i] on every axis. first and last must have the
// same length; a zero-length range yields a single empty index.
func NewCellIterator(first, last []uint64) *CellIterator {
	it := &CellIterator{
		first: first,
		last:  last,
		cur:   make([]uint64, len(first)),
	}
	it.Reset()
	return it
}

// Reset rewinds the iterator to the first cell.
func (it *CellIterator) Reset() {
	copy(it.cur, it.first)
	it.begun = false
	it.done = false
	for i := range it.first {
		if it.first[i] > it.last[i] {
			it.done = true
			return
		}
	}
}

// Next advances to the next cell. It returns false once all cells have been
// produced.
func (it *CellIterator) Next() bool {
	if it.done {
		return false
	}
	if !it.begun {
		it.begun = true
		return true
	}
	// Odometer increment from the innermost axis.
	for i := len(it.cur) - 1; i >= 0; i-- {
		if it.cur[i] < it.last[i] {
			it.cur[i]++
			return true
		}
		it.cur[i] = it.first[i]
	}
	it.done = true
	return false
}

// Cell returns the current multi-index. The returned slice is reused across
// Next calls; callers that retain it must copy it first.
func (it *CellIterator) Cell() []uint64 {
	return it.cur
}
