package b2slice

import (
	"fmt"

	"github.com/scigolib/b2slice/internal/geometry"
	"github.com/scigolib/b2slice/internal/utils"
)

// Region is a rectangular selection in N-dimensional space: a half-open
// range [Start[i], Start[i]+Count[i]) per axis. Step defaults to 1 on every
// axis; any other value makes the request ineligible for the optimized
// path (the gate routes it to the fallback).
type Region struct {
	Start []uint64
	Count []uint64
	Step  []uint64 // nil means all 1s.
}

// NumElements returns the total number of selected elements.
func (r Region) NumElements() uint64 {
	return geometry.NumElements(r.Count)
}

// stop returns the exclusive upper bound per axis.
func (r Region) stop() []uint64 {
	stop := make([]uint64, len(r.Start))
	for i := range r.Start {
		stop[i] = r.Start[i] + r.Count[i]
	}
	return stop
}

// empty reports whether the selection contains no elements.
func (r Region) empty() bool {
	for _, c := range r.Count {
		if c == 0 {
			return true
		}
	}
	return len(r.Count) == 0
}

// unitStep reports whether every axis has step 1.
func (r Region) unitStep() bool {
	for _, s := range r.Step {
		if s != 1 {
			return false
		}
	}
	return true
}

// validate checks the region against a descriptor: matching rank and
// in-bounds coordinates, including the last coordinate a non-unit step
// selects. Non-unit steps themselves are an applicability concern, not an
// input error.
func (r Region) validate(d *Descriptor) error {
	rank := d.rank()
	if len(r.Start) != rank {
		return fmt.Errorf("start rank (%d) != dataset rank (%d)", len(r.Start), rank)
	}
	if len(r.Count) != rank {
		return fmt.Errorf("count rank (%d) != dataset rank (%d)", len(r.Count), rank)
	}
	if r.Step != nil && len(r.Step) != rank {
		return fmt.Errorf("step rank (%d) != dataset rank (%d)", len(r.Step), rank)
	}

	for i := 0; i < rank; i++ {
		if r.Start[i] > d.Shape[i] {
			return fmt.Errorf("selection out of bounds in dimension %d: start=%d > size=%d",
				i, r.Start[i], d.Shape[i])
		}
		if r.Count[i] > d.Shape[i]-r.Start[i] {
			return fmt.Errorf("selection out of bounds in dimension %d: start=%d + count=%d > size=%d",
				i, r.Start[i], r.Count[i], d.Shape[i])
		}
		if r.Step != nil && r.Step[i] == 0 {
			return fmt.Errorf("step must be > 0 in dimension %d", i)
		}
		if r.Step != nil && r.Step[i] > 1 && r.Count[i] > 1 {
			// The last selected coordinate is start + (count-1)*step.
			span, err := utils.SafeMultiply(r.Count[i]-1, r.Step[i])
			if err != nil || span >= d.Shape[i]-r.Start[i] {
				return fmt.Errorf("selection out of bounds in dimension %d: start=%d + (count=%d - 1) * step=%d >= size=%d",
					i, r.Start[i], r.Count[i], r.Step[i], d.Shape[i])
			}
		}
	}
	return nil
}
