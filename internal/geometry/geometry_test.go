package geometry

import (
	"reflect"
	"testing"
)

func TestGridShape(t *testing.T) {
	tests := []struct {
		name  string
		shape []uint64
		cell  []uint64
		want  []uint64
	}{
		{
			name:  "exact division",
			shape: []uint64{100, 40},
			cell:  []uint64{10, 4},
			want:  []uint64{10, 10},
		},
		{
			name:  "partial trailing cell",
			shape: []uint64{100},
			cell:  []uint64{40},
			want:  []uint64{3},
		},
		{
			name:  "cell larger than shape",
			shape: []uint64{7, 3},
			cell:  []uint64{10, 10},
			want:  []uint64{1, 1},
		},
		{
			name:  "single element cells",
			shape: []uint64{5},
			cell:  []uint64{1},
			want:  []uint64{5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GridShape(tt.shape, tt.cell)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GridShape(%v, %v) = %v, want %v", tt.shape, tt.cell, got, tt.want)
			}
		})
	}
}

func TestClip(t *testing.T) {
	tests := []struct {
		name                string
		aStart, aStop       uint64
		bStart, bStop       uint64
		wantStart, wantStop uint64
		wantOK              bool
	}{
		{name: "full overlap", aStart: 0, aStop: 10, bStart: 0, bStop: 10, wantStart: 0, wantStop: 10, wantOK: true},
		{name: "partial overlap", aStart: 5, aStop: 15, bStart: 10, bStop: 20, wantStart: 10, wantStop: 15, wantOK: true},
		{name: "contained", aStart: 0, aStop: 100, bStart: 35, bStop: 45, wantStart: 35, wantStop: 45, wantOK: true},
		{name: "touching boundaries", aStart: 0, aStop: 10, bStart: 10, bStop: 20, wantOK: false},
		{name: "disjoint", aStart: 0, aStop: 5, bStart: 20, bStop: 30, wantOK: false},
		{name: "empty interval", aStart: 5, aStop: 5, bStart: 0, bStop: 10, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, stop, ok := Clip(tt.aStart, tt.aStop, tt.bStart, tt.bStop)
			if ok != tt.wantOK {
				t.Fatalf("Clip ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (start != tt.wantStart || stop != tt.wantStop) {
				t.Errorf("Clip = [%d, %d), want [%d, %d)", start, stop, tt.wantStart, tt.wantStop)
			}
		})
	}
}

func TestCellRange(t *testing.T) {
	// Region [35, 45) over cells of 40: touches cells 0 and 1.
	first, last := CellRange([]uint64{35}, []uint64{45}, []uint64{40})
	if first[0] != 0 || last[0] != 1 {
		t.Errorf("CellRange = [%d, %d], want [0, 1]", first[0], last[0])
	}

	// Region exactly one cell.
	first, last = CellRange([]uint64{40}, []uint64{80}, []uint64{40})
	if first[0] != 1 || last[0] != 1 {
		t.Errorf("CellRange = [%d, %d], want [1, 1]", first[0], last[0])
	}

	// 2D region crossing a cell boundary on one axis only.
	first, last = CellRange([]uint64{5, 12}, []uint64{8, 25}, []uint64{10, 10})
	if !reflect.DeepEqual(first, []uint64{0, 1}) || !reflect.DeepEqual(last, []uint64{0, 2}) {
		t.Errorf("CellRange = %v..%v, want [0 1]..[0 2]", first, last)
	}
}

func TestLinearIndex(t *testing.T) {
	tests := []struct {
		coords []uint64
		dims   []uint64
		want   uint64
	}{
		{coords: []uint64{0}, dims: []uint64{10}, want: 0},
		{coords: []uint64{7}, dims: []uint64{10}, want: 7},
		{coords: []uint64{2, 3}, dims: []uint64{4, 5}, want: 13},
		{coords: []uint64{1, 2, 3}, dims: []uint64{2, 3, 4}, want: 23},
	}
	for _, tt := range tests {
		if got := LinearIndex(tt.coords, tt.dims); got != tt.want {
			t.Errorf("LinearIndex(%v, %v) = %d, want %d", tt.coords, tt.dims, got, tt.want)
		}
	}
}

func TestStrides(t *testing.T) {
	got := Strides([]uint64{4, 5}, 8)
	want := []uint64{40, 8}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Strides = %v, want %v", got, want)
	}

	got = Strides([]uint64{10}, 4)
	if !reflect.DeepEqual(got, []uint64{4}) {
		t.Errorf("Strides 1D = %v, want [4]", got)
	}
}

func TestCellIteratorOrder(t *testing.T) {
	it := NewCellIterator([]uint64{0, 1}, []uint64{1, 2})

	var got [][]uint64
	for it.Next() {
		cell := make([]uint64, 2)
		copy(cell, it.Cell())
		got = append(got, cell)
	}

	want := [][]uint64{{0, 1}, {0, 2}, {1, 1}, {1, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("iteration order = %v, want %v", got, want)
	}

	// Restartable: a second pass yields the identical sequence.
	it.Reset()
	var again [][]uint64
	for it.Next() {
		cell := make([]uint64, 2)
		copy(cell, it.Cell())
		again = append(again, cell)
	}
	if !reflect.DeepEqual(again, want) {
		t.Errorf("after Reset, iteration order = %v, want %v", again, want)
	}
}

func TestCellIteratorSingleCell(t *testing.T) {
	it := NewCellIterator([]uint64{3}, []uint64{3})
	count := 0
	for it.Next() {
		if it.Cell()[0] != 3 {
			t.Errorf("cell = %v, want [3]", it.Cell())
		}
		count++
	}
	if count != 1 {
		t.Errorf("yielded %d cells, want 1", count)
	}
}

func TestCellIteratorEmptyRange(t *testing.T) {
	it := NewCellIterator([]uint64{4}, []uint64{2})
	if it.Next() {
		t.Error("empty range should yield no cells")
	}
}

// TestPartitionCompleteness checks that iterating the full grid enumerates
// every cell exactly once: no gaps, no overlaps.
func TestPartitionCompleteness(t *testing.T) {
	shape := []uint64{13, 7, 5}
	cell := []uint64{4, 3, 2}
	grid := GridShape(shape, cell)

	seen := make(map[uint64]int)
	first := make([]uint64, len(grid))
	last := make([]uint64, len(grid))
	for i := range grid {
		last[i] = grid[i] - 1
	}

	it := NewCellIterator(first, last)
	for it.Next() {
		seen[LinearIndex(it.Cell(), grid)]++
	}

	total := NumElements(grid)
	if uint64(len(seen)) != total {
		t.Fatalf("enumerated %d distinct cells, want %d", len(seen), total)
	}
	for idx, n := range seen {
		if n != 1 {
			t.Errorf("cell %d visited %d times", idx, n)
		}
	}
}
