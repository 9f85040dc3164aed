package b2slice

import (
	"fmt"

	"github.com/scigolib/b2slice/internal/geometry"
	"github.com/scigolib/b2slice/internal/utils"
)

// Descriptor is a read-only snapshot of a chunked dataset's geometry: its
// shape, the nominal chunk and block shapes, the element size, and whether
// the stored byte order matches the native one. All values are fixed for
// the dataset's lifetime; the read engine never mutates them.
type Descriptor struct {
	Shape      []uint64 // Dataset extent per axis.
	ChunkShape []uint64 // Nominal chunk extent; the last chunk per axis may be partial.
	BlockShape []uint64 // Nominal block extent within a chunk.
	ElemSize   uint64   // Fixed element size in bytes; elements are opaque.

	// NativeOrder reports whether the stored multi-byte representation
	// matches the runtime's. The optimized path performs no byte swapping
	// and declines datasets where this is false.
	NativeOrder bool
}

// Validate checks the descriptor's internal consistency.
func (d *Descriptor) Validate() error {
	rank := len(d.Shape)
	if rank == 0 {
		return fmt.Errorf("descriptor has no dimensions")
	}
	if len(d.ChunkShape) != rank {
		return fmt.Errorf("chunk rank (%d) != dataset rank (%d)", len(d.ChunkShape), rank)
	}
	if len(d.BlockShape) != rank {
		return fmt.Errorf("block rank (%d) != dataset rank (%d)", len(d.BlockShape), rank)
	}
	if d.ElemSize == 0 {
		return fmt.Errorf("element size must be positive")
	}

	for i := 0; i < rank; i++ {
		if d.Shape[i] == 0 {
			return fmt.Errorf("dataset dimension %d is zero", i)
		}
		if d.ChunkShape[i] == 0 {
			return fmt.Errorf("chunk dimension %d is zero", i)
		}
		if d.BlockShape[i] == 0 {
			return fmt.Errorf("block dimension %d is zero", i)
		}
		if d.BlockShape[i] > d.ChunkShape[i] {
			return fmt.Errorf("block shape %d exceeds chunk shape %d in dimension %d",
				d.BlockShape[i], d.ChunkShape[i], i)
		}
	}

	// Reject geometries whose buffer sizes cannot be represented.
	if _, err := utils.SafeBufferSize(d.Shape, d.ElemSize); err != nil {
		return fmt.Errorf("dataset too large: %w", err)
	}
	return nil
}

// rank returns the dataset dimensionality.
func (d *Descriptor) rank() int {
	return len(d.Shape)
}

// chunkGrid returns the number of chunks per axis.
func (d *Descriptor) chunkGrid() []uint64 {
	return geometry.GridShape(d.Shape, d.ChunkShape)
}

// chunkBounds returns the element coordinates of a chunk's origin and its
// actual extent, clipped to the dataset shape.
func (d *Descriptor) chunkBounds(index []uint64) (start, extent []uint64) {
	start = make([]uint64, d.rank())
	extent = make([]uint64, d.rank())
	for i := range index {
		start[i] = index[i] * d.ChunkShape[i]
		stop := start[i] + d.ChunkShape[i]
		if stop > d.Shape[i] {
			stop = d.Shape[i]
		}
		extent[i] = stop - start[i]
	}
	return start, extent
}
