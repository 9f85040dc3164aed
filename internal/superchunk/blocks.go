package superchunk

import (
	"github.com/scigolib/b2slice/internal/geometry"
)

// BlockExtent returns the clipped extent of the block at the given grid
// index: nominal block shape, trimmed where the block sticks out past the
// chunk extent.
func BlockExtent(blockIdx, chunkShape, blockShape []uint64) []uint64 {
	extent := make([]uint64, len(blockIdx))
	for i := range blockIdx {
		start := blockIdx[i] * blockShape[i]
		stop := start + blockShape[i]
		if stop > chunkShape[i] {
			stop = chunkShape[i]
		}
		extent[i] = stop - start
	}
	return extent
}

// gatherBlock copies one block's elements out of a row-major chunk buffer
// into a contiguous destination buffer. Rows of the block (runs along the
// last axis) are contiguous in both buffers.
func gatherBlock(dst, chunk []byte, blockIdx, chunkShape, blockShape []uint64, elemSize uint64) {
	copyBlock(dst, chunk, blockIdx, chunkShape, blockShape, elemSize, false)
}

// scatterBlock is the inverse of gatherBlock: it copies a contiguous block
// buffer back into its place in a row-major chunk buffer.
func scatterBlock(chunk, src []byte, blockIdx, chunkShape, blockShape []uint64, elemSize uint64) {
	copyBlock(src, chunk, blockIdx, chunkShape, blockShape, elemSize, true)
}

// copyBlock walks the block's rows, copying between the contiguous block
// buffer and the row-major chunk buffer. When toChunk is set the block
// buffer is the source, otherwise the destination.
func copyBlock(blockBuf, chunk []byte, blockIdx, chunkShape, blockShape []uint64, elemSize uint64, toChunk bool) {
	rank := len(chunkShape)
	extent := BlockExtent(blockIdx, chunkShape, blockShape)

	chunkStrides := geometry.Strides(chunkShape, elemSize)
	blockStrides := geometry.Strides(extent, elemSize)
	rowLen := extent[rank-1] * elemSize

	// Base offset of the block within the chunk buffer.
	base := uint64(0)
	for i := 0; i < rank; i++ {
		base += blockIdx[i] * blockShape[i] * chunkStrides[i]
	}

	if rank == 1 {
		if toChunk {
			copy(chunk[base:base+rowLen], blockBuf[:rowLen])
		} else {
			copy(blockBuf[:rowLen], chunk[base:base+rowLen])
		}
		return
	}

	// Iterate over all rows: every combination of the outer axes.
	outer := make([]uint64, rank-1)
	for {
		chunkOff := base
		blockOff := uint64(0)
		for i := 0; i < rank-1; i++ {
			chunkOff += outer[i] * chunkStrides[i]
			blockOff += outer[i] * blockStrides[i]
		}
		if toChunk {
			copy(chunk[chunkOff:chunkOff+rowLen], blockBuf[blockOff:blockOff+rowLen])
		} else {
			copy(blockBuf[blockOff:blockOff+rowLen], chunk[chunkOff:chunkOff+rowLen])
		}

		// Odometer over the outer axes.
		i := rank - 2
		for ; i >= 0; i-- {
			outer[i]++
			if outer[i] < extent[i] {
				break
			}
			outer[i] = 0
		}
		if i < 0 {
			return
		}
	}
}
