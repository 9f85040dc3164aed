package b2slice

import (
	"context"
	"fmt"

	"github.com/scigolib/b2slice/internal/geometry"
)

// FallbackReader is the always-correct whole-chunk route used whenever the
// optimized path declines or fails a request.
type FallbackReader interface {
	ReadRegion(ctx context.Context, region Region, dst []byte) error
}

// ChunkFallback reads regions by decompressing every intersecting chunk in
// full and copying the overlap. It is the reference implementation the
// optimized path is tested against.
type ChunkFallback struct {
	store ChunkStore
	codec BlockCodec
}

// NewChunkFallback returns a whole-chunk fallback reader over the given
// store and codec.
func NewChunkFallback(store ChunkStore, codec BlockCodec) *ChunkFallback {
	return &ChunkFallback{store: store, codec: codec}
}

// ReadRegion implements FallbackReader. Unlike the optimized path it
// accepts any positive step values.
func (f *ChunkFallback) ReadRegion(ctx context.Context, region Region, dst []byte) error {
	desc, err := f.store.Descriptor()
	if err != nil {
		return fmt.Errorf("descriptor: %w", err)
	}
	if err := desc.Validate(); err != nil {
		return err
	}
	if err := region.validate(desc); err != nil {
		return err
	}
	if region.empty() {
		return nil
	}
	if !region.unitStep() {
		return f.readStrided(ctx, desc, region, dst)
	}

	want := region.NumElements() * desc.ElemSize
	if uint64(len(dst)) != want {
		return fmt.Errorf("output buffer is %d bytes, region needs %d", len(dst), want)
	}

	rank := desc.rank()
	regionStop := region.stop()

	first, last := geometry.CellRange(region.Start, regionStop, desc.ChunkShape)
	chunks := geometry.NewCellIterator(first, last)
	for chunks.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		index := make([]uint64, rank)
		copy(index, chunks.Cell())

		chunkStart, chunkExtent := desc.chunkBounds(index)
		buf, err := f.decodeChunk(ctx, desc, index, chunkExtent)
		if err != nil {
			return err
		}

		srcOff := make([]uint64, rank)
		dstOff := make([]uint64, rank)
		extent := make([]uint64, rank)
		for i := 0; i < rank; i++ {
			start, stop, ok := geometry.Clip(
				region.Start[i], regionStop[i],
				chunkStart[i], chunkStart[i]+chunkExtent[i])
			if !ok {
				return fmt.Errorf("chunk %v does not overlap region", index)
			}
			srcOff[i] = start - chunkStart[i]
			dstOff[i] = start - region.Start[i]
			extent[i] = stop - start
		}

		copySubarray(dst, region.Count, dstOff, buf, chunkExtent, srcOff, extent, desc.ElemSize)
	}

	return nil
}

// decodeChunk fetches and fully decompresses one chunk.
func (f *ChunkFallback) decodeChunk(ctx context.Context, desc *Descriptor,
	index, chunkExtent []uint64) ([]byte, error) {
	raw, err := f.store.RawChunk(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("chunk %v fetch: %w", index, err)
	}
	buf, err := f.codec.DecodeChunk(raw, chunkExtent, desc.BlockShape, desc.ElemSize)
	if err != nil {
		return nil, fmt.Errorf("chunk %v decode: %w", index, err)
	}
	return buf, nil
}

// readStrided handles non-unit steps element by element. Strided requests
// are rare on this route and never reach the optimized path at all.
func (f *ChunkFallback) readStrided(ctx context.Context, desc *Descriptor,
	region Region, dst []byte) error {
	rank := desc.rank()
	want := region.NumElements() * desc.ElemSize
	if uint64(len(dst)) != want {
		return fmt.Errorf("output buffer is %d bytes, region needs %d", len(dst), want)
	}

	// Decode chunks lazily, one at a time, while walking the selection in
	// row-major order.
	var curIndex []uint64
	var curBuf []byte
	var curStart, curExtent []uint64

	coords := make([]uint64, rank)
	outIdx := uint64(0)

	var walk func(dim int) error
	walk = func(dim int) error {
		if dim == rank {
			index := make([]uint64, rank)
			for i := 0; i < rank; i++ {
				index[i] = coords[i] / desc.ChunkShape[i]
			}
			if curIndex == nil || !indicesEqual(index, curIndex) {
				if err := ctx.Err(); err != nil {
					return err
				}
				var err error
				curStart, curExtent = desc.chunkBounds(index)
				curBuf, err = f.decodeChunk(ctx, desc, index, curExtent)
				if err != nil {
					return err
				}
				curIndex = index
			}

			local := make([]uint64, rank)
			for i := 0; i < rank; i++ {
				local[i] = coords[i] - curStart[i]
			}
			off := geometry.LinearIndex(local, curExtent) * desc.ElemSize
			copy(dst[outIdx*desc.ElemSize:(outIdx+1)*desc.ElemSize], curBuf[off:off+desc.ElemSize])
			outIdx++
			return nil
		}

		step := uint64(1)
		if region.Step != nil {
			step = region.Step[dim]
		}
		// Validation bounds the last selected coordinate, so every
		// coordinate here is inside the dataset.
		for c := uint64(0); c < region.Count[dim]; c++ {
			coords[dim] = region.Start[dim] + c*step
			if err := walk(dim + 1); err != nil {
				return err
			}
		}
		return nil
	}

	return walk(0)
}

// indicesEqual compares two multi-indices of equal rank.
func indicesEqual(a, b []uint64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
