package b2slice

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/coocood/freecache"

	"github.com/scigolib/b2slice/internal/geometry"
	"github.com/scigolib/b2slice/internal/utils"
)

// Execute runs a read plan: for each task it fetches the owning chunk's
// raw bytes (once per run of consecutive same-chunk tasks), decompresses
// only the needed block, and copies the task's subregion into dst, which
// must hold exactly the requested region in row-major order.
//
// The first decode failure aborts with a *CodecError and leaves dst in an
// undefined state; the caller must discard it and retry via the fallback.
// Store failures propagate unchanged.
func Execute(ctx context.Context, desc *Descriptor, region Region, plan []CopyTask,
	store ChunkStore, codec BlockCodec, dst []byte) error {
	return executePlan(ctx, desc, region, plan, store, codec, dst, nil)
}

// executePlan is Execute plus an optional decompressed-block cache.
func executePlan(ctx context.Context, desc *Descriptor, region Region, plan []CopyTask,
	store ChunkStore, codec BlockCodec, dst []byte, cache *freecache.Cache) error {
	want, err := utils.SafeBufferSize(region.Count, desc.ElemSize)
	if err != nil && !region.empty() {
		return fmt.Errorf("output size: %w", err)
	}
	if !region.empty() && uint64(len(dst)) != want {
		return fmt.Errorf("output buffer is %d bytes, region needs %d", len(dst), want)
	}

	// Tasks for one chunk are consecutive in plan order by construction,
	// so a single cached fetch covers them.
	var current *ChunkRef
	var raw []byte

	for i := range plan {
		task := &plan[i]

		if task.Chunk != current {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err = store.RawChunk(ctx, task.Chunk.Index)
			if err != nil {
				return fmt.Errorf("chunk %v fetch: %w", task.Chunk.Index, err)
			}
			current = task.Chunk
		}

		blockSize := int(geometry.NumElements(task.Block.Extent) * desc.ElemSize)
		block, err := decodeCached(codec, cache, task, raw, blockSize)
		if err != nil {
			return &CodecError{Chunk: task.Chunk.Index, Block: task.Block.Linear, Err: err}
		}

		copySubarray(dst, region.Count, task.DstOffset,
			block, task.Block.Extent, task.SrcOffset,
			task.Extent, desc.ElemSize)
	}

	return nil
}

// decodeCached decompresses one block, consulting the optional cache of
// decompressed blocks first. Cache failures are ignored; the cache only
// ever changes performance, never results.
func decodeCached(codec BlockCodec, cache *freecache.Cache, task *CopyTask,
	raw []byte, blockSize int) ([]byte, error) {
	if cache == nil {
		return codec.DecodeBlock(raw, task.Block.Linear, blockSize)
	}

	key := blockCacheKey(task.Chunk.ByteOffset, task.Block.Linear)
	if cached, err := cache.Get(key); err == nil && len(cached) == blockSize {
		return cached, nil
	}

	block, err := codec.DecodeBlock(raw, task.Block.Linear, blockSize)
	if err != nil {
		return nil, err
	}
	_ = cache.Set(key, block, 0)
	return block, nil
}

// blockCacheKey derives a cache key from the chunk's storage offset and
// the block number, both unique for a given container.
func blockCacheKey(chunkOffset, block uint64) []byte {
	key := make([]byte, 16)
	binary.LittleEndian.PutUint64(key[:8], chunkOffset)
	binary.LittleEndian.PutUint64(key[8:], block)
	return key
}

// copySubarray copies an N-dimensional extent between two row-major
// buffers, honoring strides on both sides. Elements are opaque fixed-size
// byte runs; bit patterns are preserved exactly.
func copySubarray(dst []byte, dstShape, dstOff []uint64,
	src []byte, srcShape, srcOff []uint64,
	extent []uint64, elemSize uint64) {
	rank := len(extent)
	dstStrides := geometry.Strides(dstShape, elemSize)
	srcStrides := geometry.Strides(srcShape, elemSize)

	// Rows along the last axis are contiguous on both sides.
	rowLen := extent[rank-1] * elemSize

	dstBase := uint64(0)
	srcBase := uint64(0)
	for i := 0; i < rank; i++ {
		dstBase += dstOff[i] * dstStrides[i]
		srcBase += srcOff[i] * srcStrides[i]
	}

	if rank == 1 {
		copy(dst[dstBase:dstBase+rowLen], src[srcBase:srcBase+rowLen])
		return
	}

	outer := make([]uint64, rank-1)
	for {
		dstPos := dstBase
		srcPos := srcBase
		for i := 0; i < rank-1; i++ {
			dstPos += outer[i] * dstStrides[i]
			srcPos += outer[i] * srcStrides[i]
		}
		copy(dst[dstPos:dstPos+rowLen], src[srcPos:srcPos+rowLen])

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
