package superchunk

import (
	"fmt"

	"github.com/scigolib/b2slice/internal/geometry"
)

// DecodeBlock decompresses a single block from raw superchunk bytes using
// the block offset table, without touching any other block's compressed
// payload. expectedSize is the clipped block size in bytes (block extent
// times element size); the decoded block must match it exactly.
//
// The returned buffer is freshly allocated and owned by the caller.
func DecodeBlock(raw []byte, block uint64, expectedSize int) ([]byte, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	if block >= uint64(h.NBlocks) {
		return nil, fmt.Errorf("%w: block %d of %d", ErrBadBlockIndex, block, h.NBlocks)
	}
	return decodeBlockPayload(h, raw, uint32(block), expectedSize)
}

// decodeBlockPayload inflates one block given a parsed header.
func decodeBlockPayload(h *Header, raw []byte, block uint32, expectedSize int) ([]byte, error) {
	entry := h.blockEntryAt(raw, block)

	start := h.payloadOffset() + int(entry.offset)
	end := start + int(entry.clen)
	if end > len(raw) || end < start {
		return nil, fmt.Errorf("%w: block %d payload [%d:%d) beyond %d raw bytes",
			ErrCorrupt, block, start, end, len(raw))
	}
	payload := raw[start:end]

	var out []byte
	switch {
	case int(entry.clen) == expectedSize:
		// Stored verbatim: compression did not shrink this block.
		out = make([]byte, expectedSize)
		copy(out, payload)
	case h.Codec == CodecNone:
		return nil, fmt.Errorf("%w: block %d stored size %d != expected %d",
			ErrCorrupt, block, entry.clen, expectedSize)
	default:
		codec, ok := codecs[h.Codec]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBadCodec, h.Codec)
		}
		var err error
		out, err = codec.Decompress(payload, expectedSize)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", ErrCorrupt, block, err)
		}
		if len(out) != expectedSize {
			return nil, fmt.Errorf("%w: block %d decoded to %d bytes, expected %d",
				ErrCorrupt, block, len(out), expectedSize)
		}
	}

	if h.HasShuffle() && h.TypeSize > 1 {
		out = unshuffleBytes(out, int(h.TypeSize))
	}
	return out, nil
}

// DecodeAll decompresses every block of a superchunk and reassembles the
// row-major chunk buffer. chunkShape is the chunk's actual (possibly
// clipped) extent; blockShape is consulted only when the stored header
// carries no block metadata, as with legacy 1-D writers.
func DecodeAll(raw []byte, chunkShape, blockShape []uint64, elemSize uint64) ([]byte, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}

	bshape := h.BlockShape
	if bshape == nil {
		bshape = blockShape
	}
	if len(bshape) != len(chunkShape) {
		return nil, fmt.Errorf("%w: block rank %d != chunk rank %d",
			ErrCorrupt, len(bshape), len(chunkShape))
	}

	grid := geometry.GridShape(chunkShape, bshape)
	if geometry.NumElements(grid) != uint64(h.NBlocks) {
		return nil, fmt.Errorf("%w: header records %d blocks, geometry implies %d",
			ErrCorrupt, h.NBlocks, geometry.NumElements(grid))
	}

	chunkSize := geometry.NumElements(chunkShape) * elemSize
	if uint64(h.NBytes) != chunkSize {
		return nil, fmt.Errorf("%w: header payload size %d, geometry implies %d",
			ErrCorrupt, h.NBytes, chunkSize)
	}
	chunk := make([]byte, chunkSize)

	first := make([]uint64, len(grid))
	last := make([]uint64, len(grid))
	for i := range grid {
		last[i] = grid[i] - 1
	}

	block := uint32(0)
	it := geometry.NewCellIterator(first, last)
	for it.Next() {
		idx := it.Cell()
		extent := BlockExtent(idx, chunkShape, bshape)
		rawSize := int(geometry.NumElements(extent) * elemSize)

		buf, err := decodeBlockPayload(h, raw, block, rawSize)
		if err != nil {
			return nil, err
		}
		scatterBlock(chunk, buf, idx, chunkShape, bshape, elemSize)
		block++
	}

	return chunk, nil
}
