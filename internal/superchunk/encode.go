package superchunk

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/scigolib/b2slice/internal/geometry"
	"github.com/scigolib/b2slice/internal/utils"
)

// Options configures superchunk encoding.
type Options struct {
	Codec    Codec
	Level    int  // Codec-specific level; 0 selects the codec default.
	Shuffle  bool // Byte-shuffle blocks before compression.
	TypeSize int  // Element size in bytes; required.
	Legacy   bool // Omit block-shape metadata, as 1-D writers used to.
}

// Encode compresses a row-major chunk buffer into the superchunk format.
// chunkShape is the chunk's actual extent and blockShape the nominal block
// shape; blocks at the trailing edge are clipped. The Legacy option is only
// valid for rank-1 chunks.
func Encode(data []byte, chunkShape, blockShape []uint64, opts Options) ([]byte, error) {
	rank := len(chunkShape)
	if rank == 0 || len(blockShape) != rank {
		return nil, fmt.Errorf("superchunk: block rank %d != chunk rank %d", len(blockShape), rank)
	}
	if opts.TypeSize <= 0 {
		return nil, fmt.Errorf("superchunk: element size must be positive, got %d", opts.TypeSize)
	}
	if opts.Legacy && rank != 1 {
		return nil, fmt.Errorf("superchunk: legacy headers are only defined for rank 1, got rank %d", rank)
	}
	for i := range chunkShape {
		if chunkShape[i] == 0 || blockShape[i] == 0 {
			return nil, fmt.Errorf("superchunk: zero dimension on axis %d", i)
		}
		if blockShape[i] > chunkShape[i] {
			return nil, fmt.Errorf("superchunk: block shape %d exceeds chunk shape %d on axis %d",
				blockShape[i], chunkShape[i], i)
		}
	}

	elemSize := uint64(opts.TypeSize)
	wantLen, err := utils.SafeBufferSize(chunkShape, elemSize)
	if err != nil {
		return nil, fmt.Errorf("superchunk: %w", err)
	}
	// NBytes, BlockNBytes and the table entries are 32-bit on the wire.
	if wantLen > math.MaxUint32 {
		return nil, fmt.Errorf("superchunk: chunk payload of %d bytes exceeds the format's 32-bit limit", wantLen)
	}
	if uint64(len(data)) != wantLen {
		return nil, fmt.Errorf("superchunk: chunk buffer is %d bytes, geometry implies %d", len(data), wantLen)
	}
	if _, ok := codecs[opts.Codec]; !ok && opts.Codec != CodecNone {
		return nil, fmt.Errorf("%w: %d", ErrBadCodec, uint8(opts.Codec))
	}

	grid := geometry.GridShape(chunkShape, blockShape)
	nblocks := geometry.NumElements(grid)

	// Shuffle needs the element size in the header byte; oversized or
	// single-byte elements are stored unshuffled.
	shuffle := opts.Shuffle && opts.TypeSize > 1 && opts.TypeSize <= 255

	h := &Header{
		Version:     FormatVersion,
		Codec:       opts.Codec,
		TypeSize:    headerTypeSize(opts.TypeSize),
		NBytes:      uint32(wantLen),
		BlockNBytes: uint32(geometry.NumElements(blockShape) * elemSize),
		NBlocks:     uint32(nblocks),
	}
	if shuffle {
		h.Flags |= flagShuffle
	}
	if !opts.Legacy {
		h.Flags |= flagBlockMeta
		h.Rank = uint8(rank)
		h.BlockShape = blockShape
	}

	table := make([]byte, nblocks*8)
	var payload []byte

	first := make([]uint64, rank)
	last := make([]uint64, rank)
	for i := range grid {
		last[i] = grid[i] - 1
	}

	block := 0
	it := geometry.NewCellIterator(first, last)
	for it.Next() {
		idx := it.Cell()
		extent := BlockExtent(idx, chunkShape, blockShape)
		rawSize := int(geometry.NumElements(extent) * elemSize)

		scratch := utils.GetBuffer(rawSize)
		gatherBlock(scratch, data, idx, chunkShape, blockShape, elemSize)

		src := scratch
		if shuffle {
			src = shuffleBytes(scratch, opts.TypeSize)
		}

		stored := src
		if opts.Codec != CodecNone {
			compressed, err := codecs[opts.Codec].Compress(src, opts.Level)
			if err != nil {
				utils.ReleaseBuffer(scratch)
				return nil, fmt.Errorf("superchunk: block %d: %w", block, err)
			}
			// Verbatim storage when compression does not pay; the decoder
			// recognizes it by stored length == raw block length.
			if len(compressed) < rawSize {
				stored = compressed
			}
		}

		binary.LittleEndian.PutUint32(table[block*8:block*8+4], uint32(len(payload)))
		binary.LittleEndian.PutUint32(table[block*8+4:block*8+8], uint32(len(stored)))
		payload = append(payload, stored...)
		utils.ReleaseBuffer(scratch)
		block++
	}

	out := encodeHeader(h)
	out = append(out, table...)
	out = append(out, payload...)
	return out, nil
}

// headerTypeSize squeezes an element size into the single header byte;
// sizes past 255 are recorded as 0 and resolved from dataset metadata.
func headerTypeSize(n int) uint8 {
	if n > 255 {
		return 0
	}
	return uint8(n)
}
