package b2slice

import (
	"github.com/scigolib/b2slice/internal/superchunk"
)

// BlockCodec decompresses stored chunk bytes. DecodeBlock must use the
// codec's block-level random-access entry point so that only the requested
// block's compressed bytes are processed; DecodeChunk is the whole-chunk
// route used by the fallback path.
type BlockCodec interface {
	// DecodeBlock decompresses a single block. expectedSize is the clipped
	// block size in bytes; the result must match it exactly.
	DecodeBlock(raw []byte, block uint64, expectedSize int) ([]byte, error)

	// DecodeChunk decompresses the whole chunk into its row-major buffer.
	// blockShape is consulted only when the stored header carries no block
	// metadata.
	DecodeChunk(raw []byte, chunkExtent, blockShape []uint64, elemSize uint64) ([]byte, error)
}

// SuperchunkCodec is the default BlockCodec: the block-structured
// superchunk format with zstd, lz4, snappy or zlib compressed blocks.
type SuperchunkCodec struct{}

// DecodeBlock implements BlockCodec.
func (SuperchunkCodec) DecodeBlock(raw []byte, block uint64, expectedSize int) ([]byte, error) {
	return superchunk.DecodeBlock(raw, block, expectedSize)
}

// DecodeChunk implements BlockCodec.
func (SuperchunkCodec) DecodeChunk(raw []byte, chunkExtent, blockShape []uint64, elemSize uint64) ([]byte, error) {
	return superchunk.DecodeAll(raw, chunkExtent, blockShape, elemSize)
}
