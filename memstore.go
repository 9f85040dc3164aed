package b2slice

import (
	"context"
	"fmt"

	"github.com/scigolib/b2slice/internal/geometry"
	"github.com/scigolib/b2slice/internal/superchunk"
	"github.com/scigolib/b2slice/internal/utils"
)

// Compression selects the codec a MemStore applies when encoding chunks.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
	CompressionSnappy
	CompressionZlib
)

func (c Compression) codec() superchunk.Codec {
	switch c {
	case CompressionZstd:
		return superchunk.CodecZstd
	case CompressionLZ4:
		return superchunk.CodecLZ4
	case CompressionSnappy:
		return superchunk.CodecSnappy
	case CompressionZlib:
		return superchunk.CodecZlib
	default:
		return superchunk.CodecNone
	}
}

// MemStore is an in-memory ChunkStore. It encodes a full row-major dataset
// buffer into per-chunk superchunk streams at construction time and serves
// them back verbatim. It is the reference container used in tests and
// examples; production containers implement ChunkStore over their own
// storage.
type MemStore struct {
	desc    *Descriptor
	chunks  map[string][]byte
	layouts map[string]*ChunkLayout
}

// MemStoreOption configures MemStore encoding.
type MemStoreOption func(*memStoreConfig)

type memStoreConfig struct {
	compression Compression
	level       int
	shuffle     bool
	legacy      bool
}

// WithCompression selects the codec for chunk encoding. The default is no
// compression.
func WithCompression(c Compression) MemStoreOption {
	return func(cfg *memStoreConfig) { cfg.compression = c }
}

// WithCompressionLevel sets the codec-specific compression level; 0 keeps
// the codec default.
func WithCompressionLevel(level int) MemStoreOption {
	return func(cfg *memStoreConfig) { cfg.level = level }
}

// WithShuffle byte-shuffles block payloads before compression.
func WithShuffle() MemStoreOption {
	return func(cfg *memStoreConfig) { cfg.shuffle = true }
}

// WithLegacyHeaders encodes chunks without block-shape metadata, the way
// early 1-D writers did. Only valid for rank-1 datasets.
func WithLegacyHeaders() MemStoreOption {
	return func(cfg *memStoreConfig) { cfg.legacy = true }
}

// NewMemStore encodes data, a row-major buffer covering the descriptor's
// full shape, into an in-memory store.
func NewMemStore(desc *Descriptor, data []byte, opts ...MemStoreOption) (*MemStore, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	want, err := utils.SafeBufferSize(desc.Shape, desc.ElemSize)
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != want {
		return nil, fmt.Errorf("data buffer is %d bytes, shape implies %d", len(data), want)
	}

	cfg := memStoreConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.legacy && desc.rank() != 1 {
		return nil, fmt.Errorf("legacy headers are only defined for rank-1 datasets, got rank %d", desc.rank())
	}

	s := &MemStore{
		desc:    desc,
		chunks:  make(map[string][]byte),
		layouts: make(map[string]*ChunkLayout),
	}

	grid := desc.chunkGrid()
	first := make([]uint64, desc.rank())
	last := make([]uint64, desc.rank())
	for i := range grid {
		last[i] = grid[i] - 1
	}

	// Synthetic byte offsets keep chunks distinguishable to the block cache
	// even though each chunk lives in its own slice.
	var offset uint64
	it := geometry.NewCellIterator(first, last)
	for it.Next() {
		idx := it.Cell()
		start, extent := desc.chunkBounds(idx)

		raw := make([]byte, geometry.NumElements(extent)*desc.ElemSize)
		copySubarray(raw, extent, make([]uint64, desc.rank()),
			data, desc.Shape, start, extent, desc.ElemSize)

		encoded, err := superchunk.Encode(raw, extent, clipShape(desc.BlockShape, extent), superchunk.Options{
			Codec:    cfg.compression.codec(),
			Level:    cfg.level,
			Shuffle:  cfg.shuffle,
			TypeSize: int(desc.ElemSize),
			Legacy:   cfg.legacy,
		})
		if err != nil {
			return nil, utils.WrapError(fmt.Sprintf("encoding chunk %v", idx), err)
		}

		key := chunkKey(idx)
		s.chunks[key] = encoded
		layout := &ChunkLayout{
			ByteOffset: offset,
			ByteLength: uint64(len(encoded)),
		}
		if !cfg.legacy {
			layout.BlockShape = clipShape(desc.BlockShape, extent)
		}
		s.layouts[key] = layout
		offset += uint64(len(encoded))
	}
	return s, nil
}

// Descriptor implements ChunkStore.
func (s *MemStore) Descriptor() (*Descriptor, error) {
	return s.desc, nil
}

// ChunkLayout implements ChunkStore.
func (s *MemStore) ChunkLayout(index []uint64) (*ChunkLayout, error) {
	layout, ok := s.layouts[chunkKey(index)]
	if !ok {
		return nil, fmt.Errorf("no chunk at index %v", index)
	}
	return layout, nil
}

// RawChunk implements ChunkStore.
func (s *MemStore) RawChunk(_ context.Context, index []uint64) ([]byte, error) {
	raw, ok := s.chunks[chunkKey(index)]
	if !ok {
		return nil, fmt.Errorf("no chunk at index %v", index)
	}
	return raw, nil
}

// clipShape bounds a nominal block shape by an edge chunk's actual extent.
func clipShape(block, extent []uint64) []uint64 {
	out := make([]uint64, len(block))
	for i := range block {
		out[i] = block[i]
		if out[i] > extent[i] {
			out[i] = extent[i]
		}
	}
	return out
}

// chunkKey maps a chunk multi-index to a map key.
func chunkKey(index []uint64) string {
	key := ""
	for i, v := range index {
		if i > 0 {
			key += ","
		}
		key += fmt.Sprintf("%d", v)
	}
	return key
}
