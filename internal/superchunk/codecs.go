package superchunk

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// compressor is the per-block codec contract. Compress returns the
// compressed form of src; Decompress inflates src into exactly dstSize
// bytes. Implementations must be safe for concurrent use.
type compressor interface {
	Compress(src []byte, level int) ([]byte, error)
	Decompress(src []byte, dstSize int) ([]byte, error)
}

// codecs maps codec identifiers to implementations. CodecNone is handled
// inline by the encoder and decoder (plain copy).
var codecs = map[Codec]compressor{
	CodecZstd:   zstdCodec{},
	CodecLZ4:    lz4Codec{},
	CodecSnappy: snappyCodec{},
	CodecZlib:   zlibCodec{},
}

// Shared zstd coder state. EncodeAll and DecodeAll are safe for concurrent
// use on a single instance.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

type zstdCodec struct{}

func (zstdCodec) Compress(src []byte, _ int) ([]byte, error) {
	return zstdEncoder.EncodeAll(src, nil), nil
}

func (zstdCodec) Decompress(src []byte, dstSize int) ([]byte, error) {
	dst, err := zstdDecoder.DecodeAll(src, make([]byte, 0, dstSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return dst, nil
}

// lz4 block compression keeps its hash table in a Compressor; pool them to
// stay safe under concurrent encodes.
var lz4Compressors = sync.Pool{
	New: func() interface{} {
		return &lz4.Compressor{}
	},
}

type lz4Codec struct{}

func (lz4Codec) Compress(src []byte, _ int) ([]byte, error) {
	c := lz4Compressors.Get().(*lz4.Compressor)
	defer lz4Compressors.Put(c)

	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := c.CompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if n == 0 {
		// Incompressible input; the caller stores the block verbatim.
		return src, nil
	}
	return dst[:n], nil
}

func (lz4Codec) Decompress(src []byte, dstSize int) ([]byte, error) {
	dst := make([]byte, dstSize)
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	return dst[:n], nil
}

type snappyCodec struct{}

func (snappyCodec) Compress(src []byte, _ int) ([]byte, error) {
	return snappy.Encode(nil, src), nil
}

func (snappyCodec) Decompress(src []byte, _ int) ([]byte, error) {
	dst, err := snappy.Decode(nil, src)
	if err != nil {
		return nil, fmt.Errorf("snappy decompression failed: %w", err)
	}
	return dst, nil
}

type zlibCodec struct{}

func (zlibCodec) Compress(src []byte, level int) ([]byte, error) {
	if level < zlib.BestSpeed || level > zlib.BestCompression {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer creation failed: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (zlibCodec) Decompress(src []byte, _ int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("zlib reader creation failed: %w", err)
	}
	defer func() { _ = r.Close() }()

	dst, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompression failed: %w", err)
	}
	return dst, nil
}
