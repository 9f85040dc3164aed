// Package superchunk implements the block-structured compressed chunk
// format consumed by the optimized partial-read path. A superchunk is one
// stored chunk of an N-dimensional dataset, subdivided into independently
// compressed blocks so that a reader can decompress exactly the blocks a
// request touches instead of the whole chunk.
//
// Wire layout (all integers little-endian):
//
//	0   4  magic "B2SC"
//	4   1  format version (currently 1)
//	5   1  codec identifier
//	6   1  flags (shuffle, block-shape metadata present)
//	7   1  element size for shuffle (0 when larger than 255 bytes)
//	8   1  rank of the recorded block shape (0 when metadata absent)
//	9   3  reserved
//	12  4  uncompressed chunk payload size
//	16  4  nominal uncompressed bytes per block
//	20  4  number of blocks
//
// When the block-shape metadata flag is set, the header is followed by
// rank uint32 values giving the per-axis block shape. A block offset table
// follows: one (offset, compressed length) uint32 pair per block, offsets
// relative to the start of the compressed payload area. Legacy 1-D writers
// omit the metadata section; readers must synthesize block geometry from
// dataset metadata instead of treating its absence as corruption.
package superchunk

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Format constants.
const (
	Magic         = "B2SC"
	FormatVersion = 1
	HeaderSize    = 24
)

// Header flag bits.
const (
	flagShuffle   = 0x1 // Byte shuffle applied before compression.
	flagBlockMeta = 0x2 // Per-axis block shape follows the header.
)

// Sentinel errors for decode failures. All of them mean the optimized read
// path must fall back to whole-chunk decompression.
var (
	// ErrBadMagic indicates the raw bytes do not start with a superchunk header.
	ErrBadMagic = errors.New("superchunk: bad magic")

	// ErrBadVersion indicates an unsupported format version.
	ErrBadVersion = errors.New("superchunk: unsupported format version")

	// ErrBadCodec indicates an unknown codec identifier.
	ErrBadCodec = errors.New("superchunk: unsupported codec")

	// ErrBadBlockIndex indicates a block index outside the recorded table.
	ErrBadBlockIndex = errors.New("superchunk: block index out of range")

	// ErrCorrupt indicates truncated or inconsistent compressed data.
	ErrCorrupt = errors.New("superchunk: corrupt data")
)

// Codec identifies the per-block compression algorithm.
type Codec uint8

// Supported codecs.
const (
	CodecNone   Codec = 0 // Blocks stored uncompressed.
	CodecZstd   Codec = 1 // Zstandard.
	CodecLZ4    Codec = 2 // LZ4 block format.
	CodecSnappy Codec = 3 // Snappy.
	CodecZlib   Codec = 4 // zlib/deflate.
)

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecLZ4:
		return "lz4"
	case CodecSnappy:
		return "snappy"
	case CodecZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// Header is the parsed fixed header of a superchunk, plus the optional
// per-axis block shape metadata.
type Header struct {
	Version     uint8
	Codec       Codec
	Flags       uint8
	TypeSize    uint8
	Rank        uint8
	NBytes      uint32 // Uncompressed chunk payload size.
	BlockNBytes uint32 // Nominal uncompressed bytes per block.
	NBlocks     uint32
	BlockShape  []uint64 // nil when the header carries no dimensional metadata.
}

// HasShuffle reports whether blocks were byte-shuffled before compression.
func (h *Header) HasShuffle() bool {
	return h.Flags&flagShuffle != 0
}

// HasBlockMeta reports whether the header records a per-axis block shape.
func (h *Header) HasBlockMeta() bool {
	return h.Flags&flagBlockMeta != 0
}

// metaSize returns the byte length of the block shape metadata section.
func (h *Header) metaSize() int {
	if !h.HasBlockMeta() {
		return 0
	}
	return int(h.Rank) * 4
}

// tableOffset returns the byte offset of the block offset table.
func (h *Header) tableOffset() int {
	return HeaderSize + h.metaSize()
}

// payloadOffset returns the byte offset of the compressed payload area.
func (h *Header) payloadOffset() int {
	return h.tableOffset() + int(h.NBlocks)*8
}

// ParseHeader parses a superchunk header from raw chunk bytes.
func ParseHeader(raw []byte) (*Header, error) {
	if len(raw) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d", ErrBadMagic, len(raw), HeaderSize)
	}
	if string(raw[:4]) != Magic {
		return nil, ErrBadMagic
	}

	h := &Header{
		Version:     raw[4],
		Codec:       Codec(raw[5]),
		Flags:       raw[6],
		TypeSize:    raw[7],
		Rank:        raw[8],
		NBytes:      binary.LittleEndian.Uint32(raw[12:16]),
		BlockNBytes: binary.LittleEndian.Uint32(raw[16:20]),
		NBlocks:     binary.LittleEndian.Uint32(raw[20:24]),
	}

	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrBadVersion, h.Version, FormatVersion)
	}
	if h.Codec > CodecZlib {
		return nil, fmt.Errorf("%w: %d", ErrBadCodec, uint8(h.Codec))
	}
	if h.NBlocks == 0 {
		return nil, fmt.Errorf("%w: zero blocks", ErrCorrupt)
	}

	if h.HasBlockMeta() {
		if h.Rank == 0 {
			return nil, fmt.Errorf("%w: metadata flag set with zero rank", ErrCorrupt)
		}
		if len(raw) < h.tableOffset() {
			return nil, fmt.Errorf("%w: truncated block shape metadata", ErrCorrupt)
		}
		h.BlockShape = make([]uint64, h.Rank)
		for i := 0; i < int(h.Rank); i++ {
			dim := binary.LittleEndian.Uint32(raw[HeaderSize+i*4 : HeaderSize+i*4+4])
			if dim == 0 {
				return nil, fmt.Errorf("%w: zero block dimension on axis %d", ErrCorrupt, i)
			}
			h.BlockShape[i] = uint64(dim)
		}
	}

	if len(raw) < h.payloadOffset() {
		return nil, fmt.Errorf("%w: truncated block table", ErrCorrupt)
	}

	return h, nil
}

// blockEntry is one block offset table record.
type blockEntry struct {
	offset uint32 // Relative to the payload area.
	clen   uint32
}

// blockEntryAt reads the table record for the given block.
func (h *Header) blockEntryAt(raw []byte, block uint32) blockEntry {
	pos := h.tableOffset() + int(block)*8
	return blockEntry{
		offset: binary.LittleEndian.Uint32(raw[pos : pos+4]),
		clen:   binary.LittleEndian.Uint32(raw[pos+4 : pos+8]),
	}
}

// BlockTableEntry is one block table record in exported form: where the
// block's stored bytes start relative to the payload area and how long
// they are.
type BlockTableEntry struct {
	Offset uint32
	CLen   uint32
}

// BlockTable returns the full block offset table. Intended for inspection
// tools; the read path accesses records individually.
func (h *Header) BlockTable(raw []byte) []BlockTableEntry {
	out := make([]BlockTableEntry, h.NBlocks)
	for i := uint32(0); i < h.NBlocks; i++ {
		e := h.blockEntryAt(raw, i)
		out[i] = BlockTableEntry{Offset: e.offset, CLen: e.clen}
	}
	return out
}

// PayloadOffset returns the byte offset of the compressed payload area
// within the raw chunk bytes.
func (h *Header) PayloadOffset() int {
	return h.payloadOffset()
}

// encodeHeader serializes a header and its optional metadata section.
func encodeHeader(h *Header) []byte {
	buf := make([]byte, h.tableOffset())
	copy(buf[:4], Magic)
	buf[4] = h.Version
	buf[5] = uint8(h.Codec)
	buf[6] = h.Flags
	buf[7] = h.TypeSize
	buf[8] = h.Rank
	binary.LittleEndian.PutUint32(buf[12:16], h.NBytes)
	binary.LittleEndian.PutUint32(buf[16:20], h.BlockNBytes)
	binary.LittleEndian.PutUint32(buf[20:24], h.NBlocks)
	for i, dim := range h.BlockShape {
		binary.LittleEndian.PutUint32(buf[HeaderSize+i*4:HeaderSize+i*4+4], uint32(dim))
	}
	return buf
}
