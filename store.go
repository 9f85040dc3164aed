package b2slice

import "context"

// ChunkLayout describes the stored form of one chunk: where its raw
// compressed bytes live and, when the stored header records it, the block
// shape used inside the chunk.
type ChunkLayout struct {
	ByteOffset uint64
	ByteLength uint64

	// BlockShape is the per-axis block shape recorded in the chunk's
	// stored header. It is nil when the header omits dimensional metadata,
	// as legacy 1-D writers did; the planner then synthesizes geometry
	// from the dataset descriptor.
	BlockShape []uint64
}

// ChunkStore is the dataset container consumed by the read engine. It owns
// chunk metadata and raw chunk byte access; the engine treats everything it
// returns as a read-only snapshot.
//
// Errors returned by a ChunkStore are fatal to the request and propagate
// to the caller unchanged: the fallback path would hit the same failure.
type ChunkStore interface {
	// Descriptor returns the dataset's geometry snapshot.
	Descriptor() (*Descriptor, error)

	// ChunkLayout returns the stored layout of the chunk at the given
	// multi-index.
	ChunkLayout(index []uint64) (*ChunkLayout, error)

	// RawChunk returns the chunk's raw compressed bytes.
	RawChunk(ctx context.Context, index []uint64) ([]byte, error)
}
