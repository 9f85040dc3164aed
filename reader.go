package b2slice

import (
	"context"
	"errors"
	"fmt"

	"github.com/coocood/freecache"

	"github.com/scigolib/b2slice/internal/utils"
)

// Reader serves region reads over one dataset, routing each request
// through the optimized block-level path when applicable and through the
// whole-chunk fallback otherwise. The strategy is resolved explicitly per
// call; a Reader holds no per-request state and is safe for concurrent use
// on disjoint output buffers.
type Reader struct {
	store    ChunkStore
	codec    BlockCodec
	fallback FallbackReader
	cache    *freecache.Cache
	onCodec  func(error)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithCodec overrides the default superchunk codec.
func WithCodec(c BlockCodec) ReaderOption {
	return func(r *Reader) { r.codec = c }
}

// WithFallback overrides the default whole-chunk fallback reader.
func WithFallback(f FallbackReader) ReaderOption {
	return func(r *Reader) { r.fallback = f }
}

// WithBlockCache adds a cross-request cache of decompressed blocks of the
// given capacity in bytes. The cache changes performance only, never
// results.
func WithBlockCache(sizeBytes int) ReaderOption {
	return func(r *Reader) { r.cache = freecache.NewCache(sizeBytes) }
}

// WithCodecErrorHandler installs a diagnostics hook invoked when the
// optimized path aborts on corrupt compressed data before the request is
// retried via the fallback. The end caller never observes the error.
func WithCodecErrorHandler(fn func(error)) ReaderOption {
	return func(r *Reader) { r.onCodec = fn }
}

// NewReader returns a Reader over the given store. By default it uses the
// superchunk codec, a whole-chunk fallback over the same store, and no
// block cache.
func NewReader(store ChunkStore, opts ...ReaderOption) *Reader {
	r := &Reader{
		store: store,
		codec: SuperchunkCodec{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fallback == nil {
		r.fallback = NewChunkFallback(store, r.codec)
	}
	return r
}

// ReadRegion reads the requested region into dst, which must hold exactly
// the region's elements in row-major order. Whether the optimized or the
// fallback path served the request is not observable in the result.
//
// Store failures propagate to the caller; they are not masked by the
// fallback, which would hit the same failure.
func (r *Reader) ReadRegion(ctx context.Context, region Region, dst []byte) error {
	desc, err := r.store.Descriptor()
	if err != nil {
		return utils.WrapError("descriptor read failed", err)
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

	if !r.shouldOptimize(desc, region) {
		return r.fallback.ReadRegion(ctx, region, dst)
	}

	plan, err := Plan(desc, region, r.store)
	if err != nil {
		var na *NotApplicableError
		if errors.As(err, &na) {
			return r.fallback.ReadRegion(ctx, region, dst)
		}
		return err
	}

	err = executePlan(ctx, desc, region, plan, r.store, r.codec, dst, r.cache)
	if err != nil {
		var ce *CodecError
		if errors.As(err, &ce) {
			if r.onCodec != nil {
				r.onCodec(ce)
			}
			return r.fallback.ReadRegion(ctx, region, dst)
		}
		return err
	}
	return nil
}

// shouldOptimize is the applicability gate: it consults the process-wide
// switch and environment override, then the cheap request-shape checks.
// Deeper checks are the planner's job.
func (r *Reader) shouldOptimize(desc *Descriptor, region Region) bool {
	if !Enabled() {
		return false
	}
	if !region.unitStep() {
		return false
	}
	if !desc.NativeOrder {
		return false
	}
	return true
}

// ReadRegionInto is a convenience wrapper that allocates and returns the
// output buffer for the region.
func (r *Reader) ReadRegionInto(ctx context.Context, region Region) ([]byte, error) {
	desc, err := r.store.Descriptor()
	if err != nil {
		return nil, utils.WrapError("descriptor read failed", err)
	}
	size, err := utils.SafeBufferSize(region.Count, desc.ElemSize)
	if err != nil {
		return nil, fmt.Errorf("output size: %w", err)
	}
	dst := make([]byte, size)
	if err := r.ReadRegion(ctx, region, dst); err != nil {
		return nil, err
	}
	return dst, nil
}
