// Package b2slice reads rectangular regions out of chunked, block-compressed
// N-dimensional datasets without decompressing whole chunks.
//
// Datasets are partitioned twice: into chunks by the container, and within
// each chunk into independently compressed blocks. When a read request
// qualifies (unit steps, native byte order, block metadata present), the
// engine plans the exact set of blocks intersecting the requested region,
// decompresses only those, and copies the intersecting portions into the
// caller's row-major output buffer. Requests that do not qualify are served
// by a whole-chunk fallback with identical results.
//
// The optimized path can be disabled process-wide with Disable, scoped with
// WithDisabled and WithEnabled, or forced off with the B2SLICE_FILTER
// environment variable.
package b2slice
