package b2slice

import "fmt"

// Reason classifies why a read request is not eligible for the optimized
// block-level path.
type Reason int

// Applicability reason codes. A globally disabled optimization never
// produces a reason: the gate routes straight to the fallback without
// consulting the planner.
const (
	// ReasonNonUnitStep: the request has a step other than 1 on some axis.
	ReasonNonUnitStep Reason = iota

	// ReasonByteOrder: the stored byte order differs from the native one.
	ReasonByteOrder

	// ReasonMissingBlockMeta: a multi-dimensional chunk header carries no
	// block shape metadata, so block geometry cannot be derived.
	ReasonMissingBlockMeta
)

// String returns a short description of the reason code.
func (r Reason) String() string {
	switch r {
	case ReasonNonUnitStep:
		return "non-unit step"
	case ReasonByteOrder:
		return "byte order mismatch"
	case ReasonMissingBlockMeta:
		return "missing block metadata"
	default:
		return fmt.Sprintf("unknown reason (%d)", int(r))
	}
}

// NotApplicableError reports that a request cannot be served by the
// optimized path and must use the fallback. It is expected and frequent;
// the gate recovers from it silently.
type NotApplicableError struct {
	Reason Reason
	Detail string
}

// Error implements the error interface.
func (e *NotApplicableError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("not applicable: %s", e.Reason)
	}
	return fmt.Sprintf("not applicable: %s: %s", e.Reason, e.Detail)
}

// CodecError reports corrupt or unrecognized compressed data encountered
// while decoding a block. The optimized path aborts on the first such
// error and the gate retries the request via the fallback.
type CodecError struct {
	Chunk []uint64 // Multi-index of the offending chunk.
	Block uint64   // Linear block number within the chunk.
	Err   error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return fmt.Sprintf("codec error in chunk %v block %d: %v", e.Chunk, e.Block, e.Err)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *CodecError) Unwrap() error {
	return e.Err
}
