package utils

import "fmt"

// ContextError attaches a short description of the failing operation to an
// underlying cause while keeping the cause reachable via errors.Unwrap.
type ContextError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *ContextError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap().
func (e *ContextError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error. It returns nil when cause is nil.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &ContextError{
		Context: context,
		Cause:   cause,
	}
}
