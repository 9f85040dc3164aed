package b2slice

import (
	"os"
	"strconv"
	"sync/atomic"
)

// EnvForceFilter names the environment variable that force-disables
// optimized slicing for the whole process when set to a non-zero integer,
// regardless of the programmatic switch. Non-integer values count as zero.
// Intended for testing and debugging.
const EnvForceFilter = "B2SLICE_FILTER"

// Optimized slicing is enabled by default; the zero value of the flag
// means enabled so that no initialization is required.
var optDisabled atomic.Bool

// Enable activates optimized slicing process-wide. It is the default
// state and calling it redundantly has no effect.
func Enable() {
	optDisabled.Store(false)
}

// Disable deactivates optimized slicing process-wide; every read request
// uses the fallback path until Enable is called.
func Disable() {
	optDisabled.Store(true)
}

// Enabled reports whether optimized slicing is active, taking both the
// programmatic switch and the environment override into account.
func Enabled() bool {
	return !optDisabled.Load() && !filterForced()
}

// WithDisabled runs fn with optimized slicing disabled, restoring the
// previous state on every exit path, including panics.
func WithDisabled(fn func() error) error {
	return withState(true, fn)
}

// WithEnabled runs fn with optimized slicing enabled, restoring the
// previous state on every exit path, including panics. The environment
// override still wins while active.
func WithEnabled(fn func() error) error {
	return withState(false, fn)
}

func withState(disabled bool, fn func() error) error {
	prev := optDisabled.Swap(disabled)
	defer optDisabled.Store(prev)
	return fn()
}

// filterForced reports whether the environment force-disables the
// optimization. The variable is read on every request so that tests can
// toggle it at runtime.
func filterForced() bool {
	v, ok := os.LookupEnv(EnvForceFilter)
	if !ok {
		return false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return false
	}
	return n != 0
}
