package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no creator accepted the type. It is not a failure of
	// the value itself.
	ErrNotFound = errors.New("no loader for type")

	// ErrMemoryUnavailable means the memory path cannot run. Callers fall
	// back to the parsed path and never surface it.
	ErrMemoryUnavailable = errors.New("memory path unavailable")

	// ErrLoadFailed means a value could not be extracted by either path.
	ErrLoadFailed = errors.New("load failed")

	// ErrTimedOut means the load was cancelled through its Token.
	ErrTimedOut = errors.New("load timed out")
)

// Failf returns an error wrapping ErrLoadFailed.
func Failf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrLoadFailed, fmt.Sprintf(format, args...))
}

// Unavailablef returns an error wrapping ErrMemoryUnavailable.
func Unavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMemoryUnavailable, fmt.Sprintf(format, args...))
}
