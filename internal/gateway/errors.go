package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrMutationFailed is returned when a mutating call failed after retries.
	// The caller is expected to revert its optimistic change.
	ErrMutationFailed = errors.New("mutation failed")

	// ErrUnsupported means the backend does not implement the operation.
	ErrUnsupported = errors.New("operation not supported by backend")

	// ErrNotFound is returned by Get when neither the backend nor the
	// snapshot knows the id.
	ErrNotFound = errors.New("announcement not found")
)

// Error describes a failed backend call.
type Error struct {
	Op     string // list, get, mark-read, archive, delete, snooze
	Status int    // HTTP status, 0 for network failures
	Err    error  // last underlying failure

	kind error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %v (status %d): %v", e.Op, e.kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.kind, e.Err)
}

// Unwrap exposes both the sentinel and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	return []error{e.kind, e.Err}
}

// Retryable reports whether repeating the user action may succeed.
func (e *Error) Retryable() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == 429
}

// IsRetryable reports whether err carries a retryable gateway failure.
func IsRetryable(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Retryable()
	}
	return false
}
