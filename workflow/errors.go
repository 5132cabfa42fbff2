package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors for workflow operations.
var (
	// ErrTaskNotFound is returned when a task ID does not resolve.
	ErrTaskNotFound = errors.New("task not found")
	// ErrGateIndexOutOfRange is returned for gate edits at an invalid index.
	ErrGateIndexOutOfRange = errors.New("gate index out of range")
	// ErrNoGates is returned when an operation requires at least one gate.
	ErrNoGates = errors.New("task has no gates")
	// ErrInvalidTransition is returned for disallowed status transitions.
	ErrInvalidTransition = errors.New("invalid task status transition")
)

// ValidationError reports a rejected input field along with the valid range,
// so callers can surface the specific constraint. It is returned before any
// state mutation takes place.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}
