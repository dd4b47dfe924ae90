package service

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	// ErrSessionActive is returned when starting a session while another one
	// is already active for the user.
	ErrSessionActive = errors.New("a review session is already active")

	// ErrNoActiveSession is returned when a session operation is attempted
	// with no active session for the user.
	ErrNoActiveSession = errors.New("no active review session")

	// ErrSessionComplete is returned when recording an outcome after every
	// card in the session has been answered.
	ErrSessionComplete = errors.New("session has no remaining cards")

	// ErrOutcomeBeforeReveal is returned when an outcome is recorded for a
	// card whose text has not been revealed yet.
	ErrOutcomeBeforeReveal = errors.New("cannot record outcome before reveal")

	// ErrNothingToUndo is returned when undo is requested with no recorded
	// outcomes.
	ErrNothingToUndo = errors.New("no outcome to undo")

	// ErrSessionEmpty is returned when committing a session that recorded no
	// outcomes. Abandon is the way to discard an untouched session.
	ErrSessionEmpty = errors.New("session has no recorded outcomes")

	// ErrVerseVerificationFailed is returned when a cached verse's text no
	// longer matches the resolver's answer for the same reference and
	// translation. Verse text is immutable; a mismatch means corrupted local
	// data and is surfaced, never patched over.
	ErrVerseVerificationFailed = errors.New("cached verse text failed re-verification")
)

// ServiceError wraps a failure in a service operation with enough context to
// log and to map onto a user-facing message. The underlying error is
// preserved for errors.Is/errors.As.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
