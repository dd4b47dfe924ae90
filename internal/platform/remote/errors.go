package remote

import (
	"errors"
	"fmt"
)

// Common remote client errors
var (
	// ErrReferenceNotFound indicates the resolver does not know the
	// requested reference.
	ErrReferenceNotFound = errors.New("reference not found")

	// ErrInvalidReference indicates the raw reference could not be parsed
	// into a canonical form.
	ErrInvalidReference = errors.New("invalid reference")
)

// StatusError is returned when the remote service answers with a non-success
// HTTP status. The status code lets callers and the failure classifier
// distinguish service-layer failures (5xx) from permanent rejections (4xx).
type StatusError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("remote returned status %d", e.StatusCode)
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

// Transient reports whether the failure is worth retrying: server-side
// errors are, client-side rejections are not.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500
}
