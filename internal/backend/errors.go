package backend

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an empty lookup result. Callers treat it as a decision
// path, not a failure.
var ErrNotFound = errors.New("not found")

// ErrorKind classifies normalized API failures.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation" // bad input, no network call made
	KindTimeout    ErrorKind = "timeout"    // request deadline exceeded
	KindServer     ErrorKind = "server"     // 5xx from the backend
	KindClient     ErrorKind = "client"     // definitive 4xx, never retried
	KindNetwork    ErrorKind = "network"    // transport-level failure
)

// APIError is the uniform error shape every backend call reduces to.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Retryable reports whether the failure is worth another attempt: network
// failures, timeouts, and server errors are; definitive client errors and
// validation errors are not.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindServer, KindNetwork:
		return true
	default:
		return false
	}
}

// AsAPIError unwraps err into an *APIError if one is in the chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
