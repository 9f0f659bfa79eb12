package robot

import (
	"errors"
	"fmt"
	"net"
)

// ErrMalformedResponse is matched by every MalformedResponseError.
var ErrMalformedResponse = errors.New("robot: malformed response")

// NetworkError is returned when a request could not complete: connection
// refused, reset, or timed out. Commands treat it as non-fatal.
type NetworkError struct {
	// Op is the HTTP method.
	Op string

	// URL is the full request URL.
	URL string

	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("robot: %s %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request timed out.
func (e *NetworkError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// MalformedResponseError is returned when a response body cannot be decoded
// into the expected shape.
type MalformedResponseError struct {
	// Endpoint is the request path.
	Endpoint string

	Err error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("robot: malformed response from %s: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrMalformedResponse.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// APIError represents a non-2xx reply from the robot.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the (truncated) response body.
	Message string

	// Endpoint is the request path.
	Endpoint string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("robot: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsNetworkError reports whether err is (or wraps) a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
