package elastic

import (
	"errors"
	"fmt"
)

// TransportError represents a failure to reach the backend: DNS, connection
// refused, TLS, timeouts and cancelled contexts all end up here.
type TransportError struct {
	Method Method
	Path   string
	Cause  error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("elasticsearch %s %s: transport failure: %v", e.Method, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StatusError represents a non-200 response from the backend.
// Body holds the raw response body for diagnosis.
type StatusError struct {
	Method     Method
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("elasticsearch %s request to %s failed with %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// DecodeError represents a successful response whose body is not valid JSON,
// or a request body that could not be encoded.
type DecodeError struct {
	Method Method
	Path   string
	Cause  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("elasticsearch %s %s: %v", e.Method, e.Path, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// NewTransportError creates a new TransportError.
func NewTransportError(method Method, path string, cause error) *TransportError {
	return &TransportError{Method: method, Path: path, Cause: cause}
}

// NewStatusError creates a new StatusError.
func NewStatusError(method Method, path string, statusCode int, body string) *StatusError {
	return &StatusError{Method: method, Path: path, StatusCode: statusCode, Body: body}
}

// IsTransport reports whether err (or any error it wraps) is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatus reports whether err (or any error it wraps) is a StatusError.
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Kind returns a short classification of err for logs, metrics and HTTP
// responses: "transport", "status", "decode" or "internal".
func Kind(err error) string {
	var (
		te *TransportError
		se *StatusError
		de *DecodeError
	)
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "status"
	case errors.As(err, &de):
		return "decode"
	default:
		return "internal"
	}
}
