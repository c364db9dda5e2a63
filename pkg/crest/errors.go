package crest

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError is returned by a connection when the server answers a request
// with an unexpected status code.
type TransportError struct {
	StatusCode int    `json:"status_code" yaml:"status_code"`
	Method     string `json:"method"      yaml:"method"`
	URL        string `json:"url"         yaml:"url"`
	Body       string `json:"body"        yaml:"body"`
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("got unexpected status code from server: %d", e.StatusCode)
	}

	return fmt.Sprintf("%s %s: got unexpected status code from server: %d", e.Method, e.URL, e.StatusCode)
}

// FieldNotFoundError is returned when a node has no field with the requested name.
type FieldNotFoundError struct {
	Field string
	Href  string
}

// Error implements the error interface.
func (e *FieldNotFoundError) Error() string {
	if e.Href != "" {
		return fmt.Sprintf("field %q not found on resource %s", e.Field, e.Href)
	}

	return fmt.Sprintf("field %q not found", e.Field)
}

// Is lets errors.Is match FieldNotFoundError against ErrFieldNotFound.
func (e *FieldNotFoundError) Is(target error) bool {
	return target == ErrFieldNotFound
}

// Static errors for err113 compliance.
var (
	ErrFieldNotFound    = errors.New("field not found")
	ErrUnsupportedValue = errors.New("unsupported JSON value")
	ErrNotAnObject      = errors.New("JSON value is not an object")
	ErrNotAList         = errors.New("value is not a list")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrEmptyPathSegment = errors.New("empty path segment")
	ErrConfigRequired   = errors.New("config is required")
	ErrInvalidCacheTime = errors.New("cache time must not be negative")
	ErrClientIDRequired = errors.New("client ID is required")
	ErrAPIKeyRequired   = errors.New("API key is required")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoConnection     = errors.New("node has an href but no connection")
	ErrUnexpectedRoot   = errors.New("root document is not an object")
)

// StatusCode returns the HTTP status carried by a TransportError in err's
// chain, or 0.
func StatusCode(err error) int {
	transportErr := &TransportError{}
	if errors.As(err, &transportErr) {
		return transportErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a 403 from the server.
func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}
