package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedRequest indicates an empty or unparsable request line
	MalformedRequest ErrorCode = "MALFORMED_REQUEST"
	// UnsupportedMethod indicates a method outside GET/POST/PUT/DELETE
	UnsupportedMethod ErrorCode = "UNSUPPORTED_METHOD"
	// UnterminatedTag indicates a template tag with no closing marker
	UnterminatedTag ErrorCode = "UNTERMINATED_TAG"
	// RouteMiss indicates no route, static file or wildcard handler matched
	RouteMiss ErrorCode = "ROUTE_MISS"
	// ManifestInvalid indicates the site manifest could not be loaded
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// ConfigInvalid indicates invalid configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error is a failure carrying a stable code.
type Error struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new coded error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first coded error in err's chain,
// or the empty code when there is none.
func CodeOf(err error) ErrorCode {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// Hints maps error codes to a short operator-facing remedy
var Hints = map[ErrorCode]string{
	UnterminatedTag: "close every '<@=' tag with '>' (or the configured closing marker)",
	ManifestInvalid: "run 'fredwork routes' to validate the site manifest",
	ConfigInvalid:   "check fredwork.toml / fredwork.yaml / fredwork.json",
}

// GetHint returns the remedy hint for an error code
func GetHint(code ErrorCode) string {
	return Hints[code]
}
