package errs

import (
	"strings"

	"github.com/spf13/cast"
)

// DefaultServerErrorMessage is the client-facing message for unclassified 500s.
// The real cause only ever reaches the logs.
const DefaultServerErrorMessage = "An internal server error occurred"

// Path is the location of a field inside the request payload.
// Segments are strings (object keys) or ints (slice indexes).
//
// Example:
//
//	Path{"items", 2, "price"}.String() == "items.2.price"
type Path []any

// String joins the segments with ".". An empty path yields "".
func (p Path) String() string {
	if len(p) == 0 {
		return ""
	}

	parts := make([]string, 0, len(p))
	for _, segment := range p {
		parts = append(parts, cast.ToString(segment))
	}

	return strings.Join(parts, ".")
}

// Append returns a new Path with segments added, leaving p untouched.
func (p Path) Append(segments ...any) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// Detail is one field-level failure reported by the validation layer.
//
// Type is the dotted error kind (e.g. "object.allowUnknown"), Message is the
// validator's default text, and Context carries kind-specific data such as
// "peers" for object.xor / object.missing.
type Detail struct {
	Path    Path           `json:"path"`
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// HTTPError is the main custom error type for API responses.
//
// Fields:
//   - Status: HTTP status code.
//   - Name: machine-friendly kind name (e.g. "UnauthorizedUser"), may be empty.
//   - Message: client-safe message.
//   - Details: validation failures, when the error comes from request validation.
//   - cause: the underlying error, only ever logged.
type HTTPError struct {
	Status  int      `json:"status"`
	Name    string   `json:"name,omitempty"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`

	cause error
}

// Error makes *HTTPError satisfy the built-in error interface.
func (e *HTTPError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// Is reports whether target is also an *HTTPError.
// It does not compare Status or Name, only the type.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)
	return ok
}

// WithMessage returns a copy with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message
	return &clone
}

// WithName returns a copy with Name replaced.
func (e *HTTPError) WithName(name string) *HTTPError {
	clone := *e
	clone.Name = name
	return &clone
}

// WithCause returns a copy wrapping cause.
func (e *HTTPError) WithCause(cause error) *HTTPError {
	clone := *e
	clone.cause = cause
	return &clone
}

// Outcome is the classified result of a request, as seen by the formatter.
// It is either Success or Failure.
type Outcome interface {
	outcome()
}

// Success means the request did not fail. The formatter leaves it alone.
type Success struct{}

// Failure describes a failed request.
//
// Name is the kind name of the original error and is empty when it cannot be
// resolved. Cause is never sent to the client.
type Failure struct {
	StatusCode int
	Message    string
	Details    []Detail
	Name       string
	Cause      error
}

func (Success) outcome() {}
func (Failure) outcome() {}

// FailureFrom converts an *HTTPError into a Failure.
func FailureFrom(e *HTTPError) Failure {
	cause := e.cause
	if cause == nil {
		cause = e
	}

	return Failure{
		StatusCode: e.Status,
		Message:    e.Message,
		Details:    e.Details,
		Name:       e.Name,
		Cause:      cause,
	}
}

// Payload is the body written for every failed request.
//
//	{ "error": { "message": "...", "status_code": 400, "type": "bad_request" } }
type Payload struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the inner object of Payload. Type is omitted unless the
// formatter is configured to expose error names.
type ErrorBody struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Type       string `json:"type,omitempty"`
}
