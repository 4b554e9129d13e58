package errs

import (
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusName converts a status code into a PascalCase kind name.
//
// Example:
//
//	StatusName(404) -> "NotFound"
//	StatusName(418) -> "ImATeapot"
//
// Unknown codes yield "".
func StatusName(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return ""
	}

	title := cases.Title(language.English).String(text)

	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, title)
}

// New creates an HTTPError for an arbitrary status.
// An empty name falls back to StatusName(status).
func New(status int, name, message string) *HTTPError {
	if name == "" {
		name = StatusName(status)
	}

	return &HTTPError{
		Status:  status,
		Name:    name,
		Message: message,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return New(http.StatusUnauthorized, "", message)
}

// NewForbiddenError creates a 403 Forbidden HTTPError.
func NewForbiddenError(message string) *HTTPError {
	return New(http.StatusForbidden, "", message)
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// details is optional; when present the formatter aggregates them into the
// final message instead of using message.
func NewBadRequestError(message string, details []Detail) *HTTPError {
	err := New(http.StatusBadRequest, "", message)
	err.Details = details
	return err
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string) *HTTPError {
	return New(http.StatusNotFound, "", message)
}

// NewInternalServerError creates a 500 wrapping cause.
//
// The message is the generic DefaultServerErrorMessage: clients never see the
// cause, it is only logged.
func NewInternalServerError(cause error) *HTTPError {
	err := New(http.StatusInternalServerError, "", DefaultServerErrorMessage)
	err.cause = cause
	return err
}

// NewValidationError wraps validation details into a 400.
func NewValidationError(details []Detail) *HTTPError {
	err := NewBadRequestError("Validation failed", details)
	err.Name = "ValidationError"
	return err
}
