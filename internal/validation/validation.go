// Package validation contains the logic for validating
// request data.
//
// It uses the `validator` library to enforce rules (like
// required fields or email formats) defined in struct tags
// and reports every failure as an errs.Detail the formatter
// can turn into a single client message.
package validation

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// InvalidPayloadMessage is returned when the body is not valid JSON.
const InvalidPayloadMessage = "Invalid request payload"

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
//   - Define a request struct with validator tags (`validate:"required,email"`)
//   - Implement Validate() error that returns validation.Struct(req)
//   - Return CustomValidationErrors for rules tags cannot express
type Validatable interface {
	Validate() error
}

// CustomValidationError is a single validation issue for a specific field.
// Field is the dotted json path, e.g. "items.0.price".
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors is a slice of custom validation errors that satisfies error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	return "Validation failed"
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in its errors are the
// json names, so paths match what the client sent.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
	})
	return validate
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	return Validator().Struct(v)
}

// BindAndValidate binds request data into payload and validates it.
//
// Flow:
//  1. the JSON body is scanned against payload's type: unknown keys and
//     values of the wrong type become details
//  2. c.Bind(payload) populates the struct from the body and path params
//  3. payload.Validate() (or Struct when payload has no Validate method)
//     applies the tag rules
//
// Every failure is returned as a *errs.HTTPError (400). Malformed JSON gets
// InvalidPayloadMessage without details.
//
// payload must be a pointer.
func BindAndValidate(c echo.Context, payload any) error {
	req := c.Request()

	var body []byte
	if req.Body != nil && req.Body != http.NoBody {
		raw, err := io.ReadAll(req.Body)
		if err != nil {
			return errs.NewBadRequestError(InvalidPayloadMessage, nil).WithCause(err)
		}
		body = raw
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	if len(bytes.TrimSpace(body)) > 0 && isJSON(req.Header.Get(echo.HeaderContentType)) {
		details, err := Scan(body, reflect.TypeOf(payload))
		if err != nil {
			return errs.NewBadRequestError(InvalidPayloadMessage, nil).WithCause(err)
		}
		if len(details) > 0 {
			return errs.NewValidationError(details)
		}
	}

	if err := c.Bind(payload); err != nil {
		return bindError(err)
	}

	var err error
	if v, ok := payload.(Validatable); ok {
		err = v.Validate()
	} else {
		err = Struct(payload)
	}
	if err == nil {
		return nil
	}

	details, ok := Details(err, reflect.TypeOf(payload))
	if !ok {
		return errs.NewBadRequestError(err.Error(), nil).WithCause(err)
	}

	return errs.NewValidationError(details)
}

// Details converts a validation error into details.
//
// root is the type that was validated; it is used to resolve the json names
// of peer fields for cross-field rules. It reports false for errors that are
// neither validator.ValidationErrors nor CustomValidationErrors.
func Details(err error, root reflect.Type) ([]errs.Detail, bool) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return fromValidator(validationErrors, root), true
	}

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		details := make([]errs.Detail, 0, len(custom))
		for _, e := range custom {
			path := ParsePath(e.Field)
			details = append(details, errs.Detail{
				Path:    path,
				Type:    "any.custom",
				Message: e.Message,
				Context: map[string]any{"label": label(path), "key": label(path)},
			})
		}
		return details, true
	}

	return nil, false
}

// ParsePath splits a dotted path into segments; numeric segments become
// slice indexes.
//
//	ParsePath("items.2.price") -> Path{"items", 2, "price"}
func ParsePath(field string) errs.Path {
	if field == "" {
		return errs.Path{}
	}

	parts := strings.Split(field, ".")
	path := make(errs.Path, 0, len(parts))
	for _, part := range parts {
		path = append(path, segment(part))
	}
	return path
}

func segment(s string) any {
	if s != "" && strings.Trim(s, "0123456789") == "" {
		if i, err := strconv.Atoi(s); err == nil {
			return i
		}
	}
	return s
}

func bindError(err error) error {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) && echoErr.Code == http.StatusUnsupportedMediaType {
		return errs.New(echoErr.Code, "", http.StatusText(echoErr.Code)).WithCause(err)
	}
	return errs.NewBadRequestError(InvalidPayloadMessage, nil).WithCause(err)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), echo.MIMEApplicationJSON)
}

// jsonName is the name encoding/json uses for the field. Fields hidden with
// `json:"-"` yield "".
func jsonName(fld reflect.StructField) string {
	tag := fld.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

func label(path errs.Path) string {
	if len(path) == 0 {
		return "value"
	}
	return cast.ToString(path[len(path)-1])
}
