// Package formatter turns failed request outcomes into the uniform JSON error
// payload sent to clients.
//
// A Formatter is built once from Config and is read-only afterwards, so a
// single instance is shared by every in-flight request.
//
// For each Failure it:
//  1. logs 500s with their stack trace (when LogServerError is on),
//  2. remaps 400 to ValidationStatusCode (when set),
//  3. picks the message: the configured 500 message, the aggregated
//     validation details, the failure's own message, or the status text,
//  4. optionally exposes the error name as "type".
package formatter

import (
	"context"
	"net/http"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/huandu/xstrings"
	"github.com/rs/zerolog"
)

// Config holds the formatter options.
//
// The koanf tags map the "formatter" config block. Zero values mean "unset"
// for ValidationStatusCode and ServerErrorMessage.
type Config struct {
	// LogServerError logs every 500 with its stack trace.
	LogServerError bool `koanf:"log_server_error"`

	// ValidationStatusCode replaces 400 responses' status when non-zero
	// (e.g. 422 to tell validation failures apart from other bad requests).
	ValidationStatusCode int `koanf:"validation_status_code" validate:"omitempty,min=400,max=599"`

	// ServerErrorMessage replaces the message of every 500 when non-empty.
	ServerErrorMessage string `koanf:"server_error_message"`

	// PermeateErrorName exposes the error name in the payload "type" field.
	PermeateErrorName bool `koanf:"permeate_error_name"`

	// DecamelizeErrorName turns "UnauthorizedUser" into "unauthorized_user"
	// before exposing it.
	DecamelizeErrorName bool `koanf:"decamelize_error_name"`

	// Language overrides the built-in templates, path by path.
	Language Language `koanf:"language"`
}

// DefaultConfig returns the default options: server errors are logged,
// everything else is off.
func DefaultConfig() Config {
	return Config{
		LogServerError: true,
	}
}

// Result is what the host writes back: the final status and the body.
type Result struct {
	Status  int          `json:"status"`
	Payload errs.Payload `json:"payload"`
}

// Formatter formats failures. The zero value is not usable, use New.
type Formatter struct {
	cfg      Config
	language Language
	logger   zerolog.Logger
}

// New builds a Formatter. cfg.Language is merged over DefaultLanguage.
//
// logger receives server errors when no request-scoped logger is found in the
// context passed to Format.
func New(cfg Config, logger zerolog.Logger) (*Formatter, error) {
	language, err := MergeLanguage(DefaultLanguage(), cfg.Language)
	if err != nil {
		return nil, err
	}

	cfg.Language = nil

	return &Formatter{
		cfg:      cfg,
		language: language,
		logger:   logger,
	}, nil
}

// Config returns the options the formatter was built with. The merged
// template tree is available through Language.
func (f *Formatter) Config() Config {
	return f.cfg
}

// Language returns the merged template tree. Callers must not modify it.
func (f *Formatter) Language() Language {
	return f.language
}

// Format builds the response for outcome.
//
// It reports false for anything that is not a Failure, in which case the
// response must be left untouched.
func (f *Formatter) Format(ctx context.Context, outcome errs.Outcome) (Result, bool) {
	var failure errs.Failure

	switch o := outcome.(type) {
	case errs.Failure:
		failure = o
	case *errs.Failure:
		if o == nil {
			return Result{}, false
		}
		failure = *o
	default:
		return Result{}, false
	}

	status := failure.StatusCode
	if status < 100 || status > 999 {
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError && f.cfg.LogServerError {
		f.logServerError(ctx, failure)
	}

	if f.cfg.ValidationStatusCode != 0 && status == http.StatusBadRequest {
		status = f.cfg.ValidationStatusCode
	}

	body := errs.ErrorBody{
		Message:    f.message(status, failure),
		StatusCode: status,
	}

	if f.cfg.PermeateErrorName && failure.Name != "" {
		body.Type = failure.Name
		if f.cfg.DecamelizeErrorName {
			body.Type = Decamelize(failure.Name)
		}
	}

	return Result{
		Status:  status,
		Payload: errs.Payload{Error: body},
	}, true
}

// Message aggregates validation details into one message using the merged
// templates. It is what Format uses for failures carrying details.
func (f *Formatter) Message(details []errs.Detail) string {
	return aggregate(f.language, details)
}

func (f *Formatter) message(status int, failure errs.Failure) string {
	switch {
	case status == http.StatusInternalServerError && f.cfg.ServerErrorMessage != "":
		return f.cfg.ServerErrorMessage
	case len(failure.Details) > 0:
		return f.Message(failure.Details)
	case failure.Message != "":
		return failure.Message
	case status == http.StatusInternalServerError:
		return errs.DefaultServerErrorMessage
	default:
		return http.StatusText(status)
	}
}

func (f *Formatter) logServerError(ctx context.Context, failure errs.Failure) {
	logger := f.loggerFrom(ctx)

	event := logger.Error().Stack().Int("status", failure.StatusCode)
	if failure.Cause != nil {
		event = event.Err(failure.Cause)
	}
	if failure.Name != "" {
		event = event.Str("error_name", failure.Name)
	}

	event.Msg(failure.Message)
}

// loggerFrom prefers the request-scoped logger stored in ctx.
func (f *Formatter) loggerFrom(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
			return logger
		}
	}
	return &f.logger
}

// Decamelize converts a PascalCase or camelCase name to snake_case.
//
//	"UnauthorizedUser" -> "unauthorized_user"
//	"HTTPServerError"  -> "http_server_error"
func Decamelize(name string) string {
	return xstrings.ToSnakeCase(name)
}
