package formatter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFormatter(t *testing.T, cfg Config) (*Formatter, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	f, err := New(cfg, zerolog.New(buf))
	require.NoError(t, err)

	return f, buf
}

func format(t *testing.T, f *Formatter, failure errs.Failure) Result {
	t.Helper()

	result, ok := f.Format(context.Background(), failure)
	require.True(t, ok)

	return result
}

func TestFormat_Success(t *testing.T) {
	f, buf := newFormatter(t, DefaultConfig())

	result, ok := f.Format(context.Background(), errs.Success{})
	assert.False(t, ok)
	assert.Equal(t, Result{}, result)

	_, ok = f.Format(context.Background(), nil)
	assert.False(t, ok)

	var nilFailure *errs.Failure
	_, ok = f.Format(context.Background(), nilFailure)
	assert.False(t, ok)

	assert.Zero(t, buf.Len())
}

func TestFormat_StatusCode(t *testing.T) {
	tests := []struct {
		name       string
		remap      int
		status     int
		wantStatus int
	}{
		{name: "bad request untouched without remap", status: http.StatusBadRequest, wantStatus: http.StatusBadRequest},
		{name: "bad request remapped", remap: http.StatusUnprocessableEntity, status: http.StatusBadRequest, wantStatus: http.StatusUnprocessableEntity},
		{name: "other statuses never remapped", remap: http.StatusUnprocessableEntity, status: http.StatusNotFound, wantStatus: http.StatusNotFound},
		{name: "invalid status becomes 500", status: 0, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ValidationStatusCode = tt.remap
			f, _ := newFormatter(t, cfg)

			result := format(t, f, errs.Failure{StatusCode: tt.status, Message: "boom"})

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantStatus, result.Payload.Error.StatusCode)
		})
	}
}

func TestFormat_Message(t *testing.T) {
	t.Run("custom server error message", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ServerErrorMessage = "500 - Server Error"
		f, _ := newFormatter(t, cfg)

		result := format(t, f, errs.Failure{StatusCode: http.StatusInternalServerError, Message: errs.DefaultServerErrorMessage})
		assert.Equal(t, "500 - Server Error", result.Payload.Error.Message)
	})

	t.Run("server error message wins over details", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ServerErrorMessage = "try again later"
		f, _ := newFormatter(t, cfg)

		result := format(t, f, errs.Failure{
			StatusCode: http.StatusInternalServerError,
			Details:    []errs.Detail{{Path: errs.Path{"bar"}, Type: "object.allowUnknown"}},
		})
		assert.Equal(t, "try again later", result.Payload.Error.Message)
	})

	t.Run("server error message only applies to 500", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ServerErrorMessage = "try again later"
		f, _ := newFormatter(t, cfg)

		result := format(t, f, errs.Failure{StatusCode: http.StatusNotFound, Message: "Route not found"})
		assert.Equal(t, "Route not found", result.Payload.Error.Message)
	})

	t.Run("default 500 message kept", func(t *testing.T) {
		f, _ := newFormatter(t, DefaultConfig())

		result := format(t, f, errs.Failure{StatusCode: http.StatusInternalServerError, Message: errs.DefaultServerErrorMessage})
		assert.Equal(t, "An internal server error occurred", result.Payload.Error.Message)
	})

	t.Run("empty message falls back to status text", func(t *testing.T) {
		f, _ := newFormatter(t, DefaultConfig())

		result := format(t, f, errs.Failure{StatusCode: http.StatusForbidden})
		assert.Equal(t, "Forbidden", result.Payload.Error.Message)

		result = format(t, f, errs.Failure{StatusCode: http.StatusInternalServerError})
		assert.Equal(t, errs.DefaultServerErrorMessage, result.Payload.Error.Message)
	})

	t.Run("details replace the message", func(t *testing.T) {
		f, _ := newFormatter(t, DefaultConfig())

		result := format(t, f, errs.Failure{
			StatusCode: http.StatusBadRequest,
			Message:    "Validation failed",
			Details:    []errs.Detail{{Path: errs.Path{"bar"}, Type: "object.allowUnknown", Message: `"bar" is not allowed`}},
		})
		assert.Equal(t, "bar is not allowed", result.Payload.Error.Message)
	})
}

func TestFormat_LogServerError(t *testing.T) {
	cause := errors.New("database exploded")

	t.Run("logged by default", func(t *testing.T) {
		f, buf := newFormatter(t, DefaultConfig())

		format(t, f, errs.Failure{StatusCode: http.StatusInternalServerError, Message: errs.DefaultServerErrorMessage, Cause: cause})

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "database exploded", entry["error"])
		assert.EqualValues(t, http.StatusInternalServerError, entry["status"])
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.LogServerError = false
		f, buf := newFormatter(t, cfg)

		format(t, f, errs.Failure{StatusCode: http.StatusInternalServerError, Cause: cause})
		assert.Zero(t, buf.Len())
	})

	t.Run("client errors are not logged", func(t *testing.T) {
		f, buf := newFormatter(t, DefaultConfig())

		format(t, f, errs.Failure{StatusCode: http.StatusBadRequest, Cause: cause})
		assert.Zero(t, buf.Len())
	})

	t.Run("request scoped logger preferred", func(t *testing.T) {
		f, fallback := newFormatter(t, DefaultConfig())

		scoped := &bytes.Buffer{}
		ctx := zerolog.New(scoped).With().Str("request_id", "abc").Logger().WithContext(context.Background())

		_, ok := f.Format(ctx, errs.Failure{StatusCode: http.StatusInternalServerError, Cause: cause})
		require.True(t, ok)

		assert.Zero(t, fallback.Len())
		assert.Contains(t, scoped.String(), `"request_id":"abc"`)
	})
}

func TestFormat_ErrorName(t *testing.T) {
	tests := []struct {
		name       string
		permeate   bool
		decamelize bool
		errName    string
		wantType   string
	}{
		{name: "hidden by default", errName: "UnauthorizedUser"},
		{name: "permeated as is", permeate: true, errName: "UnauthorizedUser", wantType: "UnauthorizedUser"},
		{name: "decamelized", permeate: true, decamelize: true, errName: "UnauthorizedUser", wantType: "unauthorized_user"},
		{name: "missing name omitted", permeate: true, decamelize: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PermeateErrorName = tt.permeate
			cfg.DecamelizeErrorName = tt.decamelize
			f, _ := newFormatter(t, cfg)

			result := format(t, f, errs.Failure{StatusCode: http.StatusUnauthorized, Message: "who even are you", Name: tt.errName})
			assert.Equal(t, tt.wantType, result.Payload.Error.Type)

			raw, err := json.Marshal(result.Payload)
			require.NoError(t, err)
			if tt.wantType == "" {
				assert.NotContains(t, string(raw), `"type"`)
			}
		})
	}
}

func TestFormat_PayloadShape(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PermeateErrorName = true
	cfg.DecamelizeErrorName = true
	f, _ := newFormatter(t, cfg)

	result := format(t, f, errs.Failure{StatusCode: http.StatusMethodNotAllowed, Message: "nope", Name: "MethodNotAllowed"})

	raw, err := json.Marshal(result.Payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":{"message":"nope","status_code":405,"type":"method_not_allowed"}}`, string(raw))
}

func TestFormat_Idempotent(t *testing.T) {
	f, _ := newFormatter(t, DefaultConfig())

	failure := errs.Failure{
		StatusCode: http.StatusBadRequest,
		Details: []errs.Detail{
			{Path: errs.Path{"foo"}, Type: "object.allowUnknown"},
			{Path: errs.Path{"bar"}, Type: "object.allowUnknown"},
			{Path: errs.Path{"test"}, Type: "number.base", Message: `"test" must be a number`},
		},
	}

	first := format(t, f, failure)
	second := format(t, f, failure)
	assert.Equal(t, first, second)
}

func TestNew_InvalidLanguage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Language = Language{"object": map[string]any{"xor": map[string]any{"singular": 42}}}

	_, err := New(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object.xor.singular")
}

func TestDecamelize(t *testing.T) {
	tests := map[string]string{
		"UnauthorizedUser": "unauthorized_user",
		"MethodNotAllowed": "method_not_allowed",
		"NotFound":         "not_found",
		"error":            "error",
		"":                 "",
	}

	for in, want := range tests {
		assert.Equal(t, want, Decamelize(in), in)
	}
}
