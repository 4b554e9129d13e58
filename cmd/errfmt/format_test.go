package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFormatCmd(t *testing.T) {
	t.Setenv("ERRFMT_CONFIG_FILE", "")

	t.Run("stdin", func(t *testing.T) {
		out, err := run(t, `{"status_code":400,"details":[{"path":["foo"],"type":"object.allowUnknown"},{"path":["bar"],"type":"object.allowUnknown"}]}`, "format")
		require.NoError(t, err)

		assert.JSONEq(t, `{"error":{"message":"the following parameters are not allowed: foo, bar","status_code":400}}`, out)
	})

	t.Run("status only", func(t *testing.T) {
		t.Setenv("ERRFMT_FORMATTER__VALIDATION_STATUS_CODE", "422")

		out, err := run(t, `{"status_code":400,"message":"bad"}`, "format", "--status-only")
		require.NoError(t, err)

		assert.Equal(t, "422\n", out)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "failure.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"status_code":401,"message":"who even are you","name":"UnauthorizedUser"}`), 0o600))

		t.Setenv("ERRFMT_FORMATTER__PERMEATE_ERROR_NAME", "true")
		t.Setenv("ERRFMT_FORMATTER__DECAMELIZE_ERROR_NAME", "true")

		out, err := run(t, "", "format", path)
		require.NoError(t, err)

		assert.JSONEq(t, `{"error":{"message":"who even are you","status_code":401,"type":"unauthorized_user"}}`, out)
	})

	t.Run("invalid failure", func(t *testing.T) {
		_, err := run(t, `{"status_code":"400","extra":1}`, "format")
		require.Error(t, err)

		assert.Contains(t, err.Error(), "status_code must be a number")
		assert.Contains(t, err.Error(), "extra is not allowed")
	})

	t.Run("missing status", func(t *testing.T) {
		_, err := run(t, `{"message":"hi"}`, "format")
		require.Error(t, err)

		assert.EqualError(t, err, "invalid failure: status_code is required")
	})
}
