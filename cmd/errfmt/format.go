package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/deppfellow/errfmt/internal/config"
	"github.com/deppfellow/errfmt/internal/formatter"
	"github.com/deppfellow/errfmt/internal/handler"
	"github.com/deppfellow/errfmt/internal/logger"
	"github.com/deppfellow/errfmt/internal/validation"
	"github.com/spf13/cobra"
)

func newFormatCmd(configPath *string) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format a failure read from a JSON file or stdin",
		Long: `Format prints the error payload the server would send for a failure.

The failure is read from file, or from stdin when file is omitted or "-":

  {"status_code": 400, "details": [{"path": ["bar"], "type": "object.allowUnknown"}]}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			body, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read failure: %w", err)
			}

			f, err := formatter.New(cfg.Formatter, logger.NewLoggerWithWriter(cfg.Observability, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}

			result, err := formatFailure(cmd, f, body)
			if err != nil {
				return err
			}

			if statusOnly {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Status)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result.Payload)
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status-only", false, "print only the response status")

	return cmd
}

// formatFailure decodes and validates body, then formats it. Invalid input
// is reported with a message built by f itself.
func formatFailure(cmd *cobra.Command, f *formatter.Formatter, body []byte) (formatter.Result, error) {
	req := &handler.PreviewRequest{}
	t := reflect.TypeOf(req)

	issues, err := validation.Scan(body, t)
	if err != nil {
		return formatter.Result{}, fmt.Errorf("invalid failure: %w", err)
	}
	if len(issues) > 0 {
		return formatter.Result{}, fmt.Errorf("invalid failure: %s", f.Message(issues))
	}

	if err := json.Unmarshal(body, req); err != nil {
		return formatter.Result{}, fmt.Errorf("invalid failure: %w", err)
	}

	if err := req.Validate(); err != nil {
		details, ok := validation.Details(err, t)
		if !ok {
			return formatter.Result{}, fmt.Errorf("invalid failure: %w", err)
		}
		return formatter.Result{}, fmt.Errorf("invalid failure: %s", f.Message(details))
	}

	result, ok := f.Format(cmd.Context(), req.Failure())
	if !ok {
		return formatter.Result{}, errors.New("failure was not formatted")
	}

	return result, nil
}
