// Package logger configures the application's logging.
//
// It uses *ZeroLog* for structured logs. Errors wrapped with
// github.com/pkg/errors carry their stack trace into the log line
// when the event is built with .Stack().
package logger

import (
	"io"
	"os"
	"time"

	"github.com/deppfellow/errfmt/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// NewLogger builds the application logger from the observability config.
//
// Output is JSON on stdout in production or when logging.format is "json",
// a human-friendly console writer otherwise.
func NewLogger(cfg *config.ObservabilityConfig) zerolog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter is NewLogger writing to w.
func NewLoggerWithWriter(cfg *config.ObservabilityConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	out := w
	if !cfg.IsProduction() && cfg.Logging.Format != "json" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Logger()
}
