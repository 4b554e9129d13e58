package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/deppfellow/errfmt/internal/formatter"
	"github.com/deppfellow/errfmt/internal/server"
)

// PreviewService renders failures exactly as the global error handler
// would, without logging them as server errors.
type PreviewService struct {
	server    *server.Server
	formatter *formatter.Formatter
}

// NewPreviewService builds a formatter sharing the server's options and
// templates, with server error logging turned off.
func NewPreviewService(s *server.Server) (*PreviewService, error) {
	cfg := s.Formatter.Config()
	cfg.LogServerError = false
	cfg.Language = s.Formatter.Language()

	f, err := formatter.New(cfg, *s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize preview formatter: %w", err)
	}

	return &PreviewService{
		server:    s,
		formatter: f,
	}, nil
}

// Preview formats failure.
func (p *PreviewService) Preview(ctx context.Context, failure errs.Failure) (formatter.Result, error) {
	result, ok := p.formatter.Format(ctx, failure)
	if !ok {
		return formatter.Result{}, errs.NewInternalServerError(fmt.Errorf("failure with status %d was not formatted", failure.StatusCode))
	}
	return result, nil
}
