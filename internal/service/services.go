// Package service contains the business logic.
//
// It sits between the handler layer and the formatter. It receives
// validated data from the handler and performs the operations the
// endpoints expose.
package service

import (
	"github.com/deppfellow/errfmt/internal/server"
)

// Services groups every service so handlers receive them as one value.
type Services struct {
	Preview *PreviewService
}

// NewServices builds every service.
func NewServices(s *server.Server) (*Services, error) {
	preview, err := NewPreviewService(s)
	if err != nil {
		return nil, err
	}

	return &Services{
		Preview: preview,
	}, nil
}
