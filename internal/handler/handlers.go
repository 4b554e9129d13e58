// Package handler is the first layer. The first entry point
// for business logic after the router.
//
// It parses requests, handles input validation using the
// validation package, and calls the appropriate service layer.
// Errors are returned as is; the global error handler turns
// them into the client payload.
package handler

import (
	"github.com/deppfellow/errfmt/internal/server"
	"github.com/deppfellow/errfmt/internal/service"
)

// Handlers groups all HTTP handlers so router setup receives one value.
type Handlers struct {
	Health  *HealthHandler  // Health serves the status endpoint.
	Preview *PreviewHandler // Preview renders described failures.
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Preview: NewPreviewHandler(s, services.Preview),
	}
}
