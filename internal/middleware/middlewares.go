package middleware

import (
	"github.com/deppfellow/errfmt/internal/server"
)

// Middlewares groups all middleware components used by the HTTP server so
// router setup receives them as one value.
type Middlewares struct {
	// Global holds the middleware used across the whole API (CORS, request
	// logging, recovery, secure headers) and the global error handler.
	Global *GlobalMiddlewares

	// ContextEnhancer attaches the request-scoped logger.
	ContextEnhancer *ContextEnhancer

	// RateLimit throttles clients when server.rate_limit is set.
	RateLimit *RateLimitMiddleware
}

// NewMiddlewares constructs all middleware components using the application container.
func NewMiddlewares(s *server.Server) *Middlewares {
	return &Middlewares{
		Global:          NewGlobalMiddlewares(s),
		ContextEnhancer: NewContextEnhancer(s),
		RateLimit:       NewRateLimitMiddleware(s),
	}
}
