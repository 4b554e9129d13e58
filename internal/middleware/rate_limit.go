package middleware

import (
	"net/http"

	"github.com/deppfellow/errfmt/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitMessage is the message clients receive when throttled.
const RateLimitMessage = "Too many requests, please try again later"

// RateLimitMiddleware throttles clients by IP with Echo's in-memory rate
// limiter. Rejections are returned as errors and answered by the global
// error handler like any other failure.
type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// RateLimit returns the limiter, or a pass-through middleware when
// server.rate_limit is 0.
func (r *RateLimitMiddleware) RateLimit() echo.MiddlewareFunc {
	cfg := r.server.Config.Server
	if cfg.RateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:  rate.Limit(cfg.RateLimit),
		Burst: cfg.RateLimitBurst,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c, identifier)
			return echo.NewHTTPError(http.StatusTooManyRequests, RateLimitMessage).SetInternal(err)
		},
	})
}

// RecordRateLimitHit logs a rejected request.
func (r *RateLimitMiddleware) RecordRateLimitHit(c echo.Context, identifier string) {
	GetLogger(c).Warn().
		Str("endpoint", c.Path()).
		Str("identifier", identifier).
		Msg("rate limit hit")
}
