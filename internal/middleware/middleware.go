// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request IDs, request logging, rate limiting, CORS and
// panic recovery.
// It also hosts GlobalErrorHandler, the Echo error handler that
// answers every failed request with the formatter's JSON payload.
package middleware
