package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/deppfellow/errfmt/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// RouteNotFoundMessage replaces Echo's generic 404 text for unknown routes.
const RouteNotFoundMessage = "Route not found"

// GlobalMiddlewares groups the middleware installed on every route and the
// global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware configured by the server config.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger returns Echo's request logger middleware writing one "API"
// line per request through the request-scoped logger.
//
// HandleError is on: the error is formatted and written before the line is
// logged, so the logged status is the one the client received (including a
// remapped validation status).
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogError:    true,
		LogLatency:  true,
		LogHost:     true,
		LogMethod:   true,
		LogURIPath:  true,
		HandleError: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger := GetLogger(c)

			var e *zerolog.Event
			switch {
			case v.Status >= 500:
				e = logger.Error()
			case v.Status >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if v.Error != nil {
				e = e.AnErr("handler_error", v.Error)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", v.Status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover returns Echo's panic recovery middleware. Recovered panics reach
// the error handler as plain errors and are answered with a 500.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the echo.HTTPErrorHandler of the server: every error
// a handler or middleware returns ends up here.
//
// The error is classified into an Outcome, formatted, and written as JSON
// (headers only for HEAD). A response that was already written is left
// alone, which also makes a second call for the same request a no-op.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	result, ok := global.server.Formatter.Format(c.Request().Context(), Classify(err))
	if !ok {
		return
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(result.Status)
	} else {
		err = c.JSON(result.Status, result.Payload)
	}

	if err != nil {
		GetLogger(c).Error().Err(err).Msg("failed to write error response")
	}
}

// Classify turns whatever a handler returned into an Outcome.
//
//   - nil: Success.
//   - *errs.HTTPError anywhere in the chain, including as the internal error
//     of an *echo.HTTPError: its status, message, name and details are kept.
//   - *echo.HTTPError: its code and message, named after the status. Unknown
//     routes get RouteNotFoundMessage.
//   - anything else: a 500 with the generic message. The error is kept as
//     the cause, with a stack trace attached, and has no name.
func Classify(err error) errs.Outcome {
	if err == nil {
		return errs.Success{}
	}

	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return errs.FailureFrom(httpErr)
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoFailure(echoErr)
	}

	return errs.Failure{
		StatusCode: http.StatusInternalServerError,
		Message:    errs.DefaultServerErrorMessage,
		Cause:      pkgerrors.WithStack(err),
	}
}

func echoFailure(echoErr *echo.HTTPError) errs.Failure {
	var cause error = echoErr
	if echoErr.Internal != nil {
		cause = echoErr.Internal
	}

	message := http.StatusText(echoErr.Code)
	switch m := echoErr.Message.(type) {
	case nil:
	case string:
		if m != "" {
			message = m
		}
	case error:
		message = m.Error()
	default:
		message = fmt.Sprint(m)
	}

	if echoErr.Code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
		message = RouteNotFoundMessage
	}

	return errs.Failure{
		StatusCode: echoErr.Code,
		Message:    message,
		Name:       errs.StatusName(echoErr.Code),
		Cause:      cause,
	}
}
