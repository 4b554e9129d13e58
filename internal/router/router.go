// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and the global error handler, and
// defines the API route groups, mapping specific paths to their
// corresponding handlers.
package router

import (
	"net/http"

	"github.com/deppfellow/errfmt/internal/handler"
	"github.com/deppfellow/errfmt/internal/middleware"
	"github.com/deppfellow/errfmt/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance serving the application.
//
// RequestID and the context enhancer run first so the request-scoped logger
// exists when the request logger middleware formats and logs a failed
// request. Recover sits inside it so panics are answered like any other
// error.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	mw := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		mw.Global.Recover(),
		mw.RateLimit.RateLimit(),
		mw.Global.Secure(),
		mw.Global.CORS(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/v1")
	registerErrorRoutes(v1, h)

	return router
}

func registerErrorRoutes(g *echo.Group, h *handler.Handlers) {
	group := g.Group("/errors")

	group.POST("/preview", handler.Handle(h.Preview.Handler, h.Preview.Preview, http.StatusOK, &handler.PreviewRequest{}))
}
