package handler

import (
	"net/http"
	"time"

	"github.com/deppfellow/errfmt/internal/middleware"
	"github.com/deppfellow/errfmt/internal/server"
	"github.com/labstack/echo/v4"
)

// HealthHandler exposes a "system" endpoint uptime monitors and load
// balancers use to verify the service is alive.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports the service status together with the formatter
// settings it runs with and the error kinds it has templates for.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	cfg := h.server.Formatter.Config()

	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"formatter": map[string]any{
			"log_server_error":       cfg.LogServerError,
			"validation_status_code": cfg.ValidationStatusCode,
			"custom_server_message":  cfg.ServerErrorMessage != "",
			"permeate_error_name":    cfg.PermeateErrorName,
			"decamelize_error_name":  cfg.DecamelizeErrorName,
			"template_kinds":         h.server.Formatter.Language().Kinds(),
		},
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		logger.Error().Err(err).Msg("failed to write JSON response")
		return err
	}

	logger.Debug().Msg("health check passed")

	return nil
}
