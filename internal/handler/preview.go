package handler

import (
	"math"

	"github.com/deppfellow/errfmt/internal/errs"
	"github.com/deppfellow/errfmt/internal/formatter"
	"github.com/deppfellow/errfmt/internal/server"
	"github.com/deppfellow/errfmt/internal/service"
	"github.com/deppfellow/errfmt/internal/validation"
	"github.com/labstack/echo/v4"
)

// PreviewRequest describes a failure to render.
type PreviewRequest struct {
	StatusCode int             `json:"status_code" validate:"required,min=100,max=999"`
	Message    string          `json:"message" validate:"max=1024"`
	Name       string          `json:"name" validate:"max=128"`
	Details    []PreviewDetail `json:"details" validate:"max=100,dive"`
}

// PreviewDetail is one validation detail of a PreviewRequest. Path segments
// are strings or integral numbers.
type PreviewDetail struct {
	Path    []any          `json:"path"`
	Type    string         `json:"type" validate:"required"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

func (r *PreviewRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	var invalid validation.CustomValidationErrors
	for i, d := range r.Details {
		for _, segment := range d.Path {
			if _, ok := pathSegment(segment); !ok {
				invalid = append(invalid, validation.CustomValidationError{
					Field:   errs.Path{"details", i, "path"}.String(),
					Message: "path segments must be strings or integers",
				})
				break
			}
		}
	}
	if len(invalid) > 0 {
		return invalid
	}

	return nil
}

// Failure converts the request into the formatter's input.
func (r *PreviewRequest) Failure() errs.Failure {
	details := make([]errs.Detail, 0, len(r.Details))
	for _, d := range r.Details {
		path := make(errs.Path, 0, len(d.Path))
		for _, segment := range d.Path {
			s, _ := pathSegment(segment)
			path = append(path, s)
		}

		details = append(details, errs.Detail{
			Path:    path,
			Type:    d.Type,
			Message: d.Message,
			Context: d.Context,
		})
	}

	return errs.Failure{
		StatusCode: r.StatusCode,
		Message:    r.Message,
		Name:       r.Name,
		Details:    details,
	}
}

// pathSegment normalizes a decoded JSON path segment: numbers must be
// integral and become ints.
func pathSegment(v any) (any, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s != math.Trunc(s) || s < 0 {
			return nil, false
		}
		return int(s), true
	}
	return nil, false
}

// PreviewHandler serves the error preview endpoint.
type PreviewHandler struct {
	Handler
	preview *service.PreviewService
}

// NewPreviewHandler constructs a PreviewHandler.
func NewPreviewHandler(s *server.Server, preview *service.PreviewService) *PreviewHandler {
	return &PreviewHandler{
		Handler: NewHandler(s),
		preview: preview,
	}
}

// Preview responds with the status and payload the server would send for
// the described failure.
func (h *PreviewHandler) Preview(c echo.Context, req *PreviewRequest) (formatter.Result, error) {
	return h.preview.Preview(c.Request().Context(), req.Failure())
}
