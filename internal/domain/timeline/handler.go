package timeline

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/platform/auth"
)

// CaseStatusFn resolves a case's current pipeline status. Wired from the
// surgery service in main to avoid a package cycle.
type CaseStatusFn func(ctx context.Context, caseID uuid.UUID) (casestate.Status, error)

type Handler struct {
	svc        *Service
	caseStatus CaseStatusFn
}

func NewHandler(svc *Service, caseStatus CaseStatusFn) *Handler {
	return &Handler{svc: svc, caseStatus: caseStatus}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/surgical-cases/:id/timeline", h.GetTimeline)

	writeGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	writeGroup.PATCH("/surgical-cases/:id/timeline", h.UpdateTimeline)
}

// updateRequest carries field -> timestamp updates. The literal value "now"
// stamps the server clock.
type updateRequest struct {
	Fields map[string]string `json:"fields"`
}

func (h *Handler) GetTimeline(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status, err := h.caseStatus(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "surgical case not found")
	}
	view, err := h.svc.View(c.Request().Context(), id, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) UpdateTimeline(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updates := make(map[Field]time.Time, len(req.Fields))
	for name, raw := range req.Fields {
		if raw == "now" {
			updates[Field(name)] = time.Now()
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest,
				"invalid timestamp for "+name+": "+err.Error())
		}
		updates[Field(name)] = t
	}

	rec, err := h.svc.Update(c.Request().Context(), id, updates)
	if err != nil {
		var vErr *ValidationError
		switch {
		case errors.As(err, &vErr):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "timeline validation failed",
				"violations": vErr.Violations,
			})
		case errors.Is(err, ErrUnknownField):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, rec)
}
