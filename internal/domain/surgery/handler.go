package surgery

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/platform/auth"
	"github.com/clinops/clinops/pkg/pagination"
)

type Handler struct {
	svc   *Service
	audit AuditRepository
}

func NewHandler(svc *Service, audit AuditRepository) *Handler {
	return &Handler{svc: svc, audit: audit}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	writeGroup := api.Group("", auth.RequireRole("admin", "surgeon"))
	writeGroup.POST("/surgical-cases", h.CreateCase)

	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/surgical-cases", h.ListCases)
	readGroup.GET("/surgical-cases/:id", h.GetCase)
	readGroup.GET("/surgical-cases/:id/readiness", h.GetReadiness)
	readGroup.GET("/surgical-cases/:id/audit", h.ListAudit)

	transitionGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	transitionGroup.POST("/surgical-cases/:id/transition", h.Transition)
}

func (h *Handler) CreateCase(c echo.Context) error {
	var sc SurgicalCase
	if err := c.Bind(&sc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &sc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sc)
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sc, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sc)
}

func (h *Handler) ListCases(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date is required as YYYY-MM-DD")
	}
	var theaterID *uuid.UUID
	if raw := c.QueryParam("theater_id"); raw != "" {
		tid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid theater_id")
		}
		theaterID = &tid
	}
	cases, err := h.svc.ListByDate(c.Request().Context(), date, theaterID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"cases": cases,
		"total": len(cases),
	})
}

type transitionRequest struct {
	Action string  `json:"action"`
	Reason *string `json:"reason,omitempty"`
}

func (h *Handler) Transition(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	action, err := casestate.Parse(req.Action)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor := auth.Subject(c.Request().Context())
	result, err := h.svc.Transition(c.Request().Context(), id, action, actor, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) GetReadiness(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var target casestate.Status
	if raw := c.QueryParam("action"); raw != "" {
		target, err = casestate.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	verdict, err := h.svc.Readiness(c.Request().Context(), id, target)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, verdict)
}

func (h *Handler) ListAudit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	page := pagination.FromContext(c)
	entries, total, err := h.audit.ListByCase(c.Request().Context(), id, page.Limit, page.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, page.Limit, page.Offset))
}

func writeError(c echo.Context, err error) error {
	var invalid *InvalidTransitionError
	var blocked *TransitionBlockedError
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConcurrentModification):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &blocked):
		return echo.NewHTTPError(http.StatusConflict, map[string]interface{}{
			"error":   "transition blocked",
			"action":  blocked.Action,
			"reasons": blocked.Reasons,
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
