package checklist

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/surgical-cases/:id/checklist", h.GetStatus)

	writeGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse"))
	writeGroup.PUT("/surgical-cases/:id/checklist/:phase", h.SaveDraft)
	writeGroup.POST("/surgical-cases/:id/checklist/:phase/finalize", h.Finalize)
}

type phaseWriteRequest struct {
	Items []Item `json:"items"`
}

func (h *Handler) GetStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	status, err := h.svc.Status(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, status)
}

func (h *Handler) SaveDraft(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req phaseWriteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	state, err := h.svc.SaveDraft(c.Request().Context(), id, Phase(c.Param("phase")), req.Items)
	if err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *Handler) Finalize(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req phaseWriteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	role := auth.PrimaryRole(c.Request().Context())
	state, err := h.svc.Finalize(c.Request().Context(), id, Phase(c.Param("phase")), req.Items, role)
	if err != nil {
		return writeError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// writeError maps checklist errors onto the HTTP error taxonomy.
func writeError(err error) error {
	var incomplete *IncompleteChecklistError
	switch {
	case errors.As(err, &incomplete):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "incomplete checklist",
			"phase":   incomplete.Phase,
			"missing": incomplete.Missing,
		})
	case errors.Is(err, ErrPhaseFinalized):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownPhase), errors.Is(err, ErrUnknownItem):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
