package nursedoc

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/platform/auth"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/surgical-cases/:id/nursing", h.ListDocs)
	readGroup.GET("/surgical-cases/:id/operative-note", h.GetNote)

	nurseGroup := api.Group("", auth.RequireRole("admin", "nurse"))
	nurseGroup.PUT("/surgical-cases/:id/nursing/:phase", h.UpsertDoc)

	surgeonGroup := api.Group("", auth.RequireRole("admin", "surgeon"))
	surgeonGroup.PUT("/surgical-cases/:id/operative-note", h.UpsertNote)
}

func (h *Handler) ListDocs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	docs, err := h.svc.Docs(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"docs": docs})
}

type docRequest struct {
	Status         Status `json:"status"`
	Discrepancy    bool   `json:"discrepancy"`
	DischargeReady bool   `json:"discharge_ready"`
	PhotoCount     int    `json:"photo_count"`
}

func (h *Handler) UpsertDoc(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req docRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc := &NursingDoc{
		CaseID:         id,
		Phase:          Phase(strings.ToUpper(c.Param("phase"))),
		Status:         req.Status,
		Discrepancy:    req.Discrepancy,
		DischargeReady: req.DischargeReady,
		PhotoCount:     req.PhotoCount,
		UpdatedBy:      auth.Subject(c.Request().Context()),
	}
	if err := h.svc.UpsertDoc(c.Request().Context(), doc); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	note, err := h.svc.Note(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, note)
}

type noteRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpsertNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note := &OperativeNote{
		CaseID:    id,
		Status:    req.Status,
		UpdatedBy: auth.Subject(c.Request().Context()),
	}
	if err := h.svc.UpsertNote(c.Request().Context(), note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, note)
}
