package planning

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/platform/auth"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/surgical-cases/:id/plan", h.GetPlan)
	readGroup.GET("/surgical-cases/:id/consents", h.ListConsents)

	planGroup := api.Group("", auth.RequireRole("admin", "surgeon"))
	planGroup.PUT("/surgical-cases/:id/plan", h.UpsertPlan)

	consentGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse"))
	consentGroup.POST("/surgical-cases/:id/consents", h.AddConsent)
	consentGroup.PUT("/surgical-cases/:id/consents/:cid/sign", h.SignConsent)
}

func (h *Handler) GetPlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	plan, err := h.svc.Plan(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}

type planRequest struct {
	Ready        bool    `json:"ready"`
	MissingCount int     `json:"missing_count"`
	Notes        *string `json:"notes,omitempty"`
}

func (h *Handler) UpsertPlan(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	plan := &DoctorPlan{
		CaseID:       id,
		Ready:        req.Ready,
		MissingCount: req.MissingCount,
		Notes:        req.Notes,
		UpdatedBy:    auth.Subject(c.Request().Context()),
	}
	if err := h.svc.UpsertPlan(c.Request().Context(), plan); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, plan)
}

type consentRequest struct {
	ConsentType string `json:"consent_type"`
}

func (h *Handler) AddConsent(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req consentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	consent, err := h.svc.AddConsent(c.Request().Context(), id, req.ConsentType)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, consent)
}

type signRequest struct {
	SignerName string `json:"signer_name"`
}

func (h *Handler) SignConsent(c echo.Context) error {
	cid, err := uuid.Parse(c.Param("cid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consent id")
	}
	var req signRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	consent, err := h.svc.SignConsent(c.Request().Context(), cid, req.SignerName)
	if err != nil {
		if errors.Is(err, ErrConsentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, consent)
}

func (h *Handler) ListConsents(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	consents, err := h.svc.ListConsents(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	counts, err := h.svc.ConsentCounts(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consents": consents,
		"signed":   counts.Signed,
		"total":    counts.Total,
	})
}
