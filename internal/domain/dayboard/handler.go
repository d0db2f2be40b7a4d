package dayboard

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinops/clinops/internal/platform/auth"
)

type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "surgeon", "nurse", "technician"))
	readGroup.GET("/dayboard", h.GetBoard)
}

func (h *Handler) GetBoard(c echo.Context) error {
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
	board, err := h.svc.Build(c.Request().Context(), date, theaterID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, board)
}
