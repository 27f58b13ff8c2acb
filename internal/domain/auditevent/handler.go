package auditevent

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/erx/erx/internal/platform/fhir"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/audit-event-bundles/$extract", h.ExtractAuditEvents)
}

// ExtractAuditEvents handles POST /audit-event-bundles/$extract.
func (h *Handler) ExtractAuditEvents(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	batch, err := h.svc.ExtractAuditEvents(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, batch)
}
