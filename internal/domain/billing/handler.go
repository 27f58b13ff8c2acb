package billing

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
	api.POST("/charge-item-bundles/$extract", h.ExtractChargeItems)
	api.POST("/dispense-data/$extract", h.ExtractDispenseData)
}

// ExtractChargeItems handles POST /charge-item-bundles/$extract.
func (h *Handler) ExtractChargeItems(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	batch, err := h.svc.ExtractChargeItems(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, batch)
}

// ExtractDispenseData handles POST /dispense-data/$extract.
func (h *Handler) ExtractDispenseData(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	d, err := h.svc.ExtractDispenseData(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, d)
}
