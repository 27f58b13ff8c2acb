package task

import (
	"errors"
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
	api.POST("/task-bundles/$extract", h.ExtractTasks)
	api.POST("/prescriptions/$extract", h.ExtractPrescription)
}

// ExtractTasks handles POST /task-bundles/$extract.
func (h *Handler) ExtractTasks(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	batch, err := h.svc.ExtractTasks(body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, batch)
}

// ExtractPrescription handles POST /prescriptions/$extract.
func (h *Handler) ExtractPrescription(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	p, err := h.svc.ExtractPrescriptionBundle(body)
	if err != nil {
		var xerr *fhir.ExtractionError
		if errors.As(err, &xerr) {
			return c.JSON(http.StatusUnprocessableEntity, fhir.ExtractionOutcome(err))
		}
		return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
	}
	return c.JSON(http.StatusOK, p)
}
