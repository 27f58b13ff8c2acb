package medication

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
	api.POST("/medication-dispense-bundles/$extract", h.ExtractDispenses)
	api.POST("/medications/$extract", h.ExtractMedication)
}

// ExtractDispenses handles POST /medication-dispense-bundles/$extract.
func (h *Handler) ExtractDispenses(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	batch, err := h.svc.ExtractDispenses(body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, batch)
}

// ExtractMedication handles POST /medications/$extract.
func (h *Handler) ExtractMedication(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	rec, err := h.svc.ExtractMedication(body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func writeError(c echo.Context, err error) error {
	var xerr *fhir.ExtractionError
	if errors.As(err, &xerr) {
		return c.JSON(http.StatusUnprocessableEntity, fhir.ExtractionOutcome(err))
	}
	return c.JSON(http.StatusBadRequest, fhir.StructureOutcome(err.Error()))
}
