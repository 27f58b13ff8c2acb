package dosage

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/erx/erx/internal/platform/fhir"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/dosage/$parse", h.ParseInstruction)
	api.POST("/dosage/$multiply", h.Multiply)
}

type parseRequest struct {
	Text *string `json:"text"`
}

// ParseInstruction handles POST /dosage/$parse.
func (h *Handler) ParseInstruction(c echo.Context) error {
	var req parseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, Parse(req.Text))
}

type multiplyRequest struct {
	Ratio  *fhir.Ratio `json:"ratio"`
	Factor int         `json:"factor"`
}

type multiplyResponse struct {
	Ratio *fhir.Ratio `json:"ratio"`
}

// Multiply handles POST /dosage/$multiply.
func (h *Handler) Multiply(c echo.Context) error {
	var req multiplyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Factor < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "factor must be a positive integer")
	}
	return c.JSON(http.StatusOK, multiplyResponse{Ratio: MultiplyMedicationAmount(req.Ratio, req.Factor)})
}
