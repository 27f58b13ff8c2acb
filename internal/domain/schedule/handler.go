package schedule

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/erx/erx/internal/domain/dosage"
	"github.com/erx/erx/internal/platform/fhir"
)

type Handler struct {
	loc *time.Location
	now func() time.Time
}

// NewHandler returns a handler computing dates in loc.
func NewHandler(loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{loc: loc, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/schedules/$end-of-pack", h.EndOfPack)
}

// endOfPackRequest carries either explicit notifications or a dosage text
// from which default notifications are derived.
type endOfPackRequest struct {
	Dosage        *string        `json:"dosage"`
	Notifications []Notification `json:"notifications"`
	Interval      *Interval      `json:"interval"`
	Duration      *Duration      `json:"duration"`
	Amount        *fhir.Ratio    `json:"amount"`
	Start         *time.Time     `json:"start"`
}

type endOfPackResponse struct {
	EndOfPack string   `json:"end_of_pack"`
	Schedule  Schedule `json:"schedule"`
}

// EndOfPack handles POST /schedules/$end-of-pack.
func (h *Handler) EndOfPack(c echo.Context) error {
	var req endOfPackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Amount == nil || req.Amount.Numerator == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "amount.numerator is required")
	}

	now := h.now().In(h.loc)
	start := now
	if req.Start != nil {
		start = req.Start.In(h.loc)
	}

	var s Schedule
	if len(req.Notifications) == 0 && req.Dosage != nil {
		s = FromInstruction(dosage.Parse(req.Dosage), req.Amount, start)
	} else {
		s = Schedule{
			Notifications: req.Notifications,
			Duration:      Duration{Kind: DurationUntilEndOfPack, Start: &start},
			Interval:      Daily(),
			Amount:        req.Amount,
		}
	}
	if req.Interval != nil {
		if req.Interval.Kind == IntervalPersonalized && len(req.Interval.Weekdays) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "interval.weekdays is required for personalized intervals")
		}
		s.Interval = *req.Interval
	}
	if req.Duration != nil {
		s.Duration = *req.Duration
		if s.Duration.Start == nil {
			s.Duration.Start = &start
		}
	}

	end, ok := EndOfPack(s, now)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeTooCostly,
			"pack lasts beyond "+LastDate.Format("2006-01-02")))
	}
	return c.JSON(http.StatusOK, endOfPackResponse{
		EndOfPack: end.Format("2006-01-02"),
		Schedule:  s,
	})
}
