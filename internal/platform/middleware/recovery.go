package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/erx/erx/internal/platform/fhir"
)

// HandlerPanic is a panic caught on a goroutine other than the request's,
// carrying the stack where it happened.
type HandlerPanic struct {
	Value interface{}
	Stack []byte
}

func newHandlerPanic(v interface{}) *HandlerPanic {
	stack := make([]byte, 8192)
	return &HandlerPanic{Value: v, Stack: stack[:runtime.Stack(stack, false)]}
}

func (p *HandlerPanic) String() string { return fmt.Sprint(p.Value) }

// Recovery turns a panicking extractor into a 500 OperationOutcome. The
// stack goes to the log only; the body never carries panic details.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				hp, ok := r.(*HandlerPanic)
				if !ok {
					hp = newHandlerPanic(r)
				}

				rid, _ := c.Get("request_id").(string)
				logger.Error().
					Str("request_id", rid).
					Str("method", c.Request().Method).
					Str("path", c.Path()).
					Str("panic", hp.String()).
					Bytes("stack", hp.Stack).
					Msg("panic recovered")

				if c.Response().Committed {
					err = echo.NewHTTPError(http.StatusInternalServerError)
					return
				}
				err = c.JSON(http.StatusInternalServerError,
					fhir.NewOperationOutcome(fhir.IssueSeverityFatal, fhir.IssueTypeException, "internal server error"))
			}()
			return next(c)
		}
	}
}
