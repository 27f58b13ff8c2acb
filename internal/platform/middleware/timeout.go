package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/erx/erx/internal/platform/fhir"
)

// RequestTimeout puts a deadline of d on the request context. When the
// handler has not returned by then the client gets 504 with an
// OperationOutcome. A non-positive d disables the deadline.
func RequestTimeout(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if d <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), d)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			panicked := make(chan *HandlerPanic, 1)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						panicked <- newHandlerPanic(r)
					}
				}()
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case p := <-panicked:
				// Rethrown on the request goroutine so Recovery sees it.
				panic(p)
			case <-ctx.Done():
			}
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ctx.Err()
			}
			if c.Response().Committed {
				return nil
			}
			return c.JSON(http.StatusGatewayTimeout,
				fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeTimeout,
					fmt.Sprintf("request not processed within %s", d)))
		}
	}
}
