package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/erx/erx/internal/platform/fhir"
)

const defaultBodyLimit = 4 << 20

// BodyLimit buffers the request body up to limit bytes. Larger bodies,
// whether announced by Content-Length or only discovered while reading,
// are answered with 413 and an OperationOutcome.
//
// Limits are sizes such as "512K", "4M" or "1G"; a bare number is bytes.
func BodyLimit(limit string) echo.MiddlewareFunc {
	maxBytes, err := ParseSize(limit)
	if err != nil {
		maxBytes = defaultBodyLimit
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > maxBytes {
				return tooLarge(c, maxBytes)
			}

			body, err := io.ReadAll(io.LimitReader(req.Body, maxBytes+1))
			req.Body.Close()
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
			}
			if int64(len(body)) > maxBytes {
				return tooLarge(c, maxBytes)
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			req.ContentLength = int64(len(body))
			return next(c)
		}
	}
}

func tooLarge(c echo.Context, limit int64) error {
	return c.JSON(http.StatusRequestEntityTooLarge,
		fhir.NewOperationOutcome(fhir.IssueSeverityError, fhir.IssueTypeTooCostly,
			fmt.Sprintf("request body exceeds %d bytes", limit)))
}

var sizeUnits = []struct {
	suffix string
	shift  uint
}{
	{"GB", 30}, {"G", 30},
	{"MB", 20}, {"M", 20},
	{"KB", 10}, {"K", 10},
	{"B", 0},
}

// ParseSize parses "512K", "4M", "1GB" or a plain byte count.
func ParseSize(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	var shift uint
	for _, u := range sizeUnits {
		if strings.HasSuffix(v, u.suffix) {
			v, shift = strings.TrimSuffix(v, u.suffix), u.shift
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n << shift, nil
}
