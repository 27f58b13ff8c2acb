package task

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func TestHandler_ExtractTasks(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/task-bundles/$extract", bytes.NewReader(readFixture(t)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ExtractTasks(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var batch TaskBundle
	if err := json.Unmarshal(rec.Body.Bytes(), &batch); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(batch.Records) != 2 || batch.Records[0].Prescription == nil {
		t.Errorf("unexpected batch %+v", batch)
	}
}

func TestHandler_ExtractTasks_BadBody(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/task-bundles/$extract", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ExtractTasks(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_ExtractPrescription_MissingMedication(t *testing.T) {
	h, e := newTestHandler()

	body := `{"resourceType":"Bundle","entry":[{"resource":{"resourceType":"MedicationRequest","id":"mr"}}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions/$extract", strings.NewReader(body))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ExtractPrescription(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Bundle.Medication") {
		t.Errorf("expected the missing field in the outcome, got %s", rec.Body.String())
	}
}
