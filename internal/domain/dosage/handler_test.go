package dosage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestContext(body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_ParseInstruction(t *testing.T) {
	h := NewHandler()
	c, rec := newTestContext(`{"text":"1-0-1"}`)

	if err := h.ParseInstruction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var got Instruction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Kind != KindStructured || got.Interpretation[Morning] != "1" {
		t.Errorf("unexpected instruction %+v", got)
	}
}

func TestHandler_ParseInstruction_NullText(t *testing.T) {
	h := NewHandler()
	c, rec := newTestContext(`{"text":null}`)

	if err := h.ParseInstruction(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"kind":"empty"`) {
		t.Errorf("expected empty instruction, got %s", rec.Body.String())
	}
}

func TestHandler_Multiply(t *testing.T) {
	h := NewHandler()
	c, rec := newTestContext(`{"ratio":{"numerator":{"value":"0,7","unit":"ml"}},"factor":2}`)

	if err := h.Multiply(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got multiplyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.Ratio == nil || got.Ratio.Numerator.Value != "1.4" {
		t.Errorf("unexpected ratio %+v", got.Ratio)
	}
}

func TestHandler_Multiply_BadFactor(t *testing.T) {
	h := NewHandler()
	c, _ := newTestContext(`{"ratio":{"numerator":{"value":"1"}},"factor":0}`)

	err := h.Multiply(c)
	if err == nil {
		t.Fatal("expected error for factor 0")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}
