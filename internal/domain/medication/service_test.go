package medication

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func newTestService() *Service {
	return NewService(zerolog.Nop())
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	return data
}

func TestService_ExtractDispenses_Bundle(t *testing.T) {
	svc := newTestService()
	batch, err := svc.ExtractDispenses(readFixture(t, "dispense_1_4.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Extracted() != 1 || len(batch.Failures) != 1 {
		t.Errorf("unexpected batch: %d records, %d failures", batch.Extracted(), len(batch.Failures))
	}
}

func TestService_ExtractDispenses_SingleResource(t *testing.T) {
	svc := newTestService()
	batch, err := svc.ExtractDispenses(readFixture(t, "dispense_legacy.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.BundleTotal != 1 || batch.Extracted() != 1 {
		t.Errorf("expected a batch of one, got %+v", batch)
	}
}

func TestService_ExtractDispenses_WrongType(t *testing.T) {
	svc := newTestService()
	_, err := svc.ExtractDispenses([]byte(`{"resourceType":"Patient","id":"p1"}`))
	if err == nil {
		t.Error("expected error for non-bundle input")
	}
}

func TestService_ExtractDispenses_InvalidJSON(t *testing.T) {
	svc := newTestService()
	if _, err := svc.ExtractDispenses([]byte(`{"resourceType":`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}

func TestService_ExtractMedication(t *testing.T) {
	svc := newTestService()
	rec, err := svc.ExtractMedication([]byte(`{
		"resourceType": "Medication",
		"meta": {"profile": ["https://fhir.kbv.de/StructureDefinition/KBV_PR_ERP_Medication_Ingredient|1.1.0"]},
		"form": {"text": "Tabletten"},
		"ingredient": [{
			"itemCodeableConcept": {"coding": [{"system": "http://fhir.de/CodeSystem/ask", "code": "22308"}], "text": "Ramipril"},
			"strength": {"numerator": {"value": 5, "unit": "mg"}, "denominator": {"value": 1}}
		}]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Category != CategoryIngredient || rec.Form != "Tabletten" {
		t.Errorf("unexpected medication %+v", rec)
	}
	if len(rec.Ingredients) != 1 || rec.Ingredients[0].Number != "22308" {
		t.Errorf("unexpected ingredients %+v", rec.Ingredients)
	}
}
