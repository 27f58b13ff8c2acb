package fhir

import (
	"strings"
	"testing"
)

const searchBundleJSON = `{
  "resourceType": "Bundle",
  "id": "page-1",
  "type": "searchset",
  "total": 3,
  "link": [
    {"relation": "self", "url": "https://erp.example/Task?_count=2"},
    {"relation": "next", "url": "https://erp.example/Task?_count=2&__offset=2"}
  ],
  "entry": [
    {"fullUrl": "https://erp.example/Task/160.000.000.000.001.01", "resource": {"resourceType": "Task", "id": "160.000.000.000.001.01"}},
    {"fullUrl": "https://erp.example/Task/160.000.000.000.002.02", "resource": {"resourceType": "Task", "id": "160.000.000.000.002.02"}},
    {"fullUrl": "urn:uuid:8c2ff0a3-70a6-4ab2-a2a0-2e3b7c8a1d11", "resource": {"resourceType": "Patient", "id": "8c2ff0a3-70a6-4ab2-a2a0-2e3b7c8a1d11"}}
  ]
}`

func TestParseBundle(t *testing.T) {
	b, err := ParseBundle([]byte(searchBundleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.ID != "page-1" {
		t.Errorf("expected id page-1, got %s", b.ID)
	}
	if b.Type != "searchset" {
		t.Errorf("expected type searchset, got %s", b.Type)
	}
	if b.Total == nil || *b.Total != 3 {
		t.Errorf("expected total 3, got %v", b.Total)
	}
	if len(b.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(b.Entries))
	}
	for i, e := range b.Entries {
		if e.Position != i {
			t.Errorf("entry %d: expected position %d, got %d", i, i, e.Position)
		}
	}
	if got := b.NextLink(); got != "https://erp.example/Task?_count=2&__offset=2" {
		t.Errorf("unexpected next link %q", got)
	}
	if got := len(b.EntriesOfType("Task")); got != 2 {
		t.Errorf("expected 2 tasks, got %d", got)
	}
	if _, ok := b.First("Patient"); !ok {
		t.Error("expected a Patient entry")
	}
}

func TestParseBundle_NoNextLink(t *testing.T) {
	b, err := ParseBundle([]byte(`{"resourceType":"Bundle","type":"searchset"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.NextLink() != "" {
		t.Errorf("expected no next link, got %q", b.NextLink())
	}
	if b.Total != nil {
		t.Errorf("expected nil total, got %d", *b.Total)
	}
}

func TestParseBundle_WrongResourceType(t *testing.T) {
	_, err := ParseBundle([]byte(`{"resourceType":"Task","id":"1"}`))
	if err == nil {
		t.Fatal("expected error for non-Bundle resource")
	}
	if !strings.Contains(err.Error(), "Task") {
		t.Errorf("expected error to name the resource type, got %v", err)
	}
}

func TestParseBundle_InvalidJSON(t *testing.T) {
	if _, err := ParseBundle([]byte(`{"resourceType":`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestDecodeResource_KeepsDecimalText(t *testing.T) {
	r, err := DecodeResource([]byte(`{"resourceType":"Medication","amount":{"numerator":{"value":12.50}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := String(r, "amount", "numerator", "value"); got != "12.50" {
		t.Errorf("expected 12.50, got %s", got)
	}
}

func TestGetPaths(t *testing.T) {
	r, err := DecodeResource([]byte(`{
	  "resourceType": "Patient",
	  "identifier": [{"system": "a", "value": "1"}, {"system": "http://fhir.de/sid/gkv/kvid-10", "value": "X110535541"}],
	  "name": [{"prefix": ["Dr."], "given": ["Ludger"], "family": "Königsstein"}],
	  "address": [{"line": ["Musterstr. 1"], "postalCode": "10623", "city": "Berlin"}],
	  "active": true,
	  "multipleBirthInteger": 2
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := IdentifierValue(Array(r, "identifier"), "http://fhir.de/sid/gkv/kvid-10"); got != "X110535541" {
		t.Errorf("expected KVNR, got %q", got)
	}
	if got := HumanNameText(r); got != "Dr. Ludger Königsstein" {
		t.Errorf("unexpected name %q", got)
	}
	addr := ParseAddress(r)
	if addr == nil || addr.City != "Berlin" || addr.PostalCode != "10623" || len(addr.Line) != 1 {
		t.Errorf("unexpected address %+v", addr)
	}
	if v, ok := Bool(r, "active"); !ok || !v {
		t.Error("expected active=true")
	}
	if n, ok := Int(r, "multipleBirthInteger"); !ok || n != 2 {
		t.Errorf("expected 2, got %d (%v)", n, ok)
	}
	if Get(r, "identifier", 5) != nil {
		t.Error("expected nil for out-of-range index")
	}
	if String(r, "name", 0, "missing") != "" {
		t.Error("expected empty string for missing key")
	}
}

func TestExtension_IgnoresVersionSuffix(t *testing.T) {
	r, _ := DecodeResource([]byte(`{
	  "extension": [
	    {"url": "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_BVG|1.1.0", "valueBoolean": false},
	    {"url": "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_EmergencyServicesFee", "valueBoolean": true}
	  ]
	}`))
	ext := Extension(r, "https://fhir.kbv.de/StructureDefinition/KBV_EX_ERP_BVG")
	if ext == nil {
		t.Fatal("expected extension match")
	}
	if v, ok := Bool(ext, "valueBoolean"); !ok || v {
		t.Errorf("expected valueBoolean=false, got %v (%v)", v, ok)
	}
	if Extension(r, "https://example.org/none") != nil {
		t.Error("expected nil for unknown extension")
	}
}

func TestParseRatio(t *testing.T) {
	r, _ := DecodeResource([]byte(`{"amount":{"numerator":{"value":20,"unit":"St"},"denominator":{"value":1}}}`))
	ratio := ParseRatio(Get(r, "amount"))
	if ratio == nil || ratio.Numerator == nil {
		t.Fatal("expected ratio with numerator")
	}
	if ratio.Numerator.Value != "20" || ratio.Numerator.Unit != "St" {
		t.Errorf("unexpected numerator %+v", ratio.Numerator)
	}
	if ratio.Denominator == nil || ratio.Denominator.Value != "1" {
		t.Errorf("unexpected denominator %+v", ratio.Denominator)
	}
	if ParseRatio(Get(r, "missing")) != nil {
		t.Error("expected nil ratio for absent node")
	}
}
