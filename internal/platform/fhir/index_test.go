package fhir

import (
	"testing"
)

func mustBundle(t *testing.T, data string) *Bundle {
	t.Helper()
	b, err := ParseBundle([]byte(data))
	if err != nil {
		t.Fatalf("failed to parse bundle: %v", err)
	}
	return b
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		ref      string
		kind     ReferenceKind
		resource string
		id       string
	}{
		{"", ReferenceEmpty, "", ""},
		{"urn:uuid:abc", ReferenceURN, "", "abc"},
		{"URN:UUID:3B4A6E28-1F4C-4E3A-9A1B-2C3D4E5F6A7B", ReferenceURN, "", "3b4a6e28-1f4c-4e3a-9a1b-2c3d4e5f6a7b"},
		{"#med", ReferenceAnchor, "", "med"},
		{"Medication/123", ReferenceRelative, "Medication", "123"},
		{"Medication/123/_history/2", ReferenceRelative, "Medication", "123"},
		{"https://erp.example/Task/160.1", ReferenceAbsolute, "Task", "160.1"},
		{"abc", ReferenceLocal, "", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			r := ParseReference(tt.ref)
			if r.Kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, r.Kind)
			}
			if r.ResourceType != tt.resource {
				t.Errorf("expected type %q, got %q", tt.resource, r.ResourceType)
			}
			if r.ID != tt.id {
				t.Errorf("expected id %q, got %q", tt.id, r.ID)
			}
		})
	}
}

func TestResolve_URNMatchesFullURLAndBareID(t *testing.T) {
	byFullURL := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"fullUrl":"urn:uuid:abc","resource":{"resourceType":"Medication","id":"other"}}
	]}`)
	byID := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"resource":{"resourceType":"Medication","id":"abc"}}
	]}`)

	for name, b := range map[string]*Bundle{"fullUrl": byFullURL, "id": byID} {
		t.Run(name, func(t *testing.T) {
			e, ok := Resolve(NewIndex(b), "urn:uuid:abc")
			if !ok {
				t.Fatal("expected reference to resolve")
			}
			if e.Resource.Type() != "Medication" || e.Position != 0 {
				t.Errorf("resolved wrong entry: %+v", e)
			}
		})
	}
}

func TestResolve_Forms(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"fullUrl":"https://erp.example/Practitioner/20597e0e","resource":{"resourceType":"Practitioner","id":"20597e0e"}},
	  {"fullUrl":"urn:uuid:1D36152B-40C6-4AEB-A552-86A4D3C69F6F","resource":{"resourceType":"Patient","id":"1d36152b-40c6-4aeb-a552-86a4d3c69f6f"}},
	  {"resource":{"resourceType":"Organization","id":"cf042e44"}}
	]}`)
	ix := NewIndex(b)

	tests := []struct {
		ref  string
		want int
		ok   bool
	}{
		{"Practitioner/20597e0e", 0, true},
		{"https://erp.example/Practitioner/20597e0e", 0, true},
		{"https://other.example/fhir/Practitioner/20597e0e", 0, true},
		{"urn:uuid:1d36152b-40c6-4aeb-a552-86a4d3c69f6f", 1, true},
		{"Patient/1d36152b-40c6-4aeb-a552-86a4d3c69f6f", 1, true},
		{"Organization/cf042e44/_history/1", 2, true},
		{"#cf042e44", 2, true},
		{"Patient/20597e0e", 0, false},
		{"Organization/missing", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			e, ok := Resolve(ix, tt.ref)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && e.Position != tt.want {
				t.Errorf("expected entry %d, got %d", tt.want, e.Position)
			}
		})
	}
}

func TestIndex_DuplicateFirstWins(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"resource":{"resourceType":"Medication","id":"m1","code":{"text":"first"}}},
	  {"resource":{"resourceType":"Medication","id":"m1","code":{"text":"second"}}},
	  {"resource":{"resourceType":"Medication","id":"m2"}}
	]}`)
	ix := NewIndex(b)
	if ix.Duplicates() != 1 {
		t.Errorf("expected 1 duplicate, got %d", ix.Duplicates())
	}
	e, ok := Resolve(ix, "Medication/m1")
	if !ok {
		t.Fatal("expected resolution")
	}
	if got := String(e.Resource, "code", "text"); got != "first" {
		t.Errorf("expected first occurrence, got %s", got)
	}
}

func TestIndex_SharedBareIDIsNotDuplicate(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"resource":{"resourceType":"Patient","id":"1"}},
	  {"resource":{"resourceType":"Medication","id":"1"}}
	]}`)
	ix := NewIndex(b)
	if ix.Duplicates() != 0 {
		t.Errorf("expected no duplicates, got %d", ix.Duplicates())
	}
	for _, ref := range []string{"Patient/1", "Medication/1"} {
		e, ok := Resolve(ix, ref)
		if !ok || e.Resource.Type()+"/1" != ref {
			t.Errorf("%s resolved to %+v", ref, e)
		}
	}
}

func TestIndex_RepeatedFullURLIsDuplicate(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"fullUrl":"urn:uuid:0c3a9d1e-0000-4000-8000-000000000001","resource":{"resourceType":"Patient","id":"a"}},
	  {"fullUrl":"urn:uuid:0c3a9d1e-0000-4000-8000-000000000001","resource":{"resourceType":"Patient","id":"b"}}
	]}`)
	if n := NewIndex(b).Duplicates(); n != 1 {
		t.Errorf("expected 1 duplicate, got %d", n)
	}
}

func TestResolver_ContainedAnchor(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"resource":{"resourceType":"MedicationDispense","id":"d1",
	    "contained":[{"resourceType":"Medication","id":"med","code":{"text":"contained"}}],
	    "medicationReference":{"reference":"#med"}}},
	  {"resource":{"resourceType":"Medication","id":"med","code":{"text":"top-level"}}}
	]}`)
	ix := NewIndex(b)
	dispense := b.Entries[0].Resource
	res := NewResolver(ix).For(dispense)

	med, ok := res.Resolve("#med")
	if !ok {
		t.Fatal("expected anchor to resolve")
	}
	if got := String(med, "code", "text"); got != "contained" {
		t.Errorf("expected contained medication, got %s", got)
	}

	self, ok := res.Resolve("#")
	if !ok || self.ID() != "d1" {
		t.Errorf("expected bare anchor to resolve to the container, got %v", self)
	}
}

func TestResolver_SubBundleScope(t *testing.T) {
	b := mustBundle(t, `{"resourceType":"Bundle","entry":[
	  {"fullUrl":"https://erp.example/Task/t1","resource":{"resourceType":"Task","id":"t1",
	    "input":[{"valueReference":{"reference":"kbv-1"}}]}},
	  {"fullUrl":"urn:uuid:kbv-1","resource":{"resourceType":"Bundle","id":"kbv-1","entry":[
	    {"fullUrl":"https://pvs.example/Medication/m1","resource":{"resourceType":"Medication","id":"m1"}}
	  ]}},
	  {"resource":{"resourceType":"Patient","id":"outer"}}
	]}`)
	ix := NewIndex(b)
	root := NewResolver(ix)

	entry, ok := root.ResolveEntry("kbv-1")
	if !ok {
		t.Fatal("expected KBV bundle to resolve")
	}
	sub, ok := root.Sub(entry)
	if !ok {
		t.Fatal("expected sub-resolver for nested bundle")
	}
	if _, ok := sub.Resolve("Medication/m1"); !ok {
		t.Error("expected nested medication to resolve in sub scope")
	}
	if _, ok := sub.Resolve("Patient/outer"); ok {
		t.Error("nested scope must not fall back to the outer bundle")
	}
	if self, ok := sub.Resolve("#"); !ok || self.ID() != "kbv-1" {
		t.Error("expected bare anchor to resolve to the nested bundle")
	}
	if _, ok := root.Resolve("Medication/m1"); ok {
		t.Error("outer scope must not see nested entries")
	}
}

func TestResolver_Require(t *testing.T) {
	ix := NewIndex(mustBundle(t, `{"resourceType":"Bundle","entry":[]}`))
	res := NewResolver(ix)

	if _, err := res.Require("Task", "input", ""); !isKind(err, ErrorMissingRequiredField) {
		t.Errorf("expected missing field error, got %v", err)
	}
	if _, err := res.Require("Task", "input", "Bundle/none"); !isKind(err, ErrorUnresolvedReference) {
		t.Errorf("expected unresolved reference error, got %v", err)
	}
}

func isKind(err error, kind ErrorKind) bool {
	xerr, ok := err.(*ExtractionError)
	return ok && xerr.Kind == kind
}
