package dosage

import (
	"encoding/json"
	"testing"

	"github.com/erx/erx/internal/platform/fhir"
)

func strPtr(s string) *string { return &s }

func TestParse_EmptyInputs(t *testing.T) {
	for _, in := range []*string{nil, strPtr(""), strPtr(" "), strPtr("<<>>"), strPtr("<< >>")} {
		got := Parse(in)
		if got.Kind != KindEmpty {
			t.Errorf("Parse(%v): expected empty, got %+v", in, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Instruction
	}{
		{"morning and evening", "1-0-1", Structured("1-0-1", map[DayTime]string{Morning: "1", Evening: "1"})},
		{"four slots", "1-1-1-1", Structured("1-1-1-1", map[DayTime]string{Morning: "1", Noon: "1", Evening: "1", Night: "1"})},
		{"night only", "0-0-0-2", Structured("0-0-0-2", map[DayTime]string{Night: "2"})},
		{"too many segments", "1-2-1-1-1-1-2-0", FreeText("1-2-1-1-1-1-2-0")},
		{"external marker", "<< DJ >>", External()},
		{"external marker lower case", "dj", External()},
		{"all zero", "0-0-0", Empty()},
		{"all zero four", "0-0-0-0", Empty()},
		{"all blank", "--", Empty()},
		{"blank with spaces", " - - - ", Empty()},
		{"non numeric segment ignored", "1-x-1", Structured("1-x-1", map[DayTime]string{Morning: "1", Evening: "1"})},
		{"fraction", "1-0-0-½", Structured("1-0-0-½", map[DayTime]string{Morning: "1", Night: "½"})},
		{"mixed number and comma decimal", "2 ½-0-1,5", Structured("2 ½-0-1,5", map[DayTime]string{Morning: "2 ½", Evening: "1,5"})},
		{"brackets stripped", "<<1-0-1>>", Structured("<<1-0-1>>", map[DayTime]string{Morning: "1", Evening: "1"})},
		{"spaced segments", " 1 - 0 - 1 ", Structured(" 1 - 0 - 1 ", map[DayTime]string{Morning: "1", Evening: "1"})},
		{"prose", "Bei Bedarf", FreeText("Bei Bedarf")},
		{"prose with hyphens", "nach dem Essen - morgens - abends", FreeText("nach dem Essen - morgens - abends")},
		{"two segments", "1-1", FreeText("1-1")},
		{"zero with prose", "0-x-0", Empty()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseText(tt.in)
			if !got.Equal(tt.want) {
				t.Errorf("ParseText(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_StructuredNeverEmpty(t *testing.T) {
	inputs := []string{"0-0-0", "0-0-0-0", "1-0-0", "0-0-1", "0,0-0-0", "0-½-0", "x-y-z", "---"}
	for _, in := range inputs {
		got := ParseText(in)
		if got.Kind == KindStructured && len(got.Interpretation) == 0 {
			t.Errorf("ParseText(%q) returned structured with empty interpretation", in)
		}
		for dt, amount := range got.Interpretation {
			d, ok := ParseAmount(amount)
			if !ok || d.IsZero() {
				t.Errorf("ParseText(%q): slot %s holds non-positive amount %q", in, dt, amount)
			}
		}
	}
}

func TestInstruction_Slots(t *testing.T) {
	in := ParseText("1-0-2-3")
	slots := in.Slots()
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].DayTime != Morning || slots[1].DayTime != Evening || slots[2].DayTime != Night {
		t.Errorf("slots not ordered by day time: %+v", slots)
	}
}

func TestInstruction_JSON(t *testing.T) {
	data, err := json.Marshal(ParseText("1-0-1"))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	want := `{"kind":"structured","text":"1-0-1","interpretation":{"evening":"1","morning":"1"}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}

	var back Instruction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	if !back.Equal(ParseText("1-0-1")) {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1", "1", true},
		{"1.5", "1.5", true},
		{"1,5", "1.5", true},
		{"½", "0.5", true},
		{"¼", "0.25", true},
		{"2 ½", "2.5", true},
		{"2½", "2.5", true},
		{"3/4", "0.75", true},
		{"0", "0", true},
		{"x", "", false},
		{"1/0", "", false},
		{"", "", false},
		{"1e3", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.String())
			}
		})
	}
}

func TestMultiplyMedicationAmount(t *testing.T) {
	ratio := func(v string) *fhir.Ratio {
		return &fhir.Ratio{
			Numerator:   &fhir.Quantity{Value: v, Unit: "St"},
			Denominator: &fhir.Quantity{Value: "1"},
		}
	}

	if got := MultiplyMedicationAmount(ratio("0.5"), 2); got.Numerator.Value != "1" {
		t.Errorf("expected 1, got %s", got.Numerator.Value)
	}
	if got := MultiplyMedicationAmount(ratio("0,7"), 2); got.Numerator.Value != "1.4" {
		t.Errorf("expected 1.4, got %s", got.Numerator.Value)
	}
	if got := MultiplyMedicationAmount(nil, 2); got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
	if got := MultiplyMedicationAmount(ratio("viel"), 3); got.Numerator.Value != "viel" {
		t.Errorf("expected unparseable value to be kept, got %s", got.Numerator.Value)
	}

	in := ratio("2")
	out := MultiplyMedicationAmount(in, 3)
	if out.Numerator.Value != "6" || out.Numerator.Unit != "St" {
		t.Errorf("unexpected result %+v", out.Numerator)
	}
	if in.Numerator.Value != "2" {
		t.Error("input ratio must not be modified")
	}
	if out.Denominator == in.Denominator {
		t.Error("result must not share the denominator with the input")
	}
}
