package medication

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite testdata/*.golden.json")

func TestDispenseGolden(t *testing.T) {
	bundle := func(t *testing.T, fixture string) []MedicationDispenseRecord {
		return ExtractDispenseBundle(loadIndex(t, fixture)).Records
	}

	tests := []struct {
		name    string
		fixture string
		extract func(t *testing.T, fixture string) []MedicationDispenseRecord
	}{
		{
			name:    "legacy contained medication",
			fixture: "dispense_legacy.json",
			extract: func(t *testing.T, fixture string) []MedicationDispenseRecord {
				rec, err := ExtractDispense(loadResource(t, fixture), nil)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return []MedicationDispenseRecord{rec}
			},
		},
		{name: "1.4 with epa medication", fixture: "dispense_1_4.json", extract: bundle},
		{name: "1.5 compounding", fixture: "dispense_compounding_1_5.json", extract: bundle},
		{name: "eu cross border", fixture: "dispense_eu.json", extract: bundle},
		{name: "diga redeemed and declined", fixture: "dispense_diga.json", extract: bundle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.extract(t, tt.fixture))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			golden := filepath.Join("testdata", strings.TrimSuffix(tt.fixture, ".json")+".golden.json")
			if *update {
				var out bytes.Buffer
				if err := json.Indent(&out, got, "", "  "); err != nil {
					t.Fatal(err)
				}
				out.WriteByte('\n')
				if err := os.WriteFile(golden, out.Bytes(), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			raw, err := os.ReadFile(golden)
			if err != nil {
				t.Fatalf("failed to read golden file: %v", err)
			}
			var want bytes.Buffer
			if err := json.Compact(&want, raw); err != nil {
				t.Fatalf("invalid golden file: %v", err)
			}
			if !bytes.Equal(got, want.Bytes()) {
				t.Errorf("record differs from %s\n got: %s\nwant: %s", golden, got, want.Bytes())
			}

			var decoded []MedicationDispenseRecord
			if err := json.Unmarshal(got, &decoded); err != nil {
				t.Fatalf("re-decode: %v", err)
			}
			again, err := json.Marshal(decoded)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			if !bytes.Equal(again, got) {
				t.Errorf("round trip changed the record\nfirst:  %s\nsecond: %s", got, again)
			}
		})
	}
}
