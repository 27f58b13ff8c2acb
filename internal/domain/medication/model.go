package medication

import (
	"time"

	"github.com/erx/erx/internal/platform/fhir"
)

// Category is the kind of medication a prescription or dispense names.
type Category string

const (
	CategoryPZN         Category = "pzn"
	CategoryCompounding Category = "compounding"
	CategoryIngredient  Category = "ingredient"
	CategoryFreeText    Category = "free-text"
	CategoryEPA         Category = "epa"
	CategoryUnknown     Category = "unknown"
)

// MedicationRecord is a version-agnostic Medication.
type MedicationRecord struct {
	ID                        string       `json:"id,omitempty"`
	Category                  Category     `json:"category"`
	Name                      string       `json:"name,omitempty"`
	PZN                       string       `json:"pzn,omitempty"`
	ATC                       string       `json:"atc,omitempty"`
	DrugCategory              string       `json:"drug_category,omitempty"`
	Form                      string       `json:"form,omitempty"`
	NormSizeCode              string       `json:"norm_size_code,omitempty"`
	Amount                    *fhir.Ratio  `json:"amount,omitempty"`
	Vaccine                   bool         `json:"vaccine"`
	ManufacturingInstructions string       `json:"manufacturing_instructions,omitempty"`
	Packaging                 string       `json:"packaging,omitempty"`
	LotNumber                 string       `json:"lot_number,omitempty"`
	ExpirationDate            *time.Time   `json:"expiration_date,omitempty"`
	Ingredients               []Ingredient `json:"ingredients,omitempty"`
}

// Ingredient is one component of a compounding or ingredient medication.
type Ingredient struct {
	Text             string      `json:"text,omitempty"`
	Number           string      `json:"number,omitempty"`
	Form             string      `json:"form,omitempty"`
	Strength         *fhir.Ratio `json:"strength,omitempty"`
	StrengthFreeText string      `json:"strength_free_text,omitempty"`
}

// MedicationDispenseRecord is a dispense in any supported generation.
// Medication is nil for DiGA dispenses; CrossBorder and Diga are set only
// for their generations.
type MedicationDispenseRecord struct {
	DispenseID           string            `json:"dispense_id"`
	PrescriptionID       string            `json:"prescription_id"`
	PatientKVNR          string            `json:"patient_kvnr,omitempty"`
	PerformerTelematikID string            `json:"performer_telematik_id,omitempty"`
	Status               string            `json:"status,omitempty"`
	WhenHandedOver       *time.Time        `json:"when_handed_over,omitempty"`
	WhenPrepared         *time.Time        `json:"when_prepared,omitempty"`
	DosageInstruction    string            `json:"dosage_instruction,omitempty"`
	WasSubstituted       bool              `json:"was_substituted"`
	Medication           *MedicationRecord `json:"medication,omitempty"`
	Generation           fhir.Generation   `json:"generation"`
	CrossBorder          *CrossBorder      `json:"cross_border,omitempty"`
	Diga                 *Diga             `json:"diga,omitempty"`
}

// CrossBorder holds what an EU pharmacy reports about a dispense abroad.
type CrossBorder struct {
	Country          string `json:"country,omitempty"`
	PharmacyName     string `json:"pharmacy_name,omitempty"`
	PharmacyID       string `json:"pharmacy_id,omitempty"`
	PractitionerName string `json:"practitioner_name,omitempty"`
	PractitionerRole string `json:"practitioner_role,omitempty"`
}

// Diga is the redeemable payload of a digital health application.
type Diga struct {
	Name       string `json:"name,omitempty"`
	PZN        string `json:"pzn,omitempty"`
	RedeemCode string `json:"redeem_code,omitempty"`
	DeepLink   string `json:"deep_link,omitempty"`
	// Declined is set when the insurer did not issue a redeem code.
	Declined bool `json:"declined"`
}
