package billing

import (
	"time"

	"github.com/erx/erx/internal/domain/task"
	"github.com/erx/erx/internal/platform/fhir"
)

// ChargeItemRecord is a private-insurance ChargeItem with the documents its
// supportingInformation references.
type ChargeItemRecord struct {
	ID                 string                   `json:"id"`
	PrescriptionID     string                   `json:"prescription_id,omitempty"`
	AccessCode         string                   `json:"access_code,omitempty"`
	PatientKVNR        string                   `json:"patient_kvnr,omitempty"`
	EntererTelematikID string                   `json:"enterer_telematik_id,omitempty"`
	EnteredDate        *time.Time               `json:"entered_date,omitempty"`
	MarkingFlags       MarkingFlags             `json:"marking_flags"`
	Generation         fhir.Generation          `json:"generation"`
	Prescription       *task.PrescriptionRecord `json:"prescription,omitempty"`
	Dispense           *DispenseRecord          `json:"dispense,omitempty"`
	ReceiptID          string                   `json:"receipt_id,omitempty"`
}

// ChargeItemBundle is the result of extracting a ChargeItem search bundle.
type ChargeItemBundle = fhir.Batch[ChargeItemRecord]

// MarkingFlags records where the insured has submitted the charge item.
type MarkingFlags struct {
	InsuranceProvider bool `json:"insurance_provider"`
	Subsidy           bool `json:"subsidy"`
	TaxOffice         bool `json:"tax_office"`
}

// DispenseRecord is the pharmacy's dispense data bundle.
type DispenseRecord struct {
	BundleID       string         `json:"bundle_id,omitempty"`
	PharmacyName   string         `json:"pharmacy_name,omitempty"`
	PharmacyIKNR   string         `json:"pharmacy_iknr,omitempty"`
	WhenHandedOver *time.Time     `json:"when_handed_over,omitempty"`
	Invoice        *InvoiceRecord `json:"invoice,omitempty"`
}

// InvoiceRecord holds amounts as decimal strings with two fraction digits.
type InvoiceRecord struct {
	ID                    string     `json:"id,omitempty"`
	Currency              string     `json:"currency,omitempty"`
	TotalGross            string     `json:"total_gross"`
	TotalCoPayment        string     `json:"total_co_payment,omitempty"`
	LineItems             []LineItem `json:"line_items"`
	AdditionalInformation []string   `json:"additional_information,omitempty"`
}

type CodeSystemKind string

const (
	CodeSystemPZN   CodeSystemKind = "pzn"
	CodeSystemTA1   CodeSystemKind = "ta1"
	CodeSystemHMNR  CodeSystemKind = "hmnr"
	CodeSystemOther CodeSystemKind = "other"
)

type LineItem struct {
	Code        string         `json:"code,omitempty"`
	CodeSystem  CodeSystemKind `json:"code_system,omitempty"`
	Description string         `json:"description,omitempty"`
	Factor      string         `json:"factor,omitempty"`
	Price       string         `json:"price,omitempty"`
	VATRate     string         `json:"vat_rate,omitempty"`
}
