package task

import (
	"time"

	"github.com/erx/erx/internal/domain/dosage"
	"github.com/erx/erx/internal/domain/medication"
	"github.com/erx/erx/internal/platform/fhir"
)

// TaskRecord is an e-prescription Task together with the prescription it
// carries, if the bundle contained one.
type TaskRecord struct {
	TaskID                 string              `json:"task_id"`
	PrescriptionID         string              `json:"prescription_id,omitempty"`
	AccessCode             string              `json:"access_code,omitempty"`
	Status                 string              `json:"status,omitempty"`
	FlowType               string              `json:"flow_type,omitempty"`
	AuthoredOn             *time.Time          `json:"authored_on,omitempty"`
	LastModified           *time.Time          `json:"last_modified,omitempty"`
	ExpiresOn              *time.Time          `json:"expires_on,omitempty"`
	AcceptUntil            *time.Time          `json:"accept_until,omitempty"`
	LastMedicationDispense *time.Time          `json:"last_medication_dispense,omitempty"`
	Generation             fhir.Generation     `json:"generation"`
	Prescription           *PrescriptionRecord `json:"prescription,omitempty"`
}

// TaskBundle is the result of extracting a Task search bundle.
type TaskBundle = fhir.Batch[TaskRecord]

// PrescriptionRecord is the content of a KBV prescription bundle.
type PrescriptionRecord struct {
	BundleID          string                      `json:"bundle_id,omitempty"`
	PrescriptionID    string                      `json:"prescription_id,omitempty"`
	Medication        medication.MedicationRecord `json:"medication"`
	MedicationRequest MedicationRequestRecord     `json:"medication_request"`
	Organization      *OrganizationRecord         `json:"organization,omitempty"`
	Practitioner      *PractitionerRecord         `json:"practitioner,omitempty"`
	Patient           *PatientRecord              `json:"patient,omitempty"`
	Coverage          *CoverageRecord             `json:"coverage,omitempty"`
}

type MedicationRequestRecord struct {
	AuthoredOn           *time.Time            `json:"authored_on,omitempty"`
	DosageText           string                `json:"dosage_text,omitempty"`
	Dosage               dosage.Instruction    `json:"dosage"`
	DosageFlag           bool                  `json:"dosage_flag"`
	Quantity             int                   `json:"quantity,omitempty"`
	SubstitutionAllowed  bool                  `json:"substitution_allowed"`
	Note                 string                `json:"note,omitempty"`
	EmergencyServicesFee bool                  `json:"emergency_services_fee"`
	BVG                  bool                  `json:"bvg"`
	CoPaymentStatus      string                `json:"co_payment_status,omitempty"`
	Accident             *Accident             `json:"accident,omitempty"`
	MultiplePrescription *MultiplePrescription `json:"multiple_prescription,omitempty"`
}

type Accident struct {
	Type     string     `json:"type,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Employer string     `json:"employer,omitempty"`
}

// MultiplePrescription marks one part of a series ("2 of 4") and the period
// in which it may be redeemed.
type MultiplePrescription struct {
	Numerator   int        `json:"numerator"`
	Denominator int        `json:"denominator"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
}

type OrganizationRecord struct {
	Name    string        `json:"name,omitempty"`
	BSNR    string        `json:"bsnr,omitempty"`
	IKNR    string        `json:"iknr,omitempty"`
	Address *fhir.Address `json:"address,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Mail    string        `json:"mail,omitempty"`
	Fax     string        `json:"fax,omitempty"`
}

type PractitionerRecord struct {
	Name              string `json:"name,omitempty"`
	QualificationType string `json:"qualification_type,omitempty"`
	Profession        string `json:"profession,omitempty"`
	LANR              string `json:"lanr,omitempty"`
	ZANR              string `json:"zanr,omitempty"`
}

type PatientRecord struct {
	Name      string        `json:"name,omitempty"`
	KVNR      string        `json:"kvnr,omitempty"`
	BirthDate *time.Time    `json:"birth_date,omitempty"`
	Address   *fhir.Address `json:"address,omitempty"`
}

type CoverageRecord struct {
	PayorName     string `json:"payor_name,omitempty"`
	IKNR          string `json:"iknr,omitempty"`
	StatusCode    string `json:"status_code,omitempty"`
	InsuranceType string `json:"insurance_type,omitempty"`
}
