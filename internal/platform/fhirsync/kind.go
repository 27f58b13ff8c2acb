package fhirsync

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erx/erx/internal/platform/fhir"
)

// ErrUnknownResourceKind is returned for a resource kind the downloader
// cannot page through.
var ErrUnknownResourceKind = errors.New("unknown resource kind")

// Kind is a downloadable resource type of the prescription service.
type Kind string

const (
	KindTask               Kind = "Task"
	KindMedicationDispense Kind = "MedicationDispense"
	KindChargeItem         Kind = "ChargeItem"
	KindAuditEvent         Kind = "AuditEvent"
	KindCommunication      Kind = "Communication"
)

var kinds = map[string]Kind{
	"task":                KindTask,
	"medicationdispense":  KindMedicationDispense,
	"medication-dispense": KindMedicationDispense,
	"chargeitem":          KindChargeItem,
	"charge-item":         KindChargeItem,
	"auditevent":          KindAuditEvent,
	"audit-event":         KindAuditEvent,
	"communication":       KindCommunication,
}

// ParseKind accepts the resource type name in any case, with or without
// hyphens between words.
func ParseKind(s string) (Kind, error) {
	if k, ok := kinds[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResourceKind, s)
}

// sinceParam is the search parameter that filters a kind by the timestamp
// its watermark tracks.
func (k Kind) sinceParam() string {
	switch k {
	case KindTask:
		return "modified"
	case KindMedicationDispense:
		return "whenhandedover"
	case KindChargeItem:
		return "entered-date"
	case KindCommunication:
		return "sent"
	}
	return "date"
}

// timestampOf returns the instant the watermark of kind advances on.
func (k Kind) timestampOf(r fhir.Resource) *time.Time {
	switch k {
	case KindTask:
		if t := fhir.DateTime(r, "lastModified"); t != nil {
			return t
		}
		return fhir.DateTime(r, "authoredOn")
	case KindMedicationDispense:
		return fhir.DateTime(r, "whenHandedOver")
	case KindChargeItem:
		return fhir.DateTime(r, "enteredDate")
	case KindAuditEvent:
		return fhir.DateTime(r, "recorded")
	case KindCommunication:
		return fhir.DateTime(r, "sent")
	}
	return nil
}
