package auditevent

import (
	"github.com/erx/erx/internal/platform/fhir"
)

// ExtractAuditEvent maps an AuditEvent. Recorded is mandatory; the audit
// trail is ordered by it.
func ExtractAuditEvent(r fhir.Resource, _ *fhir.Resolver) (AuditEventRecord, error) {
	rec := AuditEventRecord{
		ID:               r.ID(),
		Text:             fhir.NarrativeText(r),
		Recorded:         fhir.DateTime(r, "recorded"),
		PrescriptionID:   fhir.String(r, "entity", 0, "description"),
		AgentName:        fhir.String(r, "agent", 0, "name"),
		AgentTelematikID: fhir.String(r, "agent", 0, "who", "identifier", "value"),
		Action:           fhir.String(r, "action"),
	}
	if rec.Recorded == nil {
		return rec, fhir.MissingField("AuditEvent", "recorded")
	}
	if ref := fhir.ParseReference(fhir.String(r, "entity", 0, "what", "reference")); ref.ResourceType == "Task" {
		rec.TaskID = ref.ID
	}
	if rec.PrescriptionID == "" {
		rec.PrescriptionID = fhir.String(r, "entity", 0, "what", "identifier", "value")
	}
	if rec.TaskID == "" {
		rec.TaskID = rec.PrescriptionID
	}
	return rec, nil
}
