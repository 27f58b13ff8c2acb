package communication

import (
	"strings"

	"github.com/erx/erx/internal/platform/fhir"
)

var kindsBySuffix = map[string]Kind{
	"InfoReq":          KindInfoRequest,
	"Reply":            KindReply,
	"DispReq":          KindDispenseRequest,
	"Representative":   KindRepresentative,
	"ChargChangeReq":   KindChargeChangeRequest,
	"ChargChangeReply": KindChargeChangeReply,
	"DiGA":             KindDiGA,
}

// KindOf derives the communication kind from the profile name, e.g.
// GEM_ERP_PR_Communication_DispReq or ErxCommunicationReply.
func KindOf(p fhir.VersionedProfile) Kind {
	i := strings.LastIndex(p.Name, "Communication")
	if i < 0 {
		return KindUnknown
	}
	suffix := strings.TrimPrefix(p.Name[i+len("Communication"):], "_")
	if k, ok := kindsBySuffix[suffix]; ok {
		return k
	}
	return KindUnknown
}

// ExtractCommunication maps a Communication. basedOn must name the Task the
// message belongs to.
func ExtractCommunication(r fhir.Resource, _ *fhir.Resolver) (CommunicationRecord, error) {
	rec := CommunicationRecord{
		ID:        r.ID(),
		Kind:      KindOf(fhir.ProfileOf(r)),
		TaskID:    taskIDOf(fhir.String(r, "basedOn", 0, "reference")),
		Sender:    fhir.String(r, "sender", "identifier", "value"),
		Recipient: fhir.String(r, "recipient", 0, "identifier", "value"),
		Sent:      fhir.DateTime(r, "sent"),
		Received:  fhir.DateTime(r, "received"),
		Payload:   fhir.String(r, "payload", 0, "contentString"),
	}
	if rec.TaskID == "" {
		return rec, fhir.MissingField("Communication", "basedOn")
	}
	return rec, nil
}

// taskIDOf returns the id following the "Task" segment of a basedOn
// reference such as "Task/160.000.000.000.001.05/$accept?ac=...".
func taskIDOf(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	parts := strings.Split(ref, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "Task" && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}
