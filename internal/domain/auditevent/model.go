package auditevent

import (
	"time"
)

// AuditEventRecord is one access-log entry of the prescription service.
type AuditEventRecord struct {
	ID               string     `json:"id"`
	Text             string     `json:"text,omitempty"`
	Recorded         *time.Time `json:"recorded,omitempty"`
	TaskID           string     `json:"task_id,omitempty"`
	PrescriptionID   string     `json:"prescription_id,omitempty"`
	AgentName        string     `json:"agent_name,omitempty"`
	AgentTelematikID string     `json:"agent_telematik_id,omitempty"`
	Action           string     `json:"action,omitempty"`
}
