package communication

import (
	"time"
)

// Kind is the purpose of a Communication, taken from its profile.
type Kind string

const (
	KindInfoRequest         Kind = "info-request"
	KindReply               Kind = "reply"
	KindDispenseRequest     Kind = "dispense-request"
	KindRepresentative      Kind = "representative"
	KindChargeChangeRequest Kind = "charge-change-request"
	KindChargeChangeReply   Kind = "charge-change-reply"
	KindDiGA                Kind = "diga"
	KindUnknown             Kind = "unknown"
)

type CommunicationRecord struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	TaskID    string     `json:"task_id"`
	Sender    string     `json:"sender,omitempty"`
	Recipient string     `json:"recipient,omitempty"`
	Sent      *time.Time `json:"sent,omitempty"`
	Received  *time.Time `json:"received,omitempty"`
	Payload   string     `json:"payload,omitempty"`
}
