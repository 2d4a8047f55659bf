// Package record holds the durable message record: the unit of work and the
// audit trail for every logical message the dispatch engine touches.
package record

import "time"

// Status is the lifecycle state of a message record.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusSent       Status = "sent"
	StatusSuppressed Status = "suppressed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is an end state. Terminal statuses
// never revert to queued.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusSuppressed || s == StatusFailed
}

// Message is the durable record of a single logical send. One message is one
// channel and one recipient.
type Message struct {
	ID                 string
	Template           string
	Channel            string
	Recipient          string
	Language           string
	Context            map[string]any
	ContextFingerprint string
	ScheduledFor       time.Time
	Status             Status
	Attempts           int
	CreatedAt          time.Time
	SentAt             time.Time
	ProviderName       string
	ProviderMessageID  string
}
