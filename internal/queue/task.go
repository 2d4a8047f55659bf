package queue

import "time"

// Task is a queued dispatch request. It references a message record by ID;
// the template key rides along for log and metric labels only.
type Task struct {
	MessageID  string    `json:"message_id"`
	Template   string    `json:"template,omitempty"`
	RetryCount int       `json:"retry_count"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTask creates a Task referencing the given message record.
func NewTask(messageID, template string) *Task {
	return &Task{
		MessageID:  messageID,
		Template:   template,
		EnqueuedAt: time.Now(),
	}
}

const (
	taskStream = "dispatch:tasks"
	dlqStream  = "dispatch:dlq"
)
