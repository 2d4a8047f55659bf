package record

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested message record does not exist.
var ErrNotFound = errors.New("record: message not found")

// ErrDuplicate is returned by Create when a queued or sent record with the
// same (template, recipient, fingerprint) already exists. A previously
// failed record does not block a new one.
var ErrDuplicate = errors.New("record: active message with same fingerprint exists")

// ErrTerminal is returned by the Mark* methods when the record has already
// left the queued state. Status is monotonic; callers treat this as an
// idempotent skip.
var ErrTerminal = errors.New("record: message already terminal")

// Store persists message records. Implementations must enforce the
// fingerprint uniqueness constraint atomically against concurrent Create
// calls, and must write the attempt count and terminal status of a dispatch
// attempt in the same logical update.
type Store interface {
	// Create inserts a new queued record. Returns ErrDuplicate when an
	// active record with the same (template, recipient, fingerprint) exists.
	Create(ctx context.Context, msg *Message) error

	// Get loads a record by ID. Returns ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Message, error)

	// Delete removes a record. Used to roll back a Create whose queue post
	// failed, so no ambiguous half-enqueued record survives.
	Delete(ctx context.Context, id string) error

	// FindActive returns the queued or sent record matching the dedup key,
	// or ErrNotFound.
	FindActive(ctx context.Context, template, recipient, fingerprint string) (*Message, error)

	// MarkSent transitions queued -> sent, increments attempts, and stores
	// the provider correlation fields. Returns ErrTerminal if the record is
	// no longer queued.
	MarkSent(ctx context.Context, id, providerName, providerMessageID string, sentAt time.Time) error

	// MarkFailed transitions queued -> failed. countAttempt is true when a
	// provider send was actually attempted.
	MarkFailed(ctx context.Context, id string, countAttempt bool) error

	// MarkSuppressed transitions queued -> suppressed.
	MarkSuppressed(ctx context.Context, id string) error

	// ListByRecipient returns the most recent records for a recipient,
	// newest first.
	ListByRecipient(ctx context.Context, recipient string, limit int) ([]*Message, error)
}
