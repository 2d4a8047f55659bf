// Package preference stores per-recipient opt-out flags and evaluates
// whether a template category is allowed to reach a recipient.
package preference

import (
	"context"
	"errors"
	"time"

	"github.com/craftfair/dispatch/internal/template"
)

// ErrNotFound is returned when no preference row exists for a recipient.
// Absence means the recipient is fully opted in.
var ErrNotFound = errors.New("preference: not found")

// Preference holds the opt-out flags for one recipient on one channel.
// Rows are created lazily on first write.
type Preference struct {
	RecipientType             string
	Recipient                 string
	MarketingOptOut           bool
	OperationalReminderOptOut bool
	UpdatedAt                 time.Time
}

// Store persists recipient preferences with last-write-wins semantics.
type Store interface {
	// Get returns the preference row, or ErrNotFound when none exists.
	Get(ctx context.Context, recipientType, recipient string) (*Preference, error)
	// Set creates or replaces the preference row.
	Set(ctx context.Context, pref *Preference) error
}

// Allows reports whether a message of the given category may be sent to a
// recipient with the given preferences. A nil preference means opted in.
// Transactional messages are never suppressed by opt-outs.
func Allows(category template.Category, pref *Preference) bool {
	switch category {
	case template.CategoryTransactional:
		return true
	case template.CategoryOperational:
		return pref == nil || !pref.OperationalReminderOptOut
	default:
		return pref == nil || !pref.MarketingOptOut
	}
}
