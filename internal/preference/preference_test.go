package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/craftfair/dispatch/internal/template"
)

func TestAllows(t *testing.T) {
	tests := []struct {
		name     string
		category template.Category
		pref     *Preference
		want     bool
	}{
		{
			name:     "nil preference allows marketing",
			category: template.CategoryMarketing,
			pref:     nil,
			want:     true,
		},
		{
			name:     "nil preference allows operational",
			category: template.CategoryOperational,
			pref:     nil,
			want:     true,
		},
		{
			name:     "marketing opt-out suppresses marketing",
			category: template.CategoryMarketing,
			pref:     &Preference{MarketingOptOut: true},
			want:     false,
		},
		{
			name:     "marketing opt-out does not touch operational",
			category: template.CategoryOperational,
			pref:     &Preference{MarketingOptOut: true},
			want:     true,
		},
		{
			name:     "operational opt-out suppresses operational",
			category: template.CategoryOperational,
			pref:     &Preference{OperationalReminderOptOut: true},
			want:     false,
		},
		{
			name:     "operational opt-out does not touch marketing",
			category: template.CategoryMarketing,
			pref:     &Preference{OperationalReminderOptOut: true},
			want:     true,
		},
		{
			name:     "transactional always allowed",
			category: template.CategoryTransactional,
			pref:     &Preference{MarketingOptOut: true, OperationalReminderOptOut: true},
			want:     true,
		},
		{
			name:     "both opt-outs suppress marketing",
			category: template.CategoryMarketing,
			pref:     &Preference{MarketingOptOut: true, OperationalReminderOptOut: true},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allows(tt.category, tt.pref); got != tt.want {
				t.Errorf("Allows(%s, %+v) = %v, want %v", tt.category, tt.pref, got, tt.want)
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "user", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, &Preference{RecipientType: "user", Recipient: "u1", MarketingOptOut: true}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Get(ctx, "user", "u1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.MarketingOptOut || got.OperationalReminderOptOut {
		t.Errorf("Get() = %+v, want marketing opt-out only", got)
	}

	// Last write wins.
	if err := store.Set(ctx, &Preference{RecipientType: "user", Recipient: "u1", OperationalReminderOptOut: true}); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}
	got, _ = store.Get(ctx, "user", "u1")
	if got.MarketingOptOut || !got.OperationalReminderOptOut {
		t.Errorf("Get() after overwrite = %+v, want operational opt-out only", got)
	}

	// Different recipient types are independent rows.
	if _, err := store.Get(ctx, "vendor", "u1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() for other type error = %v, want ErrNotFound", err)
	}
}
