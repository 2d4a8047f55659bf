package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/craftfair/dispatch/internal/preference"
)

func newPreferenceRouter(store preference.Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/preferences/{type}/{recipient}", GetPreferenceHandler(store))
	r.Put("/preferences/{type}/{recipient}", UpdatePreferenceHandler(store))
	return r
}

func TestGetPreferenceHandler_MissingRowIsOptedIn(t *testing.T) {
	router := newPreferenceRouter(preference.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/preferences/email/buyer@example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp preferenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.MarketingOptOut || resp.OperationalReminderOptOut {
		t.Errorf("missing row = %+v, want both flags false", resp)
	}
	if resp.Recipient != "buyer@example.com" {
		t.Errorf("recipient = %s, want buyer@example.com", resp.Recipient)
	}
}

func TestGetPreferenceHandler_ExistingRow(t *testing.T) {
	store := preference.NewMemoryStore()
	store.Set(context.Background(), &preference.Preference{
		RecipientType:   "email",
		Recipient:       "buyer@example.com",
		MarketingOptOut: true,
	})
	router := newPreferenceRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/preferences/email/buyer@example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp preferenceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.MarketingOptOut || resp.OperationalReminderOptOut {
		t.Errorf("response = %+v, want marketing opt-out only", resp)
	}
}

func TestUpdatePreferenceHandler_PartialUpdate(t *testing.T) {
	store := preference.NewMemoryStore()
	store.Set(context.Background(), &preference.Preference{
		RecipientType:   "email",
		Recipient:       "buyer@example.com",
		MarketingOptOut: true,
	})
	router := newPreferenceRouter(store)

	// Only the operational flag is in the body; marketing must survive.
	body := strings.NewReader(`{"operational_reminder_opt_out": true}`)
	req := httptest.NewRequest(http.MethodPut, "/preferences/email/buyer@example.com", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	pref, err := store.Get(context.Background(), "email", "buyer@example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !pref.MarketingOptOut || !pref.OperationalReminderOptOut {
		t.Errorf("stored pref = %+v, want both flags true", pref)
	}
	if pref.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
}

func TestUpdatePreferenceHandler_CreatesRow(t *testing.T) {
	store := preference.NewMemoryStore()
	router := newPreferenceRouter(store)

	body := strings.NewReader(`{"marketing_opt_out": true}`)
	req := httptest.NewRequest(http.MethodPut, "/preferences/email/new@example.com", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	pref, err := store.Get(context.Background(), "email", "new@example.com")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !pref.MarketingOptOut {
		t.Error("created row missing marketing opt-out")
	}
}

func TestUpdatePreferenceHandler_InvalidBody(t *testing.T) {
	router := newPreferenceRouter(preference.NewMemoryStore())

	req := httptest.NewRequest(http.MethodPut, "/preferences/email/x@y.com", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
