package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftfair/dispatch/internal/logger"
	"github.com/craftfair/dispatch/internal/preference"
)

// preferenceResponse is the JSON shape of a recipient preference row.
type preferenceResponse struct {
	RecipientType             string    `json:"recipient_type"`
	Recipient                 string    `json:"recipient"`
	MarketingOptOut           bool      `json:"marketing_opt_out"`
	OperationalReminderOptOut bool      `json:"operational_reminder_opt_out"`
	UpdatedAt                 time.Time `json:"updated_at,omitempty"`
}

// preferenceUpdateRequest is the JSON body for PUT preference updates.
type preferenceUpdateRequest struct {
	MarketingOptOut           *bool `json:"marketing_opt_out"`
	OperationalReminderOptOut *bool `json:"operational_reminder_opt_out"`
}

// GetPreferenceHandler handles GET /api/v1/preferences/{type}/{recipient}.
// A missing row is reported as both flags false (opted in).
func GetPreferenceHandler(store preference.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipientType := chi.URLParam(r, "type")
		recipient := chi.URLParam(r, "recipient")

		pref, err := store.Get(r.Context(), recipientType, recipient)
		if err != nil {
			if errors.Is(err, preference.ErrNotFound) {
				respondJSON(w, http.StatusOK, preferenceResponse{
					RecipientType: recipientType,
					Recipient:     recipient,
				})
				return
			}
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("preference lookup failed")
			respondError(w, http.StatusInternalServerError, "preference lookup failed")
			return
		}

		respondJSON(w, http.StatusOK, preferenceResponse{
			RecipientType:             pref.RecipientType,
			Recipient:                 pref.Recipient,
			MarketingOptOut:           pref.MarketingOptOut,
			OperationalReminderOptOut: pref.OperationalReminderOptOut,
			UpdatedAt:                 pref.UpdatedAt,
		})
	}
}

// UpdatePreferenceHandler handles PUT /api/v1/preferences/{type}/{recipient}.
// Omitted flags keep their current value; the row is created on first write.
func UpdatePreferenceHandler(store preference.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		recipientType := chi.URLParam(r, "type")
		recipient := chi.URLParam(r, "recipient")
		if recipientType == "" || recipient == "" {
			respondError(w, http.StatusBadRequest, "recipient type and recipient are required")
			return
		}

		var req preferenceUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		pref, err := store.Get(r.Context(), recipientType, recipient)
		if err != nil {
			if !errors.Is(err, preference.ErrNotFound) {
				log.Error().Err(err).Msg("preference lookup failed")
				respondError(w, http.StatusInternalServerError, "preference lookup failed")
				return
			}
			pref = &preference.Preference{RecipientType: recipientType, Recipient: recipient}
		}

		if req.MarketingOptOut != nil {
			pref.MarketingOptOut = *req.MarketingOptOut
		}
		if req.OperationalReminderOptOut != nil {
			pref.OperationalReminderOptOut = *req.OperationalReminderOptOut
		}
		pref.UpdatedAt = time.Now()

		if err := store.Set(r.Context(), pref); err != nil {
			log.Error().Err(err).Msg("preference update failed")
			respondError(w, http.StatusInternalServerError, "preference update failed")
			return
		}

		log.Info().
			Str("recipient_type", recipientType).
			Str("recipient", recipient).
			Bool("marketing_opt_out", pref.MarketingOptOut).
			Bool("operational_reminder_opt_out", pref.OperationalReminderOptOut).
			Msg("preference updated")

		respondJSON(w, http.StatusOK, preferenceResponse{
			RecipientType:             pref.RecipientType,
			Recipient:                 pref.Recipient,
			MarketingOptOut:           pref.MarketingOptOut,
			OperationalReminderOptOut: pref.OperationalReminderOptOut,
			UpdatedAt:                 pref.UpdatedAt,
		})
	}
}
