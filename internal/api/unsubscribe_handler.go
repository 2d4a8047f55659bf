package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/craftfair/dispatch/internal/logger"
	"github.com/craftfair/dispatch/internal/preference"
	"github.com/craftfair/dispatch/internal/template"
)

// UnsubscribeHandler handles GET /unsubscribe?token=...: the one-click
// opt-out link embedded in outbound messages. The token names the recipient
// and category, so no authentication beyond the token itself is needed.
func UnsubscribeHandler(issuer *preference.TokenIssuer, store preference.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		token := r.URL.Query().Get("token")
		if token == "" {
			respondError(w, http.StatusBadRequest, "token is required")
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid or expired token")
			return
		}

		pref, err := store.Get(r.Context(), claims.RecipientType, claims.Recipient)
		if err != nil {
			if !errors.Is(err, preference.ErrNotFound) {
				log.Error().Err(err).Msg("unsubscribe: preference lookup failed")
				respondError(w, http.StatusInternalServerError, "unsubscribe failed")
				return
			}
			pref = &preference.Preference{
				RecipientType: claims.RecipientType,
				Recipient:     claims.Recipient,
			}
		}

		switch template.Category(claims.Category) {
		case template.CategoryOperational:
			pref.OperationalReminderOptOut = true
		default:
			pref.MarketingOptOut = true
		}
		pref.UpdatedAt = time.Now()

		if err := store.Set(r.Context(), pref); err != nil {
			log.Error().Err(err).Msg("unsubscribe: preference write failed")
			respondError(w, http.StatusInternalServerError, "unsubscribe failed")
			return
		}

		log.Info().
			Str("recipient_type", claims.RecipientType).
			Str("category", claims.Category).
			Msg("recipient unsubscribed")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body><p>You have been unsubscribed.</p></body></html>"))
	}
}
