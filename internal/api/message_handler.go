package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/craftfair/dispatch/internal/logger"
	"github.com/craftfair/dispatch/internal/record"
)

const defaultMessageListLimit = 50

// messageResponse is the JSON shape of a message record. Context is omitted:
// the listing endpoints are for operational inspection, not payload export.
type messageResponse struct {
	ID                string     `json:"id"`
	Template          string     `json:"template"`
	Channel           string     `json:"channel"`
	Recipient         string     `json:"recipient"`
	Language          string     `json:"language,omitempty"`
	Status            string     `json:"status"`
	Attempts          int        `json:"attempts"`
	ScheduledFor      time.Time  `json:"scheduled_for"`
	CreatedAt         time.Time  `json:"created_at"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	ProviderName      string     `json:"provider_name,omitempty"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
}

func toMessageResponse(msg *record.Message) messageResponse {
	resp := messageResponse{
		ID:                msg.ID,
		Template:          msg.Template,
		Channel:           msg.Channel,
		Recipient:         msg.Recipient,
		Language:          msg.Language,
		Status:            string(msg.Status),
		Attempts:          msg.Attempts,
		ScheduledFor:      msg.ScheduledFor,
		CreatedAt:         msg.CreatedAt,
		ProviderName:      msg.ProviderName,
		ProviderMessageID: msg.ProviderMessageID,
	}
	if !msg.SentAt.IsZero() {
		sentAt := msg.SentAt
		resp.SentAt = &sentAt
	}
	return resp
}

// GetMessageHandler handles GET /api/v1/messages/{id}.
func GetMessageHandler(store record.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		msg, err := store.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, record.ErrNotFound) {
				respondError(w, http.StatusNotFound, "message not found")
				return
			}
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("message lookup failed")
			respondError(w, http.StatusInternalServerError, "message lookup failed")
			return
		}

		respondJSON(w, http.StatusOK, toMessageResponse(msg))
	}
}

// ListMessagesHandler handles GET /api/v1/messages?recipient=...&limit=N.
func ListMessagesHandler(store record.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient := r.URL.Query().Get("recipient")
		if recipient == "" {
			respondError(w, http.StatusBadRequest, "recipient query parameter is required")
			return
		}

		limit := defaultMessageListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 {
				respondError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		msgs, err := store.ListByRecipient(r.Context(), recipient, limit)
		if err != nil {
			log := logger.FromContext(r.Context())
			log.Error().Err(err).Msg("message list failed")
			respondError(w, http.StatusInternalServerError, "message list failed")
			return
		}

		out := make([]messageResponse, 0, len(msgs))
		for _, msg := range msgs {
			out = append(out, toMessageResponse(msg))
		}
		respondJSON(w, http.StatusOK, map[string]any{"messages": out})
	}
}
