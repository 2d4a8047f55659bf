package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/craftfair/dispatch/internal/engine"
	"github.com/craftfair/dispatch/internal/logger"
)

// Sender is the engine capability used by the send endpoints.
type Sender interface {
	Enqueue(ctx context.Context, tmpl, recipient string, contextData map[string]any, opts engine.EnqueueOptions) engine.EnqueueResult
	SendNow(ctx context.Context, payload engine.SendNowPayload) (string, bool)
}

// enqueueRequest is the JSON body for POST /api/v1/messages.
type enqueueRequest struct {
	Template     string         `json:"template"`
	Recipient    string         `json:"recipient"`
	Context      map[string]any `json:"context"`
	Language     string         `json:"language,omitempty"`
	ScheduledFor *time.Time     `json:"scheduled_for,omitempty"`
}

// enqueueResponse reports the enqueue outcome.
type enqueueResponse struct {
	MessageID string `json:"message_id,omitempty"`
	Skipped   bool   `json:"skipped"`
}

// EnqueueMessageHandler handles POST /api/v1/messages: the asynchronous
// queue-and-dispatch path.
func EnqueueMessageHandler(sender Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req enqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Template == "" || req.Recipient == "" {
			respondError(w, http.StatusBadRequest, "template and recipient are required")
			return
		}

		opts := engine.EnqueueOptions{Language: req.Language}
		if req.ScheduledFor != nil {
			opts.ScheduledFor = *req.ScheduledFor
		}

		result := sender.Enqueue(r.Context(), req.Template, req.Recipient, req.Context, opts)
		if result.MessageID == "" && !result.Skipped {
			respondError(w, http.StatusInternalServerError, "enqueue failed")
			return
		}

		status := http.StatusAccepted
		if result.Skipped {
			status = http.StatusOK
		}
		respondJSON(w, status, enqueueResponse{MessageID: result.MessageID, Skipped: result.Skipped})
	}
}

// sendNowRequest is the JSON body for POST /api/v1/messages/send-now.
// Either message_id or the (template, recipient) pair must be set.
type sendNowRequest struct {
	MessageID string         `json:"message_id,omitempty"`
	Template  string         `json:"template,omitempty"`
	Recipient string         `json:"recipient,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Language  string         `json:"language,omitempty"`
}

// sendNowResponse reports the synchronous delivery outcome.
type sendNowResponse struct {
	MessageID string `json:"message_id,omitempty"`
	Sent      bool   `json:"sent"`
}

// SendNowHandler handles POST /api/v1/messages/send-now: synchronous
// delivery for interactive use such as brand-test emails.
func SendNowHandler(sender Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromContext(r.Context())

		var req sendNowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.MessageID == "" && (req.Template == "" || req.Recipient == "") {
			respondError(w, http.StatusBadRequest, "message_id or template and recipient are required")
			return
		}

		id, sent := sender.SendNow(r.Context(), engine.SendNowPayload{
			MessageID: req.MessageID,
			Template:  req.Template,
			Recipient: req.Recipient,
			Context:   req.Context,
			Options:   engine.EnqueueOptions{Language: req.Language},
		})

		log.Info().
			Str("message_id", id).
			Bool("sent", sent).
			Msg("send-now completed")

		respondJSON(w, http.StatusOK, sendNowResponse{MessageID: id, Sent: sent})
	}
}
