package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/craftfair/dispatch/internal/auth"
	"github.com/craftfair/dispatch/internal/preference"
	"github.com/craftfair/dispatch/internal/queue"
	"github.com/craftfair/dispatch/internal/record"
	"github.com/craftfair/dispatch/internal/storage"
)

// RouterDeps bundles the collaborators the router wires into handlers.
// DLQ and Tokens are optional; their endpoints are skipped when nil.
type RouterDeps struct {
	DB          *storage.DB
	Records     record.Store
	Preferences preference.Store
	Sender      Sender
	DLQ         queue.DeadLetterQueue
	Tokens      *preference.TokenIssuer
	Verifier    *auth.Verifier
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(deps RouterDeps, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))

	// Health endpoints (no auth required)
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(deps.DB))

	// Unsubscribe endpoint (no auth required - the token carries identity)
	if deps.Tokens != nil {
		r.Get("/unsubscribe", UnsubscribeHandler(deps.Tokens, deps.Preferences))
	}

	// API routes (auth required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.BearerAuth(deps.Verifier))

		// Messages
		r.Post("/messages", EnqueueMessageHandler(deps.Sender))
		r.Post("/messages/send-now", SendNowHandler(deps.Sender))
		r.Get("/messages", ListMessagesHandler(deps.Records))
		r.Get("/messages/{id}", GetMessageHandler(deps.Records))

		// Preferences
		r.Get("/preferences/{type}/{recipient}", GetPreferenceHandler(deps.Preferences))
		r.Put("/preferences/{type}/{recipient}", UpdatePreferenceHandler(deps.Preferences))

		// DLQ Reprocess
		if deps.DLQ != nil {
			r.Post("/dlq/reprocess", DLQReprocessHandler(deps.DLQ))
		}
	})

	return r
}
