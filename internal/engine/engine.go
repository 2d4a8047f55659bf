// Package engine implements the dispatch orchestrator: idempotent enqueue,
// preference-aware suppression, render safety checks, and provider delivery.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/craftfair/dispatch/internal/attachstore"
	"github.com/craftfair/dispatch/internal/brand"
	"github.com/craftfair/dispatch/internal/metrics"
	"github.com/craftfair/dispatch/internal/preference"
	"github.com/craftfair/dispatch/internal/provider"
	"github.com/craftfair/dispatch/internal/queue"
	"github.com/craftfair/dispatch/internal/record"
	"github.com/craftfair/dispatch/internal/render"
	"github.com/craftfair/dispatch/internal/template"
)

// ErrNotDue is returned by Dispatch when the message's scheduled time is
// still in the future. The worker requeues the task instead of failing it.
var ErrNotDue = errors.New("engine: message not yet due")

// ProviderResolver selects the delivery provider for a message from its
// context.
type ProviderResolver interface {
	Resolve(ctx context.Context, messageContext map[string]any) (provider.Provider, error)
}

// EnqueueOptions carries the optional parts of an enqueue call.
type EnqueueOptions struct {
	Channel      string
	Language     string
	ScheduledFor time.Time
	Attachments  []provider.Attachment
}

// EnqueueResult is the outcome of an Enqueue call. A zero result (no ID, not
// skipped) means the enqueue failed and the message is not guaranteed to be
// retried.
type EnqueueResult struct {
	MessageID string
	Skipped   bool
}

// SendNowPayload is the input to SendNow. Either MessageID references an
// existing record, or the (Template, Recipient, Context) triple describes a
// new message.
type SendNowPayload struct {
	MessageID string
	Template  string
	Recipient string
	Context   map[string]any
	Options   EnqueueOptions
}

// Engine composes the record store, preference store, template source,
// renderer, and provider resolver into the dispatch lifecycle.
//
// The brand resolver, attachment store, and unsubscribe token issuer are
// optional collaborators; nil means the corresponding step is skipped.
type Engine struct {
	records     record.Store
	prefs       preference.Store
	templates   template.Source
	renderer    *render.Renderer
	brands      brand.Resolver
	providers   ProviderResolver
	attachments attachstore.Store
	enqueuer    queue.Enqueuer
	tokens      *preference.TokenIssuer
	log         zerolog.Logger
	now         func() time.Time
}

// Deps bundles the engine's collaborators.
type Deps struct {
	Records     record.Store
	Preferences preference.Store
	Templates   template.Source
	Renderer    *render.Renderer
	Brands      brand.Resolver
	Providers   ProviderResolver
	Attachments attachstore.Store
	Enqueuer    queue.Enqueuer
	Tokens      *preference.TokenIssuer
}

// New creates an Engine from the given dependencies.
func New(deps Deps, log zerolog.Logger) *Engine {
	return &Engine{
		records:     deps.Records,
		prefs:       deps.Preferences,
		templates:   deps.Templates,
		renderer:    deps.Renderer,
		brands:      deps.Brands,
		providers:   deps.Providers,
		attachments: deps.Attachments,
		enqueuer:    deps.Enqueuer,
		tokens:      deps.Tokens,
		log:         log,
		now:         time.Now,
	}
}

// Enqueue records a logical message and posts its ID to the queue. Failures
// are absorbed: the caller gets a zero result, never an error, so triggering
// business logic (placing an order, say) cannot fail on a messaging fault.
func (e *Engine) Enqueue(ctx context.Context, tmpl, recipient string, contextData map[string]any, opts EnqueueOptions) EnqueueResult {
	if recipient == "" {
		e.log.Warn().Str("template", tmpl).Msg("enqueue rejected: empty recipient")
		metrics.EnqueueRejectedTotal.WithLabelValues("empty_recipient").Inc()
		return EnqueueResult{}
	}

	normalized := record.NormalizeContext(contextData)
	fingerprint := record.Fingerprint(tmpl, recipient, normalized)

	// Attachment payloads are stored out of band and replaced by references.
	// Upload happens after fingerprinting so generated attachment IDs cannot
	// break deduplication of otherwise identical messages.
	if len(opts.Attachments) > 0 && e.attachments != nil {
		refs, err := e.storeAttachments(ctx, opts.Attachments)
		if err != nil {
			e.log.Error().Err(err).Str("template", tmpl).Msg("enqueue aborted: attachment upload failed")
			metrics.EnqueueRejectedTotal.WithLabelValues("store_error").Inc()
			return EnqueueResult{}
		}
		normalized[record.AttachmentsKey] = refs
	}

	channel := opts.Channel
	if channel == "" {
		channel = "email"
	}
	scheduledFor := opts.ScheduledFor
	if scheduledFor.IsZero() {
		scheduledFor = e.now()
	}

	msg := &record.Message{
		ID:                 uuid.New().String(),
		Template:           tmpl,
		Channel:            channel,
		Recipient:          recipient,
		Language:           opts.Language,
		Context:            normalized,
		ContextFingerprint: fingerprint,
		ScheduledFor:       scheduledFor,
		Status:             record.StatusQueued,
		CreatedAt:          e.now(),
	}

	if err := e.records.Create(ctx, msg); err != nil {
		if errors.Is(err, record.ErrDuplicate) {
			existingID := ""
			if existing, findErr := e.records.FindActive(ctx, tmpl, recipient, fingerprint); findErr == nil {
				existingID = existing.ID
			}
			e.log.Info().
				Str("template", tmpl).
				Str("recipient", recipient).
				Str("existing_id", existingID).
				Msg("duplicate message skipped")
			metrics.DuplicatesSkippedTotal.Inc()
			return EnqueueResult{MessageID: existingID, Skipped: true}
		}
		e.log.Error().Err(err).Str("template", tmpl).Msg("enqueue aborted: record create failed")
		metrics.EnqueueRejectedTotal.WithLabelValues("store_error").Inc()
		return EnqueueResult{}
	}

	if _, err := e.enqueuer.Enqueue(ctx, queue.NewTask(msg.ID, tmpl)); err != nil {
		// Remove the record so no half-enqueued state survives. The caller
		// sees a clean "not sent" and may enqueue again.
		if delErr := e.records.Delete(ctx, msg.ID); delErr != nil {
			e.log.Error().Err(delErr).Str("message_id", msg.ID).Msg("failed to roll back record after queue error")
		}
		e.log.Error().Err(err).Str("message_id", msg.ID).Msg("enqueue aborted: queue post failed")
		metrics.EnqueueRejectedTotal.WithLabelValues("queue_error").Inc()
		return EnqueueResult{}
	}

	e.log.Info().
		Str("message_id", msg.ID).
		Str("template", tmpl).
		Str("recipient", recipient).
		Msg("message enqueued")
	metrics.MessagesEnqueuedTotal.WithLabelValues(tmpl).Inc()

	return EnqueueResult{MessageID: msg.ID}
}

// Dispatch processes one queued message to a terminal state. It is safe to
// call concurrently for different IDs and idempotent for the same ID.
//
// Business outcomes (sent, suppressed, failed, idempotent skip) return nil:
// the task is done and must not be retried. A non-nil error means an
// infrastructure fault (store or attachment fetch) and the task should be
// redelivered. ErrNotDue means the scheduled time has not arrived.
func (e *Engine) Dispatch(ctx context.Context, id string) error {
	log := e.log.With().Str("message_id", id).Logger()

	msg, err := e.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			log.Warn().Msg("dispatch: message not found, nothing to do")
			return nil
		}
		return fmt.Errorf("engine: load message: %w", err)
	}

	if msg.Status.Terminal() {
		log.Debug().Str("status", string(msg.Status)).Msg("dispatch: message already terminal, skipping")
		metrics.DispatchOutcomeTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	if msg.ScheduledFor.After(e.now()) {
		return ErrNotDue
	}

	def, err := e.templates.Get(ctx, msg.Template)
	if err != nil {
		if errors.Is(err, template.ErrNotFound) {
			log.Info().Str("template", msg.Template).Msg("dispatch: template missing, suppressing")
			metrics.SuppressionsTotal.WithLabelValues("template_missing").Inc()
			return e.suppress(ctx, log, msg.ID)
		}
		return fmt.Errorf("engine: resolve template: %w", err)
	}
	if !def.Enabled {
		log.Info().Str("template", msg.Template).Msg("dispatch: template disabled, suppressing")
		metrics.SuppressionsTotal.WithLabelValues("template_disabled").Inc()
		return e.suppress(ctx, log, msg.ID)
	}

	// Preferences are evaluated here, not at enqueue time, so an opt-out
	// made between enqueue and worker pickup is honored.
	pref, err := e.prefs.Get(ctx, msg.Channel, msg.Recipient)
	if err != nil && !errors.Is(err, preference.ErrNotFound) {
		return fmt.Errorf("engine: load preference: %w", err)
	}
	if !preference.Allows(def.Category, pref) {
		log.Info().
			Str("category", string(def.Category)).
			Msg("dispatch: recipient opted out, suppressing")
		metrics.SuppressionsTotal.WithLabelValues("opt_out").Inc()
		return e.suppress(ctx, log, msg.ID)
	}

	data := e.renderContext(ctx, msg, def.Category)

	subject := e.renderer.Subject(def.Subject, data)
	if render.HasUnresolvedTokens(subject) {
		log.Error().Str("template", msg.Template).Msg("dispatch: unresolved tokens in subject, failing")
		metrics.RenderDefectsTotal.WithLabelValues("subject").Inc()
		return e.fail(ctx, log, msg.ID, false)
	}

	body := e.renderer.Body(def.Body, data)
	if render.HasUnresolvedTokens(body) {
		log.Error().Str("template", msg.Template).Msg("dispatch: unresolved tokens in body, failing")
		metrics.RenderDefectsTotal.WithLabelValues("body").Inc()
		return e.fail(ctx, log, msg.ID, false)
	}

	body = render.TagLinks(body, def.LinkParams)

	attachments, err := e.loadAttachments(ctx, msg.Context)
	if err != nil {
		return fmt.Errorf("engine: load attachments: %w", err)
	}

	prov, err := e.providers.Resolve(ctx, msg.Context)
	if err != nil {
		return fmt.Errorf("engine: resolve provider: %w", err)
	}

	out := &provider.Message{
		ID:          msg.ID,
		To:          msg.Recipient,
		Subject:     subject,
		HTMLBody:    body,
		Language:    msg.Language,
		Attachments: attachments,
	}
	e.applySenderOverrides(out, data)

	start := e.now()
	result, sendErr := prov.Send(ctx, out)
	metrics.ProviderSendDuration.WithLabelValues(prov.GetName()).Observe(time.Since(start).Seconds())

	if sendErr != nil {
		log.Error().Err(sendErr).Str("provider", prov.GetName()).Msg("dispatch: provider send failed")
		return e.fail(ctx, log, msg.ID, true)
	}

	if err := e.records.MarkSent(ctx, msg.ID, prov.GetName(), result.ProviderMessageID, e.now()); err != nil {
		if errors.Is(err, record.ErrTerminal) {
			log.Debug().Msg("dispatch: record already terminal after send")
			return nil
		}
		return fmt.Errorf("engine: mark sent: %w", err)
	}

	log.Info().
		Str("provider", prov.GetName()).
		Str("provider_message_id", result.ProviderMessageID).
		Msg("message sent")
	metrics.DispatchOutcomeTotal.WithLabelValues("sent").Inc()
	return nil
}

// SendNow delivers synchronously, bypassing queue latency while preserving
// the record and idempotency guarantees. It returns the message ID and
// whether the message ended up sent.
func (e *Engine) SendNow(ctx context.Context, payload SendNowPayload) (string, bool) {
	id := payload.MessageID

	if id == "" {
		normalized := record.NormalizeContext(payload.Context)
		fingerprint := record.Fingerprint(payload.Template, payload.Recipient, normalized)

		if existing, err := e.records.FindActive(ctx, payload.Template, payload.Recipient, fingerprint); err == nil {
			id = existing.ID
		} else {
			if payload.Recipient == "" {
				e.log.Warn().Str("template", payload.Template).Msg("send-now rejected: empty recipient")
				return "", false
			}

			channel := payload.Options.Channel
			if channel == "" {
				channel = "email"
			}
			msg := &record.Message{
				ID:                 uuid.New().String(),
				Template:           payload.Template,
				Channel:            channel,
				Recipient:          payload.Recipient,
				Language:           payload.Options.Language,
				Context:            normalized,
				ContextFingerprint: fingerprint,
				ScheduledFor:       e.now(),
				Status:             record.StatusQueued,
				CreatedAt:          e.now(),
			}
			if err := e.records.Create(ctx, msg); err != nil {
				if errors.Is(err, record.ErrDuplicate) {
					if existing, findErr := e.records.FindActive(ctx, payload.Template, payload.Recipient, fingerprint); findErr == nil {
						id = existing.ID
					}
				} else {
					e.log.Error().Err(err).Str("template", payload.Template).Msg("send-now aborted: record create failed")
					return "", false
				}
			} else {
				id = msg.ID
			}
		}
	}

	if id == "" {
		return "", false
	}

	if err := e.Dispatch(ctx, id); err != nil {
		e.log.Error().Err(err).Str("message_id", id).Msg("send-now dispatch failed")
		return id, false
	}

	msg, err := e.records.Get(ctx, id)
	if err != nil {
		return id, false
	}
	return id, msg.Status == record.StatusSent
}

// renderContext builds the data map handed to the renderer: the persisted
// message context, brand presentation fields, and the unsubscribe link for
// suppressible categories.
func (e *Engine) renderContext(ctx context.Context, msg *record.Message, category template.Category) map[string]any {
	data := make(map[string]any, len(msg.Context)+4)
	for k, v := range msg.Context {
		data[k] = v
	}

	if e.brands != nil {
		if b, err := e.brands.Resolve(ctx, msg.Context); err == nil && b != nil {
			b.MergeInto(data)
			if b.FromEmail != "" {
				if _, exists := data["from_email"]; !exists {
					data["from_email"] = b.FromEmail
				}
			}
			if b.ReplyTo != "" {
				if _, exists := data["reply_to"]; !exists {
					data["reply_to"] = b.ReplyTo
				}
			}
		} else if err != nil {
			e.log.Warn().Err(err).Str("message_id", msg.ID).Msg("brand resolution failed, rendering without brand")
		}
	}

	if e.tokens != nil && category != template.CategoryTransactional {
		if _, exists := data["unsubscribe_url"]; !exists {
			if link := e.tokens.LinkFor(msg.Channel, msg.Recipient, category); link != "" {
				data["unsubscribe_url"] = link
			}
		}
	}

	return data
}

// applySenderOverrides copies brand sender fields from the render context
// onto the outbound message.
func (e *Engine) applySenderOverrides(out *provider.Message, data map[string]any) {
	if v, ok := data["from_name"].(string); ok {
		out.FromName = v
	}
	if v, ok := data["from_email"].(string); ok {
		out.FromEmail = v
	}
	if v, ok := data["reply_to"].(string); ok {
		out.ReplyTo = v
	}
}

// storeAttachments uploads attachment payloads and returns their references.
func (e *Engine) storeAttachments(ctx context.Context, atts []provider.Attachment) ([]attachstore.Ref, error) {
	refs := make([]attachstore.Ref, 0, len(atts))
	for _, att := range atts {
		ref := attachstore.Ref{
			ID:          attachstore.NewID(),
			Filename:    att.Filename,
			ContentType: att.ContentType,
		}
		if err := e.attachments.Put(ctx, ref.ID, att.Content); err != nil {
			return nil, fmt.Errorf("store attachment %s: %w", att.Filename, err)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// loadAttachments fetches attachment payloads referenced by the message
// context. A missing payload fails the fetch: sending without a promised
// attachment (a ticket PDF, say) is worse than retrying.
func (e *Engine) loadAttachments(ctx context.Context, msgContext map[string]any) ([]provider.Attachment, error) {
	refs, err := attachstore.RefsFromContext(msgContext[record.AttachmentsKey])
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, nil
	}
	if e.attachments == nil {
		return nil, errors.New("message has attachments but no attachment store is configured")
	}

	atts := make([]provider.Attachment, 0, len(refs))
	for _, ref := range refs {
		data, err := e.attachments.Get(ctx, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch attachment %s: %w", ref.ID, err)
		}
		atts = append(atts, provider.Attachment{
			Filename:    ref.Filename,
			ContentType: ref.ContentType,
			Content:     data,
		})
	}
	return atts, nil
}

func (e *Engine) suppress(ctx context.Context, log zerolog.Logger, id string) error {
	if err := e.records.MarkSuppressed(ctx, id); err != nil {
		if errors.Is(err, record.ErrTerminal) {
			log.Debug().Msg("dispatch: record already terminal, suppress skipped")
			return nil
		}
		return fmt.Errorf("engine: mark suppressed: %w", err)
	}
	metrics.DispatchOutcomeTotal.WithLabelValues("suppressed").Inc()
	return nil
}

func (e *Engine) fail(ctx context.Context, log zerolog.Logger, id string, countAttempt bool) error {
	if err := e.records.MarkFailed(ctx, id, countAttempt); err != nil {
		if errors.Is(err, record.ErrTerminal) {
			log.Debug().Msg("dispatch: record already terminal, fail skipped")
			return nil
		}
		return fmt.Errorf("engine: mark failed: %w", err)
	}
	metrics.DispatchOutcomeTotal.WithLabelValues("failed").Inc()
	return nil
}
