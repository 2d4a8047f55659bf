// Package worker bridges the queue to the dispatch engine.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/craftfair/dispatch/internal/engine"
	"github.com/craftfair/dispatch/internal/queue"
)

// maxInlineWait bounds how long a worker sleeps on a not-yet-due message
// before handing it back to the queue. Short waits are absorbed inline so
// near-due messages are not bounced through a full requeue cycle.
const maxInlineWait = 5 * time.Second

// Dispatcher is the engine capability the handler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string) error
}

// Handler processes queued dispatch tasks by invoking the engine.
type Handler struct {
	dispatcher Dispatcher
	enqueuer   queue.Enqueuer
	log        zerolog.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewHandler creates a Handler. The enqueuer is used to requeue tasks whose
// scheduled time has not arrived.
func NewHandler(dispatcher Dispatcher, enqueuer queue.Enqueuer, log zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		enqueuer:   enqueuer,
		log:        log,
		sleep:      sleepCtx,
	}
}

// HandleTask dispatches the referenced message. Scheduled messages that are
// not yet due are waited on briefly, then requeued without counting a retry.
// Any other error propagates to the queue layer for its retry/DLQ policy.
func (h *Handler) HandleTask(ctx context.Context, task *queue.Task) error {
	err := h.dispatcher.Dispatch(ctx, task.MessageID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, engine.ErrNotDue) {
		return err
	}

	if waitErr := h.sleep(ctx, maxInlineWait); waitErr != nil {
		return waitErr
	}

	// Still not due after the inline wait: requeue and release the worker.
	// Dispatch is idempotent, so an extra pass over the record is cheap.
	if err := h.dispatcher.Dispatch(ctx, task.MessageID); err == nil {
		return nil
	} else if !errors.Is(err, engine.ErrNotDue) {
		return err
	}

	requeued := queue.NewTask(task.MessageID, task.Template)
	if _, err := h.enqueuer.Enqueue(ctx, requeued); err != nil {
		return err
	}
	h.log.Debug().
		Str("message_id", task.MessageID).
		Msg("message not due yet, requeued")
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
