package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SQSDequeuer manages a pool of worker goroutines that consume and process
// dispatch tasks from an AWS SQS queue.
type SQSDequeuer struct {
	client          sqsAPI
	queueURL        string
	handler         TaskHandler
	dlq             DeadLetterQueue
	retry           *RetryStrategy
	enqueuer        *SQSEnqueuer
	log             zerolog.Logger
	workerCount     int
	waitTime        int32
	visTimeout      int32
	processTimeout  time.Duration
	shutdownTimeout time.Duration
	wg              sync.WaitGroup
	cancel          context.CancelFunc
}

// NewSQSDequeuer creates an SQSDequeuer configured from the given Config.
func NewSQSDequeuer(
	client sqsAPI,
	queueURL string,
	handler TaskHandler,
	dlq DeadLetterQueue,
	retry *RetryStrategy,
	enqueuer *SQSEnqueuer,
	cfg Config,
	log zerolog.Logger,
) *SQSDequeuer {
	waitTime := cfg.SQSWaitTime
	if waitTime == 0 {
		waitTime = 20
	}
	visTimeout := cfg.SQSVisTimeout
	if visTimeout == 0 {
		visTimeout = 30
	}
	workerCount := cfg.WorkerCount
	if workerCount == 0 {
		workerCount = 10
	}
	processTimeout := cfg.ProcessTimeout
	if processTimeout == 0 {
		processTimeout = 30 * time.Second
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}

	return &SQSDequeuer{
		client:          client,
		queueURL:        queueURL,
		handler:         handler,
		dlq:             dlq,
		retry:           retry,
		enqueuer:        enqueuer,
		log:             log,
		workerCount:     workerCount,
		waitTime:        waitTime,
		visTimeout:      visTimeout,
		processTimeout:  processTimeout,
		shutdownTimeout: shutdownTimeout,
	}
}

// Start launches workerCount goroutines that long-poll the SQS queue.
func (d *SQSDequeuer) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.workerCount {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("sqs-worker-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.workerCount).
		Str("queue_url", d.queueURL).
		Msg("sqs dequeuer started")

	return nil
}

// Stop cancels the context and waits for workers to finish within the
// shutdown timeout.
func (d *SQSDequeuer) Stop(_ context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("sqs dequeuer stopped gracefully")
		return nil
	case <-time.After(d.shutdownTimeout):
		d.log.Warn().Msg("sqs dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.shutdownTimeout)
	}
}

// runWorker is the main loop for a single worker goroutine. It long-polls
// SQS and processes received messages one at a time.
func (d *SQSDequeuer) runWorker(ctx context.Context, workerName string) {
	defer d.wg.Done()

	d.log.Info().Str("worker", workerName).Msg("sqs worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("worker", workerName).Msg("sqs worker stopping")
			return
		default:
		}

		out, err := d.client.ReceiveMessage(ctx, &sqsReceiveInput{
			QueueURL:            d.queueURL,
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     d.waitTime,
			VisibilityTimeout:   d.visTimeout,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Error().Err(err).Str("worker", workerName).Msg("sqs receive error")
			continue
		}

		for _, sqsMsg := range out.Messages {
			d.processTask(ctx, workerName, sqsMsg)
		}
	}
}

// processTask deserializes an SQS message body, invokes the handler, and
// either deletes the message (success) or retries/DLQs (failure).
func (d *SQSDequeuer) processTask(ctx context.Context, workerName string, sqsMsg sqsReceivedMessage) {
	start := time.Now()

	var task Task
	if err := json.Unmarshal([]byte(sqsMsg.Body), &task); err != nil {
		d.log.Error().Err(err).
			Str("sqs_message_id", sqsMsg.MessageID).
			Msg("failed to unmarshal sqs task")
		// Delete malformed messages to prevent infinite redelivery.
		_ = d.client.DeleteMessage(ctx, &sqsDeleteInput{
			QueueURL:      d.queueURL,
			ReceiptHandle: sqsMsg.ReceiptHandle,
		})
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, d.processTimeout)
	defer cancel()

	err := d.handler.HandleTask(processCtx, &task)

	duration := time.Since(start).Seconds()
	TaskProcessingDuration.Observe(duration)

	if err != nil {
		d.log.Error().
			Err(err).
			Str("message_id", task.MessageID).
			Int("retry_count", task.RetryCount).
			Msg("sqs task processing failed")

		task.RetryCount++

		if d.retry.ShouldRetry(task.RetryCount) {
			backoff := d.retry.NextBackoff(task.RetryCount - 1)
			delaySec := int32(backoff.Seconds())
			if delaySec < 1 {
				delaySec = 1
			}

			d.log.Info().
				Str("message_id", task.MessageID).
				Int("retry_count", task.RetryCount).
				Int32("delay_seconds", delaySec).
				Msg("sqs scheduling retry with delay")

			if _, enqErr := d.enqueuer.EnqueueWithDelay(ctx, &task, delaySec); enqErr != nil {
				d.log.Error().Err(enqErr).Str("message_id", task.MessageID).Msg("failed to re-enqueue for retry")
			}

			TasksProcessedTotal.WithLabelValues("failed").Inc()
		} else {
			d.log.Warn().
				Str("message_id", task.MessageID).
				Int("retry_count", task.RetryCount).
				Msg("max retries exhausted, moving to DLQ")

			if dlqErr := d.dlq.MoveToDLQ(ctx, &task, err.Error()); dlqErr != nil {
				d.log.Error().Err(dlqErr).Str("message_id", task.MessageID).Msg("failed to move to DLQ")
			}
		}
	} else {
		TasksProcessedTotal.WithLabelValues("ok").Inc()
	}

	// Delete the original message regardless of outcome to prevent
	// SQS redelivery. Retries are handled by re-enqueue with delay.
	if delErr := d.client.DeleteMessage(ctx, &sqsDeleteInput{
		QueueURL:      d.queueURL,
		ReceiptHandle: sqsMsg.ReceiptHandle,
	}); delErr != nil {
		d.log.Error().Err(delErr).
			Str("sqs_message_id", sqsMsg.MessageID).
			Msg("failed to delete sqs message")
	}
}
