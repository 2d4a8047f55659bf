package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisDequeuer manages a pool of worker goroutines that consume and process
// dispatch tasks from a Redis stream using a consumer group.
type RedisDequeuer struct {
	client    *redis.Client
	enqueuer  Enqueuer
	dlq       DeadLetterQueue
	handler   TaskHandler
	retry     *RetryStrategy
	config    Config
	log       zerolog.Logger
	groupName string
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

// NewRedisDequeuer creates a RedisDequeuer for processing dispatch tasks.
// The handler defines task processing logic.
func NewRedisDequeuer(
	client *redis.Client,
	enqueuer Enqueuer,
	dlq DeadLetterQueue,
	handler TaskHandler,
	retry *RetryStrategy,
	cfg Config,
	log zerolog.Logger,
) *RedisDequeuer {
	groupName := cfg.GroupName
	if groupName == "" {
		groupName = "dispatchers"
	}
	return &RedisDequeuer{
		client:    client,
		enqueuer:  enqueuer,
		dlq:       dlq,
		handler:   handler,
		retry:     retry,
		config:    cfg,
		log:       log,
		groupName: groupName,
	}
}

// Start creates the consumer group (if it does not already exist) and
// launches the configured number of worker goroutines.
func (d *RedisDequeuer) Start(ctx context.Context) error {
	if err := d.createConsumerGroup(ctx); err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}

	ctx, d.cancel = context.WithCancel(ctx)

	for i := range d.config.WorkerCount {
		d.wg.Add(1)
		go d.runWorker(ctx, fmt.Sprintf("worker-%d", i))
	}

	d.log.Info().
		Int("worker_count", d.config.WorkerCount).
		Str("group", d.groupName).
		Msg("redis dequeuer started")

	return nil
}

// Stop signals all workers to stop and waits up to the configured shutdown
// timeout for them to finish processing.
func (d *RedisDequeuer) Stop(ctx context.Context) error {
	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.log.Info().Msg("redis dequeuer stopped gracefully")
		return nil
	case <-time.After(d.config.ShutdownTimeout):
		d.log.Warn().Msg("redis dequeuer shutdown timed out")
		return fmt.Errorf("shutdown timed out after %s", d.config.ShutdownTimeout)
	}
}

// createConsumerGroup creates the consumer group for the task stream.
// If the stream or group already exists, the error is ignored.
func (d *RedisDequeuer) createConsumerGroup(ctx context.Context) error {
	err := d.client.XGroupCreateMkStream(ctx, taskStream, d.groupName, "0").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("create consumer group %s on stream %s: %w", d.groupName, taskStream, err)
	}
	return nil
}

// runWorker is the main loop for a single worker goroutine.
func (d *RedisDequeuer) runWorker(ctx context.Context, consumerName string) {
	defer d.wg.Done()

	d.log.Info().Str("consumer", consumerName).Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Str("consumer", consumerName).Msg("worker stopping")
			return
		default:
		}

		xMsgs, err := d.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    d.groupName,
			Consumer: consumerName,
			Streams:  []string{taskStream, ">"},
			Count:    1,
			Block:    d.config.BlockTimeout,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			d.log.Error().Err(err).Str("consumer", consumerName).Msg("xreadgroup error")
			continue
		}

		for _, stream := range xMsgs {
			for _, xMsg := range stream.Messages {
				d.processTask(ctx, consumerName, xMsg)
			}
		}
	}
}

// processTask handles a single stream entry: deserializes it, invokes the
// handler, and either acknowledges or retries/DLQs on failure.
func (d *RedisDequeuer) processTask(ctx context.Context, consumerName string, xMsg redis.XMessage) {
	start := time.Now()

	data, ok := xMsg.Values["data"].(string)
	if !ok {
		d.log.Error().Str("entry_id", xMsg.ID).Msg("invalid task data type")
		_ = d.acknowledgeTask(ctx, xMsg.ID)
		return
	}

	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		d.log.Error().Err(err).Str("entry_id", xMsg.ID).Msg("failed to unmarshal task")
		_ = d.acknowledgeTask(ctx, xMsg.ID)
		return
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.ProcessTimeout)
	defer cancel()

	err := d.handler.HandleTask(processCtx, &task)

	duration := time.Since(start).Seconds()
	TaskProcessingDuration.Observe(duration)

	if err != nil {
		d.log.Error().
			Err(err).
			Str("message_id", task.MessageID).
			Int("retry_count", task.RetryCount).
			Msg("task processing failed")

		task.RetryCount++

		if d.retry.ShouldRetry(task.RetryCount) {
			backoff := d.retry.NextBackoff(task.RetryCount - 1)
			d.log.Info().
				Str("message_id", task.MessageID).
				Int("retry_count", task.RetryCount).
				Dur("backoff", backoff).
				Msg("scheduling retry")

			// Re-enqueue after backoff by sleeping then re-adding.
			go d.retryAfterBackoff(context.WithoutCancel(ctx), &task, backoff)

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

	// Acknowledge regardless of outcome to prevent redelivery of the original.
	if ackErr := d.acknowledgeTask(ctx, xMsg.ID); ackErr != nil {
		d.log.Error().Err(ackErr).Str("entry_id", xMsg.ID).Msg("failed to acknowledge task")
	}
}

// acknowledgeTask acknowledges a task in the consumer group using XACK.
func (d *RedisDequeuer) acknowledgeTask(ctx context.Context, entryID string) error {
	err := d.client.XAck(ctx, taskStream, d.groupName, entryID).Err()
	if err != nil {
		return fmt.Errorf("xack entry %s on stream %s: %w", entryID, taskStream, err)
	}
	return nil
}

// retryAfterBackoff waits for the backoff duration then re-enqueues the task
// using the injected Enqueuer.
func (d *RedisDequeuer) retryAfterBackoff(ctx context.Context, task *Task, backoff time.Duration) {
	timer := time.NewTimer(backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if _, err := d.enqueuer.Enqueue(ctx, task); err != nil {
		d.log.Error().Err(err).Str("message_id", task.MessageID).Msg("failed to re-enqueue task for retry")
	}
}
