// Package queue provides the dispatch task queue backends.
//
// Tasks are ID-only references: the worker loads the full message record
// from storage, so a queue entry never carries recipient data or rendered
// content.
package queue

import "context"

// Enqueuer publishes dispatch tasks to the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task *Task) (string, error)
}

// Dequeuer consumes tasks from the queue.
// Start begins consuming in background goroutines.
// Stop gracefully shuts down consumers.
type Dequeuer interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// DeadLetterQueue manages tasks that exhausted their retry budget.
type DeadLetterQueue interface {
	MoveToDLQ(ctx context.Context, task *Task, reason string) error
	Reprocess(ctx context.Context, entryIDs []string) (int, error)
}

// TaskHandler processes a single dispatch task. Implementations define the
// actual dispatch logic (load record, render, send).
type TaskHandler interface {
	HandleTask(ctx context.Context, task *Task) error
}
