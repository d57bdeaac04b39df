package driven

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// TaskQueue delivers background translation jobs to workers.
type TaskQueue interface {
	// Enqueue adds a task for processing.
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next available task, waiting up to
	// timeout seconds. Returns nil when no task is available.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack acknowledges successful completion of a task.
	Ack(ctx context.Context, taskID string) error

	// Nack indicates task processing failed; the task is retried or marked
	// failed depending on its attempt budget.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID, or nil if unknown.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Ping checks if the queue backend is healthy.
	Ping(ctx context.Context) error

	// Close cleans up resources.
	Close() error
}
