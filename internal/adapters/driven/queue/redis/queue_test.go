package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

func setupTestQueue(t *testing.T) (*Queue, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	q, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q, func() {
		client.Close()
		mr.Close()
	}
}

func TestQueueEnqueueDequeue(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeTranslateChapter, "novel-1", "ch-1", "model-1")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID || got.NovelID != "novel-1" || got.ChapterID != "ch-1" {
		t.Errorf("dequeued task = %+v", got)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("status = %s, want processing", got.Status)
	}
	if got.Attempts != 1 {
		t.Errorf("attempts = %d, want 1", got.Attempts)
	}
}

func TestQueueDequeueEmpty(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()

	got, err := q.DequeueWithTimeout(context.Background(), 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil on empty queue, got %+v", got)
	}
}

func TestQueueAckCompletesTask(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeProofreadChapter, "novel-1", "ch-1", "")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatal(err)
	}

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}

	// Nothing left to dequeue.
	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected empty queue after ack, got %+v", got)
	}
}

func TestQueueNackSchedulesRetry(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeTranslateChapter, "novel-1", "ch-1", "")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatal(err)
	}

	if err := q.Nack(ctx, task.ID, "provider unavailable"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusPending {
		t.Errorf("status = %s, want pending for retry", stored.Status)
	}
	if stored.Error != "provider unavailable" {
		t.Errorf("error = %q", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("retry must be delayed")
	}
}

func TestQueueNackExhaustedMarksFailed(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeTranslateChapter, "novel-1", "ch-1", "")
	task.MaxAttempts = 1
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}
	if _, err := q.DequeueWithTimeout(ctx, 1); err != nil {
		t.Fatal(err)
	}

	if err := q.Nack(ctx, task.ID, "still broken"); err != nil {
		t.Fatal(err)
	}

	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("status = %s, want failed", stored.Status)
	}
}

func TestQueueScheduledTaskPromotedWhenDue(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()
	ctx := context.Background()

	task := domain.NewTask(domain.TaskTypeTranslateChapter, "novel-1", "ch-1", "")
	task.ScheduledFor = time.Now().Add(-1 * time.Minute)
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatal(err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != task.ID {
		t.Errorf("due task not delivered: %+v", got)
	}
}

func TestQueueGetUnknownTask(t *testing.T) {
	q, cleanup := setupTestQueue(t)
	defer cleanup()

	got, err := q.GetTask(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown task, got %+v", got)
	}
}
