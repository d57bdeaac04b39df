package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestLockAcquireAndMutualExclusion(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if lock1.OwnerID() == lock2.OwnerID() {
		t.Fatalf("owner ids must be unique, got %s twice", lock1.OwnerID())
	}

	acquired, err := lock1.Acquire(ctx, "auto-sync", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acquired {
		t.Fatal("expected first acquire to succeed")
	}

	acquired, err = lock2.Acquire(ctx, "auto-sync", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected second instance to be locked out")
	}

	// Not reentrant: the same instance cannot re-acquire either.
	acquired, err = lock1.Acquire(ctx, "auto-sync", 10*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acquired {
		t.Error("expected reentrant acquire to fail")
	}
}

func TestLockReleaseOnlyByOwner(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if _, err := lock1.Acquire(ctx, "auto-sync", 10*time.Second); err != nil {
		t.Fatal(err)
	}

	// A different owner's release is a no-op.
	if err := lock2.Release(ctx, "auto-sync"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	acquired, err := lock2.Acquire(ctx, "auto-sync", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if acquired {
		t.Error("lock must still be held by the original owner")
	}

	// The owner's release frees the lock.
	if err := lock1.Release(ctx, "auto-sync"); err != nil {
		t.Fatalf("unexpected error on release: %v", err)
	}
	acquired, err = lock2.Acquire(ctx, "auto-sync", 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !acquired {
		t.Error("expected acquire to succeed after release")
	}
}

func TestLockReleaseNotHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	if err := lock.Release(context.Background(), "never-held"); err != nil {
		t.Errorf("releasing an unheld lock must not error: %v", err)
	}
}

func TestLockExtend(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock1 := NewLock(client)
	lock2 := NewLock(client)
	ctx := context.Background()

	if _, err := lock1.Acquire(ctx, "auto-sync", 1*time.Second); err != nil {
		t.Fatal(err)
	}
	if err := lock1.Extend(ctx, "auto-sync", 10*time.Second); err != nil {
		t.Fatalf("unexpected error on extend: %v", err)
	}

	if err := lock2.Extend(ctx, "auto-sync", 20*time.Second); err == nil {
		t.Error("expected error when a non-owner extends")
	}
	if err := lock2.Extend(ctx, "never-held", 20*time.Second); err == nil {
		t.Error("expected error when extending an unheld lock")
	}
}

func TestLockDifferentNamesIndependent(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	for _, name := range []string{"auto-sync", "occurrence-refresh"} {
		acquired, err := lock.Acquire(ctx, name, 10*time.Second)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !acquired {
			t.Errorf("expected to acquire %s", name)
		}
	}
}
