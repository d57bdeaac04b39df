package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across workbench processes sharing one
// store, so two auto-sync loops never run overlapping cycles.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if acquired, false if held elsewhere.
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)

	// Release releases a named lock if held by this instance.
	Release(ctx context.Context, name string) error
}
