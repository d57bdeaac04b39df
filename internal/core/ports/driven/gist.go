package driven

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// GistConfig identifies the remote gist and how to reach it.
type GistConfig struct {
	Token    string
	GistID   string
	Filename string
}

// ProgressFunc reports transfer progress as a percentage, 0-100.
// May be nil.
type ProgressFunc func(percent int)

// GistTransport moves snapshots to and from the remote gist. Transport
// internals (HTTP, retries, timeouts) are the adapter's business; the core
// only sees snapshots and errors.
type GistTransport interface {
	// Download fetches and validates the remote snapshot.
	// Returns domain.ErrNotFound when the gist or sync file does not exist.
	Download(ctx context.Context, cfg GistConfig, onProgress ProgressFunc) (*domain.SyncSnapshot, error)

	// Upload writes the snapshot to the gist, creating one when cfg.GistID
	// is empty. Returns the gist id the snapshot was written to.
	Upload(ctx context.Context, cfg GistConfig, snapshot *domain.SyncSnapshot, onProgress ProgressFunc) (string, error)
}
