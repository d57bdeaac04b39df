package driving

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// UploadOptions tune a single upload cycle.
type UploadOptions struct {
	// ForceLocalOnly skips the pre-upload download-and-merge step and
	// pushes the local snapshot as-is.
	ForceLocalOnly bool

	// OnSuccess runs after the upload completes and the baseline is saved.
	// May be nil.
	OnSuccess func()
}

// SyncStatus describes the orchestrator's current state.
type SyncStatus struct {
	Syncing       bool   `json:"syncing"`
	PendingUpload bool   `json:"pendingUpload"`
	AutoSync      bool   `json:"autoSync"`
	LastSyncTime  int64  `json:"lastSyncTime"`
	GistID        string `json:"gistId,omitempty"`
}

// SyncService orchestrates upload and download cycles against the remote
// gist, including the pending-confirmation flow used when a download fails
// mid-upload.
type SyncService interface {
	// UploadToGist runs a full upload cycle: download the remote snapshot,
	// merge it into local state, and upload the merged result. When the
	// download step fails, the prepared local data is parked as a pending
	// upload awaiting user confirmation and no error is returned.
	UploadToGist(ctx context.Context, opts UploadOptions) error

	// DownloadFromGist fetches the remote snapshot and merges it into local
	// state. Entities that the merge would have dropped are returned for
	// optional restoration when preserveAllRemote is set.
	DownloadFromGist(ctx context.Context, preserveAllRemote bool) ([]domain.RestorableItem, error)

	// ConfirmUploadWithLocalData retries the parked pending upload with
	// local data only. Returns domain.ErrNoPendingUpload when nothing is
	// parked.
	ConfirmUploadWithLocalData(ctx context.Context) error

	// CancelPendingUpload discards the parked pending upload, if any.
	CancelPendingUpload()

	// RestoreDeletedItems writes previously returned restorable items back
	// into the local stores.
	RestoreDeletedItems(ctx context.Context, items []domain.RestorableItem) error

	// Start begins the auto-sync loop when sync is configured and enabled.
	Start(ctx context.Context) error

	// Stop halts the auto-sync loop and waits for it to exit.
	Stop()

	// Reset clears transient sync state, including any pending upload.
	Reset()

	// Status reports the current orchestrator state.
	Status(ctx context.Context) SyncStatus
}
