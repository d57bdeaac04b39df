package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

const autoSyncLockName = "auto-sync"

// pendingUpload parks a prepared upload after a failed pre-upload download,
// awaiting explicit user confirmation. A single slot: a newer park replaces
// an unresolved older one.
type pendingUpload struct {
	cfg       driven.GistConfig
	local     *domain.SyncSnapshot
	onSuccess func()
}

// SyncEngineConfig holds dependencies for creating a SyncEngine.
type SyncEngineConfig struct {
	Reconciler *Reconciler
	Gist       driven.GistTransport
	Settings   driven.SettingsStore
	Baseline   driven.BaselineStore
	Notifier   driven.Notifier
	Lock       driven.DistributedLock // optional, for multi-process deployments
	Logger     *slog.Logger
}

// SyncEngine orchestrates upload and download cycles against the remote
// gist. Cycles are serialized by a busy flag; overlapping auto-sync ticks
// are skipped rather than queued.
type SyncEngine struct {
	reconciler *Reconciler
	gist       driven.GistTransport
	settings   driven.SettingsStore
	baseline   driven.BaselineStore
	notifier   driven.Notifier
	lock       driven.DistributedLock
	logger     *slog.Logger

	mu      sync.Mutex
	syncing bool
	pending *pendingUpload

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ driving.SyncService = (*SyncEngine)(nil)

// NewSyncEngine creates a SyncEngine from the given configuration.
func NewSyncEngine(cfg SyncEngineConfig) *SyncEngine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncEngine{
		reconciler: cfg.Reconciler,
		gist:       cfg.Gist,
		settings:   cfg.Settings,
		baseline:   cfg.Baseline,
		notifier:   cfg.Notifier,
		lock:       cfg.Lock,
		logger:     logger,
	}
}

// beginCycle marks the engine busy for one sync cycle.
func (e *SyncEngine) beginCycle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.syncing {
		return domain.ErrSyncInProgress
	}
	e.syncing = true
	return nil
}

// endCycle clears the busy flag. Always runs, including on the
// download-failure path that parks a pending upload.
func (e *SyncEngine) endCycle() {
	e.mu.Lock()
	e.syncing = false
	e.mu.Unlock()
}

func (e *SyncEngine) gistConfig(ctx context.Context) (driven.GistConfig, error) {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return driven.GistConfig{}, fmt.Errorf("load settings: %w", err)
	}
	if settings == nil || !settings.Sync.IsConfigured() {
		return driven.GistConfig{}, domain.ErrGistNotConfigured
	}
	return driven.GistConfig{
		Token:  settings.Sync.GistToken,
		GistID: settings.Sync.GistID,
	}, nil
}

// UploadToGist runs one upload cycle: download the remote snapshot, merge
// it into local state, and upload the merged result. When the download step
// fails the prepared local data is parked as a pending upload, a warning is
// surfaced, and no error is returned.
func (e *SyncEngine) UploadToGist(ctx context.Context, opts driving.UploadOptions) error {
	if err := e.beginCycle(); err != nil {
		return err
	}
	defer e.endCycle()

	cfg, err := e.gistConfig(ctx)
	if err != nil {
		return err
	}

	local, err := e.reconciler.BuildLocalSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("build local snapshot: %w", err)
	}

	var remote *domain.SyncSnapshot
	if !opts.ForceLocalOnly && cfg.GistID != "" {
		remote, err = e.gist.Download(ctx, cfg, nil)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			e.park(cfg, local, opts.OnSuccess)
			e.logger.Warn("download before upload failed, awaiting confirmation", "error", err)
			if e.notifier != nil {
				e.notifier.Warn("Could not fetch remote data before upload. Confirm to upload local data anyway.")
			}
			return nil
		}
	}

	if remote != nil {
		if _, err := e.reconciler.ApplyDownloadedData(ctx, remote, false); err != nil {
			return fmt.Errorf("merge remote data: %w", err)
		}
		// Re-read stores so the upload reflects the merge result.
		local, err = e.reconciler.BuildLocalSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("rebuild local snapshot: %w", err)
		}
		if !e.reconciler.HasChangesToUpload(local, remote) {
			e.logger.Info("no changes to upload, skipping")
			return e.saveBaseline(ctx, local, cfg.GistID)
		}
	}

	gistID, err := e.gist.Upload(ctx, cfg, local, nil)
	if err != nil {
		if e.notifier != nil {
			e.notifier.Error("Upload to gist failed.", "error", err)
		}
		return fmt.Errorf("upload snapshot: %w", err)
	}

	if err := e.saveBaseline(ctx, local, gistID); err != nil {
		return err
	}
	e.logger.Info("upload complete", "gist_id", gistID, "novels", len(local.Novels))
	if opts.OnSuccess != nil {
		opts.OnSuccess()
	}
	return nil
}

// DownloadFromGist fetches the remote snapshot and merges it into local
// state. With preserveAllRemote, entities the merge would have treated as
// locally deleted are returned for user-confirmed restoration.
func (e *SyncEngine) DownloadFromGist(ctx context.Context, preserveAllRemote bool) ([]domain.RestorableItem, error) {
	if err := e.beginCycle(); err != nil {
		return nil, err
	}
	defer e.endCycle()

	cfg, err := e.gistConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.GistID == "" {
		return nil, domain.ErrGistNotConfigured
	}

	remote, err := e.gist.Download(ctx, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("download snapshot: %w", err)
	}

	restorable, err := e.reconciler.ApplyDownloadedData(ctx, remote, preserveAllRemote)
	if err != nil {
		return nil, fmt.Errorf("merge remote data: %w", err)
	}

	merged, err := e.reconciler.BuildLocalSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild local snapshot: %w", err)
	}
	if err := e.saveBaseline(ctx, merged, cfg.GistID); err != nil {
		return nil, err
	}
	return restorable, nil
}

// ConfirmUploadWithLocalData retries the parked pending upload using the
// local data captured when the cycle was interrupted.
func (e *SyncEngine) ConfirmUploadWithLocalData(ctx context.Context) error {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()
	if pending == nil {
		return domain.ErrNoPendingUpload
	}

	if err := e.beginCycle(); err != nil {
		return err
	}
	defer e.endCycle()

	gistID, err := e.gist.Upload(ctx, pending.cfg, pending.local, nil)
	if err != nil {
		if e.notifier != nil {
			e.notifier.Error("Confirmed upload failed.", "error", err)
		}
		return fmt.Errorf("upload snapshot: %w", err)
	}
	if err := e.saveBaseline(ctx, pending.local, gistID); err != nil {
		return err
	}
	e.logger.Info("confirmed upload complete", "gist_id", gistID)
	if pending.onSuccess != nil {
		pending.onSuccess()
	}
	return nil
}

// CancelPendingUpload discards any parked pending upload and clears the
// busy flag. Safe to call when nothing is pending.
func (e *SyncEngine) CancelPendingUpload() {
	e.mu.Lock()
	e.pending = nil
	e.syncing = false
	e.mu.Unlock()
}

// RestoreDeletedItems writes previously surfaced restorable items back into
// the local stores.
func (e *SyncEngine) RestoreDeletedItems(ctx context.Context, items []domain.RestorableItem) error {
	return e.reconciler.RestoreDeletedItems(ctx, items)
}

// Reset clears transient sync state.
func (e *SyncEngine) Reset() {
	e.mu.Lock()
	e.pending = nil
	e.syncing = false
	e.mu.Unlock()
}

// Status reports the engine's current state.
func (e *SyncEngine) Status(ctx context.Context) driving.SyncStatus {
	e.mu.Lock()
	status := driving.SyncStatus{
		Syncing:       e.syncing,
		PendingUpload: e.pending != nil,
		AutoSync:      e.running,
	}
	e.mu.Unlock()

	if baseline, err := e.baseline.Get(ctx); err == nil && baseline != nil {
		status.LastSyncTime = baseline.LastSyncTime
		status.GistID = baseline.GistID
	}
	return status
}

// Start begins the auto-sync loop when sync is configured and enabled.
// Starting an already-running engine is a no-op.
func (e *SyncEngine) Start(ctx context.Context) error {
	settings, err := e.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings == nil || !settings.Sync.IsConfigured() || !settings.Sync.AutoSyncEnabled {
		e.logger.Info("auto-sync not enabled, skipping")
		return nil
	}
	interval := time.Duration(settings.Sync.AutoSyncIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	go e.run(interval)
	e.logger.Info("auto-sync started", "interval", interval)
	return nil
}

// Stop halts the auto-sync loop and waits for it to exit.
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	doneCh := e.doneCh
	e.mu.Unlock()

	<-doneCh
	e.logger.Info("auto-sync stopped")
}

// Syncing reports whether a sync cycle is currently in flight.
func (e *SyncEngine) Syncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

func (e *SyncEngine) run(interval time.Duration) {
	defer close(e.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *SyncEngine) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if e.lock != nil {
		acquired, err := e.lock.Acquire(ctx, autoSyncLockName, 10*time.Minute)
		if err != nil {
			e.logger.Warn("auto-sync lock error", "error", err)
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := e.lock.Release(ctx, autoSyncLockName); err != nil {
				e.logger.Warn("auto-sync lock release failed", "error", err)
			}
		}()
	}

	if err := e.UploadToGist(ctx, driving.UploadOptions{}); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return
		}
		e.logger.Warn("auto-sync cycle failed", "error", err)
	}
}

func (e *SyncEngine) park(cfg driven.GistConfig, local *domain.SyncSnapshot, onSuccess func()) {
	e.mu.Lock()
	// Single slot: a newer park overwrites an unresolved older one.
	e.pending = &pendingUpload{cfg: cfg, local: local, onSuccess: onSuccess}
	e.mu.Unlock()
}

// saveBaseline records what this device knows the remote to contain, and
// persists a newly created gist id into settings so later cycles reuse it.
func (e *SyncEngine) saveBaseline(ctx context.Context, snap *domain.SyncSnapshot, gistID string) error {
	baseline := &domain.SyncBaseline{
		LastSyncTime:       domain.NowMillis(),
		LastSyncedModelIDs: domain.ModelIDs(snap.AIModels),
		GistID:             gistID,
	}
	if err := e.baseline.Save(ctx, baseline); err != nil {
		return fmt.Errorf("save sync baseline: %w", err)
	}

	settings, err := e.settings.Get(ctx)
	if err != nil || settings == nil {
		return nil
	}
	if gistID != "" && settings.Sync.GistID != gistID {
		settings.Sync.GistID = gistID
		if err := e.settings.Save(ctx, settings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	return nil
}
