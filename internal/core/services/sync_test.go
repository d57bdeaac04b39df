package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

type fakeGist struct {
	snapshot    *domain.SyncSnapshot
	downloadErr error
	uploadErr   error

	downloads int
	uploads   []*domain.SyncSnapshot
	newGistID string
}

func (g *fakeGist) Download(ctx context.Context, cfg driven.GistConfig, onProgress driven.ProgressFunc) (*domain.SyncSnapshot, error) {
	g.downloads++
	if g.downloadErr != nil {
		return nil, g.downloadErr
	}
	if g.snapshot == nil {
		return nil, domain.ErrNotFound
	}
	return g.snapshot.Clone(), nil
}

func (g *fakeGist) Upload(ctx context.Context, cfg driven.GistConfig, snapshot *domain.SyncSnapshot, onProgress driven.ProgressFunc) (string, error) {
	if g.uploadErr != nil {
		return "", g.uploadErr
	}
	g.uploads = append(g.uploads, snapshot)
	if cfg.GistID != "" {
		return cfg.GistID, nil
	}
	return g.newGistID, nil
}

var _ driven.GistTransport = (*fakeGist)(nil)

type recordingNotifier struct {
	warns  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string, args ...any)  {}
func (n *recordingNotifier) Warn(msg string, args ...any)  { n.warns = append(n.warns, msg) }
func (n *recordingNotifier) Error(msg string, args ...any) { n.errors = append(n.errors, msg) }

type syncFixture struct {
	engine   *SyncEngine
	gist     *fakeGist
	notifier *recordingNotifier
	novels   *memNovelStore
	settings *memSettingsStore
	baseline *memBaselineStore
}

func newSyncFixture(t *testing.T, gist *fakeGist) *syncFixture {
	t.Helper()
	novels := newMemNovelStore(novelWith("local-1", "Local Novel", 100))
	settings := &memSettingsStore{settings: &domain.AppSettings{
		Sync: domain.SyncConfig{GistToken: "token", GistID: "gist-1"},
	}}
	baseline := &memBaselineStore{}
	notifier := &recordingNotifier{}

	reconciler := NewReconciler(ReconcilerConfig{
		Novels:   novels,
		Models:   newMemModelStore(),
		Covers:   newMemCoverStore(),
		Settings: settings,
		Baseline: baseline,
		Content:  &passthroughMerger{},
	})
	engine := NewSyncEngine(SyncEngineConfig{
		Reconciler: reconciler,
		Gist:       gist,
		Settings:   settings,
		Baseline:   baseline,
		Notifier:   notifier,
	})
	return &syncFixture{
		engine:   engine,
		gist:     gist,
		notifier: notifier,
		novels:   novels,
		settings: settings,
		baseline: baseline,
	}
}

func TestUploadToGistFullCycle(t *testing.T) {
	gist := &fakeGist{snapshot: &domain.SyncSnapshot{
		Novels: []domain.Novel{novelWith("remote-1", "Remote Novel", 200)},
	}}
	f := newSyncFixture(t, gist)
	// Remote novel's timestamp must exceed the baseline to count as new.
	f.baseline.baseline = &domain.SyncBaseline{LastSyncTime: 50}

	called := false
	err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{
		OnSuccess: func() { called = true },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gist.downloads != 1 {
		t.Errorf("downloads = %d, want 1", gist.downloads)
	}
	if len(gist.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(gist.uploads))
	}
	if len(gist.uploads[0].Novels) != 2 {
		t.Errorf("uploaded %d novels, want merged 2", len(gist.uploads[0].Novels))
	}
	if !called {
		t.Error("OnSuccess was not called")
	}
	if f.baseline.baseline == nil || f.baseline.baseline.GistID != "gist-1" {
		t.Errorf("baseline not saved: %+v", f.baseline.baseline)
	}
	if f.engine.Syncing() {
		t.Error("syncing flag not cleared after cycle")
	}
}

func TestUploadToGistForceLocalOnlySkipsDownload(t *testing.T) {
	gist := &fakeGist{downloadErr: errors.New("network down")}
	f := newSyncFixture(t, gist)

	err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{ForceLocalOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gist.downloads != 0 {
		t.Errorf("downloads = %d, want 0", gist.downloads)
	}
	if len(gist.uploads) != 1 {
		t.Errorf("uploads = %d, want 1", len(gist.uploads))
	}
}

func TestUploadToGistSkipsWhenNoChanges(t *testing.T) {
	gist := &fakeGist{}
	f := newSyncFixture(t, gist)
	// Make remote identical to the merged local state.
	local, err := f.engine.reconciler.BuildLocalSnapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	gist.snapshot = local.Clone()

	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gist.uploads) != 0 {
		t.Errorf("uploads = %d, want 0 when nothing changed", len(gist.uploads))
	}
	if f.baseline.baseline == nil {
		t.Error("baseline should still be saved on a no-op cycle")
	}
}

func TestUploadToGistDownloadFailureParksPending(t *testing.T) {
	gist := &fakeGist{downloadErr: errors.New("rate limited")}
	f := newSyncFixture(t, gist)

	err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{})
	if err != nil {
		t.Fatalf("download failure must not surface as error, got: %v", err)
	}
	if len(gist.uploads) != 0 {
		t.Error("nothing should be uploaded before confirmation")
	}
	if len(f.notifier.warns) != 1 {
		t.Errorf("warns = %d, want 1", len(f.notifier.warns))
	}
	if f.engine.Syncing() {
		t.Error("syncing flag must clear while confirmation is pending")
	}
	if !f.engine.Status(context.Background()).PendingUpload {
		t.Error("pending upload not recorded")
	}

	// Confirming retries with the parked local data.
	gist.downloadErr = nil
	if err := f.engine.ConfirmUploadWithLocalData(context.Background()); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if len(gist.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1 after confirm", len(gist.uploads))
	}
	if f.engine.Status(context.Background()).PendingUpload {
		t.Error("pending slot not cleared after confirm")
	}
}

func TestConfirmUploadWithoutPending(t *testing.T) {
	f := newSyncFixture(t, &fakeGist{})

	err := f.engine.ConfirmUploadWithLocalData(context.Background())
	if !errors.Is(err, domain.ErrNoPendingUpload) {
		t.Errorf("expected ErrNoPendingUpload, got %v", err)
	}
}

func TestPendingUploadSlotIsOverwrittenByNewerCycle(t *testing.T) {
	gist := &fakeGist{downloadErr: errors.New("down")}
	f := newSyncFixture(t, gist)

	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatal(err)
	}

	// Edit local data, then park again; the newer snapshot wins the slot.
	edited := novelWith("local-1", "Edited Title", 300)
	if err := f.novels.Put(context.Background(), &edited); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatal(err)
	}

	gist.downloadErr = nil
	if err := f.engine.ConfirmUploadWithLocalData(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(gist.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(gist.uploads))
	}
	if got := gist.uploads[0].Novels[0].Title; got != "Edited Title" {
		t.Errorf("uploaded title = %q, want the newer parked snapshot", got)
	}
}

func TestCancelPendingUpload(t *testing.T) {
	gist := &fakeGist{downloadErr: errors.New("down")}
	f := newSyncFixture(t, gist)

	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatal(err)
	}
	f.engine.CancelPendingUpload()

	if f.engine.Status(context.Background()).PendingUpload {
		t.Error("pending slot not cleared")
	}
	err := f.engine.ConfirmUploadWithLocalData(context.Background())
	if !errors.Is(err, domain.ErrNoPendingUpload) {
		t.Errorf("expected ErrNoPendingUpload after cancel, got %v", err)
	}
	// Cancelling again is harmless.
	f.engine.CancelPendingUpload()
}

func TestUploadToGistRejectsOverlappingCycles(t *testing.T) {
	f := newSyncFixture(t, &fakeGist{})
	f.engine.mu.Lock()
	f.engine.syncing = true
	f.engine.mu.Unlock()

	err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{})
	if !errors.Is(err, domain.ErrSyncInProgress) {
		t.Errorf("expected ErrSyncInProgress, got %v", err)
	}
}

func TestUploadToGistWithoutConfiguration(t *testing.T) {
	f := newSyncFixture(t, &fakeGist{})
	f.settings.settings = &domain.AppSettings{}

	err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{})
	if !errors.Is(err, domain.ErrGistNotConfigured) {
		t.Errorf("expected ErrGistNotConfigured, got %v", err)
	}
}

func TestUploadToGistCreatesGistAndPersistsID(t *testing.T) {
	gist := &fakeGist{newGistID: "fresh-gist"}
	f := newSyncFixture(t, gist)
	f.settings.settings = &domain.AppSettings{
		Sync: domain.SyncConfig{GistToken: "token"},
	}

	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gist.downloads != 0 {
		t.Errorf("downloads = %d, want 0 when no gist exists yet", gist.downloads)
	}
	if f.settings.settings.Sync.GistID != "fresh-gist" {
		t.Errorf("gist id not persisted into settings: %q", f.settings.settings.Sync.GistID)
	}
	if f.baseline.baseline == nil || f.baseline.baseline.GistID != "fresh-gist" {
		t.Errorf("baseline gist id = %+v", f.baseline.baseline)
	}
}

func TestDownloadFromGistReturnsRestorables(t *testing.T) {
	gist := &fakeGist{snapshot: &domain.SyncSnapshot{
		Novels: []domain.Novel{
			novelWith("local-1", "Local Novel", 100),
			novelWith("stale", "Deleted Here", 5),
		},
	}}
	f := newSyncFixture(t, gist)
	f.baseline.baseline = &domain.SyncBaseline{LastSyncTime: 50}

	restorable, err := f.engine.DownloadFromGist(context.Background(), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(restorable) != 1 || restorable[0].Novel.ID != "stale" {
		t.Fatalf("restorable = %+v, want the stale novel", restorable)
	}

	if err := f.engine.RestoreDeletedItems(context.Background(), restorable); err != nil {
		t.Fatal(err)
	}
	if _, err := f.novels.Get(context.Background(), "stale"); err != nil {
		t.Errorf("restored novel not in store: %v", err)
	}
}

func TestResetClearsTransientState(t *testing.T) {
	gist := &fakeGist{downloadErr: errors.New("down")}
	f := newSyncFixture(t, gist)

	if err := f.engine.UploadToGist(context.Background(), driving.UploadOptions{}); err != nil {
		t.Fatal(err)
	}
	f.engine.Reset()

	status := f.engine.Status(context.Background())
	if status.PendingUpload || status.Syncing {
		t.Errorf("state not cleared: %+v", status)
	}
}
