package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// MergeNovels reconciles the local and remote novel collections. Both-sided
// novels resolve by newer LastEdited; when the remote version wins, merger
// carries over locally cached chapter bodies. Local-only novels always
// survive. Remote-only novels are treated as new additions when their
// LastEdited exceeds lastSyncTime and as locally deleted otherwise; with
// preserveAllRemote the locally-deleted ones are surfaced as restorable
// items instead of being dropped silently. Inputs are not mutated.
func MergeNovels(local, remote []domain.Novel, lastSyncTime int64, preserveAllRemote bool, merger driven.ContentMerger) ([]domain.Novel, []domain.RestorableItem) {
	remoteByID := make(map[string]*domain.Novel, len(remote))
	for i := range remote {
		remoteByID[remote[i].ID] = &remote[i]
	}
	localIDs := make(map[string]bool, len(local))

	merged := make([]domain.Novel, 0, len(local)+len(remote))
	for i := range local {
		loc := &local[i]
		localIDs[loc.ID] = true
		rem, ok := remoteByID[loc.ID]
		if !ok || loc.LastEdited >= rem.LastEdited {
			merged = append(merged, *loc)
			continue
		}
		if merger != nil {
			merged = append(merged, *merger.MergeNovelWithLocalContent(rem, loc))
		} else {
			merged = append(merged, *rem)
		}
	}

	var restorable []domain.RestorableItem
	for i := range remote {
		rem := &remote[i]
		if localIDs[rem.ID] {
			continue
		}
		if rem.LastEdited > lastSyncTime {
			merged = append(merged, *rem)
			continue
		}
		if preserveAllRemote {
			novel := *rem
			restorable = append(restorable, domain.RestorableItem{
				Kind:  domain.RestorableNovel,
				Novel: &novel,
			})
		}
	}

	return merged, restorable
}

// MergeCovers reconciles cover history with the same timestamp policy as
// novels, keyed on AddedAt. Covers carry no mutable fields, so both-sided
// records keep the local copy.
func MergeCovers(local, remote []domain.CoverRecord, lastSyncTime int64, preserveAllRemote bool) ([]domain.CoverRecord, []domain.RestorableItem) {
	localIDs := make(map[string]bool, len(local))
	merged := make([]domain.CoverRecord, 0, len(local)+len(remote))
	for _, rec := range local {
		localIDs[rec.ID] = true
		merged = append(merged, rec)
	}

	var restorable []domain.RestorableItem
	for i := range remote {
		rem := &remote[i]
		if localIDs[rem.ID] {
			continue
		}
		if rem.AddedAt > lastSyncTime {
			merged = append(merged, *rem)
			continue
		}
		if preserveAllRemote {
			rec := *rem
			restorable = append(restorable, domain.RestorableItem{
				Kind:  domain.RestorableCover,
				Cover: &rec,
			})
		}
	}

	return merged, restorable
}

// MergeModels reconciles AI model lists. Models carry no edit timestamp, so
// addition and deletion are told apart with the id set captured at the last
// successful sync: a remote-only model already in that set was deleted
// locally and stays deleted; one outside it is a new remote addition.
// Both-sided models keep the local version.
func MergeModels(local, remote []domain.AIModel, lastSyncedModelIDs []string) []domain.AIModel {
	synced := make(map[string]bool, len(lastSyncedModelIDs))
	for _, id := range lastSyncedModelIDs {
		synced[id] = true
	}
	localIDs := make(map[string]bool, len(local))

	merged := make([]domain.AIModel, 0, len(local)+len(remote))
	for _, m := range local {
		localIDs[m.ID] = true
		merged = append(merged, m)
	}
	for _, m := range remote {
		if localIDs[m.ID] || synced[m.ID] {
			continue
		}
		merged = append(merged, m)
	}

	return merged
}

// MergeSnapshots applies the per-collection merge policy to two full
// snapshots and returns the merged snapshot plus any restorable items.
// Neither input is mutated.
func MergeSnapshots(local, remote *domain.SyncSnapshot, baseline *domain.SyncBaseline, preserveAllRemote bool, merger driven.ContentMerger) (*domain.SyncSnapshot, []domain.RestorableItem) {
	var lastSyncTime int64
	var lastSyncedModelIDs []string
	if baseline != nil {
		lastSyncTime = baseline.LastSyncTime
		lastSyncedModelIDs = baseline.LastSyncedModelIDs
	}

	novels, restorableNovels := MergeNovels(local.Novels, remote.Novels, lastSyncTime, preserveAllRemote, merger)
	covers, restorableCovers := MergeCovers(local.CoverHistory, remote.CoverHistory, lastSyncTime, preserveAllRemote)
	models := MergeModels(local.AIModels, remote.AIModels, lastSyncedModelIDs)
	settings := domain.MergeAppSettings(local.AppSettings, remote.AppSettings)

	merged := &domain.SyncSnapshot{
		Novels:       novels,
		AIModels:     models,
		AppSettings:  settings,
		CoverHistory: covers,
	}
	return merged, append(restorableNovels, restorableCovers...)
}

// ReconcilerConfig holds dependencies for creating a Reconciler.
type ReconcilerConfig struct {
	Novels   driven.NovelStore
	Models   driven.ModelStore
	Covers   driven.CoverStore
	Settings driven.SettingsStore
	Baseline driven.BaselineStore
	Content  driven.ContentMerger
	Logger   *slog.Logger
}

// Reconciler merges downloaded snapshots into the local stores and builds
// snapshots for upload.
type Reconciler struct {
	novels   driven.NovelStore
	models   driven.ModelStore
	covers   driven.CoverStore
	settings driven.SettingsStore
	baseline driven.BaselineStore
	content  driven.ContentMerger
	logger   *slog.Logger
}

// NewReconciler creates a Reconciler from the given configuration.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		novels:   cfg.Novels,
		models:   cfg.Models,
		covers:   cfg.Covers,
		settings: cfg.Settings,
		baseline: cfg.Baseline,
		content:  cfg.Content,
		logger:   logger,
	}
}

// BuildLocalSnapshot reads the current store state into a snapshot. Chapter
// bodies not yet cached are loaded so the snapshot carries full content.
func (r *Reconciler) BuildLocalSnapshot(ctx context.Context) (*domain.SyncSnapshot, error) {
	novels, err := r.novels.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load novels: %w", err)
	}
	if r.content != nil {
		for i := range novels {
			loaded, err := r.content.EnsureNovelContentLoaded(ctx, &novels[i])
			if err != nil {
				r.logger.Warn("failed to load chapter content, uploading as-is",
					"novel_id", novels[i].ID, "error", err)
				continue
			}
			novels[i] = *loaded
		}
	}

	models, err := r.models.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	covers, err := r.covers.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cover history: %w", err)
	}
	settings, err := r.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return &domain.SyncSnapshot{
		Novels:       novels,
		AIModels:     models,
		AppSettings:  settings,
		CoverHistory: covers,
	}, nil
}

// ApplyDownloadedData merges a downloaded snapshot into the local stores
// and returns any items the merge held back for user-confirmed restore.
func (r *Reconciler) ApplyDownloadedData(ctx context.Context, remote *domain.SyncSnapshot, preserveAllRemote bool) ([]domain.RestorableItem, error) {
	if remote == nil {
		return nil, fmt.Errorf("%w: downloaded snapshot is nil", domain.ErrInvalidInput)
	}

	local, err := r.BuildLocalSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	baseline, err := r.baseline.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sync baseline: %w", err)
	}

	merged, restorable := MergeSnapshots(local, remote, baseline, preserveAllRemote, r.content)

	if err := r.writeSnapshot(ctx, merged); err != nil {
		return nil, err
	}
	r.logger.Info("applied downloaded data",
		"novels", len(merged.Novels),
		"models", len(merged.AIModels),
		"covers", len(merged.CoverHistory),
		"restorable", len(restorable))
	return restorable, nil
}

// MergeDataForUpload merges local state with the current remote snapshot so
// an upload never clobbers remote changes this device has not seen.
func (r *Reconciler) MergeDataForUpload(local, remote *domain.SyncSnapshot, baseline *domain.SyncBaseline) *domain.SyncSnapshot {
	merged, _ := MergeSnapshots(local, remote, baseline, false, r.content)
	return merged
}

// HasChangesToUpload reports whether the local snapshot differs from the
// remote one in any way that an upload would change.
func (r *Reconciler) HasChangesToUpload(local, remote *domain.SyncSnapshot) bool {
	if local == nil || remote == nil {
		return local != remote
	}
	return !bytes.Equal(normalizeSnapshot(local), normalizeSnapshot(remote))
}

// RestoreDeletedItems writes restorable items back into the local stores.
func (r *Reconciler) RestoreDeletedItems(ctx context.Context, items []domain.RestorableItem) error {
	for _, item := range items {
		switch item.Kind {
		case domain.RestorableNovel:
			if item.Novel == nil {
				continue
			}
			if err := r.novels.Put(ctx, item.Novel); err != nil {
				return fmt.Errorf("restore novel %s: %w", item.Novel.ID, err)
			}
		case domain.RestorableCover:
			if item.Cover == nil {
				continue
			}
			if err := r.covers.Put(ctx, item.Cover); err != nil {
				return fmt.Errorf("restore cover %s: %w", item.Cover.ID, err)
			}
		}
	}
	if len(items) > 0 {
		r.logger.Info("restored items", "count", len(items))
	}
	return nil
}

// writeSnapshot persists a merged snapshot. The merge keeps every local
// entity, so writes are pure upserts and nothing is swept from the stores.
func (r *Reconciler) writeSnapshot(ctx context.Context, snap *domain.SyncSnapshot) error {
	for i := range snap.Novels {
		if err := r.novels.Put(ctx, &snap.Novels[i]); err != nil {
			return fmt.Errorf("save novel %s: %w", snap.Novels[i].ID, err)
		}
	}

	for i := range snap.AIModels {
		if err := r.models.Put(ctx, &snap.AIModels[i]); err != nil {
			return fmt.Errorf("save model %s: %w", snap.AIModels[i].ID, err)
		}
	}

	for i := range snap.CoverHistory {
		if err := r.covers.Put(ctx, &snap.CoverHistory[i]); err != nil {
			return fmt.Errorf("save cover %s: %w", snap.CoverHistory[i].ID, err)
		}
	}

	if snap.AppSettings != nil {
		if err := r.settings.Save(ctx, snap.AppSettings); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	return nil
}

// normalizeSnapshot renders a snapshot into a canonical byte form for
// comparison: collections sorted by id so store ordering never counts as a
// difference.
func normalizeSnapshot(s *domain.SyncSnapshot) []byte {
	c := s.Clone()

	sort.Slice(c.Novels, func(i, j int) bool { return c.Novels[i].ID < c.Novels[j].ID })
	sort.Slice(c.AIModels, func(i, j int) bool { return c.AIModels[i].ID < c.AIModels[j].ID })
	sort.Slice(c.CoverHistory, func(i, j int) bool { return c.CoverHistory[i].ID < c.CoverHistory[j].ID })

	data, err := json.Marshal(c)
	if err != nil {
		// Snapshots are plain data; marshal cannot fail.
		panic(fmt.Sprintf("marshal snapshot: %v", err))
	}
	return data
}
