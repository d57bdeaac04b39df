package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// StoreContentMerger resolves chapter-body loadedness against the novel
// store. Remote snapshots may carry chapters without paragraph bodies when
// the uploading device never loaded them; the locally cached bodies must
// survive such a merge.
type StoreContentMerger struct {
	novels driven.NovelStore
	logger *slog.Logger
}

var _ driven.ContentMerger = (*StoreContentMerger)(nil)

// NewStoreContentMerger creates a content merger backed by the given store.
func NewStoreContentMerger(novels driven.NovelStore, logger *slog.Logger) *StoreContentMerger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreContentMerger{novels: novels, logger: logger}
}

// MergeNovelWithLocalContent returns the remote novel with chapter bodies
// that are empty remotely but cached locally carried over. The remote
// novel's metadata and chapter list win; only body content is rescued.
func (m *StoreContentMerger) MergeNovelWithLocalContent(remote, local *domain.Novel) *domain.Novel {
	if remote == nil {
		return local
	}
	if local == nil {
		return remote
	}

	out := *remote
	out.Chapters = append([]domain.Chapter(nil), remote.Chapters...)
	rescued := 0
	for i := range out.Chapters {
		if out.Chapters[i].HasContent() {
			continue
		}
		lc := local.Chapter(out.Chapters[i].ID)
		if lc == nil || !lc.HasContent() {
			continue
		}
		out.Chapters[i].Paragraphs = lc.Paragraphs
		rescued++
	}
	if rescued > 0 {
		m.logger.Debug("kept locally cached chapter bodies",
			"novel_id", out.ID, "chapters", rescued)
	}
	return &out
}

// EnsureNovelContentLoaded fills empty chapter bodies from the stored copy
// of the novel so uploads carry full content.
func (m *StoreContentMerger) EnsureNovelContentLoaded(ctx context.Context, novel *domain.Novel) (*domain.Novel, error) {
	if novel == nil {
		return nil, fmt.Errorf("%w: novel is nil", domain.ErrInvalidInput)
	}

	needsLoad := false
	for i := range novel.Chapters {
		if !novel.Chapters[i].HasContent() {
			needsLoad = true
			break
		}
	}
	if !needsLoad {
		return novel, nil
	}

	stored, err := m.novels.Get(ctx, novel.ID)
	if err != nil {
		return nil, fmt.Errorf("load novel %s: %w", novel.ID, err)
	}
	return m.MergeNovelWithLocalContent(novel, stored), nil
}
