package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

// LibraryConfig holds dependencies for creating a Library.
type LibraryConfig struct {
	Novels      driven.NovelStore
	Models      driven.ModelStore
	Occurrences *OccurrenceRefresher
	Logger      *slog.Logger
}

// Library manages the local novel library and AI model configurations,
// keeping glossary occurrence counts in step with content changes.
type Library struct {
	novels      driven.NovelStore
	models      driven.ModelStore
	occurrences *OccurrenceRefresher
	logger      *slog.Logger
}

// Verify interface compliance
var _ driving.LibraryService = (*Library)(nil)

// NewLibrary creates a Library from the given configuration.
func NewLibrary(cfg LibraryConfig) *Library {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		novels:      cfg.Novels,
		models:      cfg.Models,
		occurrences: cfg.Occurrences,
		logger:      logger,
	}
}

// ListNovels returns every novel in the library.
func (l *Library) ListNovels(ctx context.Context) ([]domain.Novel, error) {
	return l.novels.GetAll(ctx)
}

// GetNovel returns one novel by id.
func (l *Library) GetNovel(ctx context.Context, id string) (*domain.Novel, error) {
	return l.novels.Get(ctx, id)
}

// SaveNovel persists a novel, bumping its edit timestamp and scheduling an
// occurrence recount for its glossary.
func (l *Library) SaveNovel(ctx context.Context, novel *domain.Novel) error {
	if novel == nil || novel.ID == "" {
		return fmt.Errorf("%w: novel id required", domain.ErrInvalidInput)
	}
	novel.Touch()
	if err := l.novels.Put(ctx, novel); err != nil {
		return fmt.Errorf("save novel %s: %w", novel.ID, err)
	}
	if l.occurrences != nil {
		l.occurrences.RefreshAllInBackground(novel.ID)
	}
	return nil
}

// DeleteNovel removes a novel from the library.
func (l *Library) DeleteNovel(ctx context.Context, id string) error {
	return l.novels.Delete(ctx, id)
}

// DeleteChapter removes one chapter from a novel and subtracts its glossary
// occurrence contributions.
func (l *Library) DeleteChapter(ctx context.Context, novelID, chapterID string) error {
	novel, err := l.novels.Get(ctx, novelID)
	if err != nil {
		return fmt.Errorf("load novel %s: %w", novelID, err)
	}

	kept := novel.Chapters[:0]
	found := false
	for _, ch := range novel.Chapters {
		if ch.ID == chapterID {
			found = true
			continue
		}
		kept = append(kept, ch)
	}
	if !found {
		return fmt.Errorf("%w: chapter %s", domain.ErrNotFound, chapterID)
	}
	novel.Chapters = kept
	novel.Touch()

	if err := l.novels.Put(ctx, novel); err != nil {
		return fmt.Errorf("save novel %s: %w", novelID, err)
	}
	if l.occurrences != nil {
		l.occurrences.RemoveChapterInBackground(novelID, chapterID)
	}
	l.logger.Info("chapter deleted", "novel_id", novelID, "chapter_id", chapterID)
	return nil
}

// ListModels returns every configured AI model.
func (l *Library) ListModels(ctx context.Context) ([]domain.AIModel, error) {
	return l.models.GetAll(ctx)
}

// SaveModel persists an AI model configuration.
func (l *Library) SaveModel(ctx context.Context, model *domain.AIModel) error {
	if model == nil || model.ID == "" {
		return fmt.Errorf("%w: model id required", domain.ErrInvalidInput)
	}
	return l.models.Put(ctx, model)
}

// DeleteModel removes an AI model configuration.
func (l *Library) DeleteModel(ctx context.Context, id string) error {
	return l.models.Delete(ctx, id)
}
