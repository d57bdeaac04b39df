package driving

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// LibraryService manages the local novel library and AI model configurations.
type LibraryService interface {
	ListNovels(ctx context.Context) ([]domain.Novel, error)
	GetNovel(ctx context.Context, id string) (*domain.Novel, error)
	SaveNovel(ctx context.Context, novel *domain.Novel) error
	DeleteNovel(ctx context.Context, id string) error
	DeleteChapter(ctx context.Context, novelID, chapterID string) error

	ListModels(ctx context.Context) ([]domain.AIModel, error)
	SaveModel(ctx context.Context, model *domain.AIModel) error
	DeleteModel(ctx context.Context, id string) error
}
