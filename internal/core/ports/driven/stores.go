package driven

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// NovelStore persists the novel collection.
type NovelStore interface {
	GetAll(ctx context.Context) ([]domain.Novel, error)
	Get(ctx context.Context, id string) (*domain.Novel, error)
	Put(ctx context.Context, novel *domain.Novel) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// ModelStore persists AI model configurations.
type ModelStore interface {
	GetAll(ctx context.Context) ([]domain.AIModel, error)
	Get(ctx context.Context, id string) (*domain.AIModel, error)
	Put(ctx context.Context, model *domain.AIModel) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// CoverStore persists cover image history records.
type CoverStore interface {
	GetAll(ctx context.Context) ([]domain.CoverRecord, error)
	Put(ctx context.Context, record *domain.CoverRecord) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// SettingsStore persists the single app settings object.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.AppSettings, error)
	Save(ctx context.Context, settings *domain.AppSettings) error
}

// BaselineStore persists the last-synced baseline captured at the end of
// each successful sync cycle.
type BaselineStore interface {
	Get(ctx context.Context) (*domain.SyncBaseline, error)
	Save(ctx context.Context, baseline *domain.SyncBaseline) error
}

// GlossaryStore persists glossary terms and character profiles.
type GlossaryStore interface {
	TermsByBook(ctx context.Context, bookID string) ([]domain.Term, error)
	SaveTerm(ctx context.Context, term *domain.Term) error
	CharactersByBook(ctx context.Context, bookID string) ([]domain.CharacterProfile, error)
	SaveCharacter(ctx context.Context, character *domain.CharacterProfile) error
}
