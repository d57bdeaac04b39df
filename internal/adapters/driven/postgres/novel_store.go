package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.NovelStore = (*NovelStore)(nil)

// NovelStore implements driven.NovelStore using PostgreSQL. Novels are
// stored as JSONB documents; last_edited is mirrored into a column for
// ordering without unpacking the payload.
type NovelStore struct {
	db *DB
}

// NewNovelStore creates a new NovelStore.
func NewNovelStore(db *DB) *NovelStore {
	return &NovelStore{db: db}
}

// GetAll retrieves every novel, most recently edited first.
func (s *NovelStore) GetAll(ctx context.Context) ([]domain.Novel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM novels ORDER BY last_edited DESC`)
	if err != nil {
		return nil, fmt.Errorf("query novels: %w", err)
	}
	defer rows.Close()

	var novels []domain.Novel
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan novel: %w", err)
		}
		var novel domain.Novel
		if err := json.Unmarshal(payload, &novel); err != nil {
			return nil, fmt.Errorf("unmarshal novel: %w", err)
		}
		novels = append(novels, novel)
	}
	return novels, rows.Err()
}

// Get retrieves a single novel by id.
func (s *NovelStore) Get(ctx context.Context, id string) (*domain.Novel, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM novels WHERE id = $1`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query novel %s: %w", id, err)
	}

	var novel domain.Novel
	if err := json.Unmarshal(payload, &novel); err != nil {
		return nil, fmt.Errorf("unmarshal novel %s: %w", id, err)
	}
	return &novel, nil
}

// Put inserts or updates a novel.
func (s *NovelStore) Put(ctx context.Context, novel *domain.Novel) error {
	if novel.ID == "" {
		return fmt.Errorf("%w: novel id is empty", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(novel)
	if err != nil {
		return fmt.Errorf("marshal novel %s: %w", novel.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO novels (id, payload, last_edited, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			last_edited = EXCLUDED.last_edited,
			updated_at = now()
	`, novel.ID, payload, novel.LastEdited)
	if err != nil {
		return fmt.Errorf("save novel %s: %w", novel.ID, err)
	}
	return nil
}

// Delete removes a novel by id.
func (s *NovelStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM novels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete novel %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes all novels.
func (s *NovelStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM novels`)
	if err != nil {
		return fmt.Errorf("clear novels: %w", err)
	}
	return nil
}
