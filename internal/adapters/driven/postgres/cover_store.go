package postgres

import (
	"context"
	"fmt"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.CoverStore = (*CoverStore)(nil)

// CoverStore implements driven.CoverStore using PostgreSQL.
type CoverStore struct {
	db *DB
}

// NewCoverStore creates a new CoverStore.
func NewCoverStore(db *DB) *CoverStore {
	return &CoverStore{db: db}
}

// GetAll retrieves the full cover history, newest first.
func (s *CoverStore) GetAll(ctx context.Context) ([]domain.CoverRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, novel_id, url, added_at FROM cover_history ORDER BY added_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query cover history: %w", err)
	}
	defer rows.Close()

	var records []domain.CoverRecord
	for rows.Next() {
		var rec domain.CoverRecord
		if err := rows.Scan(&rec.ID, &rec.NovelID, &rec.URL, &rec.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cover record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Put inserts or updates a cover record.
func (s *CoverStore) Put(ctx context.Context, record *domain.CoverRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: cover id is empty", domain.ErrInvalidInput)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cover_history (id, novel_id, url, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			novel_id = EXCLUDED.novel_id,
			url = EXCLUDED.url,
			added_at = EXCLUDED.added_at
	`, record.ID, record.NovelID, record.URL, record.AddedAt)
	if err != nil {
		return fmt.Errorf("save cover %s: %w", record.ID, err)
	}
	return nil
}

// Delete removes a cover record by id.
func (s *CoverStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cover_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cover %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes the entire cover history.
func (s *CoverStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cover_history`)
	if err != nil {
		return fmt.Errorf("clear cover history: %w", err)
	}
	return nil
}
