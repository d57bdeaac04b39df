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
var _ driven.BaselineStore = (*BaselineStore)(nil)

// BaselineStore implements driven.BaselineStore using PostgreSQL. The
// baseline is a single row recorded at the end of each successful sync.
type BaselineStore struct {
	db *DB
}

// NewBaselineStore creates a new BaselineStore.
func NewBaselineStore(db *DB) *BaselineStore {
	return &BaselineStore{db: db}
}

// Get retrieves the last-synced baseline, or nil before the first sync.
func (s *BaselineStore) Get(ctx context.Context) (*domain.SyncBaseline, error) {
	var baseline domain.SyncBaseline
	var modelIDs []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT last_sync_time, last_synced_model_ids, gist_id FROM sync_baseline WHERE id = 1
	`).Scan(&baseline.LastSyncTime, &modelIDs, &baseline.GistID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query sync baseline: %w", err)
	}

	if err := json.Unmarshal(modelIDs, &baseline.LastSyncedModelIDs); err != nil {
		return nil, fmt.Errorf("unmarshal synced model ids: %w", err)
	}
	return &baseline, nil
}

// Save persists the baseline.
func (s *BaselineStore) Save(ctx context.Context, baseline *domain.SyncBaseline) error {
	modelIDs := baseline.LastSyncedModelIDs
	if modelIDs == nil {
		modelIDs = []string{}
	}
	encoded, err := json.Marshal(modelIDs)
	if err != nil {
		return fmt.Errorf("marshal synced model ids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sync_baseline (id, last_sync_time, last_synced_model_ids, gist_id, updated_at)
		VALUES (1, $1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE SET
			last_sync_time = EXCLUDED.last_sync_time,
			last_synced_model_ids = EXCLUDED.last_synced_model_ids,
			gist_id = EXCLUDED.gist_id,
			updated_at = now()
	`, baseline.LastSyncTime, encoded, baseline.GistID)
	if err != nil {
		return fmt.Errorf("save sync baseline: %w", err)
	}
	return nil
}
