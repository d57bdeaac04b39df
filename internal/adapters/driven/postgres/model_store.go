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
var _ driven.ModelStore = (*ModelStore)(nil)

// ModelStore implements driven.ModelStore using PostgreSQL. API keys are
// encrypted at rest and blanked inside the JSONB payload.
type ModelStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewModelStore creates a new ModelStore.
func NewModelStore(db *DB, encryptor *SecretEncryptor) *ModelStore {
	return &ModelStore{db: db, encryptor: encryptor}
}

// GetAll retrieves every model ordered by list position.
func (s *ModelStore) GetAll(ctx context.Context) ([]domain.AIModel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload, api_key FROM ai_models ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer rows.Close()

	var models []domain.AIModel
	for rows.Next() {
		var payload, keyBlob []byte
		if err := rows.Scan(&payload, &keyBlob); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		model, err := s.unmarshalModel(payload, keyBlob)
		if err != nil {
			return nil, err
		}
		models = append(models, *model)
	}
	return models, rows.Err()
}

// Get retrieves a single model by id.
func (s *ModelStore) Get(ctx context.Context, id string) (*domain.AIModel, error) {
	var payload, keyBlob []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload, api_key FROM ai_models WHERE id = $1`, id).
		Scan(&payload, &keyBlob)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query model %s: %w", id, err)
	}
	return s.unmarshalModel(payload, keyBlob)
}

// Put inserts or updates a model.
func (s *ModelStore) Put(ctx context.Context, model *domain.AIModel) error {
	if model.ID == "" {
		return fmt.Errorf("%w: model id is empty", domain.ErrInvalidInput)
	}

	keyBlob, err := s.encryptor.EncryptString(model.APIKey)
	if err != nil {
		return fmt.Errorf("encrypt api key for model %s: %w", model.ID, err)
	}

	stripped := *model
	stripped.APIKey = ""
	payload, err := json.Marshal(&stripped)
	if err != nil {
		return fmt.Errorf("marshal model %s: %w", model.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_models (id, payload, position, api_key, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			position = EXCLUDED.position,
			api_key = EXCLUDED.api_key,
			updated_at = now()
	`, model.ID, payload, model.Position, keyBlob)
	if err != nil {
		return fmt.Errorf("save model %s: %w", model.ID, err)
	}
	return nil
}

// Delete removes a model by id.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ai_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete model %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Clear removes all models.
func (s *ModelStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM ai_models`)
	if err != nil {
		return fmt.Errorf("clear models: %w", err)
	}
	return nil
}

func (s *ModelStore) unmarshalModel(payload, keyBlob []byte) (*domain.AIModel, error) {
	var model domain.AIModel
	if err := json.Unmarshal(payload, &model); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	key, err := s.encryptor.DecryptString(keyBlob)
	if err != nil {
		return nil, fmt.Errorf("decrypt api key for model %s: %w", model.ID, err)
	}
	model.APIKey = key
	return &model, nil
}
