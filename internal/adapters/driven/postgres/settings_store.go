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
var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore implements driven.SettingsStore using PostgreSQL. The
// workbench has one settings object, held in a single-row table. The gist
// token is encrypted at rest and blanked inside the JSONB payload.
type SettingsStore struct {
	db        *DB
	encryptor *SecretEncryptor
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(db *DB, encryptor *SecretEncryptor) *SettingsStore {
	return &SettingsStore{db: db, encryptor: encryptor}
}

// Get retrieves the settings, or defaults when none are saved yet.
func (s *SettingsStore) Get(ctx context.Context) (*domain.AppSettings, error) {
	var payload, tokenBlob []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload, gist_token FROM app_settings WHERE id = 1`).
		Scan(&payload, &tokenBlob)
	if err == sql.ErrNoRows {
		return domain.DefaultAppSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}

	var settings domain.AppSettings
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	token, err := s.encryptor.DecryptString(tokenBlob)
	if err != nil {
		return nil, fmt.Errorf("decrypt gist token: %w", err)
	}
	settings.Sync.GistToken = token
	return &settings, nil
}

// Save persists the settings.
func (s *SettingsStore) Save(ctx context.Context, settings *domain.AppSettings) error {
	tokenBlob, err := s.encryptor.EncryptString(settings.Sync.GistToken)
	if err != nil {
		return fmt.Errorf("encrypt gist token: %w", err)
	}

	stripped := *settings
	stripped.Sync.GistToken = ""
	payload, err := json.Marshal(&stripped)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO app_settings (id, payload, gist_token, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			payload = EXCLUDED.payload,
			gist_token = EXCLUDED.gist_token,
			updated_at = now()
	`, payload, tokenBlob)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
