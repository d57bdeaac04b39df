package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.GlossaryStore = (*GlossaryStore)(nil)

// GlossaryStore implements driven.GlossaryStore using PostgreSQL. Terms and
// character profiles are stored as JSONB documents keyed by book.
type GlossaryStore struct {
	db *DB
}

// NewGlossaryStore creates a new GlossaryStore.
func NewGlossaryStore(db *DB) *GlossaryStore {
	return &GlossaryStore{db: db}
}

// TermsByBook retrieves all glossary terms for a book.
func (s *GlossaryStore) TermsByBook(ctx context.Context, bookID string) ([]domain.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM glossary_terms WHERE book_id = $1 ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query terms for book %s: %w", bookID, err)
	}
	defer rows.Close()

	var terms []domain.Term
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		var term domain.Term
		if err := json.Unmarshal(payload, &term); err != nil {
			return nil, fmt.Errorf("unmarshal term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

// SaveTerm inserts or updates a glossary term.
func (s *GlossaryStore) SaveTerm(ctx context.Context, term *domain.Term) error {
	if term.ID == "" || term.BookID == "" {
		return fmt.Errorf("%w: term id and book id are required", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(term)
	if err != nil {
		return fmt.Errorf("marshal term %s: %w", term.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO glossary_terms (id, book_id, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			book_id = EXCLUDED.book_id,
			payload = EXCLUDED.payload
	`, term.ID, term.BookID, payload)
	if err != nil {
		return fmt.Errorf("save term %s: %w", term.ID, err)
	}
	return nil
}

// CharactersByBook retrieves all character profiles for a book.
func (s *GlossaryStore) CharactersByBook(ctx context.Context, bookID string) ([]domain.CharacterProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM glossary_characters WHERE book_id = $1 ORDER BY id`, bookID)
	if err != nil {
		return nil, fmt.Errorf("query characters for book %s: %w", bookID, err)
	}
	defer rows.Close()

	var characters []domain.CharacterProfile
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		var character domain.CharacterProfile
		if err := json.Unmarshal(payload, &character); err != nil {
			return nil, fmt.Errorf("unmarshal character: %w", err)
		}
		characters = append(characters, character)
	}
	return characters, rows.Err()
}

// SaveCharacter inserts or updates a character profile.
func (s *GlossaryStore) SaveCharacter(ctx context.Context, character *domain.CharacterProfile) error {
	if character.ID == "" || character.BookID == "" {
		return fmt.Errorf("%w: character id and book id are required", domain.ErrInvalidInput)
	}
	payload, err := json.Marshal(character)
	if err != nil {
		return fmt.Errorf("marshal character %s: %w", character.ID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO glossary_characters (id, book_id, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			book_id = EXCLUDED.book_id,
			payload = EXCLUDED.payload
	`, character.ID, character.BookID, payload)
	if err != nil {
		return fmt.Errorf("save character %s: %w", character.ID, err)
	}
	return nil
}
