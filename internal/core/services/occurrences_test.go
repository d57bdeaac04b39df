package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

type memGlossaryStore struct {
	terms      map[string]domain.Term
	characters map[string]domain.CharacterProfile

	termsErr      error
	charactersErr error
}

func newMemGlossaryStore() *memGlossaryStore {
	return &memGlossaryStore{
		terms:      make(map[string]domain.Term),
		characters: make(map[string]domain.CharacterProfile),
	}
}

func (s *memGlossaryStore) TermsByBook(ctx context.Context, bookID string) ([]domain.Term, error) {
	if s.termsErr != nil {
		return nil, s.termsErr
	}
	var out []domain.Term
	for _, t := range s.terms {
		if t.BookID == bookID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *memGlossaryStore) SaveTerm(ctx context.Context, term *domain.Term) error {
	s.terms[term.ID] = *term
	return nil
}

func (s *memGlossaryStore) CharactersByBook(ctx context.Context, bookID string) ([]domain.CharacterProfile, error) {
	if s.charactersErr != nil {
		return nil, s.charactersErr
	}
	var out []domain.CharacterProfile
	for _, c := range s.characters {
		if c.BookID == bookID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memGlossaryStore) SaveCharacter(ctx context.Context, character *domain.CharacterProfile) error {
	s.characters[character.ID] = *character
	return nil
}

func occurrenceFixture() (*OccurrenceRefresher, *memGlossaryStore) {
	novel := domain.Novel{
		ID: "book-1",
		Chapters: []domain.Chapter{
			{ID: "ch1", Paragraphs: []domain.Paragraph{
				{ID: "p1", Text: "the sword gleamed, a sword of legend"},
				{ID: "p2", Text: "no mention here"},
			}},
			{ID: "ch2", Paragraphs: []domain.Paragraph{
				{ID: "p3", Text: "the sword again"},
			}},
		},
	}
	glossary := newMemGlossaryStore()
	refresher := NewOccurrenceRefresher(OccurrenceRefresherConfig{
		Novels:   newMemNovelStore(novel),
		Glossary: glossary,
	})
	return refresher, glossary
}

func TestRefreshAllRecomputesCounts(t *testing.T) {
	refresher, glossary := occurrenceFixture()
	glossary.terms["t1"] = domain.Term{
		ID: "t1", BookID: "book-1", Source: "sword",
		Occurrences: map[string]int{"stale-chapter": 99},
	}
	glossary.characters["c1"] = domain.CharacterProfile{
		ID: "c1", BookID: "book-1", Name: "legend",
	}

	refresher.RefreshAllInBackground("book-1")
	refresher.Wait()

	term := glossary.terms["t1"]
	if term.Occurrences["ch1"] != 2 || term.Occurrences["ch2"] != 1 {
		t.Errorf("term occurrences = %v, want ch1:2 ch2:1", term.Occurrences)
	}
	if _, ok := term.Occurrences["stale-chapter"]; ok {
		t.Error("stale chapter count survived a full rescan")
	}
	if got := term.TotalOccurrences(); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}

	char := glossary.characters["c1"]
	if char.Occurrences["ch1"] != 1 {
		t.Errorf("character occurrences = %v, want ch1:1", char.Occurrences)
	}
}

func TestRefreshAllTermFailureDoesNotBlockCharacters(t *testing.T) {
	refresher, glossary := occurrenceFixture()
	glossary.termsErr = errors.New("terms store down")
	glossary.characters["c1"] = domain.CharacterProfile{
		ID: "c1", BookID: "book-1", Name: "sword",
	}

	refresher.RefreshAllInBackground("book-1")
	refresher.Wait()

	char := glossary.characters["c1"]
	if char.Occurrences["ch1"] != 2 {
		t.Errorf("character refresh did not run after term failure: %v", char.Occurrences)
	}
}

func TestRefreshAllUnknownBookLogsAndReturns(t *testing.T) {
	refresher, glossary := occurrenceFixture()
	glossary.terms["t1"] = domain.Term{ID: "t1", BookID: "book-1", Source: "sword"}

	refresher.RefreshAllInBackground("missing-book")
	refresher.Wait()

	if glossary.terms["t1"].Occurrences != nil {
		t.Error("terms must not change when the book cannot be loaded")
	}
}

func TestRemoveChapterFastPath(t *testing.T) {
	refresher, glossary := occurrenceFixture()
	glossary.terms["t1"] = domain.Term{
		ID: "t1", BookID: "book-1", Source: "sword",
		Occurrences: map[string]int{"ch1": 2, "ch2": 1},
	}
	glossary.characters["c1"] = domain.CharacterProfile{
		ID: "c1", BookID: "book-1", Name: "hero",
		Occurrences: map[string]int{"ch1": 4},
	}

	refresher.RemoveChapterInBackground("book-1", "ch1")
	refresher.Wait()

	term := glossary.terms["t1"]
	if _, ok := term.Occurrences["ch1"]; ok {
		t.Error("removed chapter still counted for term")
	}
	if term.Occurrences["ch2"] != 1 {
		t.Errorf("unrelated chapter count changed: %v", term.Occurrences)
	}
	char := glossary.characters["c1"]
	if len(char.Occurrences) != 0 {
		t.Errorf("removed chapter still counted for character: %v", char.Occurrences)
	}
}

func TestRemoveChapterCharacterFailureIsolated(t *testing.T) {
	refresher, glossary := occurrenceFixture()
	glossary.charactersErr = errors.New("characters store down")
	glossary.terms["t1"] = domain.Term{
		ID: "t1", BookID: "book-1", Source: "sword",
		Occurrences: map[string]int{"ch1": 2},
	}

	refresher.RemoveChapterInBackground("book-1", "ch1")
	refresher.Wait()

	if _, ok := glossary.terms["t1"].Occurrences["ch1"]; ok {
		t.Error("term removal did not run despite character store failure")
	}
}
