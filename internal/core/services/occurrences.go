package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// OccurrenceRefresherConfig holds dependencies for creating an
// OccurrenceRefresher.
type OccurrenceRefresherConfig struct {
	Novels   driven.NovelStore
	Glossary driven.GlossaryStore
	Timeout  time.Duration // per-refresh budget, defaults to 2 minutes
	Logger   *slog.Logger
}

// OccurrenceRefresher recomputes glossary occurrence counts in the
// background after edits. Refreshes are fire-and-forget; callers never wait
// on them for correctness.
type OccurrenceRefresher struct {
	novels   driven.NovelStore
	glossary driven.GlossaryStore
	timeout  time.Duration
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewOccurrenceRefresher creates an OccurrenceRefresher from the given
// configuration.
func NewOccurrenceRefresher(cfg OccurrenceRefresherConfig) *OccurrenceRefresher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OccurrenceRefresher{
		novels:   cfg.Novels,
		glossary: cfg.Glossary,
		timeout:  timeout,
		logger:   logger,
	}
}

// RefreshAllInBackground rescans every chapter of a book and recomputes
// occurrence counts for all terms and character profiles. Term and
// character refreshes fail independently; an error in one is logged and
// does not stop the other.
func (r *OccurrenceRefresher) RefreshAllInBackground(bookID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		novel, err := r.novels.Get(ctx, bookID)
		if err != nil {
			r.logger.Warn("occurrence refresh: load book failed", "book_id", bookID, "error", err)
			return
		}

		if err := r.refreshTerms(ctx, novel); err != nil {
			r.logger.Warn("occurrence refresh: terms failed", "book_id", bookID, "error", err)
		}
		if err := r.refreshCharacters(ctx, novel); err != nil {
			r.logger.Warn("occurrence refresh: characters failed", "book_id", bookID, "error", err)
		}
	}()
}

// RemoveChapterInBackground drops one chapter's occurrence contributions
// from all terms and characters without a full rescan. Used on chapter
// deletion.
func (r *OccurrenceRefresher) RemoveChapterInBackground(bookID, chapterID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.removeChapterFromTerms(ctx, bookID, chapterID); err != nil {
			r.logger.Warn("occurrence removal: terms failed",
				"book_id", bookID, "chapter_id", chapterID, "error", err)
		}
		if err := r.removeChapterFromCharacters(ctx, bookID, chapterID); err != nil {
			r.logger.Warn("occurrence removal: characters failed",
				"book_id", bookID, "chapter_id", chapterID, "error", err)
		}
	}()
}

// Wait blocks until all in-flight background refreshes complete. Intended
// for shutdown and tests.
func (r *OccurrenceRefresher) Wait() {
	r.wg.Wait()
}

func (r *OccurrenceRefresher) refreshTerms(ctx context.Context, novel *domain.Novel) error {
	terms, err := r.glossary.TermsByBook(ctx, novel.ID)
	if err != nil {
		return err
	}
	for i := range terms {
		terms[i].Occurrences = countOccurrences(novel, terms[i].Source)
		if err := r.glossary.SaveTerm(ctx, &terms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *OccurrenceRefresher) refreshCharacters(ctx context.Context, novel *domain.Novel) error {
	characters, err := r.glossary.CharactersByBook(ctx, novel.ID)
	if err != nil {
		return err
	}
	for i := range characters {
		characters[i].Occurrences = countOccurrences(novel, characters[i].Name)
		if err := r.glossary.SaveCharacter(ctx, &characters[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *OccurrenceRefresher) removeChapterFromTerms(ctx context.Context, bookID, chapterID string) error {
	terms, err := r.glossary.TermsByBook(ctx, bookID)
	if err != nil {
		return err
	}
	for i := range terms {
		if _, ok := terms[i].Occurrences[chapterID]; !ok {
			continue
		}
		delete(terms[i].Occurrences, chapterID)
		if err := r.glossary.SaveTerm(ctx, &terms[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *OccurrenceRefresher) removeChapterFromCharacters(ctx context.Context, bookID, chapterID string) error {
	characters, err := r.glossary.CharactersByBook(ctx, bookID)
	if err != nil {
		return err
	}
	for i := range characters {
		if _, ok := characters[i].Occurrences[chapterID]; !ok {
			continue
		}
		delete(characters[i].Occurrences, chapterID)
		if err := r.glossary.SaveCharacter(ctx, &characters[i]); err != nil {
			return err
		}
	}
	return nil
}

// countOccurrences counts needle hits per chapter across a book's source
// text. Chapters with zero hits get no map entry.
func countOccurrences(novel *domain.Novel, needle string) map[string]int {
	counts := make(map[string]int)
	if needle == "" {
		return counts
	}
	for _, ch := range novel.Chapters {
		total := 0
		for _, p := range ch.Paragraphs {
			total += strings.Count(p.Text, needle)
		}
		if total > 0 {
			counts[ch.ID] = total
		}
	}
	return counts
}
