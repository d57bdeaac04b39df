package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rozx/tsukuyomi-core/internal/chunker"
	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

const (
	defaultTranslationPrompt = "You are a professional literary translator. Translate each numbered line into English. " +
		"Reply with one line per input line, keeping the exact [index] [ID: id] prefix of the line it answers."
	defaultProofreadPrompt = "You are a professional literary editor. Polish each numbered translated line. " +
		"Reply with one line per input line, keeping the exact [index] [ID: id] prefix of the line it answers."
)

// replyLine matches "[12] [ID: abc] translated text". Lines that do not
// match are treated as continuations of the previous matched line.
var replyLine = regexp.MustCompile(`^\s*\[(\d+)\]\s*\[ID:\s*([^\]\s]+)\s*\]\s*(.*)$`)

// TranslatorConfig holds dependencies for creating a Translator.
type TranslatorConfig struct {
	Novels      driven.NovelStore
	Models      driven.ModelStore
	Settings    driven.SettingsStore
	Chats       driven.ChatFactory
	Occurrences *OccurrenceRefresher
	Logger      *slog.Logger
}

// Translator runs AI-assisted translation over chapter paragraphs: chunk,
// send, parse the reply back onto the exact paragraphs it answers.
type Translator struct {
	novels      driven.NovelStore
	models      driven.ModelStore
	settings    driven.SettingsStore
	chats       driven.ChatFactory
	occurrences *OccurrenceRefresher
	logger      *slog.Logger
}

var _ driving.TranslationService = (*Translator)(nil)

// NewTranslator creates a Translator from the given configuration.
func NewTranslator(cfg TranslatorConfig) *Translator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		novels:      cfg.Novels,
		models:      cfg.Models,
		settings:    cfg.Settings,
		chats:       cfg.Chats,
		occurrences: cfg.Occurrences,
		logger:      logger,
	}
}

// TranslateChapter translates the chapter's untranslated paragraphs.
func (t *Translator) TranslateChapter(ctx context.Context, novelID, chapterID, modelID string) (*driving.TranslationResult, error) {
	return t.runChapter(ctx, novelID, chapterID, modelID, false)
}

// ProofreadChapter re-sends already-translated paragraphs for revision.
func (t *Translator) ProofreadChapter(ctx context.Context, novelID, chapterID, modelID string) (*driving.TranslationResult, error) {
	return t.runChapter(ctx, novelID, chapterID, modelID, true)
}

func (t *Translator) runChapter(ctx context.Context, novelID, chapterID, modelID string, proofread bool) (*driving.TranslationResult, error) {
	novel, err := t.novels.Get(ctx, novelID)
	if err != nil {
		return nil, fmt.Errorf("load novel %s: %w", novelID, err)
	}
	chapter := novel.Chapter(chapterID)
	if chapter == nil {
		return nil, fmt.Errorf("%w: chapter %s", domain.ErrNotFound, chapterID)
	}

	settings, err := t.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	model, err := t.resolveModel(ctx, modelID, settings)
	if err != nil {
		return nil, err
	}
	chat, err := t.chats.Create(model)
	if err != nil {
		return nil, fmt.Errorf("create chat for model %s: %w", model.ID, err)
	}
	defer chat.Close()

	targets := selectTargets(chapter, proofread)
	if len(targets) == 0 {
		return &driving.TranslationResult{}, nil
	}

	var chunkSize int
	var prompt string
	if settings != nil {
		chunkSize = chunker.ResolveTaskChunkSize(settings.ChunkSize)
	} else {
		chunkSize = chunker.DefaultChunkSize
	}
	if proofread {
		prompt = defaultProofreadPrompt
		if settings != nil && settings.ProofreadPrompt != "" {
			prompt = settings.ProofreadPrompt
		}
	} else {
		prompt = defaultTranslationPrompt
		if settings != nil && settings.TranslationPrompt != "" {
			prompt = settings.TranslationPrompt
		}
	}

	indexMap := domain.BuildOriginalIndexMap(chapter)
	chunks := chunker.BuildFormattedChunks(targets, chunkSize, indexMap)

	paragraphByID := make(map[string]*domain.Paragraph, len(chapter.Paragraphs))
	for i := range chapter.Paragraphs {
		paragraphByID[chapter.Paragraphs[i].ID] = &chapter.Paragraphs[i]
	}

	result := &driving.TranslationResult{ChunksSent: len(chunks)}
	for _, chunk := range chunks {
		reply, err := chat.Send(ctx, []driven.ChatMessage{
			{Role: "system", Content: prompt},
			{Role: "user", Content: chunk.Text},
		})
		if err != nil {
			return nil, fmt.Errorf("chat request: %w", err)
		}

		inChunk := make(map[string]bool, len(chunk.ParagraphIDs))
		for _, id := range chunk.ParagraphIDs {
			inChunk[id] = true
		}

		parsed := parseReply(reply)
		applied := make(map[string]bool, len(parsed))
		for id, text := range parsed {
			if !inChunk[id] {
				t.logger.Warn("reply references unknown paragraph", "paragraph_id", id)
				continue
			}
			if domain.DetectDegradation(text) {
				t.logger.Warn("degraded model output, skipping paragraph",
					"paragraph_id", id, "model", model.Model)
				continue
			}
			p := paragraphByID[id]
			tr := domain.Translation{
				ID:        domain.GenerateID(),
				Text:      text,
				ModelID:   model.ID,
				CreatedAt: domain.NowMillis(),
			}
			p.Translations = append(p.Translations, tr)
			p.SelectedTranslationID = tr.ID
			applied[id] = true
			result.ParagraphsApplied++
		}
		for _, id := range chunk.ParagraphIDs {
			if !applied[id] {
				result.Skipped++
			}
		}
	}

	novel.Touch()
	if err := t.novels.Put(ctx, novel); err != nil {
		return nil, fmt.Errorf("save novel %s: %w", novelID, err)
	}
	if t.occurrences != nil {
		t.occurrences.RefreshAllInBackground(novelID)
	}

	t.logger.Info("chapter pass complete",
		"novel_id", novelID, "chapter_id", chapterID, "proofread", proofread,
		"chunks", result.ChunksSent, "applied", result.ParagraphsApplied, "skipped", result.Skipped)
	return result, nil
}

func (t *Translator) resolveModel(ctx context.Context, modelID string, settings *domain.AppSettings) (*domain.AIModel, error) {
	if modelID == "" && settings != nil {
		modelID = settings.DefaultModelID
	}
	if modelID == "" {
		return nil, domain.ErrModelNotConfigured
	}
	model, err := t.models.Get(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelID, err)
	}
	if !model.IsConfigured() {
		return nil, domain.ErrModelNotConfigured
	}
	return model, nil
}

// selectTargets picks the paragraphs a pass operates on: untranslated ones
// for translation, already-translated ones for proofreading. Empty
// paragraphs are never sent.
func selectTargets(chapter *domain.Chapter, proofread bool) []domain.Paragraph {
	var out []domain.Paragraph
	for _, p := range chapter.Paragraphs {
		if p.IsEmpty() {
			continue
		}
		translated := p.SelectedTranslation() != ""
		if translated == proofread {
			out = append(out, p)
		}
	}
	return out
}

// parseReply extracts paragraph texts from a model reply. Later lines for
// the same id overwrite earlier ones, so a model that restarts its answer
// mid-stream yields the final attempt. Unmatched lines continue the
// previous entry.
func parseReply(reply string) map[string]string {
	out := make(map[string]string)
	lastID := ""
	for _, line := range strings.Split(reply, "\n") {
		m := replyLine.FindStringSubmatch(line)
		if m == nil {
			trimmed := strings.TrimSpace(line)
			if lastID != "" && trimmed != "" {
				out[lastID] = out[lastID] + "\n" + trimmed
			}
			continue
		}
		id := m[2]
		out[id] = strings.TrimSpace(m[3])
		lastID = id
	}
	for id, text := range out {
		if strings.TrimSpace(text) == "" {
			delete(out, id)
		}
	}
	return out
}
