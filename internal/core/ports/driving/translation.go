package driving

import "context"

// TranslationResult summarizes one chapter translation or proofread pass.
type TranslationResult struct {
	ChunksSent        int `json:"chunksSent"`
	ParagraphsApplied int `json:"paragraphsApplied"`
	Skipped           int `json:"skipped"`
}

// TranslationService runs AI-assisted translation over chapter paragraphs.
type TranslationService interface {
	// TranslateChapter chunks the chapter's untranslated paragraphs, sends
	// each chunk to the configured model, and applies the parsed replies.
	TranslateChapter(ctx context.Context, novelID, chapterID, modelID string) (*TranslationResult, error)

	// ProofreadChapter re-sends already-translated paragraphs for revision
	// and applies revised texts as new selected translations.
	ProofreadChapter(ctx context.Context, novelID, chapterID, modelID string) (*TranslationResult, error)
}
