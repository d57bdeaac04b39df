package domain

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// NowMillis returns the current wall clock as unix milliseconds,
// the timestamp unit used throughout sync payloads.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// Translation is one AI-produced rendition of a paragraph.
type Translation struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	ModelID   string `json:"modelId,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Paragraph is one translatable unit of chapter content.
// Its position in the chapter's full paragraph slice is its original index,
// which stays meaningful even after empty paragraphs are filtered out of
// AI request payloads.
type Paragraph struct {
	ID                    string        `json:"id"`
	Text                  string        `json:"text"`
	Translations          []Translation `json:"translations,omitempty"`
	SelectedTranslationID string        `json:"selectedTranslationId,omitempty"`
}

// IsEmpty reports whether the paragraph carries no translatable text.
func (p *Paragraph) IsEmpty() bool {
	return strings.TrimSpace(p.Text) == ""
}

// SelectedTranslation returns the text of the currently selected translation,
// falling back to the most recent one when no explicit selection exists.
func (p *Paragraph) SelectedTranslation() string {
	for i := range p.Translations {
		if p.Translations[i].ID == p.SelectedTranslationID {
			return p.Translations[i].Text
		}
	}
	if n := len(p.Translations); n > 0 {
		return p.Translations[n-1].Text
	}
	return ""
}

// Chapter is one scraped chapter of a novel. Paragraphs may be nil when the
// chapter body has not been loaded from its source yet.
type Chapter struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	SourceURL  string      `json:"sourceUrl,omitempty"`
	Paragraphs []Paragraph `json:"paragraphs,omitempty"`
}

// HasContent reports whether the chapter body has been loaded.
func (c *Chapter) HasContent() bool {
	return len(c.Paragraphs) > 0
}

// Novel is the root syncable entity. LastEdited is bumped on every local
// mutation and drives last-write-wins conflict resolution.
type Novel struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author,omitempty"`
	SourceURL  string    `json:"sourceUrl,omitempty"`
	Cover      string    `json:"cover,omitempty"`
	Chapters   []Chapter `json:"chapters,omitempty"`
	LastEdited int64     `json:"lastEdited"`
}

// Chapter returns the chapter with the given id, or nil.
func (n *Novel) Chapter(id string) *Chapter {
	for i := range n.Chapters {
		if n.Chapters[i].ID == id {
			return &n.Chapters[i]
		}
	}
	return nil
}

// Touch bumps the novel's edit timestamp.
func (n *Novel) Touch() {
	n.LastEdited = NowMillis()
}

// CoverRecord is one entry of a novel's cover image history.
type CoverRecord struct {
	ID      string `json:"id"`
	NovelID string `json:"novelId"`
	URL     string `json:"url"`
	AddedAt int64  `json:"addedAt"`
}

// BuildOriginalIndexMap maps each paragraph id of a chapter to its position
// in the full, unfiltered paragraph sequence. Indices are assigned to empty
// paragraphs too, so filtered payloads keep chapter-relative numbering.
func BuildOriginalIndexMap(chapter *Chapter) map[string]int {
	m := make(map[string]int, len(chapter.Paragraphs))
	for i := range chapter.Paragraphs {
		m[chapter.Paragraphs[i].ID] = i
	}
	return m
}

// Chunk is a size-bounded batch of formatted paragraphs sent together in one
// AI request. ParagraphIDs lists the contributing non-empty paragraphs in
// encounter order.
type Chunk struct {
	Text         string   `json:"text"`
	ParagraphIDs []string `json:"paragraphIds"`
}
