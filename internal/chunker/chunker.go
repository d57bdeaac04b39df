// Package chunker splits chapter paragraphs into bounded text chunks for
// AI requests while preserving chapter-relative paragraph indices, so model
// replies can be mapped back to the exact paragraphs they answer.
package chunker

import (
	"fmt"
	"strings"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// FormatFunc renders one paragraph, with its chapter-relative index, into
// the line that joins the chunk text.
type FormatFunc func(p domain.Paragraph, index int) (string, error)

// BuildChunks splits paragraphs into chunks whose formatted text stays
// within maxChars. Paragraphs whose text is empty after trimming are
// skipped but still consume their index. When indexMap is non-nil it maps
// paragraph IDs to chapter-relative indices; paragraphs missing from the
// map fall back to their position in the input slice. A single formatted
// line longer than maxChars becomes its own chunk rather than being split.
func BuildChunks(paragraphs []domain.Paragraph, maxChars int, indexMap map[string]int, format FormatFunc) ([]domain.Chunk, error) {
	if maxChars < 1 {
		maxChars = 1
	}

	var chunks []domain.Chunk
	var lines []string
	var ids []string
	var size int

	flush := func() {
		if len(lines) == 0 {
			return
		}
		chunks = append(chunks, domain.Chunk{
			Text:         strings.Join(lines, "\n"),
			ParagraphIDs: append([]string(nil), ids...),
		})
		lines = lines[:0]
		ids = ids[:0]
		size = 0
	}

	for i, p := range paragraphs {
		if p.IsEmpty() {
			continue
		}

		index := i
		if indexMap != nil {
			if mapped, ok := indexMap[p.ID]; ok {
				index = mapped
			}
		}

		line, err := format(p, index)
		if err != nil {
			return nil, fmt.Errorf("format paragraph %s: %w", p.ID, err)
		}

		lineSize := len(line)
		if len(lines) > 0 {
			// Account for the joining newline.
			if size+1+lineSize > maxChars {
				flush()
			}
		}
		if len(lines) > 0 {
			size++
		}
		lines = append(lines, line)
		ids = append(ids, p.ID)
		size += lineSize
	}
	flush()

	return chunks, nil
}

// BuildFormattedChunks builds chunks using the standard request line format,
// "[index] [ID: id] text", carrying the paragraph's selected translation
// when present and its source text otherwise.
func BuildFormattedChunks(paragraphs []domain.Paragraph, maxChars int, indexMap map[string]int) []domain.Chunk {
	chunks, _ := BuildChunks(paragraphs, maxChars, indexMap, func(p domain.Paragraph, index int) (string, error) {
		text := p.SelectedTranslation()
		if text == "" {
			text = p.Text
		}
		return fmt.Sprintf("[%d] [ID: %s] %s", index, p.ID, text), nil
	})
	return chunks
}
