package domain

import "strings"

const (
	// degradationMinLength is the minimum text length worth scanning.
	// Short replies repeat legitimately (e.g. "......" as dialogue).
	degradationMinLength = 40

	// maxRunLength is the longest acceptable run of one identical rune.
	maxRunLength = 30

	// maxPatternRepeats is the longest acceptable consecutive repetition
	// of a short multi-rune pattern.
	maxPatternRepeats = 12

	// maxPatternLength is the widest pattern the repetition scan considers.
	maxPatternLength = 8
)

// DetectDegradation reports whether AI output looks like runaway generation:
// a long run of one character, or a short pattern repeated many times in a
// row. Callers should discard flagged output instead of applying it.
func DetectDegradation(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < degradationMinLength {
		return false
	}

	runes := []rune(trimmed)

	// Single-rune runs.
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= maxRunLength {
				return true
			}
		} else {
			run = 1
		}
	}

	// Consecutive short-pattern repetition, e.g. "はいはいはい..." or "ab ab ab".
	for width := 2; width <= maxPatternLength; width++ {
		repeats := 1
		for i := width; i+width <= len(runes); i += width {
			if string(runes[i:i+width]) == string(runes[i-width:i]) {
				repeats++
				if repeats >= maxPatternRepeats {
					return true
				}
			} else {
				repeats = 1
			}
		}
	}

	return false
}
