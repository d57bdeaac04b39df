package domain

// Term is one glossary entry of a book. Occurrences counts how often the
// source form appears per chapter; the map is recomputed by the background
// occurrence refresher after edits.
type Term struct {
	ID          string         `json:"id"`
	BookID      string         `json:"bookId"`
	Source      string         `json:"source"`
	Target      string         `json:"target"`
	Occurrences map[string]int `json:"occurrences,omitempty"` // chapter id -> count
}

// TotalOccurrences sums the per-chapter counts.
func (t *Term) TotalOccurrences() int {
	var total int
	for _, n := range t.Occurrences {
		total += n
	}
	return total
}

// CharacterProfile is one character setting of a book, tracked the same way
// as glossary terms.
type CharacterProfile struct {
	ID             string         `json:"id"`
	BookID         string         `json:"bookId"`
	Name           string         `json:"name"`
	TranslatedName string         `json:"translatedName,omitempty"`
	Description    string         `json:"description,omitempty"`
	Occurrences    map[string]int `json:"occurrences,omitempty"` // chapter id -> count
}

// TotalOccurrences sums the per-chapter counts.
func (c *CharacterProfile) TotalOccurrences() int {
	var total int
	for _, n := range c.Occurrences {
		total += n
	}
	return total
}
