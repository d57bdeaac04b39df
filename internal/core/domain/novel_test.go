package domain

import (
	"testing"
	"time"
)

func TestParagraph_SelectedTranslation(t *testing.T) {
	p := &Paragraph{
		Translations: []Translation{
			{ID: "t1", Text: "first"},
			{ID: "t2", Text: "second"},
		},
	}

	// No explicit selection falls back to the most recent.
	if got := p.SelectedTranslation(); got != "second" {
		t.Errorf("SelectedTranslation() = %q, want latest", got)
	}

	p.SelectedTranslationID = "t1"
	if got := p.SelectedTranslation(); got != "first" {
		t.Errorf("SelectedTranslation() = %q, want selected", got)
	}

	empty := &Paragraph{}
	if got := empty.SelectedTranslation(); got != "" {
		t.Errorf("SelectedTranslation() = %q, want empty", got)
	}
}

func TestParagraph_IsEmpty(t *testing.T) {
	if !(&Paragraph{Text: "   \n\t"}).IsEmpty() {
		t.Error("whitespace-only paragraph not empty")
	}
	if (&Paragraph{Text: "text"}).IsEmpty() {
		t.Error("paragraph with text reported empty")
	}
}

func TestBuildOriginalIndexMap(t *testing.T) {
	chapter := &Chapter{
		Paragraphs: []Paragraph{
			{ID: "p0", Text: "one"},
			{ID: "p1", Text: ""}, // empty paragraphs still take an index
			{ID: "p2", Text: "three"},
		},
	}

	m := BuildOriginalIndexMap(chapter)
	if len(m) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m))
	}
	if m["p0"] != 0 || m["p1"] != 1 || m["p2"] != 2 {
		t.Errorf("unexpected index map: %v", m)
	}
}

func TestNovel_Touch(t *testing.T) {
	n := &Novel{ID: "n1", LastEdited: 1}
	n.Touch()
	if n.LastEdited <= 1 {
		t.Errorf("Touch did not advance LastEdited: %d", n.LastEdited)
	}
}

func TestGenerateID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if id == "" {
			t.Fatal("empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestTokenClaims_IsExpired(t *testing.T) {
	live := &TokenClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}
	if live.IsExpired() {
		t.Error("future expiry reported expired")
	}
	dead := &TokenClaims{ExpiresAt: time.Now().Add(-time.Hour).Unix()}
	if !dead.IsExpired() {
		t.Error("past expiry reported live")
	}
}
