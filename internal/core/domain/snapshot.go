package domain

import (
	"encoding/json"
	"fmt"
)

// SyncSnapshot is a point-in-time bundle of all syncable collections.
// Snapshots are immutable inputs to the merge algorithm: merging allocates a
// fresh snapshot and never mutates either side.
type SyncSnapshot struct {
	Novels       []Novel       `json:"novels"`
	AIModels     []AIModel     `json:"aiModels"`
	AppSettings  *AppSettings  `json:"appSettings,omitempty"`
	CoverHistory []CoverRecord `json:"coverHistory"`
}

// Clone returns a deep copy of the snapshot.
func (s *SyncSnapshot) Clone() *SyncSnapshot {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		// Snapshot types are plain data; marshal cannot fail on them.
		panic(fmt.Sprintf("clone snapshot: %v", err))
	}
	var out SyncSnapshot
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("clone snapshot: %v", err))
	}
	return &out
}

// Validate checks the structural shape of a snapshot received from the
// transport boundary, so the reconciler can assume well-typed input.
// Business content is not validated here.
func (s *SyncSnapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil snapshot", ErrInvalidInput)
	}
	for i := range s.Novels {
		if s.Novels[i].ID == "" {
			return fmt.Errorf("%w: novel at index %d has no id", ErrInvalidInput, i)
		}
	}
	for i := range s.AIModels {
		if s.AIModels[i].ID == "" {
			return fmt.Errorf("%w: ai model at index %d has no id", ErrInvalidInput, i)
		}
	}
	for i := range s.CoverHistory {
		if s.CoverHistory[i].ID == "" {
			return fmt.Errorf("%w: cover record at index %d has no id", ErrInvalidInput, i)
		}
	}
	return nil
}

// RestorableKind tags which collection a restorable item came from.
type RestorableKind string

const (
	RestorableNovel RestorableKind = "novel"
	RestorableCover RestorableKind = "cover"
)

// RestorableItem is an entity the sync merge would have discarded as locally
// deleted, surfaced so the user can explicitly restore it instead.
type RestorableItem struct {
	Kind  RestorableKind `json:"kind"`
	Novel *Novel         `json:"novel,omitempty"`
	Cover *CoverRecord   `json:"cover,omitempty"`
}

// Title returns a human-readable label for notification text.
func (r *RestorableItem) Title() string {
	switch r.Kind {
	case RestorableNovel:
		if r.Novel != nil {
			return r.Novel.Title
		}
	case RestorableCover:
		if r.Cover != nil {
			return r.Cover.URL
		}
	}
	return string(r.Kind)
}

// SyncBaseline is the state recorded at the end of the previous successful
// sync. LastSyncedModelIDs disambiguates addition from deletion for the
// untimestamped AI model collection; LastSyncTime does the same for
// timestamped collections.
type SyncBaseline struct {
	LastSyncTime       int64    `json:"lastSyncTime"`
	LastSyncedModelIDs []string `json:"lastSyncedModelIds"`
	GistID             string   `json:"gistId,omitempty"`
}
