package domain

// SyncConfig holds the remote-gist sync configuration. It is device-local:
// settings merge never lets a remote snapshot overwrite it.
type SyncConfig struct {
	GistToken               string `json:"gistToken,omitempty"`
	GistID                  string `json:"gistId,omitempty"`
	AutoSyncEnabled         bool   `json:"autoSyncEnabled"`
	AutoSyncIntervalMinutes int    `json:"autoSyncIntervalMinutes"`
}

// IsConfigured returns true if the gist transport can be used.
func (c *SyncConfig) IsConfigured() bool {
	return c.GistToken != ""
}

// AppSettings holds workbench-wide configuration. LastEdited drives
// last-write-wins between devices.
type AppSettings struct {
	Language          string     `json:"language,omitempty"`
	Theme             string     `json:"theme,omitempty"`
	ChunkSize         any        `json:"chunkSize,omitempty"` // raw persisted value, resolved via chunker
	TranslationPrompt string     `json:"translationPrompt,omitempty"`
	ProofreadPrompt   string     `json:"proofreadPrompt,omitempty"`
	DefaultModelID    string     `json:"defaultModelId,omitempty"`
	Sync              SyncConfig `json:"sync"`
	LastEdited        int64      `json:"lastEdited"`
}

// DefaultAppSettings returns sensible defaults for a fresh install.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		Language: "en",
		Theme:    "dark",
		Sync: SyncConfig{
			AutoSyncEnabled:         false,
			AutoSyncIntervalMinutes: 15,
		},
		LastEdited: NowMillis(),
	}
}

// MergeAppSettings resolves two settings snapshots by LastEdited. The result
// is a fresh value: when the remote side wins, its fields are imported onto a
// copy of the local settings field by field, so a partial remote snapshot
// cannot blank out unrelated local fields, and the local sync configuration
// is preserved no matter which side wins.
func MergeAppSettings(local, remote *AppSettings) *AppSettings {
	if local == nil && remote == nil {
		return nil
	}
	if local == nil {
		local = DefaultAppSettings()
	}

	merged := *local
	if remote == nil || remote.LastEdited <= local.LastEdited {
		return &merged
	}

	if remote.Language != "" {
		merged.Language = remote.Language
	}
	if remote.Theme != "" {
		merged.Theme = remote.Theme
	}
	if remote.ChunkSize != nil {
		merged.ChunkSize = remote.ChunkSize
	}
	if remote.TranslationPrompt != "" {
		merged.TranslationPrompt = remote.TranslationPrompt
	}
	if remote.ProofreadPrompt != "" {
		merged.ProofreadPrompt = remote.ProofreadPrompt
	}
	if remote.DefaultModelID != "" {
		merged.DefaultModelID = remote.DefaultModelID
	}
	merged.LastEdited = remote.LastEdited

	// The sync transport configuration belongs to this device.
	merged.Sync = local.Sync

	return &merged
}
