package domain

// AIProvider identifies the chat completion provider family.
type AIProvider string

const (
	AIProviderOpenAI    AIProvider = "openai"
	AIProviderAnthropic AIProvider = "anthropic"
	AIProviderOllama    AIProvider = "ollama"
	AIProviderCustom    AIProvider = "custom"
)

// RequiresAPIKey returns true if this provider requires an API key.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama:
		return false // Self-hosted, no API key needed
	default:
		return true
	}
}

// AIModel is one configured translation model. Models carry no edit
// timestamp, so sync disambiguates deletion from addition by comparing the
// model id lists against the last-synced baseline instead of by clock.
type AIModel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Provider    AIProvider `json:"provider"`
	Model       string     `json:"model"`
	BaseURL     string     `json:"baseUrl,omitempty"`
	APIKey      string     `json:"apiKey,omitempty"`
	Temperature float64    `json:"temperature,omitempty"`
	Position    int        `json:"position"`
}

// IsConfigured returns true if the model has everything needed to send a request.
func (m *AIModel) IsConfigured() bool {
	if m.Model == "" {
		return false
	}
	if m.Provider.RequiresAPIKey() && m.APIKey == "" {
		return false
	}
	return true
}

// ModelIDs extracts the id list of a model slice, preserving order.
func ModelIDs(models []AIModel) []string {
	ids := make([]string, len(models))
	for i := range models {
		ids[i] = models[i].ID
	}
	return ids
}
