package ai

import (
	"fmt"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// Ensure Factory implements ChatFactory
var _ driven.ChatFactory = (*Factory)(nil)

// Factory creates chat services based on model configuration.
type Factory struct{}

// NewFactory creates a new chat service factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a chat service for the given model.
func (f *Factory) Create(model *domain.AIModel) (driven.ChatService, error) {
	if model == nil || !model.IsConfigured() {
		return nil, domain.ErrModelNotConfigured
	}

	switch model.Provider {
	case domain.AIProviderOpenAI, domain.AIProviderCustom:
		return NewOpenAIChat(model)
	case domain.AIProviderOllama:
		// Ollama exposes an OpenAI-compatible chat endpoint.
		return NewOpenAIChat(model)
	case domain.AIProviderAnthropic:
		return NewAnthropicChat(model)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", domain.ErrModelNotConfigured, model.Provider)
	}
}
