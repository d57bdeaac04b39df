package driven

import (
	"context"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
)

// ChatMessage is one message of a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatService sends chat completion requests to a configured AI provider.
type ChatService interface {
	// Send performs one chat request and returns the assistant reply text.
	Send(ctx context.Context, messages []ChatMessage) (string, error)

	// Model returns the model identifier in use.
	Model() string

	// Ping verifies connectivity to the provider.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatFactory creates chat services from model configurations.
type ChatFactory interface {
	Create(model *domain.AIModel) (ChatService, error)
}
