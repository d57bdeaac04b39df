package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

// Ensure OpenAIChat implements ChatService
var _ driven.ChatService = (*OpenAIChat)(nil)

// OpenAIChat implements ChatService against any OpenAI-compatible chat
// completions endpoint: OpenAI itself, Ollama, and custom gateways.
type OpenAIChat struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// NewOpenAIChat creates a chat service from a model configuration.
func NewOpenAIChat(model *domain.AIModel) (*OpenAIChat, error) {
	if model.Provider.RequiresAPIKey() && model.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required for %s", domain.ErrModelNotConfigured, model.Provider)
	}

	baseURL := model.BaseURL
	if baseURL == "" {
		switch model.Provider {
		case domain.AIProviderOllama:
			baseURL = "http://localhost:11434/v1"
		default:
			baseURL = "https://api.openai.com/v1"
		}
	}

	return &OpenAIChat{
		apiKey:      model.APIKey,
		model:       model.Model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: model.Temperature,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// chatRequest is the request body for the chat completions API.
type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []driven.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature,omitempty"`
}

// chatResponse is the response from the chat completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Send performs one chat request and returns the assistant reply text.
func (c *OpenAIChat) Send(ctx context.Context, messages []driven.ChatMessage) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat api status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat api returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Model returns the model identifier in use.
func (c *OpenAIChat) Model() string {
	return c.model
}

// Ping verifies connectivity with a minimal request.
func (c *OpenAIChat) Ping(ctx context.Context) error {
	_, err := c.Send(ctx, []driven.ChatMessage{{Role: "user", Content: "ping"}})
	return err
}

// Close releases resources held by the chat service.
func (c *OpenAIChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
