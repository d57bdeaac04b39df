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

// Ensure AnthropicChat implements ChatService
var _ driven.ChatService = (*AnthropicChat)(nil)

const anthropicVersion = "2023-06-01"

// AnthropicChat implements ChatService against the Anthropic messages API.
// System messages travel in a dedicated request field rather than the
// messages array.
type AnthropicChat struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// NewAnthropicChat creates a chat service from a model configuration.
func NewAnthropicChat(model *domain.AIModel) (*AnthropicChat, error) {
	if model.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required for anthropic", domain.ErrModelNotConfigured)
	}
	baseURL := model.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	return &AnthropicChat{
		apiKey:      model.APIKey,
		model:       model.Model,
		baseURL:     strings.TrimRight(baseURL, "/"),
		temperature: model.Temperature,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

type anthropicRequest struct {
	Model       string               `json:"model"`
	MaxTokens   int                  `json:"max_tokens"`
	System      string               `json:"system,omitempty"`
	Messages    []driven.ChatMessage `json:"messages"`
	Temperature float64              `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Send performs one chat request and returns the assistant reply text.
func (c *AnthropicChat) Send(ctx context.Context, messages []driven.ChatMessage) (string, error) {
	reqBody := anthropicRequest{
		Model:       c.model,
		MaxTokens:   8192,
		Temperature: c.temperature,
	}
	for _, m := range messages {
		if m.Role == "system" {
			reqBody.System = m.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, m)
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/messages", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode chat response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("chat api error: %s", parsed.Error.Message)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat api status %d", resp.StatusCode)
	}

	var sb strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("chat api returned no text content")
	}
	return sb.String(), nil
}

// Model returns the model identifier in use.
func (c *AnthropicChat) Model() string {
	return c.model
}

// Ping verifies connectivity with a minimal request.
func (c *AnthropicChat) Ping(ctx context.Context) error {
	_, err := c.Send(ctx, []driven.ChatMessage{{Role: "user", Content: "ping"}})
	return err
}

// Close releases resources held by the chat service.
func (c *AnthropicChat) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
