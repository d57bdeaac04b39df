// Package gist implements the snapshot transport against the GitHub gist
// API. A single private gist holds one JSON file with the full sync
// snapshot.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driven"
)

const (
	defaultBaseURL  = "https://api.github.com"
	defaultFilename = "tsukuyomi-sync.json"
	gistDescription = "Tsukuyomi translation workbench sync data"
)

// Verify interface compliance
var _ driven.GistTransport = (*Client)(nil)

// ClientConfig holds options for creating a Client.
type ClientConfig struct {
	BaseURL    string        // defaults to the public GitHub API
	HTTPClient *http.Client  // defaults to a client with a 30s timeout
	Timeout    time.Duration // used when HTTPClient is nil
	Logger     *slog.Logger
}

// Client talks to the GitHub gist API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gist client from the given configuration.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger}
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistPayload struct {
	ID          string              `json:"id,omitempty"`
	Description string              `json:"description,omitempty"`
	Public      bool                `json:"public"`
	Files       map[string]gistFile `json:"files"`
}

// Download fetches and validates the remote snapshot.
func (c *Client) Download(ctx context.Context, cfg driven.GistConfig, onProgress driven.ProgressFunc) (*domain.SyncSnapshot, error) {
	if cfg.GistID == "" {
		return nil, domain.ErrGistNotConfigured
	}
	report(onProgress, 0)

	var payload gistPayload
	if err := c.do(ctx, http.MethodGet, "/gists/"+cfg.GistID, cfg.Token, nil, &payload); err != nil {
		return nil, err
	}
	report(onProgress, 50)

	filename := filenameFor(cfg)
	file, ok := payload.Files[filename]
	if !ok {
		return nil, fmt.Errorf("%w: gist has no %s file", domain.ErrNotFound, filename)
	}

	content := file.Content
	// The gist API truncates large files; the full body lives at raw_url.
	if file.Truncated && file.RawURL != "" {
		raw, err := c.fetchRaw(ctx, file.RawURL, cfg.Token)
		if err != nil {
			return nil, fmt.Errorf("fetch truncated gist content: %w", err)
		}
		content = raw
	}
	report(onProgress, 80)

	var snapshot domain.SyncSnapshot
	if err := json.Unmarshal([]byte(content), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("downloaded snapshot invalid: %w", err)
	}

	report(onProgress, 100)
	c.logger.Debug("downloaded snapshot", "gist_id", cfg.GistID, "bytes", len(content))
	return &snapshot, nil
}

// Upload writes the snapshot to the gist, creating one when cfg.GistID is
// empty. Returns the gist id written to.
func (c *Client) Upload(ctx context.Context, cfg driven.GistConfig, snapshot *domain.SyncSnapshot, onProgress driven.ProgressFunc) (string, error) {
	if snapshot == nil {
		return "", fmt.Errorf("%w: snapshot is nil", domain.ErrInvalidInput)
	}
	if err := snapshot.Validate(); err != nil {
		return "", fmt.Errorf("snapshot invalid: %w", err)
	}
	report(onProgress, 0)

	content, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	body := gistPayload{
		Description: gistDescription,
		Public:      false,
		Files: map[string]gistFile{
			filenameFor(cfg): {Content: string(content)},
		},
	}
	report(onProgress, 30)

	var result gistPayload
	if cfg.GistID == "" {
		err = c.do(ctx, http.MethodPost, "/gists", cfg.Token, &body, &result)
	} else {
		err = c.do(ctx, http.MethodPatch, "/gists/"+cfg.GistID, cfg.Token, &body, &result)
	}
	if err != nil {
		return "", err
	}

	gistID := result.ID
	if gistID == "" {
		gistID = cfg.GistID
	}
	report(onProgress, 100)
	c.logger.Debug("uploaded snapshot", "gist_id", gistID, "bytes", len(content))
	return gistID, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: gist", domain.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: gist api returned %d", domain.ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gist api %s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) fetchRaw(ctx context.Context, url, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("raw fetch status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func filenameFor(cfg driven.GistConfig) string {
	if cfg.Filename != "" {
		return cfg.Filename
	}
	return defaultFilename
}

func report(fn driven.ProgressFunc, percent int) {
	if fn != nil {
		fn(percent)
	}
}
