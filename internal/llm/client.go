// Package llm talks to the Anthropic Messages API: the turn oracle that
// judges each policy action, and plain completions for the autopilot mayor.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	defaultURL   = "https://api.anthropic.com/v1/messages"
	defaultModel = "claude-haiku-4-5-20251001"
	apiVersion   = "2023-06-01"
)

// ErrRateLimited is returned when the per-minute call budget is spent.
var ErrRateLimited = errors.New("llm rate limit exceeded")

// Config configures the API client.
type Config struct {
	APIKey      string        `env:"ANTHROPIC_API_KEY"`
	Model       string        `env:"NEOHAVEN_ORACLE_MODEL"      envDefault:"claude-haiku-4-5-20251001"`
	URL         string        `env:"NEOHAVEN_ORACLE_URL"        envDefault:"https://api.anthropic.com/v1/messages"`
	Timeout     time.Duration `env:"NEOHAVEN_ORACLE_TIMEOUT"    envDefault:"30s"`
	MaxAttempts uint          `env:"NEOHAVEN_ORACLE_ATTEMPTS"   envDefault:"3"`
	RetryBase   time.Duration `env:"NEOHAVEN_ORACLE_RETRY_BASE" envDefault:"500ms"`
	PerMinute   int           `env:"NEOHAVEN_ORACLE_RATE"       envDefault:"20"`
}

// Client wraps the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	url        string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewClient creates an API client.
// Returns nil if the key is empty (oracle disabled). Zero fields take the
// same defaults as the environment.
func NewClient(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	c := &Client{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		url:       cfg.URL,
		maxPerMin: cfg.PerMinute,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.url == "" {
		c.url = defaultURL
	}
	if c.maxPerMin <= 0 {
		c.maxPerMin = 20
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = 30 * time.Second
	}
	return c
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// StatusError is a non-200 reply from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Body)
}

// Temporary reports whether retrying the same request may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// Complete sends one prompt and returns the first text block of the reply.
func (c *Client) Complete(ctx context.Context, system, userPrompt string, maxTokens int) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("LLM client not configured")
	}
	if err := c.take(); err != nil {
		return "", err
	}

	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages: []Message{
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}

	slog.Debug("llm call",
		"model", c.model,
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
	)
	return apiResp.Content[0].Text, nil
}

func (c *Client) take() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	if now.After(c.resetAt) {
		c.callCount = 0
		c.resetAt = now.Add(time.Minute)
	}
	if c.callCount >= c.maxPerMin {
		return fmt.Errorf("%w (%d calls/min)", ErrRateLimited, c.maxPerMin)
	}
	c.callCount++
	return nil
}
