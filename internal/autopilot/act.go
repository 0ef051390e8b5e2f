package autopilot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/neo-haven/internal/engine"
)

// TurnReply is the response from POST /api/v1/turn.
type TurnReply struct {
	Turn      int                 `json:"turn"`
	Narrative string              `json:"narrative"`
	Status    engine.Status       `json:"status"`
	Metrics   engine.Metrics      `json:"metrics"`
	Deltas    engine.MetricDeltas `json:"deltas"`
}

// RejectedError is a non-200 reply to a turn submission.
type RejectedError struct {
	Code int
	Body string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("turn rejected (%d): %s", e.Code, e.Body)
}

// Actor submits policies via the turn endpoint.
type Actor struct {
	BaseURL    string
	AdminKey   string
	HTTPClient *http.Client
}

// NewActor creates an Actor targeting the given API base URL. The oracle
// may take several retries to judge a turn, so the timeout is generous.
func NewActor(baseURL, adminKey string) *Actor {
	return &Actor{
		BaseURL:  baseURL,
		AdminKey: adminKey,
		HTTPClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// Act submits one policy as the next turn's action.
func (a *Actor) Act(ctx context.Context, policy string) (*TurnReply, error) {
	body, err := json.Marshal(map[string]string{"action": policy})
	if err != nil {
		return nil, fmt.Errorf("marshal action: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/api/v1/turn", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.AdminKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.AdminKey)
	}

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST turn: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RejectedError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(respBody))}
	}

	var reply TurnReply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &reply, nil
}
