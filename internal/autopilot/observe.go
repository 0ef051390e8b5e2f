// Package autopilot implements the autonomous mayor.
// It observes the session via the API, decides on one policy per turn via
// the LLM (or a canned fallback), and submits it via the turn endpoint.
package autopilot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/talgya/neo-haven/internal/engine"
	"github.com/talgya/neo-haven/internal/social"
)

// Snapshot holds all data collected during an observation cycle.
type Snapshot struct {
	State     StateView        `json:"state"`
	Districts []social.Summary `json:"districts"`
}

// StateView mirrors the parts of GET /api/v1/state the mayor reads.
type StateView struct {
	Metrics engine.Metrics        `json:"metrics"`
	Status  engine.Status         `json:"status"`
	Busy    bool                  `json:"busy"`
	History []engine.HistoryEntry `json:"history"`
	Deltas  *engine.MetricDeltas  `json:"deltas,omitempty"`
}

// Observer collects session data from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Observe fetches the session state and the district readouts.
func (o *Observer) Observe(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	if err := o.fetchJSON(ctx, "/api/v1/state", &snap.State); err != nil {
		return nil, fmt.Errorf("fetch state: %w", err)
	}
	if err := o.fetchJSON(ctx, "/api/v1/districts", &snap.Districts); err != nil {
		return nil, fmt.Errorf("fetch districts: %w", err)
	}
	return snap, nil
}

// Ready reports whether the API answers the state endpoint.
func (o *Observer) Ready(ctx context.Context) error {
	var v StateView
	return o.fetchJSON(ctx, "/api/v1/state", &v)
}

func (o *Observer) fetchJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
