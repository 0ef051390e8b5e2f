package engine

import (
	"context"
	"errors"
)

var (
	ErrGameOver          = errors.New("game is over")
	ErrEmptyAction       = errors.New("action is empty")
	ErrTurnInFlight      = errors.New("a turn is already being resolved")
	ErrOracleUnavailable = errors.New("oracle is not configured")
)

// MaxSamples is the reference cap on citizen reactions per turn.
const MaxSamples = 5

// FallbackNarrative is shown when the oracle could not be reached or
// returned something unusable.
const FallbackNarrative = "Communication with the city council failed. The city stands still."

// AgentSample is one sampled citizen reaction. AgentID may name a roster
// citizen or just describe an archetype.
type AgentSample struct {
	AgentID   string `json:"agent_id,omitempty"`
	Name      string `json:"name"`
	Thought   string `json:"thought"`
	Action    string `json:"action"`
	Reasoning string `json:"reasoning,omitempty"`
	FullStory string `json:"full_story,omitempty"`
}

// GlobalModifiers are the per-citizen deltas the oracle asks the engine to
// propagate. Crime and unemployment deltas are informational; the roster
// carries neither field.
type GlobalModifiers struct {
	HappinessDelta    float64 `json:"happiness_delta"`
	WealthDelta       float64 `json:"wealth_delta"`
	CrimeDelta        float64 `json:"crime_delta"`
	UnemploymentDelta float64 `json:"unemployment_delta"`
}

// TurnResult is the oracle's judgment of one action.
type TurnResult struct {
	Narrative       string          `json:"narrative"`
	Metrics         Metrics         `json:"metrics"`
	AgentSamples    []AgentSample   `json:"agent_samples"`
	GlobalModifiers GlobalModifiers `json:"global_modifiers"`
}

// Oracle judges the consequences of a policy action.
//
// An error wrapping ErrOracleUnavailable means the oracle was never
// consulted and the turn must not advance. Any other error is treated as a
// failed consultation and the turn proceeds on Fallback.
type Oracle interface {
	ResolveTurn(ctx context.Context, m Metrics, action string, turn int) (TurnResult, error)
}

// Fallback is the "nothing happened" judgment: metrics unchanged, no
// reactions, zero deltas.
func Fallback(m Metrics) TurnResult {
	return TurnResult{
		Narrative:    FallbackNarrative,
		Metrics:      m,
		AgentSamples: []AgentSample{},
	}
}
