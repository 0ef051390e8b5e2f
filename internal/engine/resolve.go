package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/talgya/neo-haven/internal/citizens"
)

// Config carries everything Resolve needs besides the oracle and the state.
type Config struct {
	Rules Rules
	Noise citizens.Noise // nil adds no per-citizen noise
}

// DefaultConfig uses the reference rules and fresh per-turn noise.
func DefaultConfig() Config {
	return Config{
		Rules: DefaultRules(),
		Noise: citizens.FreshNoise{Magnitude: citizens.DefaultNoiseMagnitude},
	}
}

// Resolve plays one turn against s and returns the next State along with the
// judgment it was built from. s itself is never modified.
//
// Preconditions are checked before the oracle is called: a finished session
// yields ErrGameOver and a blank action ErrEmptyAction. An oracle error
// wrapping ErrOracleUnavailable is returned as is with s unchanged. Every
// other oracle failure is logged and replaced by Fallback, and the turn
// still advances.
func Resolve(ctx context.Context, oracle Oracle, s State, action string, cfg Config) (State, TurnResult, error) {
	if s.Over() {
		return s, TurnResult{}, ErrGameOver
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return s, TurnResult{}, ErrEmptyAction
	}
	if oracle == nil {
		return s, TurnResult{}, fmt.Errorf("resolve turn %d: %w", s.Metrics.Turn, ErrOracleUnavailable)
	}

	result, err := oracle.ResolveTurn(ctx, s.Metrics, action, s.Metrics.Turn)
	switch {
	case errors.Is(err, ErrOracleUnavailable):
		return s, TurnResult{}, err
	case err != nil:
		slog.Warn("oracle failed, city stands still", "turn", s.Metrics.Turn, "error", err)
		result = Fallback(s.Metrics)
	}

	result.Metrics = sanitizeMetrics(s.Metrics, result.Metrics)
	result.Metrics.Turn = s.Metrics.Turn + 1
	limit := cfg.Rules.MaxSamples
	if limit <= 0 {
		limit = MaxSamples
	}
	if len(result.AgentSamples) > limit {
		result.AgentSamples = result.AgentSamples[:limit]
	}
	if result.AgentSamples == nil {
		result.AgentSamples = []AgentSample{}
	}

	roster := citizens.ApplyTurn(s.Citizens, citizens.Deltas{
		Happiness: result.GlobalModifiers.HappinessDelta,
		Wealth:    result.GlobalModifiers.WealthDelta,
	}, cfg.Noise, s.Metrics.Turn)
	applySamples(roster, result.AgentSamples)

	history := make([]HistoryEntry, len(s.History), len(s.History)+1)
	copy(history, s.History)
	history = append(history, HistoryEntry{
		Turn:      s.Metrics.Turn,
		Action:    action,
		Narrative: result.Narrative,
	})

	next := State{
		Metrics:  result.Metrics,
		Citizens: roster,
		History:  history,
		Status:   Evaluate(result.Metrics, cfg.Rules),
	}
	return next, result, nil
}

// applySamples copies the thought and action of each sample onto the
// citizen it names. roster must be freshly allocated by the caller.
func applySamples(roster []citizens.Citizen, samples []AgentSample) {
	if len(samples) == 0 {
		return
	}
	index := make(map[string]int, len(roster))
	for i, c := range roster {
		index[c.ID] = i
	}
	for _, s := range samples {
		i, ok := index[s.AgentID]
		if !ok {
			continue
		}
		if s.Thought != "" {
			roster[i].LastThought = s.Thought
		}
		if s.Action != "" {
			roster[i].LastAction = s.Action
		}
	}
}

// sanitizeMetrics keeps NaN and infinities out of the state by falling back
// to the previous value of each field.
func sanitizeMetrics(prev, next Metrics) Metrics {
	keep := func(old, v float64) float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return old
		}
		return v
	}
	next.AvgHappiness = keep(prev.AvgHappiness, next.AvgHappiness)
	next.Unemployment = keep(prev.Unemployment, next.Unemployment)
	next.GDP = keep(prev.GDP, next.GDP)
	next.CrimeRate = keep(prev.CrimeRate, next.CrimeRate)
	next.Population = keep(prev.Population, next.Population)
	next.GovApproval = keep(prev.GovApproval, next.GovApproval)
	return next
}
