package autopilot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/talgya/neo-haven/internal/engine"
)

// Mayor runs the observe, triage, decide, act cycle against one session.
type Mayor struct {
	Observer *Observer
	Actor    *Actor
	LLM      Completer
	Memory   *CycleMemory
	Rules    engine.Rules
}

// Cycle runs one cycle. It returns the session status after the cycle;
// anything other than engine.Playing means the game is over.
func (m *Mayor) Cycle(ctx context.Context) (engine.Status, error) {
	if m.Memory == nil {
		m.Memory = &CycleMemory{}
	}
	snap, err := m.Observer.Observe(ctx)
	if err != nil {
		return engine.Playing, fmt.Errorf("observe: %w", err)
	}
	if snap.State.Status != engine.Playing {
		return snap.State.Status, nil
	}
	if snap.State.Busy {
		slog.Info("turn already in flight, waiting")
		return engine.Playing, nil
	}

	h := Triage(snap, m.Rules)
	slog.Info("observation complete",
		"turn", h.Turn,
		"approval", fmt.Sprintf("%.1f", h.Approval),
		"crisis", h.CrisisLevel,
		"turns_left", h.TurnsLeft,
	)

	d, err := Decide(ctx, m.LLM, snap, h, m.Memory)
	if err != nil {
		slog.Warn("mayor decision fell back to canned policy", "error", err)
	}
	slog.Info("decision made", "policy", d.Policy, "source", d.Source, "rationale", d.Rationale)

	reply, err := m.Actor.Act(ctx, d.Policy)
	if err != nil {
		var rej *RejectedError
		if errors.As(err, &rej) && rej.Code == http.StatusConflict {
			// Another caller raced us, or the game just ended; the next
			// observation tells which.
			slog.Info("turn not accepted", "error", err)
			return engine.Playing, nil
		}
		return engine.Playing, fmt.Errorf("act: %w", err)
	}

	m.Memory.Record(CycleRecord{
		Turn:        reply.Turn,
		Policy:      d.Policy,
		Source:      d.Source,
		Approval:    reply.Metrics.GovApproval,
		CrisisLevel: h.CrisisLevel,
		Narrative:   reply.Narrative,
	})
	if err := m.Memory.Save(); err != nil {
		slog.Error("failed to save mayor memory", "error", err)
	}

	slog.Info("turn resolved",
		"turn", reply.Turn,
		"status", reply.Status,
		"approval", fmt.Sprintf("%.1f", reply.Metrics.GovApproval),
		"approval_delta", reply.Deltas.GovApproval,
	)
	return reply.Status, nil
}

// Run cycles every interval until the game ends or ctx is cancelled. Failed
// cycles are logged and retried on the next tick.
func (m *Mayor) Run(ctx context.Context, interval time.Duration) (engine.Status, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := m.Cycle(ctx)
		if err != nil {
			slog.Error("mayor cycle failed", "error", err)
		}
		if status != engine.Playing {
			slog.Info("game over", "status", status)
			return status, nil
		}

		select {
		case <-ctx.Done():
			return engine.Playing, ctx.Err()
		case <-ticker.C:
		}
	}
}
