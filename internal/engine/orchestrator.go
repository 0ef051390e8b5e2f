package engine

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/talgya/neo-haven/internal/engine")

// Outcome is one completed turn as seen by observers.
type Outcome struct {
	Previous Metrics      `json:"previous"`
	State    State        `json:"state"`
	Result   TurnResult   `json:"result"`
	Deltas   MetricDeltas `json:"deltas"`
}

// Orchestrator owns the current State of a session and is its only writer.
// Readers take snapshots; a turn swaps in the next State wholesale, so a
// reader sees either the pre-turn or the post-turn world.
type Orchestrator struct {
	oracle Oracle
	cfg    Config

	inFlight atomic.Bool

	mu    sync.RWMutex
	state State
	last  *Outcome

	// OnTurn is called after every completed turn, outside the state lock.
	// Set it before the first SubmitTurn.
	OnTurn func(Outcome)
}

// NewOrchestrator starts a session at initial.
func NewOrchestrator(oracle Oracle, initial State, cfg Config) *Orchestrator {
	return &Orchestrator{
		oracle: oracle,
		cfg:    cfg,
		state:  initial,
	}
}

// Snapshot returns the current State. Its slices are shared and read-only.
func (o *Orchestrator) Snapshot() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Last returns the most recent completed turn, if any.
func (o *Orchestrator) Last() (Outcome, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.last == nil {
		return Outcome{}, false
	}
	return *o.last, true
}

// Busy reports whether a turn is being resolved right now.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// SubmitTurn resolves one policy action. At most one turn is in flight: a
// second call while the oracle is still judging the first returns
// ErrTurnInFlight without touching the state. Blank actions and finished
// sessions are rejected before the oracle is called.
func (o *Orchestrator) SubmitTurn(ctx context.Context, action string) (Outcome, error) {
	if strings.TrimSpace(action) == "" {
		return Outcome{}, ErrEmptyAction
	}
	if !o.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrTurnInFlight
	}
	defer o.inFlight.Store(false)

	// Only this goroutine writes state while the flag is held.
	prev := o.Snapshot()
	if prev.Over() {
		return Outcome{}, ErrGameOver
	}

	ctx, span := tracer.Start(ctx, "turn.submit")
	defer span.End()
	span.SetAttributes(attribute.Int("turn", prev.Metrics.Turn))

	next, result, err := Resolve(ctx, o.oracle, prev, action, o.cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}
	span.SetAttributes(
		attribute.String("status", string(next.Status)),
		attribute.Float64("approval", next.Metrics.GovApproval),
	)

	out := Outcome{
		Previous: prev.Metrics,
		State:    next,
		Result:   result,
		Deltas:   Delta(prev.Metrics, next.Metrics),
	}
	o.mu.Lock()
	o.state = next
	o.last = &out
	o.mu.Unlock()

	slog.Info("turn resolved",
		"turn", prev.Metrics.Turn,
		"action", strings.TrimSpace(action),
		"approval", next.Metrics.GovApproval,
		"status", next.Status,
	)
	if next.Over() {
		slog.Info("session over", "status", next.Status, "turns", len(next.History))
	}

	if o.OnTurn != nil {
		o.OnTurn(out)
	}
	return out, nil
}
