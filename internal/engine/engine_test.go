package engine

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/talgya/neo-haven/internal/citizens"
)

// scriptedOracle returns a fixed judgment, or err when set.
type scriptedOracle struct {
	result TurnResult
	err    error
	calls  atomic.Int32
}

func (o *scriptedOracle) ResolveTurn(_ context.Context, m Metrics, _ string, _ int) (TurnResult, error) {
	o.calls.Add(1)
	if o.err != nil {
		return TurnResult{}, o.err
	}
	return o.result, nil
}

// gatedOracle blocks every call until release is closed.
type gatedOracle struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (o *gatedOracle) ResolveTurn(_ context.Context, m Metrics, _ string, _ int) (TurnResult, error) {
	o.calls.Add(1)
	o.entered <- struct{}{}
	<-o.release
	return TurnResult{Narrative: "slow council", Metrics: m}, nil
}

func testRoster(t *testing.T, n int) []citizens.Citizen {
	t.Helper()
	return citizens.NewSpawner(citizens.DefaultSpawnConfig(), rand.New(rand.NewSource(7))).Generate(n)
}

func testConfig() Config {
	return Config{Rules: DefaultRules()}
}

func judgment(approval float64) TurnResult {
	m := InitialMetrics()
	m.GovApproval = approval
	return TurnResult{Narrative: "the city reacts", Metrics: m}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		turn     int
		approval float64
		want     Status
	}{
		{"collapse past the limit", 11, 25, Lost},
		{"collapse early", 3, 29.9, Lost},
		{"floor is exclusive", 4, 30, Playing},
		{"mid game", 10, 90, Playing},
		{"last turn still playing", 10, 30, Playing},
		{"win above threshold", 11, 71, Won},
		{"threshold is exclusive", 11, 70, Lost},
		{"lukewarm finish", 11, 50, Lost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(Metrics{Turn: tt.turn, GovApproval: tt.approval}, DefaultRules())
			if got != tt.want {
				t.Fatalf("Evaluate(turn %d, approval %v) = %s, want %s", tt.turn, tt.approval, got, tt.want)
			}
		})
	}
}

func TestResolveFallbackFromInitial(t *testing.T) {
	s := NewState(InitialMetrics(), testRoster(t, 10))
	oracle := &scriptedOracle{err: errors.New("connection reset")}

	next, result, err := Resolve(context.Background(), oracle, s, "Build a park", testConfig())
	if err != nil {
		t.Fatalf("fallback turn should not error: %v", err)
	}
	if next.Metrics.Turn != 2 {
		t.Errorf("turn = %d, want 2", next.Metrics.Turn)
	}
	if next.Metrics.GovApproval != 55 {
		t.Errorf("approval = %v, want 55", next.Metrics.GovApproval)
	}
	if next.Status != Playing {
		t.Errorf("status = %s, want playing", next.Status)
	}
	if len(next.History) != 1 {
		t.Fatalf("history len = %d, want 1", len(next.History))
	}
	h := next.History[0]
	if h.Turn != 1 || h.Action != "Build a park" || h.Narrative != FallbackNarrative {
		t.Errorf("history entry = %+v", h)
	}
	if result.Narrative != FallbackNarrative || len(result.AgentSamples) != 0 {
		t.Errorf("result = %+v, want fallback", result)
	}
	if result.GlobalModifiers != (GlobalModifiers{}) {
		t.Errorf("fallback deltas = %+v, want zero", result.GlobalModifiers)
	}
}

func TestResolveForcesTurnSequence(t *testing.T) {
	r := judgment(60)
	r.Metrics.Turn = 42
	oracle := &scriptedOracle{result: r}

	s := NewState(InitialMetrics(), nil)
	for want := 2; want <= 5; want++ {
		var err error
		s, _, err = Resolve(context.Background(), oracle, s, "hold steady", testConfig())
		if err != nil {
			t.Fatal(err)
		}
		if s.Metrics.Turn != want {
			t.Fatalf("turn = %d, want %d", s.Metrics.Turn, want)
		}
		if got := s.History[len(s.History)-1].Turn; got != want-1 {
			t.Fatalf("history turn = %d, want %d", got, want-1)
		}
	}
}

func TestResolveRejectsBeforeOracle(t *testing.T) {
	oracle := &scriptedOracle{result: judgment(60)}
	s := NewState(InitialMetrics(), nil)

	for _, action := range []string{"", "   ", "\t\n"} {
		got, _, err := Resolve(context.Background(), oracle, s, action, testConfig())
		if !errors.Is(err, ErrEmptyAction) {
			t.Fatalf("action %q: err = %v, want ErrEmptyAction", action, err)
		}
		if len(got.History) != 0 || got.Metrics.Turn != 1 {
			t.Fatalf("action %q changed state", action)
		}
	}

	over := s
	over.Status = Lost
	if _, _, err := Resolve(context.Background(), oracle, over, "raise taxes", testConfig()); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	if n := oracle.calls.Load(); n != 0 {
		t.Fatalf("oracle called %d times", n)
	}
}

func TestResolveOracleUnavailable(t *testing.T) {
	s := NewState(InitialMetrics(), testRoster(t, 3))
	oracle := &scriptedOracle{err: ErrOracleUnavailable}

	got, _, err := Resolve(context.Background(), oracle, s, "cut taxes", testConfig())
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
	if got.Metrics != s.Metrics || len(got.History) != 0 {
		t.Fatalf("state advanced on configuration error: %+v", got.Metrics)
	}

	if _, _, err := Resolve(context.Background(), nil, s, "cut taxes", testConfig()); !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("nil oracle: err = %v", err)
	}
}

func TestResolveLeavesInputUntouched(t *testing.T) {
	roster := testRoster(t, 8)
	s := NewState(InitialMetrics(), roster)
	before := make([]citizens.Citizen, len(s.Citizens))
	copy(before, s.Citizens)

	r := judgment(60)
	r.GlobalModifiers = GlobalModifiers{HappinessDelta: -200, WealthDelta: 1500}
	next, _, err := Resolve(context.Background(), &scriptedOracle{result: r}, s, "austerity", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if s.Citizens[i] != before[i] {
			t.Fatalf("input citizen %d mutated", i)
		}
		if next.Citizens[i].Happiness != 0 {
			t.Errorf("citizen %d happiness = %v, want clamped to 0", i, next.Citizens[i].Happiness)
		}
		if next.Citizens[i].Wealth != before[i].Wealth+1500 {
			t.Errorf("citizen %d wealth = %v", i, next.Citizens[i].Wealth)
		}
	}
	if len(s.History) != 0 {
		t.Fatal("input history grew")
	}
}

func TestResolveSamples(t *testing.T) {
	roster := testRoster(t, 4)
	r := judgment(60)
	for i := 0; i < 8; i++ {
		r.AgentSamples = append(r.AgentSamples, AgentSample{AgentID: "Wealthy Waterfront Conservative", Name: "X", Thought: "hm", Action: "shrugs"})
	}
	r.AgentSamples[0] = AgentSample{AgentID: roster[2].ID, Name: roster[2].Name, Thought: "Finally, a park.", Action: "Jogging"}

	next, result, err := Resolve(context.Background(), &scriptedOracle{result: r}, NewState(InitialMetrics(), roster), "build a park", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.AgentSamples) != MaxSamples {
		t.Fatalf("samples = %d, want %d", len(result.AgentSamples), MaxSamples)
	}
	c := next.Citizens[2]
	if c.LastThought != "Finally, a park." || c.LastAction != "Jogging" {
		t.Fatalf("matched citizen = %q / %q", c.LastThought, c.LastAction)
	}
	if next.Citizens[0].LastAction != "Working" {
		t.Fatalf("unmatched citizen changed: %q", next.Citizens[0].LastAction)
	}
}

func TestResolveSanitizesMetrics(t *testing.T) {
	r := judgment(60)
	r.Metrics.GDP = math.NaN()
	r.Metrics.CrimeRate = math.Inf(1)
	r.GlobalModifiers.HappinessDelta = math.NaN()

	next, _, err := Resolve(context.Background(), &scriptedOracle{result: r}, NewState(InitialMetrics(), testRoster(t, 2)), "chaos", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if next.Metrics.GDP != 500 || next.Metrics.CrimeRate != 15 {
		t.Fatalf("non-finite metrics leaked: %+v", next.Metrics)
	}
	if next.Metrics.GovApproval != 60 {
		t.Fatalf("approval = %v, want 60", next.Metrics.GovApproval)
	}
	for _, c := range next.Citizens {
		if math.IsNaN(c.Happiness) {
			t.Fatal("NaN happiness")
		}
	}
}

func TestOrchestratorPlaysToVictory(t *testing.T) {
	oracle := &scriptedOracle{result: judgment(80)}
	o := NewOrchestrator(oracle, NewState(InitialMetrics(), testRoster(t, 5)), testConfig())

	var seen []int
	o.OnTurn = func(out Outcome) { seen = append(seen, out.Previous.Turn) }

	for i := 1; i <= 10; i++ {
		out, err := o.SubmitTurn(context.Background(), "invest in transit")
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if out.State.Metrics.Turn != i+1 {
			t.Fatalf("turn %d: metrics turn = %d", i, out.State.Metrics.Turn)
		}
		if out.Deltas.GovApproval != 0 && i > 1 {
			t.Fatalf("turn %d: approval delta = %v", i, out.Deltas.GovApproval)
		}
	}
	s := o.Snapshot()
	if s.Status != Won {
		t.Fatalf("status = %s, want won", s.Status)
	}
	if len(s.History) != 10 || len(seen) != 10 {
		t.Fatalf("history %d, observed %d; want 10 each", len(s.History), len(seen))
	}

	if _, err := o.SubmitTurn(context.Background(), "one more"); !errors.Is(err, ErrGameOver) {
		t.Fatalf("err = %v, want ErrGameOver", err)
	}
	if n := oracle.calls.Load(); n != 10 {
		t.Fatalf("oracle calls = %d, want 10", n)
	}
	last, ok := o.Last()
	if !ok || last.Previous.Turn != 10 {
		t.Fatalf("last = %+v, %v", last.Previous, ok)
	}
}

func TestOrchestratorFirstTurnDelta(t *testing.T) {
	o := NewOrchestrator(&scriptedOracle{result: judgment(62.34)}, NewState(InitialMetrics(), nil), testConfig())
	if _, ok := o.Last(); ok {
		t.Fatal("Last before any turn")
	}
	out, err := o.SubmitTurn(context.Background(), "open a library")
	if err != nil {
		t.Fatal(err)
	}
	if out.Deltas.GovApproval != 7.3 {
		t.Fatalf("approval delta = %v, want 7.3", out.Deltas.GovApproval)
	}
}

func TestOrchestratorRejectsWhileInFlight(t *testing.T) {
	oracle := &gatedOracle{entered: make(chan struct{}, 1), release: make(chan struct{})}
	o := NewOrchestrator(oracle, NewState(InitialMetrics(), testRoster(t, 3)), testConfig())

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = o.SubmitTurn(context.Background(), "first")
	}()

	select {
	case <-oracle.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("oracle never called")
	}
	if !o.Busy() {
		t.Fatal("Busy() = false during oracle call")
	}
	if _, err := o.SubmitTurn(context.Background(), "second"); !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("err = %v, want ErrTurnInFlight", err)
	}
	if s := o.Snapshot(); s.Metrics.Turn != 1 || len(s.History) != 0 {
		t.Fatalf("snapshot during flight = turn %d, history %d", s.Metrics.Turn, len(s.History))
	}

	close(oracle.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatal(firstErr)
	}
	s := o.Snapshot()
	if s.Metrics.Turn != 2 || len(s.History) != 1 || s.History[0].Action != "first" {
		t.Fatalf("after flight: turn %d, history %+v", s.Metrics.Turn, s.History)
	}
	if n := oracle.calls.Load(); n != 1 {
		t.Fatalf("oracle calls = %d, want 1", n)
	}
	if o.Busy() {
		t.Fatal("still busy after completion")
	}
}

func TestOrchestratorEmptyAction(t *testing.T) {
	oracle := &scriptedOracle{result: judgment(60)}
	o := NewOrchestrator(oracle, NewState(InitialMetrics(), nil), testConfig())
	if _, err := o.SubmitTurn(context.Background(), "  "); !errors.Is(err, ErrEmptyAction) {
		t.Fatalf("err = %v", err)
	}
	if oracle.calls.Load() != 0 || o.Busy() {
		t.Fatal("blank action reached the oracle")
	}
}

func TestOrchestratorCollapse(t *testing.T) {
	o := NewOrchestrator(&scriptedOracle{result: judgment(12)}, NewState(InitialMetrics(), nil), testConfig())
	out, err := o.SubmitTurn(context.Background(), "ban cars")
	if err != nil {
		t.Fatal(err)
	}
	if out.State.Status != Lost || !o.Snapshot().Over() {
		t.Fatalf("status = %s, want lost", out.State.Status)
	}
}

func TestDelta(t *testing.T) {
	prev := InitialMetrics()
	cur := prev
	cur.GDP = 512.36
	cur.Unemployment = 4.94
	cur.Population = 100
	d := Delta(prev, cur)
	if d.GDP != 12.4 || d.Unemployment != -0.1 || d.Population != 0 {
		t.Fatalf("delta = %+v", d)
	}
}
