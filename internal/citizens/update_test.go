package citizens

import (
	"math"
	"testing"
)

type constNoise float64

func (n constNoise) Perturb(string, int) float64 { return float64(n) }

func sampleRoster() []Citizen {
	return []Citizen{
		{ID: "citizen-1", Happiness: 50, Wealth: 15000},
		{ID: "citizen-2", Happiness: 99, Wealth: 80000},
		{ID: "citizen-3", Happiness: 1, Wealth: 100},
	}
}

func TestApplyTurnClampsHappiness(t *testing.T) {
	deltas := []float64{-1e9, -150, -3, 0, 2.5, 40, 1e9, math.NaN(), math.Inf(1)}
	for _, d := range deltas {
		out := ApplyTurn(sampleRoster(), Deltas{Happiness: d}, FreshNoise{Magnitude: DefaultNoiseMagnitude}, 3)
		for _, c := range out {
			if c.Happiness < 0 || c.Happiness > 100 || math.IsNaN(c.Happiness) {
				t.Fatalf("delta %v: happiness %v out of [0,100]", d, c.Happiness)
			}
		}
	}
}

func TestApplyTurnAddsDeltas(t *testing.T) {
	out := ApplyTurn(sampleRoster(), Deltas{Happiness: 10, Wealth: -500}, nil, 2)
	if out[0].Happiness != 60 {
		t.Errorf("happiness = %v, want 60", out[0].Happiness)
	}
	if out[1].Happiness != 100 {
		t.Errorf("happiness = %v, want clamped 100", out[1].Happiness)
	}
	if out[0].Wealth != 14500 {
		t.Errorf("wealth = %v, want 14500", out[0].Wealth)
	}
}

// Wealth is deliberately not floored at zero: a sustained negative delta
// drives poor citizens into debt.
func TestApplyTurnAllowsNegativeWealth(t *testing.T) {
	out := ApplyTurn(sampleRoster(), Deltas{Wealth: -1000}, nil, 2)
	if out[2].Wealth != -900 {
		t.Fatalf("wealth = %v, want -900", out[2].Wealth)
	}
}

func TestApplyTurnLeavesInputUntouched(t *testing.T) {
	in := sampleRoster()
	_ = ApplyTurn(in, Deltas{Happiness: -20, Wealth: 5}, constNoise(1), 2)
	if in[0].Happiness != 50 || in[0].Wealth != 15000 {
		t.Fatalf("input mutated: %+v", in[0])
	}
}

func TestApplyTurnNoise(t *testing.T) {
	out := ApplyTurn(sampleRoster(), Deltas{}, constNoise(-2), 2)
	if out[0].Happiness != 48 {
		t.Fatalf("happiness = %v, want 48", out[0].Happiness)
	}
}

func TestFreshNoiseBounded(t *testing.T) {
	n := FreshNoise{Magnitude: 2.5}
	for i := 0; i < 2000; i++ {
		if v := n.Perturb("citizen-1", i); v < -2.5 || v >= 2.5 {
			t.Fatalf("noise %v outside [-2.5, 2.5)", v)
		}
	}
}

func TestReplayNoiseDeterministic(t *testing.T) {
	a := ReplayNoise{Seed: 42, Magnitude: 2.5}
	b := ReplayNoise{Seed: 42, Magnitude: 2.5}
	for turn := 1; turn < 20; turn++ {
		if a.Perturb("citizen-7", turn) != b.Perturb("citizen-7", turn) {
			t.Fatalf("replay noise differs at turn %d", turn)
		}
		if v := a.Perturb("citizen-7", turn); v < -2.5 || v >= 2.5 {
			t.Fatalf("replay noise %v outside bounds", v)
		}
	}
	if a.Perturb("citizen-7", 1) == a.Perturb("citizen-8", 1) {
		t.Error("different citizens drew identical noise")
	}
}

func TestApplyTurnReplayable(t *testing.T) {
	noise := ReplayNoise{Seed: 9, Magnitude: DefaultNoiseMagnitude}
	a := ApplyTurn(sampleRoster(), Deltas{Happiness: -1}, noise, 4)
	b := ApplyTurn(sampleRoster(), Deltas{Happiness: -1}, noise, 4)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replayed turn diverged at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestMoodOf(t *testing.T) {
	cases := []struct {
		h    float64
		want Mood
	}{
		{0, Distressed}, {29.9, Distressed}, {30, Uneasy}, {59.9, Uneasy}, {60, Content}, {100, Content},
	}
	for _, c := range cases {
		if got := MoodOf(c.h); got != c.want {
			t.Errorf("MoodOf(%v) = %s, want %s", c.h, got, c.want)
		}
	}
}
