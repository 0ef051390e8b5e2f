// Population update engine: propagates aggregate deltas onto every citizen.
package citizens

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/talgya/neo-haven/internal/entropy"
)

// DefaultNoiseMagnitude is the reference bound of per-citizen happiness noise.
const DefaultNoiseMagnitude = 2.5

// Deltas are the aggregate changes applied to every citizen in one turn.
type Deltas struct {
	Happiness float64
	Wealth    float64
}

// Noise yields a bounded, symmetric happiness perturbation for one citizen
// in one turn.
type Noise interface {
	Perturb(citizenID string, turn int) float64
}

// FreshNoise draws a new perturbation on every call from crypto/rand. This is
// the reference behaviour; turns cannot be replayed with it.
type FreshNoise struct {
	Magnitude float64
}

// Perturb returns a value uniformly distributed in [-Magnitude, Magnitude).
func (n FreshNoise) Perturb(string, int) float64 {
	return (entropy.CryptoFloat()*2 - 1) * n.Magnitude
}

// ReplayNoise derives the perturbation from (Seed, citizen id, turn), so the
// same session seed reproduces every turn exactly.
type ReplayNoise struct {
	Seed      int64
	Magnitude float64
}

// Perturb returns a value in [-Magnitude, Magnitude) determined by its inputs.
func (n ReplayNoise) Perturb(citizenID string, turn int) float64 {
	h := xxhash.Sum64String(fmt.Sprintf("%d/%s/%d", n.Seed, citizenID, turn))
	u := float64(h>>11) / float64(1<<53)
	return (u*2 - 1) * n.Magnitude
}

// ApplyTurn returns a new roster with d and per-citizen noise applied.
// Happiness is clamped to [0, 100]; wealth is not clamped in either direction.
// The input roster is left untouched. A nil noise source adds no noise, and
// non-finite deltas or noise are treated as zero.
func ApplyTurn(roster []Citizen, d Deltas, noise Noise, turn int) []Citizen {
	dh := finite(d.Happiness)
	dw := finite(d.Wealth)

	out := make([]Citizen, len(roster))
	for i, c := range roster {
		jitter := 0.0
		if noise != nil {
			jitter = finite(noise.Perturb(c.ID, turn))
		}
		c.Happiness = Clamp(finite(c.Happiness)+dh+jitter, 0, 100)
		c.Wealth += dw
		out[i] = c
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
