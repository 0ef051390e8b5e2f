// Population factory: builds the initial roster from fixed distribution rules.
package citizens

import (
	"fmt"
	"math/rand"

	"github.com/talgya/neo-haven/internal/entropy"
)

// SpawnConfig holds the product-tuning constants of the initial roster.
type SpawnConfig struct {
	LowIncomeShare float64 // probability of Low Income
	WealthyShare   float64 // probability of Wealthy; the rest is Middle Class
}

// DefaultSpawnConfig returns the reference distribution: 25% Low Income,
// 55% Middle Class, 20% Wealthy.
func DefaultSpawnConfig() SpawnConfig {
	return SpawnConfig{
		LowIncomeShare: 0.25,
		WealthyShare:   0.20,
	}
}

const defaultThought = "Just hoping for a stable future."

var (
	firstNames = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Jamie", "Quinn", "Avery", "Dakota",
		"Sam", "Pat", "Drew", "Skyler", "Cameron", "Reese", "Charlie", "Peyton", "River", "Sage"}
	lastNames = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin"}

	occupations = map[Class][]string{
		LowIncome:   {"Factory Worker", "Server", "Cleaner", "Retail Clerk", "Laborer", "Artist", "Student", "Unemployed"},
		MiddleClass: {"Teacher", "Nurse", "Accountant", "Manager", "Developer", "Police Officer", "Small Business Owner", "Journalist"},
		Wealthy:     {"CEO", "Investor", "Surgeon", "Lawyer", "Politician", "Tech Executive", "Heir/Heiress"},
	}

	personalities = []string{"Risk-averse", "Entrepreneurial", "Community-oriented", "Selfish", "Idealistic",
		"Cynical", "Optimistic", "Anxious", "Rebellious", "Traditional"}

	baseWealth = map[Class]float64{
		LowIncome:   15000,
		MiddleClass: 40000,
		Wealthy:     80000,
	}
)

// Spawner creates the session's citizens. It draws from ordinary session
// randomness; the roster is generated once and never replayed.
type Spawner struct {
	rng    *rand.Rand
	cfg    SpawnConfig
	nextID int
}

// NewSpawner creates a spawner. A nil rng is replaced with a fresh
// crypto-seeded session generator.
func NewSpawner(cfg SpawnConfig, rng *rand.Rand) *Spawner {
	if rng == nil {
		rng = entropy.NewSessionRand()
	}
	return &Spawner{rng: rng, cfg: cfg, nextID: 1}
}

// Generate creates count citizens with ids citizen-<n>, continuing the
// spawner's numbering. count <= 0 yields an empty roster.
func (s *Spawner) Generate(count int) []Citizen {
	if count <= 0 {
		return []Citizen{}
	}
	roster := make([]Citizen, 0, count)
	for i := 0; i < count; i++ {
		roster = append(roster, s.spawnOne())
	}
	return roster
}

func (s *Spawner) spawnOne() Citizen {
	id := fmt.Sprintf("citizen-%d", s.nextID)
	s.nextID++

	class := s.drawClass()
	return Citizen{
		ID:           id,
		Name:         pick(s.rng, firstNames) + " " + pick(s.rng, lastNames),
		Age:          18 + s.rng.Intn(60),
		Occupation:   pick(s.rng, occupations[class]),
		Class:        class,
		Neighborhood: s.neighborhoodFor(class),
		Politics:     Leanings[s.rng.Intn(len(Leanings))],
		Personality:  [2]string{pick(s.rng, personalities), pick(s.rng, personalities)},
		Happiness:    float64(50 + s.rng.Intn(40)),
		Wealth:       baseWealth[class] + float64(s.rng.Intn(10000)),
		LastThought:  defaultThought,
		LastAction:   "Working",
	}
}

func (s *Spawner) drawClass() Class {
	r := s.rng.Float64()
	switch {
	case r < s.cfg.LowIncomeShare:
		return LowIncome
	case r >= 1-s.cfg.WealthyShare:
		return Wealthy
	default:
		return MiddleClass
	}
}

// neighborhoodFor places wealthy citizens on the Waterfront, low-income ones
// in the Industrial Zone, and splits the middle class evenly.
func (s *Spawner) neighborhoodFor(c Class) Neighborhood {
	switch c {
	case Wealthy:
		return Waterfront
	case LowIncome:
		return Industrial
	}
	if s.rng.Float64() < 0.5 {
		return Downtown
	}
	return Suburbs
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}
