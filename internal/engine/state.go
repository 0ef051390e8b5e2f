// Package engine runs the Neo Haven turn loop: one policy action in, one
// oracle judgment out, and a new immutable State per completed turn.
package engine

import "github.com/talgya/neo-haven/internal/citizens"

// Status is the session's lifecycle phase. Won and Lost are terminal.
type Status string

const (
	Playing Status = "playing"
	Won     Status = "won"
	Lost    Status = "lost"
)

// Metrics are the city-wide aggregates. The oracle replaces them wholesale
// every turn, except Turn, which only the engine advances.
type Metrics struct {
	AvgHappiness float64 `json:"avg_happiness"`
	Unemployment float64 `json:"unemployment"`
	GDP          float64 `json:"gdp"` // millions
	CrimeRate    float64 `json:"crime_rate"`
	Population   float64 `json:"population"`
	GovApproval  float64 `json:"gov_approval"`
	Turn         int     `json:"turn"`
}

// InitialMetrics returns the reference opening position.
func InitialMetrics() Metrics {
	return Metrics{
		AvgHappiness: 65,
		Unemployment: 5,
		GDP:          500,
		CrimeRate:    15,
		Population:   100,
		GovApproval:  55,
		Turn:         1,
	}
}

// HistoryEntry records one completed turn. Turn is the turn the action was
// taken on, not the turn it led to.
type HistoryEntry struct {
	Turn      int    `json:"turn"`
	Action    string `json:"action"`
	Narrative string `json:"narrative"`
}

// State is one snapshot of the session. A State is never modified after it
// is built; each turn produces a fresh one, and its slices must be treated
// as read-only by every holder.
type State struct {
	Metrics  Metrics            `json:"metrics"`
	Citizens []citizens.Citizen `json:"citizens"`
	History  []HistoryEntry     `json:"history"`
	Status   Status             `json:"status"`
}

// NewState builds the opening snapshot from the factory roster.
func NewState(m Metrics, roster []citizens.Citizen) State {
	own := make([]citizens.Citizen, len(roster))
	copy(own, roster)
	return State{
		Metrics:  m,
		Citizens: own,
		History:  []HistoryEntry{},
		Status:   Playing,
	}
}

// Over reports whether the session has reached a terminal status.
func (s State) Over() bool {
	return s.Status != Playing
}
