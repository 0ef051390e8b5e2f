// Package social aggregates the roster into per-district readouts.
package social

import "github.com/talgya/neo-haven/internal/citizens"

// Filter narrows the roster before aggregation. Zero fields match everyone.
type Filter struct {
	Class    citizens.Class
	Politics citizens.Politics
}

func (f Filter) match(c citizens.Citizen) bool {
	if f.Class != "" && c.Class != f.Class {
		return false
	}
	if f.Politics != "" && c.Politics != f.Politics {
		return false
	}
	return true
}

// Summary describes the citizens of one district that passed the filter.
// The means and the dominant leaning are nil when Count is zero.
type Summary struct {
	District         citizens.Neighborhood `json:"district"`
	Count            int                   `json:"count"`
	MeanHappiness    *float64              `json:"mean_happiness"`
	MeanWealth       *float64              `json:"mean_wealth"`
	DominantPolitics *citizens.Politics    `json:"dominant_politics"`
	LatestThought    string                `json:"latest_thought,omitempty"`
}

// Summarize aggregates the citizens of district in roster that match f.
// The dominant leaning is the most common one; ties go to the leaning that
// appears first in roster order. LatestThought is the first match's.
func Summarize(roster []citizens.Citizen, district citizens.Neighborhood, f Filter) Summary {
	s := Summary{District: district}

	var happiness, wealth float64
	counts := make(map[citizens.Politics]int)
	var order []citizens.Politics
	for _, c := range roster {
		if c.Neighborhood != district || !f.match(c) {
			continue
		}
		if s.Count == 0 {
			s.LatestThought = c.LastThought
		}
		s.Count++
		happiness += c.Happiness
		wealth += c.Wealth
		if counts[c.Politics] == 0 {
			order = append(order, c.Politics)
		}
		counts[c.Politics]++
	}
	if s.Count == 0 {
		return s
	}

	mh := happiness / float64(s.Count)
	mw := wealth / float64(s.Count)
	s.MeanHappiness = &mh
	s.MeanWealth = &mw

	dominant := order[0]
	for _, p := range order[1:] {
		if counts[p] > counts[dominant] {
			dominant = p
		}
	}
	s.DominantPolitics = &dominant
	return s
}

// SummarizeAll returns one Summary per district in citizens.Neighborhoods order.
func SummarizeAll(roster []citizens.Citizen, f Filter) []Summary {
	out := make([]Summary, 0, len(citizens.Neighborhoods))
	for _, n := range citizens.Neighborhoods {
		out = append(out, Summarize(roster, n, f))
	}
	return out
}
