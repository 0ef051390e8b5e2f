package social

import (
	"testing"

	"github.com/talgya/neo-haven/internal/citizens"
)

func cit(id string, n citizens.Neighborhood, cl citizens.Class, p citizens.Politics, happy, wealth float64) citizens.Citizen {
	return citizens.Citizen{
		ID: id, Neighborhood: n, Class: cl, Politics: p,
		Happiness: happy, Wealth: wealth, LastThought: "thought of " + id,
	}
}

func fixture() []citizens.Citizen {
	return []citizens.Citizen{
		cit("citizen-1", citizens.Downtown, citizens.MiddleClass, citizens.Moderate, 60, 40000),
		cit("citizen-2", citizens.Downtown, citizens.MiddleClass, citizens.Liberal, 80, 42000),
		cit("citizen-3", citizens.Waterfront, citizens.Wealthy, citizens.Conservative, 70, 85000),
		cit("citizen-4", citizens.Downtown, citizens.MiddleClass, citizens.Liberal, 40, 44000),
		cit("citizen-5", citizens.Downtown, citizens.MiddleClass, citizens.Moderate, 20, 46000),
		cit("citizen-6", citizens.Industrial, citizens.LowIncome, citizens.Apolitical, 55, 15000),
	}
}

func TestSummarizeDistrict(t *testing.T) {
	s := Summarize(fixture(), citizens.Downtown, Filter{})
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4", s.Count)
	}
	if *s.MeanHappiness != 50 {
		t.Errorf("mean happiness = %v, want 50", *s.MeanHappiness)
	}
	if *s.MeanWealth != 43000 {
		t.Errorf("mean wealth = %v, want 43000", *s.MeanWealth)
	}
	// Moderate and Liberal tie at two; Moderate appears first.
	if *s.DominantPolitics != citizens.Moderate {
		t.Errorf("dominant = %s, want Moderate", *s.DominantPolitics)
	}
	if s.LatestThought != "thought of citizen-1" {
		t.Errorf("latest thought = %q", s.LatestThought)
	}
}

func TestSummarizeFilters(t *testing.T) {
	tests := []struct {
		name      string
		district  citizens.Neighborhood
		filter    Filter
		count     int
		dominant  citizens.Politics
		happiness float64
	}{
		{"politics", citizens.Downtown, Filter{Politics: citizens.Liberal}, 2, citizens.Liberal, 60},
		{"class", citizens.Waterfront, Filter{Class: citizens.Wealthy}, 1, citizens.Conservative, 70},
		{"both", citizens.Downtown, Filter{Class: citizens.MiddleClass, Politics: citizens.Moderate}, 2, citizens.Moderate, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(fixture(), tt.district, tt.filter)
			if s.Count != tt.count {
				t.Fatalf("count = %d, want %d", s.Count, tt.count)
			}
			if *s.DominantPolitics != tt.dominant {
				t.Errorf("dominant = %s, want %s", *s.DominantPolitics, tt.dominant)
			}
			if *s.MeanHappiness != tt.happiness {
				t.Errorf("mean happiness = %v, want %v", *s.MeanHappiness, tt.happiness)
			}
		})
	}
}

func TestSummarizeEmpty(t *testing.T) {
	cases := []struct {
		name   string
		roster []citizens.Citizen
		n      citizens.Neighborhood
		f      Filter
	}{
		{"nil roster", nil, citizens.Downtown, Filter{}},
		{"no residents", fixture(), citizens.Suburbs, Filter{}},
		{"filtered out", fixture(), citizens.Industrial, Filter{Class: citizens.Wealthy}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.roster, tt.n, tt.f)
			if s.Count != 0 || s.MeanHappiness != nil || s.MeanWealth != nil || s.DominantPolitics != nil {
				t.Fatalf("got %+v, want empty summary", s)
			}
			if s.District != tt.n {
				t.Fatalf("district = %s", s.District)
			}
		})
	}
}

func TestSummarizeDominantByCount(t *testing.T) {
	roster := []citizens.Citizen{
		cit("a", citizens.Suburbs, citizens.MiddleClass, citizens.Apolitical, 50, 1),
		cit("b", citizens.Suburbs, citizens.MiddleClass, citizens.Conservative, 50, 1),
		cit("c", citizens.Suburbs, citizens.MiddleClass, citizens.Conservative, 50, 1),
	}
	s := Summarize(roster, citizens.Suburbs, Filter{})
	if *s.DominantPolitics != citizens.Conservative {
		t.Fatalf("dominant = %s", *s.DominantPolitics)
	}
}

func TestSummarizeAll(t *testing.T) {
	all := SummarizeAll(fixture(), Filter{})
	if len(all) != len(citizens.Neighborhoods) {
		t.Fatalf("got %d summaries", len(all))
	}
	total := 0
	for i, s := range all {
		if s.District != citizens.Neighborhoods[i] {
			t.Errorf("summary %d is %s", i, s.District)
		}
		total += s.Count
	}
	if total != len(fixture()) {
		t.Fatalf("counted %d citizens, want %d", total, len(fixture()))
	}
}
