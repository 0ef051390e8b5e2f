// Package citizens provides the citizen data model, the population factory
// and the per-turn population update rules.
package citizens

import "strings"

// Class is a citizen's economic standing.
type Class string

const (
	LowIncome   Class = "Low Income"
	MiddleClass Class = "Middle Class"
	Wealthy     Class = "Wealthy"
)

// Classes lists every class in declaration order.
var Classes = []Class{LowIncome, MiddleClass, Wealthy}

// Neighborhood is one of the four fixed districts. A citizen's neighborhood
// never changes after creation.
type Neighborhood string

const (
	Downtown   Neighborhood = "Downtown"
	Suburbs    Neighborhood = "Suburbs"
	Industrial Neighborhood = "Industrial Zone"
	Waterfront Neighborhood = "Waterfront"
)

// Neighborhoods lists every district in declaration order.
var Neighborhoods = []Neighborhood{Downtown, Suburbs, Industrial, Waterfront}

// Politics is a citizen's political leaning.
type Politics string

const (
	Liberal      Politics = "Liberal"
	Conservative Politics = "Conservative"
	Moderate     Politics = "Moderate"
	Apolitical   Politics = "Apolitical"
)

// Leanings lists every political leaning in declaration order.
var Leanings = []Politics{Liberal, Conservative, Moderate, Apolitical}

// Citizen is one simulated member of the population.
//
// ID, Name, Age, Occupation, Class, Neighborhood, Politics and Personality are
// fixed for the session. Happiness (0–100) and Wealth change every turn;
// LastThought and LastAction change only when the oracle samples the citizen.
type Citizen struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Age          int          `json:"age"`
	Occupation   string       `json:"occupation"`
	Class        Class        `json:"social_class"`
	Neighborhood Neighborhood `json:"neighborhood"`
	Politics     Politics     `json:"politics"`
	Personality  [2]string    `json:"personality"`

	Happiness   float64 `json:"happiness"`
	Wealth      float64 `json:"wealth"`
	LastThought string  `json:"last_thought"`
	LastAction  string  `json:"last_action"`
}

// ParseClass matches a class by value ("Low Income") or by a compact key
// ("low_income", "lowincome"), case-insensitively.
func ParseClass(s string) (Class, bool) {
	for _, c := range Classes {
		if matchName(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// ParseNeighborhood matches a district by value or compact key. "industrial"
// is accepted for the Industrial Zone.
func ParseNeighborhood(s string) (Neighborhood, bool) {
	for _, n := range Neighborhoods {
		if matchName(s, string(n)) {
			return n, true
		}
	}
	if matchName(s, "industrial") {
		return Industrial, true
	}
	return "", false
}

// ParsePolitics matches a leaning by value, case-insensitively.
func ParsePolitics(s string) (Politics, bool) {
	for _, p := range Leanings {
		if matchName(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

func matchName(input, name string) bool {
	return compact(input) != "" && compact(input) == compact(name)
}

func compact(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
