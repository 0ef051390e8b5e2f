// Package world derives district geometry and citizen placement from
// identity alone. Nothing here is stored: every call recomputes the same
// layout from the district label, building index or citizen id.
package world

import "github.com/talgya/neo-haven/internal/citizens"

// District holds the fixed layout constants of one neighborhood.
type District struct {
	ID            citizens.Neighborhood `json:"id"`
	Label         string                `json:"label"` // seed prefix for building hashes
	Position      [3]float64            `json:"position"`
	Color         string                `json:"color"`
	BuildingCount int                   `json:"building_count"`
	MinHeight     float64               `json:"min_height"`
	MaxHeight     float64               `json:"max_height"`
	BaseSize      [3]float64            `json:"base_size"` // width, thickness, depth
}

// Districts lists the four neighborhoods in render order.
var Districts = []District{
	{
		ID:            citizens.Downtown,
		Label:         "Downtown",
		Position:      [3]float64{0, 0, -2.5},
		Color:         "#6366f1",
		BuildingCount: 12,
		MinHeight:     1.5,
		MaxHeight:     4,
		BaseSize:      [3]float64{4, 0.2, 3},
	},
	{
		ID:            citizens.Industrial,
		Label:         "Industrial",
		Position:      [3]float64{-3.5, 0, 1.5},
		Color:         "#f97316",
		BuildingCount: 8,
		MinHeight:     0.5,
		MaxHeight:     1.5,
		BaseSize:      [3]float64{3, 0.2, 3},
	},
	{
		ID:            citizens.Suburbs,
		Label:         "Suburbs",
		Position:      [3]float64{3.5, 0, 1.5},
		Color:         "#10b981",
		BuildingCount: 16,
		MinHeight:     0.3,
		MaxHeight:     0.8,
		BaseSize:      [3]float64{3, 0.2, 3},
	},
	{
		ID:            citizens.Waterfront,
		Label:         "Waterfront",
		Position:      [3]float64{0, -0.2, 2.5},
		Color:         "#06b6d4",
		BuildingCount: 5,
		MinHeight:     1,
		MaxHeight:     2.5,
		BaseSize:      [3]float64{2.5, 0.2, 2},
	},
}

// DistrictFor returns the layout constants of a neighborhood.
func DistrictFor(n citizens.Neighborhood) (District, bool) {
	for _, d := range Districts {
		if d.ID == n {
			return d, true
		}
	}
	return District{}, false
}
