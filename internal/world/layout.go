// Procedural layout. Products are wrapped in float64() so the compiler
// cannot fuse them into FMA instructions; geometry stays bit-identical
// across architectures.
package world

import (
	"fmt"
	"math"

	"github.com/talgya/neo-haven/internal/citizens"
	"github.com/talgya/neo-haven/internal/entropy"
)

// Building is one procedurally placed box, positioned relative to its
// district's origin. Position.Y is half the height so the box sits on the base.
type Building struct {
	Index    int        `json:"index"`
	Position [3]float64 `json:"position"`
	Size     [3]float64 `json:"size"` // width, height, depth
}

// Anchor is a citizen's starting offset relative to its district's origin.
type Anchor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Placement is a citizen positioned for rendering.
type Placement struct {
	CitizenID string        `json:"citizen_id"`
	Anchor    Anchor        `json:"anchor"`
	Phase     float64       `json:"phase"`
	Mood      citizens.Mood `json:"mood"`
}

// Layout is the full derived geometry of one district.
type Layout struct {
	District  District    `json:"district"`
	Buildings []Building  `json:"buildings"`
	Citizens  []Placement `json:"citizens"`
}

const (
	buildingMargin = 0.5
	anchorMargin   = 0.8
	anchorLift     = 0.1
)

// BuildingsFor derives d.BuildingCount buildings from seeds of the form
// "<label>-bldg-<index><role>" with roles w, d, h, x and z.
func BuildingsFor(d District) []Building {
	out := make([]Building, 0, max(d.BuildingCount, 0))
	for i := 0; i < d.BuildingCount; i++ {
		seed := fmt.Sprintf("%s-bldg-%d", d.Label, i)
		rw := entropy.Hash(seed + "w")
		rd := entropy.Hash(seed + "d")
		rh := entropy.Hash(seed + "h")
		rx := entropy.Hash(seed + "x")
		rz := entropy.Hash(seed + "z")

		w := 0.3 + float64(rw*0.4)
		depth := 0.3 + float64(rd*0.4)
		h := d.MinHeight + float64(rh*(d.MaxHeight-d.MinHeight))
		x := float64((rx - 0.5) * (d.BaseSize[0] - buildingMargin))
		z := float64((rz - 0.5) * (d.BaseSize[2] - buildingMargin))

		out = append(out, Building{
			Index:    i,
			Position: [3]float64{x, h / 2, z},
			Size:     [3]float64{w, h, depth},
		})
	}
	return out
}

// AnchorFor derives a citizen's starting offset from seeds "<id>x" and "<id>z".
// The same id always lands on the same spot of the same district.
func AnchorFor(citizenID string, d District) Anchor {
	rx := entropy.Hash(citizenID + "x")
	rz := entropy.Hash(citizenID + "z")
	return Anchor{
		X: float64((rx - 0.5) * (d.BaseSize[0] - anchorMargin)),
		Y: anchorLift,
		Z: float64((rz - 0.5) * (d.BaseSize[2] - anchorMargin)),
	}
}

// PhaseFor is the citizen's idle-animation phase in [0, 2π).
func PhaseFor(citizenID string) float64 {
	return float64(entropy.Hash(citizenID) * 2 * math.Pi)
}

// LayoutFor derives the buildings of d and the placement of every citizen in
// roster that lives there, in roster order.
func LayoutFor(d District, roster []citizens.Citizen) Layout {
	l := Layout{
		District:  d,
		Buildings: BuildingsFor(d),
		Citizens:  []Placement{},
	}
	for _, c := range roster {
		if c.Neighborhood != d.ID {
			continue
		}
		l.Citizens = append(l.Citizens, Placement{
			CitizenID: c.ID,
			Anchor:    AnchorFor(c.ID, d),
			Phase:     PhaseFor(c.ID),
			Mood:      citizens.MoodOf(c.Happiness),
		})
	}
	return l
}
