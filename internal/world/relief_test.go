package world

import (
	"testing"

	"github.com/talgya/neo-haven/internal/citizens"
)

func TestReliefBounded(t *testing.T) {
	for _, d := range Districts {
		for x := -2.0; x <= 2.0; x += 0.25 {
			for z := -1.5; z <= 1.5; z += 0.25 {
				v := Relief(d, x, z)
				if v < -ReliefAmplitude || v > ReliefAmplitude {
					t.Fatalf("%s: relief(%v, %v) = %v", d.ID, x, z, v)
				}
			}
		}
	}
}

func TestReliefDeterministic(t *testing.T) {
	d, _ := DistrictFor(citizens.Industrial)
	if Relief(d, 0.4, -0.7) != Relief(d, 0.4, -0.7) {
		t.Fatal("relief differs for identical inputs")
	}
}

func TestHeightmap(t *testing.T) {
	d, _ := DistrictFor(citizens.Downtown)
	if Heightmap(d, 1) != nil {
		t.Fatal("n < 2 should yield nil")
	}
	grid := Heightmap(d, 5)
	if len(grid) != 5 {
		t.Fatalf("got %d rows", len(grid))
	}
	for _, row := range grid {
		if len(row) != 5 {
			t.Fatalf("ragged row of %d", len(row))
		}
	}
	// Corner (0, 0) sits at (-w/2, -d/2).
	if grid[0][0] != Relief(d, -d.BaseSize[0]/2, -d.BaseSize[2]/2) {
		t.Fatal("heightmap corner does not match Relief")
	}
}
