package world

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/neo-haven/internal/entropy"
)

const (
	// ReliefAmplitude bounds the ground undulation of a district base.
	ReliefAmplitude = 0.05

	reliefFrequency   = 1.3
	reliefOctaves     = 3
	reliefPersistence = 0.5
)

// Relief returns the ground offset at local (x, z) of d, within
// ±ReliefAmplitude. The noise seed is derived from the district label, so the
// terrain is as stable as the buildings.
func Relief(d District, x, z float64) float64 {
	return sampleRelief(reliefNoise(d), x, z)
}

// Heightmap samples Relief on an n×n grid spanning the district base.
// Rows run along z, columns along x. n < 2 yields nil.
func Heightmap(d District, n int) [][]float64 {
	if n < 2 {
		return nil
	}
	noise := reliefNoise(d)
	w, depth := d.BaseSize[0], d.BaseSize[2]
	grid := make([][]float64, n)
	for row := 0; row < n; row++ {
		grid[row] = make([]float64, n)
		z := -depth/2 + depth*float64(row)/float64(n-1)
		for col := 0; col < n; col++ {
			x := -w/2 + w*float64(col)/float64(n-1)
			grid[row][col] = sampleRelief(noise, x, z)
		}
	}
	return grid
}

func reliefNoise(d District) opensimplex.Noise {
	seed := int64(entropy.Hash(d.Label+"-relief") * (1 << 53))
	return opensimplex.NewNormalized(seed)
}

func sampleRelief(noise opensimplex.Noise, x, z float64) float64 {
	v := octaveNoise(noise, x, z, reliefOctaves, reliefFrequency, reliefPersistence)
	return (v*2 - 1) * ReliefAmplitude
}

// octaveNoise layers several frequencies of noise; the result stays in [0, 1).
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
