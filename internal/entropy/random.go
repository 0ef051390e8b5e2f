// Package entropy provides the two randomness sources of the simulation.
// Session randomness (crypto-seeded math/rand) is drawn once for things that
// never need replaying, such as the initial citizen roster. Hash is a pure
// string-to-unit-interval function for anything re-derived on every render.
// The two must never be substituted for each other.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// NewSessionRand returns a generator seeded from crypto/rand. Each call
// yields an independent, non-replayable stream.
func NewSessionRand() *mrand.Rand {
	return mrand.New(mrand.NewSource(CryptoSeed()))
}

// CryptoSeed returns a seed read from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
}

// CryptoFloat returns a uniform float64 in [0, 1) from crypto/rand.
func CryptoFloat() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0.5
	}
	// 53 bits for a uniform float64.
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}
