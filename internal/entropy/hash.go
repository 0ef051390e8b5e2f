package entropy

import "unicode/utf16"

// Hash maps a seed string to a stable value in [0, 1).
//
// The seed's UTF-16 code units are folded into a 32-bit accumulator with
// h = h*31 + c, and the accumulator is passed through the murmur3 finalizer
// so that seeds differing in a single trailing character land far apart.
// Only integer arithmetic is involved, so results are bit-identical on every
// platform. Callers should pass compound seeds (label + index + role) rather
// than bare integers.
func Hash(seed string) float64 {
	var h uint32
	for _, c := range utf16.Encode([]rune(seed)) {
		h = h<<5 - h + uint32(c)
	}
	return float64(fmix32(h)) / (1 << 32)
}

func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
