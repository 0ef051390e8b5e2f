package entropy

import "testing"

func TestCryptoFloatRange(t *testing.T) {
	for i := 0; i < 1000; i++ {
		if v := CryptoFloat(); v < 0 || v >= 1 {
			t.Fatalf("CryptoFloat out of range: %v", v)
		}
	}
}

func TestSessionRandStreamsDiffer(t *testing.T) {
	a := NewSessionRand()
	b := NewSessionRand()
	same := 0
	for i := 0; i < 8; i++ {
		if a.Int63() == b.Int63() {
			same++
		}
	}
	if same == 8 {
		t.Fatal("two session generators produced identical streams")
	}
}

func TestCryptoSeedNonNegative(t *testing.T) {
	for i := 0; i < 100; i++ {
		if s := CryptoSeed(); s < 0 {
			t.Fatalf("CryptoSeed returned negative %d", s)
		}
	}
}
