// Package entropy provides the injected random source used by every
// stochastic rule: dice, weather, river crossings, and unit identity.
// A fixed seed replays a battle exactly.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// Source is the random stream consumed by the simulation. *math/rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
	Read(p []byte) (int, error)
}

// New returns a seeded source. A zero seed draws one from crypto/rand.
func New(seed int64) *mrand.Rand {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return mrand.New(mrand.NewSource(seed))
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; fall back to a constant seed.
		return 1937
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// D6 rolls one six-sided die.
func D6(src Source) int {
	return src.Intn(6) + 1
}

// Roll2D6 rolls two independent dice.
func Roll2D6(src Source) (int, int) {
	return D6(src), D6(src)
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}
