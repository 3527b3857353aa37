package textbookrsa

import (
	"math/big"
)

// DefaultRounds is the reference Miller-Rabin round count.
const DefaultRounds = 10

// PrimalityTester decides whether a candidate is probably prime.
type PrimalityTester interface {
	// ProbablyPrime returns false when n is definitely composite and true
	// when n survived every round of the test.
	ProbablyPrime(n *big.Int) bool

	// Name returns a human-readable name for this tester.
	Name() string
}

// MillerRabin is the randomized Miller-Rabin witness test. A composite
// survives Rounds rounds with probability at most 4^-Rounds.
type MillerRabin struct {
	Rounds int
	Source RandSource // witness source, never shared with candidate sampling
}

// NewMillerRabin creates a tester drawing witnesses from src.
func NewMillerRabin(rounds int, src RandSource) *MillerRabin {
	return &MillerRabin{Rounds: rounds, Source: src}
}

// Name implements PrimalityTester.
func (mr *MillerRabin) Name() string {
	return "MillerRabin"
}

// ProbablyPrime implements PrimalityTester.
func (mr *MillerRabin) ProbablyPrime(n *big.Int) bool {
	// Degenerate inputs are settled before the witness range [2, n-2] is
	// built, which is empty for n <= 3.
	switch {
	case n.Cmp(two) < 0:
		return false
	case n.Cmp(big.NewInt(3)) <= 0:
		return true
	case n.Bit(0) == 0:
		return false
	}

	nMinusOne := new(big.Int).Sub(n, one)
	s, q := splitPowerOfTwo(nMinusOne)

	rounds := mr.Rounds
	if rounds < 1 {
		rounds = 1
	}

	for i := 0; i < rounds; i++ {
		// Witness a in [2, n-2]
		a := mr.Source.Range(two, nMinusOne)
		if !millerRabinRound(n, nMinusOne, a, q, s) {
			return false
		}
	}
	return true
}

// splitPowerOfTwo factors m = 2^s * q with q odd. m must be positive.
func splitPowerOfTwo(m *big.Int) (int, *big.Int) {
	s := int(m.TrailingZeroBits())
	return s, new(big.Int).Rsh(m, uint(s))
}

// millerRabinRound reports whether witness a leaves n inconclusive.
func millerRabinRound(n, nMinusOne, a, q *big.Int, s int) bool {
	x := new(big.Int).Exp(a, q, n)
	if x.Cmp(one) == 0 || x.Cmp(nMinusOne) == 0 {
		return true
	}
	for j := 1; j < s; j++ {
		x.Mul(x, x)
		x.Mod(x, n)
		if x.Cmp(nMinusOne) == 0 {
			return true
		}
		// Once the sequence hits 1 it can never reach n-1.
		if x.Cmp(one) == 0 {
			return false
		}
	}
	return false
}
