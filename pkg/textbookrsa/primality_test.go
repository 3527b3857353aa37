package textbookrsa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMillerRabin_SmallPrimes(t *testing.T) {
	for _, p := range []int64{2, 3, 5, 7, 11, 13, 97, 7919} {
		for _, rounds := range []int{1, 2, 10, 40} {
			mr := NewMillerRabin(rounds, NewSeededSource(p*int64(rounds)))
			assert.True(t, mr.ProbablyPrime(big.NewInt(p)), "%d with %d rounds", p, rounds)
		}
	}
}

func TestMillerRabin_KnownPrimes(t *testing.T) {
	known := loadKnownNumbers(t)
	mr := NewMillerRabin(DefaultRounds, NewSeededSource(1))

	for _, p := range known.Primes {
		assert.True(t, mr.ProbablyPrime(p), "%s should be probably prime", p)
	}
}

func TestMillerRabin_DegenerateInputs(t *testing.T) {
	mr := NewMillerRabin(DefaultRounds, NewSeededSource(1))

	for _, n := range []int64{-7, -1, 0, 1, 4, 6, 100, 1 << 40} {
		assert.False(t, mr.ProbablyPrime(big.NewInt(n)), "%d", n)
	}
}

func TestMillerRabin_KnownComposites(t *testing.T) {
	known := loadKnownNumbers(t)
	mr := NewMillerRabin(DefaultRounds, NewSeededSource(99))

	for _, c := range known.Composites {
		product := big.NewInt(1)
		for _, f := range c.Factors {
			product.Mul(product, f)
		}
		require.Equal(t, 0, product.Cmp(c.N), "fixture factorization of %s", c.N)

		assert.False(t, mr.ProbablyPrime(c.N), "%s should be composite", c.N)
	}
}

// A single round must catch an odd composite with probability at least 3/4.
func TestMillerRabin_SingleRoundErrorBound(t *testing.T) {
	known := loadKnownNumbers(t)
	const trials = 400

	for _, c := range known.Composites {
		passed := 0
		for seed := int64(0); seed < trials; seed++ {
			mr := NewMillerRabin(1, NewSeededSource(seed))
			if mr.ProbablyPrime(c.N) {
				passed++
			}
		}
		assert.LessOrEqual(t, passed, trials/4+40, "%s passed %d/%d single rounds", c.N, passed, trials)
	}
}

func TestMillerRabin_CurvePrimes(t *testing.T) {
	fieldP, orderN := secp256k1Primes()
	orderL := ed25519GroupOrder(t)
	p25519 := new(big.Int).Sub(new(big.Int).Lsh(one, 255), big.NewInt(19))

	mr := NewMillerRabin(DefaultRounds, NewSeededSource(2024))
	for name, p := range map[string]*big.Int{
		"secp256k1 field":  fieldP,
		"secp256k1 order":  orderN,
		"ed25519 order":    orderL,
		"curve25519 field": p25519,
	} {
		assert.True(t, mr.ProbablyPrime(p), name)
	}

	assert.False(t, mr.ProbablyPrime(new(big.Int).Mul(fieldP, orderN)), "product of two curve primes")
	assert.False(t, mr.ProbablyPrime(new(big.Int).Mul(orderL, orderL)), "square of ed25519 order")
	assert.False(t, mr.ProbablyPrime(new(big.Int).Add(orderN, two)), "secp256k1 order + 2")
}

func TestMillerRabin_ZeroRoundsRunsOne(t *testing.T) {
	mr := NewMillerRabin(0, NewSeededSource(5))
	assert.False(t, mr.ProbablyPrime(big.NewInt(9)))
	assert.True(t, mr.ProbablyPrime(big.NewInt(7919)))
}

func TestMillerRabin_AgreesWithMathBig(t *testing.T) {
	mr := NewMillerRabin(DefaultRounds, NewSeededSource(11))
	src := NewSeededSource(12)

	for i := 0; i < 300; i++ {
		n := src.Bits(64)
		n.SetBit(n, 0, 1)
		// ProbablyPrime is exact below 2^64.
		assert.Equal(t, n.ProbablyPrime(0), mr.ProbablyPrime(n), "%s", n)
	}
}

func TestSplitPowerOfTwo(t *testing.T) {
	s, q := splitPowerOfTwo(big.NewInt(560))
	assert.Equal(t, 4, s)
	assert.Equal(t, int64(35), q.Int64())

	s, q = splitPowerOfTwo(big.NewInt(7))
	assert.Equal(t, 0, s)
	assert.Equal(t, int64(7), q.Int64())
}

func TestMillerRabin_Name(t *testing.T) {
	assert.Equal(t, "MillerRabin", NewMillerRabin(1, NewCryptoSource()).Name())
}
