package textbookrsa

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeededSource_Deterministic(t *testing.T) {
	a, b := NewSeededSource(6678235), NewSeededSource(6678235)
	for i := 0; i < 20; i++ {
		require.Equal(t, 0, a.Bits(256).Cmp(b.Bits(256)))
	}

	c := NewSeededSource(6678236)
	assert.NotEqual(t, 0, NewSeededSource(6678235).Bits(256).Cmp(c.Bits(256)))
}

func TestSeededSource_BitsBound(t *testing.T) {
	src := NewSeededSource(3)
	for _, bits := range []int{1, 2, 7, 64, 255} {
		limit := new(big.Int).Lsh(one, uint(bits))
		for i := 0; i < 50; i++ {
			v := src.Bits(bits)
			require.True(t, v.Sign() >= 0 && v.Cmp(limit) < 0, "%s out of [0, 2^%d)", v, bits)
		}
	}
	assert.Equal(t, 0, src.Bits(0).Sign())
}

func TestSources_RangeBounds(t *testing.T) {
	lo, hi := big.NewInt(2), big.NewInt(10)

	for name, src := range map[string]RandSource{
		"seeded": NewSeededSource(8),
		"crypto": NewCryptoSource(),
	} {
		seen := make(map[int64]bool)
		for i := 0; i < 400; i++ {
			v := src.Range(lo, hi)
			require.True(t, v.Cmp(lo) >= 0 && v.Cmp(hi) < 0, "%s: %s out of [2, 10)", name, v)
			seen[v.Int64()] = true
		}
		assert.Len(t, seen, 8, name)
	}
}

func TestSources_EmptyRangePanics(t *testing.T) {
	assert.Panics(t, func() { NewSeededSource(1).Range(big.NewInt(5), big.NewInt(5)) })
	assert.Panics(t, func() { NewCryptoSource().Range(big.NewInt(5), big.NewInt(4)) })
}

func TestCryptoSource_Bits(t *testing.T) {
	src := NewCryptoSource()
	limit := new(big.Int).Lsh(one, 128)
	for i := 0; i < 20; i++ {
		v := src.Bits(128)
		require.True(t, v.Sign() >= 0 && v.Cmp(limit) < 0)
	}
}

func TestDeriveSeed_Distinct(t *testing.T) {
	seen := make(map[int64]string)
	for _, stream := range []int{candidateStream, witnessStream} {
		for worker := 0; worker < 64; worker++ {
			s := DeriveSeed(6678235, stream, worker)
			key := fmt.Sprintf("%d/%d", stream, worker)
			prev, dup := seen[s]
			require.False(t, dup, "seed collision between %s and %s", prev, key)
			seen[s] = key
		}
	}

	assert.Equal(t, DeriveSeed(1, candidateStream, 3), DeriveSeed(1, candidateStream, 3))
	assert.NotEqual(t, DeriveSeed(1, candidateStream, 3), DeriveSeed(2, candidateStream, 3))
}

func TestSeededFactory_CachesSources(t *testing.T) {
	f := NewSeededFactory(42)
	assert.Equal(t, int64(42), f.Seed())

	assert.Same(t, f.Candidates(0), f.Candidates(0))
	assert.Same(t, f.Witnesses(3), f.Witnesses(3))
	assert.NotSame(t, f.Candidates(0), f.Witnesses(0))
	assert.NotSame(t, f.Candidates(0), f.Candidates(1))
}

func TestSeededFactory_MatchesDerivedSeeds(t *testing.T) {
	f := NewSeededFactory(99)
	for w := 0; w < 4; w++ {
		want := NewSeededSource(DeriveSeed(99, candidateStream, w)).Bits(512)
		got := f.Candidates(w).Bits(512)
		require.Equal(t, 0, want.Cmp(got), "worker %d", w)

		want = NewSeededSource(DeriveSeed(99, witnessStream, w)).Bits(512)
		got = f.Witnesses(w).Bits(512)
		require.Equal(t, 0, want.Cmp(got), "worker %d", w)
	}
}

func TestSampleCandidate(t *testing.T) {
	src := NewSeededSource(17)
	rejected := 0
	for i := 0; i < 500; i++ {
		c := sampleCandidate(src, 64, true)
		if c == nil {
			rejected++
			continue
		}
		require.Equal(t, 64, c.BitLen())
		require.Equal(t, uint(1), c.Bit(0))
	}
	// Roughly half of all draws are even.
	assert.Greater(t, rejected, 150)
	assert.Less(t, rejected, 350)

	// Two-bit exact-width candidates are 2 or 3, and only 3 survives.
	src = NewSeededSource(4)
	for i := 0; i < 50; i++ {
		if c := sampleCandidate(src, 2, true); c != nil {
			require.Equal(t, int64(3), c.Int64())
		}
	}
}
