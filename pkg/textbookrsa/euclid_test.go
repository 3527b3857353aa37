package textbookrsa

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtendedEuclid_BezoutIdentity(t *testing.T) {
	cases := []struct {
		a, b int64
		gcd  int64
	}{
		{240, 46, 2},
		{46, 240, 2},
		{3120, 7, 1},
		{7, 3120, 1},
		{17, 1, 1},
		{1, 17, 1},
		{99, 78, 3},
		{1071, 462, 21},
		{12, 0, 12},
		{1000000007, 998244353, 1},
	}

	for _, tc := range cases {
		a, b := big.NewInt(tc.a), big.NewInt(tc.b)
		x, y, g := ExtendedEuclid(a, b)

		lhs := new(big.Int).Mul(a, x)
		lhs.Add(lhs, new(big.Int).Mul(b, y))

		assert.Equal(t, 0, lhs.Cmp(g), "a*x + b*y != g for (%d, %d)", tc.a, tc.b)
		assert.Equal(t, tc.gcd, g.Int64(), "gcd(%d, %d)", tc.a, tc.b)
		assert.Equal(t, 0, g.Cmp(new(big.Int).GCD(nil, nil, a, b)), "gcd mismatch for (%d, %d)", tc.a, tc.b)
	}
}

func TestExtendedEuclid_LargeCoprimes(t *testing.T) {
	src := NewSeededSource(42)
	for i := 0; i < 50; i++ {
		a := src.Bits(512)
		b := src.Bits(384)
		if b.Sign() == 0 {
			continue
		}
		x, y, g := ExtendedEuclid(a, b)

		lhs := new(big.Int).Mul(a, x)
		lhs.Add(lhs, new(big.Int).Mul(b, y))
		require.Equal(t, 0, lhs.Cmp(g))
		require.Equal(t, 0, g.Cmp(new(big.Int).GCD(nil, nil, a, b)))
	}
}

func TestExtendedEuclid_DoesNotMutateInputs(t *testing.T) {
	a, b := big.NewInt(3120), big.NewInt(7)
	ExtendedEuclid(a, b)
	assert.Equal(t, int64(3120), a.Int64())
	assert.Equal(t, int64(7), b.Int64())
}

func TestModInverse(t *testing.T) {
	d, err := ModInverse(big.NewInt(7), big.NewInt(3120))
	require.NoError(t, err)
	assert.Equal(t, int64(1783), d.Int64())

	// The raw coefficient here is negative and must be normalized.
	_, y, _ := ExtendedEuclid(big.NewInt(3120), big.NewInt(7))
	assert.Equal(t, -1, y.Sign())
}

func TestModInverse_RangeAndIdentity(t *testing.T) {
	src := NewSeededSource(7)
	e := big.NewInt(65537)
	for i := 0; i < 50; i++ {
		m := src.Bits(256)
		m.SetBit(m, 255, 1)

		d, err := ModInverse(e, m)
		if errors.Is(err, ErrNotInvertible) {
			continue
		}
		require.NoError(t, err)
		require.True(t, d.Sign() >= 0 && d.Cmp(m) < 0, "d out of [0, m)")

		ed := new(big.Int).Mul(e, d)
		require.Equal(t, int64(1), ed.Mod(ed, m).Int64())
	}
}

func TestModInverse_NotInvertible(t *testing.T) {
	_, err := ModInverse(big.NewInt(7), big.NewInt(7*480))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotInvertible))

	_, err = ModInverse(big.NewInt(6), big.NewInt(9))
	assert.True(t, errors.Is(err, ErrNotInvertible))
}

func TestModInverse_InvalidModulus(t *testing.T) {
	_, err := ModInverse(big.NewInt(7), big.NewInt(0))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotInvertible))
}
