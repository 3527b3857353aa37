package textbookrsa

import (
	"math/big"

	"github.com/pkg/errors"
)

var (
	zero = big.NewInt(0)
	one  = big.NewInt(1)
	two  = big.NewInt(2)
)

// ExtendedEuclid returns Bézout coefficients x, y and g = gcd(a, b) such that
// a*x + b*y = g.
//
// The quotient truncates toward zero, so g carries the sign the recurrence
// produces; it is positive whenever a and b are. The coefficients are not
// reduced: callers that want a modular inverse use ModInverse.
func ExtendedEuclid(a, b *big.Int) (x, y, g *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldX, curX := big.NewInt(1), big.NewInt(0)
	oldY, curY := big.NewInt(0), big.NewInt(1)

	q := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		q.Quo(oldR, r)

		// (old, cur) <- (cur, old - q*cur)
		tmp.Mul(q, r)
		oldR, r = r, new(big.Int).Sub(oldR, tmp)

		tmp.Mul(q, curX)
		oldX, curX = curX, new(big.Int).Sub(oldX, tmp)

		tmp.Mul(q, curY)
		oldY, curY = curY, new(big.Int).Sub(oldY, tmp)
	}

	return oldX, oldY, oldR
}

// ModInverse returns d in [0, m) with e*d ≡ 1 (mod m).
//
// It runs ExtendedEuclid on (m, e); the coefficient of e is the inverse once
// gcd(m, e) = 1. A negative coefficient is brought into range by adding m and
// reducing modulo m.
func ModInverse(e, m *big.Int) (*big.Int, error) {
	if m.Sign() <= 0 {
		return nil, errors.Errorf("modulus must be positive, got %s", m)
	}

	_, y, g := ExtendedEuclid(m, e)
	if g.CmpAbs(one) != 0 {
		return nil, errors.Wrapf(ErrNotInvertible, "gcd(%s, %s) = %s", e, m, g.Abs(g))
	}
	if g.Sign() < 0 {
		y.Neg(y)
	}

	d := new(big.Int).Add(y, m)
	d.Mod(d, m)
	return d, nil
}
