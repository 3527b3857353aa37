package textbookrsa

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Reference values for key generation.
const (
	DefaultPublicExponent = 7
	DefaultMaxKeyAttempts = 64
)

// PublicKey is the (n, e) half of a key pair.
type PublicKey struct {
	N *big.Int // modulus
	E *big.Int // public exponent
}

// PrivateKey is the (n, d) half of a key pair.
type PrivateKey struct {
	N *big.Int // modulus
	D *big.Int // private exponent
}

// KeyMaterial holds everything key generation computed. P, Q and PhiN are
// secret and only needed until D is derived; call Wipe or Split once they
// are no longer needed.
type KeyMaterial struct {
	P    *big.Int
	Q    *big.Int
	N    *big.Int // P*Q
	PhiN *big.Int // (P-1)*(Q-1)
	E    *big.Int
	D    *big.Int // E^-1 mod PhiN, in [0, PhiN)
}

// Public returns the public key.
func (km *KeyMaterial) Public() *PublicKey {
	return &PublicKey{N: new(big.Int).Set(km.N), E: new(big.Int).Set(km.E)}
}

// Private returns the private key.
func (km *KeyMaterial) Private() *PrivateKey {
	return &PrivateKey{N: new(big.Int).Set(km.N), D: new(big.Int).Set(km.D)}
}

// Wipe zeroes and drops P, Q and PhiN.
func (km *KeyMaterial) Wipe() {
	for _, v := range []*big.Int{km.P, km.Q, km.PhiN} {
		if v != nil {
			v.SetInt64(0)
		}
	}
	km.P, km.Q, km.PhiN = nil, nil, nil
}

// Split returns both keys and wipes the factorization.
func (km *KeyMaterial) Split() (*PublicKey, *PrivateKey) {
	pub, priv := km.Public(), km.Private()
	km.Wipe()
	return pub, priv
}

// Validate checks the key material invariants: N = P*Q, PhiN = (P-1)(Q-1),
// E*D ≡ 1 (mod PhiN) and 0 <= D < PhiN. It needs the factorization, so it
// fails on wiped material.
func (km *KeyMaterial) Validate() error {
	if km.P == nil || km.Q == nil || km.PhiN == nil {
		return errors.New("key material has been wiped")
	}
	if new(big.Int).Mul(km.P, km.Q).Cmp(km.N) != 0 {
		return errors.New("modulus does not equal p*q")
	}
	phi := new(big.Int).Mul(new(big.Int).Sub(km.P, one), new(big.Int).Sub(km.Q, one))
	if phi.Cmp(km.PhiN) != 0 {
		return errors.New("totient does not equal (p-1)(q-1)")
	}
	if km.D.Sign() < 0 || km.D.Cmp(km.PhiN) >= 0 {
		return errors.New("private exponent out of range [0, phi)")
	}
	ed := new(big.Int).Mul(km.E, km.D)
	if ed.Mod(ed, km.PhiN).Cmp(one) != 0 {
		return errors.New("e*d is not 1 modulo phi")
	}
	return nil
}

// ValidateExponent checks that e can serve as a public exponent.
func ValidateExponent(e *big.Int) error {
	if e == nil || e.Cmp(big.NewInt(3)) < 0 || e.Bit(0) == 0 {
		return errors.Wrapf(ErrInvalidExponent, "got %v", e)
	}
	return nil
}

// ValidatePrivateExponent checks that d can serve as a private exponent.
func ValidatePrivateExponent(d *big.Int) error {
	if d == nil || d.Sign() <= 0 {
		return errors.Wrapf(ErrInvalidPrivateExponent, "got %v", d)
	}
	return nil
}

// GenerateKeyMaterial searches two primes of the given width with strategy
// and derives the private exponent for e.
//
// When gcd(e, phi) != 1 or the two primes coincide, both primes are
// discarded and the pair is resampled; this happens at most maxAttempts
// times before ErrKeygenExhausted is returned. Search errors are returned
// unchanged.
func GenerateKeyMaterial(
	ctx context.Context,
	strategy SearchStrategy,
	bits int,
	e *big.Int,
	maxAttempts int,
	logger *zap.Logger,
	m *Metrics,
) (*KeyMaterial, error) {
	if err := ValidateExponent(e); err != nil {
		return nil, err
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxKeyAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p, err := strategy.Search(ctx, bits)
		if err != nil {
			return nil, errors.WithMessage(err, "searching p")
		}
		q, err := strategy.Search(ctx, bits)
		if err != nil {
			return nil, errors.WithMessage(err, "searching q")
		}

		if p.Prime.Cmp(q.Prime) == 0 {
			logger.Debug("discarding equal primes", zap.Int("attempt", attempt))
			m.Retried("equal_primes")
			continue
		}

		n := new(big.Int).Mul(p.Prime, q.Prime)
		phi := new(big.Int).Mul(
			new(big.Int).Sub(p.Prime, one),
			new(big.Int).Sub(q.Prime, one),
		)

		d, err := ModInverse(e, phi)
		if errors.Is(err, ErrNotInvertible) {
			logger.Debug("exponent shares a factor with phi, resampling",
				zap.Int("attempt", attempt),
				zap.String("e", e.String()))
			m.Retried("not_invertible")
			continue
		}
		if err != nil {
			return nil, err
		}

		logger.Info("generated key material",
			zap.Int("prime_bits", bits),
			zap.Int("modulus_bits", n.BitLen()),
			zap.Int("attempts", attempt))

		return &KeyMaterial{
			P:    p.Prime,
			Q:    q.Prime,
			N:    n,
			PhiN: phi,
			E:    new(big.Int).Set(e),
			D:    d,
		}, nil
	}

	return nil, errors.Wrapf(ErrKeygenExhausted, "%d attempts", maxAttempts)
}
