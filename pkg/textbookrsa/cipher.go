package textbookrsa

import (
	"math/big"

	"github.com/pkg/errors"
)

// MessageToInt maps msg to a non-negative integer, msg[0] being the least
// significant byte.
func MessageToInt(msg []byte) *big.Int {
	be := make([]byte, len(msg))
	for i, b := range msg {
		be[len(msg)-1-i] = b
	}
	return new(big.Int).SetBytes(be)
}

// IntToMessage is the inverse of MessageToInt for messages without trailing
// zero bytes: it returns the minimal little-endian encoding of m, which is
// empty for zero. m must be non-negative.
func IntToMessage(m *big.Int) []byte {
	be := m.Bytes()
	le := make([]byte, len(be))
	for i, b := range be {
		le[len(be)-1-i] = b
	}
	return le
}

// IntToSizedMessage returns the little-endian encoding of m padded with zero
// bytes to exactly size bytes. It fails when m needs more than size bytes.
func IntToSizedMessage(m *big.Int, size int) ([]byte, error) {
	le := IntToMessage(m)
	if len(le) > size {
		return nil, errors.Wrapf(ErrMessageTooLarge, "%d bytes do not fit in %d", len(le), size)
	}
	out := make([]byte, size)
	copy(out, le)
	return out, nil
}

// EncryptInt computes m^e mod n. m must lie in [0, n) and e must pass
// ValidateExponent.
func EncryptInt(m *big.Int, pub *PublicKey) (*big.Int, error) {
	if err := ValidateExponent(pub.E); err != nil {
		return nil, errors.WithMessage(err, "encrypt")
	}
	if err := checkRange(m, pub.N); err != nil {
		return nil, errors.WithMessage(err, "encrypt")
	}
	return new(big.Int).Exp(m, pub.E, pub.N), nil
}

// DecryptInt computes c^d mod n. c must lie in [0, n) and d must be positive.
func DecryptInt(c *big.Int, priv *PrivateKey) (*big.Int, error) {
	if err := ValidatePrivateExponent(priv.D); err != nil {
		return nil, errors.WithMessage(err, "decrypt")
	}
	if err := checkRange(c, priv.N); err != nil {
		return nil, errors.WithMessage(err, "decrypt")
	}
	return new(big.Int).Exp(c, priv.D, priv.N), nil
}

// Encrypt maps msg to an integer, encrypts it and returns the ciphertext
// integer's little-endian bytes.
func Encrypt(msg []byte, pub *PublicKey) ([]byte, error) {
	c, err := EncryptInt(MessageToInt(msg), pub)
	if err != nil {
		return nil, err
	}
	return IntToMessage(c), nil
}

// Decrypt is the inverse of Encrypt.
func Decrypt(ciphertext []byte, priv *PrivateKey) ([]byte, error) {
	m, err := DecryptInt(MessageToInt(ciphertext), priv)
	if err != nil {
		return nil, err
	}
	return IntToMessage(m), nil
}

// DecryptSized is Decrypt for a plaintext of known length. Trailing zero
// bytes of the original message are restored.
func DecryptSized(ciphertext []byte, priv *PrivateKey, size int) ([]byte, error) {
	m, err := DecryptInt(MessageToInt(ciphertext), priv)
	if err != nil {
		return nil, err
	}
	return IntToSizedMessage(m, size)
}

func checkRange(v, n *big.Int) error {
	if v.Sign() < 0 {
		return errors.Wrapf(ErrNegativeMessage, "got %s", v)
	}
	if v.Cmp(n) >= 0 {
		return errors.Wrapf(ErrMessageTooLarge, "%d-bit integer against %d-bit modulus", v.BitLen(), n.BitLen())
	}
	return nil
}
