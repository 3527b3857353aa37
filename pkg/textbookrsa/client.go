package textbookrsa

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Client provides a high-level API over the search strategies and the key
// pipeline.
type Client struct {
	strategy       SearchStrategy
	exponent       *big.Int
	maxKeyAttempts int
	logger         *zap.Logger
	metrics        *Metrics
}

// NewClient creates a new client with default settings: a race search over
// crypto/rand, public exponent 7 and 64 key generation attempts.
func NewClient() *Client {
	return &Client{
		strategy:       NewRaceStrategy(NewCryptoFactory()),
		exponent:       big.NewInt(DefaultPublicExponent),
		maxKeyAttempts: DefaultMaxKeyAttempts,
		logger:         zap.NewNop(),
	}
}

// WithStrategy sets a custom search strategy.
func (c *Client) WithStrategy(strategy SearchStrategy) *Client {
	c.strategy = strategy
	return c
}

// WithExponent sets the public exponent.
func (c *Client) WithExponent(e int64) *Client {
	c.exponent = big.NewInt(e)
	return c
}

// WithMaxKeyAttempts bounds the prime pairs tried per key generation.
func (c *Client) WithMaxKeyAttempts(n int) *Client {
	c.maxKeyAttempts = n
	return c
}

// WithLogger sets the logger used by the key pipeline.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = logger
	return c
}

// WithMetrics sets the metrics sink used by the key pipeline.
func (c *Client) WithMetrics(m *Metrics) *Client {
	c.metrics = m
	return c
}

// Strategy returns the configured search strategy.
func (c *Client) Strategy() SearchStrategy {
	return c.strategy
}

// FindPrime runs one search with the configured strategy.
func (c *Client) FindPrime(ctx context.Context, bits int) (*SearchResult, error) {
	return c.strategy.Search(ctx, bits)
}

// GenerateKeyPair generates key material from two primes of the given width.
func (c *Client) GenerateKeyPair(ctx context.Context, bits int) (*KeyMaterial, error) {
	return GenerateKeyMaterial(ctx, c.strategy, bits, c.exponent, c.maxKeyAttempts, c.logger, c.metrics)
}

// Ciphertext is the result of encrypting a text message.
type Ciphertext struct {
	Plain    string   // Original message
	PlainInt *big.Int // Little-endian integer encoding of Plain
	Cipher   *big.Int // PlainInt^e mod n
}

// EncryptMessage encrypts a text message with pub.
func (c *Client) EncryptMessage(message string, pub *PublicKey) (*Ciphertext, error) {
	m := MessageToInt([]byte(message))
	ct, err := EncryptInt(m, pub)
	if err != nil {
		return nil, err
	}
	return &Ciphertext{Plain: message, PlainInt: m, Cipher: ct}, nil
}

// DecryptMessage decrypts a ciphertext integer back to text.
func (c *Client) DecryptMessage(ciphertext *big.Int, priv *PrivateKey) (string, error) {
	m, err := DecryptInt(ciphertext, priv)
	if err != nil {
		return "", err
	}
	return string(IntToMessage(m)), nil
}

// Transcript records every value produced by RoundTrip.
type Transcript struct {
	P, Q       *big.Int
	Public     *PublicKey
	Message    string
	MessageInt *big.Int
	Cipher     *big.Int
	CipherText []byte // little-endian bytes of Cipher
	DecodedInt *big.Int
	Decoded    string
}

// RoundTrip generates a key pair, encrypts message and decrypts it again.
func (c *Client) RoundTrip(ctx context.Context, bits int, message string) (*Transcript, error) {
	km, err := c.GenerateKeyPair(ctx, bits)
	if err != nil {
		return nil, err
	}

	t := &Transcript{
		P:       new(big.Int).Set(km.P),
		Q:       new(big.Int).Set(km.Q),
		Message: message,
	}
	pub, priv := km.Split()
	t.Public = pub

	ct, err := c.EncryptMessage(message, pub)
	if err != nil {
		return nil, errors.WithMessagef(err, "message of %d bytes", len(message))
	}
	t.MessageInt = ct.PlainInt
	t.Cipher = ct.Cipher
	t.CipherText = IntToMessage(ct.Cipher)

	t.DecodedInt, err = DecryptInt(ct.Cipher, priv)
	if err != nil {
		return nil, err
	}
	t.Decoded = string(IntToMessage(t.DecodedInt))

	c.logger.Debug("completed round trip",
		zap.Int("modulus_bits", pub.N.BitLen()),
		zap.Bool("match", t.Decoded == message))

	return t, nil
}
