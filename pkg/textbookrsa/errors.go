package textbookrsa

import "github.com/pkg/errors"

var (
	// ErrNotInvertible is returned when the exponent shares a factor with the modulus.
	ErrNotInvertible = errors.New("value is not invertible modulo m")

	// ErrMessageTooLarge is returned when a message integer is not below the modulus.
	ErrMessageTooLarge = errors.New("message integer must be smaller than the modulus")

	// ErrNegativeMessage is returned for negative message or ciphertext integers.
	ErrNegativeMessage = errors.New("message integer must be non-negative")

	// ErrInvalidBitWidth is returned when a search is asked for fewer than 2 bits.
	ErrInvalidBitWidth = errors.New("bit width must be at least 2")

	// ErrInvalidExponent is returned for public exponents that are even or below 3.
	ErrInvalidExponent = errors.New("public exponent must be odd and at least 3")

	// ErrInvalidPrivateExponent is returned for private exponents that are not positive.
	ErrInvalidPrivateExponent = errors.New("private exponent must be positive")

	// ErrSearchExhausted is returned when a prime search hits its trial budget.
	ErrSearchExhausted = errors.New("prime search exhausted its trial budget")

	// ErrKeygenExhausted is returned when key generation runs out of attempts.
	ErrKeygenExhausted = errors.New("key generation exhausted its attempts")

	// ErrWorkerPanic is returned when a search worker panics. It is fatal.
	ErrWorkerPanic = errors.New("search worker panicked")

	// ErrNoPrivateExponent is returned when a key file carries no private exponent.
	ErrNoPrivateExponent = errors.New("key file has no private exponent")
)
