package textbookrsa

import (
	"context"
	"math/big"
	"time"
)

// SearchStrategy defines the interface for prime search strategies.
// Implement this interface to plug a custom search into a Client.
type SearchStrategy interface {
	// Search returns a probable prime of the given bit width.
	// The context can be used for cancellation between trials.
	Search(ctx context.Context, bits int) (*SearchResult, error)

	// Name returns a human-readable name for this strategy.
	Name() string
}

// SearchResult contains the outcome of one prime search.
type SearchResult struct {
	Prime    *big.Int      // Probable prime
	Trials   int64         // Candidates drawn, including the winner
	Worker   int           // Index of the worker that published Prime
	Strategy string        // Name of the strategy that ran the search
	Elapsed  time.Duration // Wall time of the search
}

// SearchConfig configures a prime search.
type SearchConfig struct {
	// Rounds is the Miller-Rabin round count per candidate.
	Rounds int

	// Workers is the number of race workers (ignored by the sequential strategy).
	Workers int

	// MaxTrials bounds the number of candidates drawn per search.
	MaxTrials int64

	// ExactWidth forces the top bit so every candidate has exactly the requested width.
	ExactWidth bool
}

// Reference values for the search.
const (
	DefaultWorkers   = 12
	DefaultMaxTrials = 1 << 20
)

// DefaultSearchConfig returns the reference configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		Rounds:     DefaultRounds,
		Workers:    DefaultWorkers,
		MaxTrials:  DefaultMaxTrials,
		ExactWidth: true,
	}
}

// TesterFactory builds the primality tester used by one worker.
type TesterFactory func(worker int) PrimalityTester

// sampleCandidate draws one candidate of the given width and applies the
// sampling-boundary precondition: even numbers and numbers below 3 never
// reach a tester. It returns nil for a rejected draw.
func sampleCandidate(src RandSource, bits int, exactWidth bool) *big.Int {
	c := src.Bits(bits)
	if exactWidth {
		c.SetBit(c, bits-1, 1)
	}
	if c.Bit(0) == 0 || c.Cmp(big.NewInt(3)) < 0 {
		return nil
	}
	return c
}
