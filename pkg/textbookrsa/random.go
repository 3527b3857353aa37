package textbookrsa

import (
	crand "crypto/rand"
	"math/big"
	"math/rand"
	"sync"
)

// RandSource produces uniformly distributed non-negative integers.
type RandSource interface {
	// Bits returns a uniform integer in [0, 2^bits).
	Bits(bits int) *big.Int

	// Range returns a uniform integer in [lo, hi). It panics if hi <= lo.
	Range(lo, hi *big.Int) *big.Int
}

// SeededSource is a deterministic RandSource. It is not safe for concurrent use.
type SeededSource struct {
	rng *rand.Rand
}

// NewSeededSource creates a deterministic source from seed.
func NewSeededSource(seed int64) *SeededSource {
	return &SeededSource{rng: rand.New(rand.NewSource(seed))}
}

// Bits implements RandSource.
func (s *SeededSource) Bits(bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	limit := new(big.Int).Lsh(one, uint(bits))
	return new(big.Int).Rand(s.rng, limit)
}

// Range implements RandSource.
func (s *SeededSource) Range(lo, hi *big.Int) *big.Int {
	width := rangeWidth(lo, hi)
	v := new(big.Int).Rand(s.rng, width)
	return v.Add(v, lo)
}

// CryptoSource draws from crypto/rand. It is safe for concurrent use.
type CryptoSource struct{}

// NewCryptoSource returns a source backed by the operating system CSPRNG.
func NewCryptoSource() *CryptoSource {
	return &CryptoSource{}
}

// Bits implements RandSource.
func (CryptoSource) Bits(bits int) *big.Int {
	if bits <= 0 {
		return new(big.Int)
	}
	return cryptoInt(new(big.Int).Lsh(one, uint(bits)))
}

// Range implements RandSource.
func (CryptoSource) Range(lo, hi *big.Int) *big.Int {
	v := cryptoInt(rangeWidth(lo, hi))
	return v.Add(v, lo)
}

func cryptoInt(max *big.Int) *big.Int {
	v, err := crand.Int(crand.Reader, max)
	if err != nil {
		panic("textbookrsa: reading system randomness: " + err.Error())
	}
	return v
}

func rangeWidth(lo, hi *big.Int) *big.Int {
	width := new(big.Int).Sub(hi, lo)
	if width.Sign() <= 0 {
		panic("textbookrsa: empty random range [" + lo.String() + ", " + hi.String() + ")")
	}
	return width
}

// Stream identifiers mixed into per-worker seeds.
const (
	candidateStream = 1
	witnessStream   = 2
)

// SourceFactory hands out the random sources used by one search worker.
// Candidates and Witnesses must return independent sources, and repeated
// calls with the same worker index must return the same source.
type SourceFactory interface {
	Candidates(worker int) RandSource
	Witnesses(worker int) RandSource
}

// SeededFactory derives per-worker deterministic sources from a master seed.
type SeededFactory struct {
	mu         sync.Mutex
	seed       int64
	candidates map[int]RandSource
	witnesses  map[int]RandSource
}

// NewSeededFactory creates a factory whose streams are fixed by seed.
func NewSeededFactory(seed int64) *SeededFactory {
	return &SeededFactory{
		seed:       seed,
		candidates: make(map[int]RandSource),
		witnesses:  make(map[int]RandSource),
	}
}

// Seed returns the master seed.
func (f *SeededFactory) Seed() int64 {
	return f.seed
}

// Candidates implements SourceFactory.
func (f *SeededFactory) Candidates(worker int) RandSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.candidates[worker]
	if !ok {
		src = NewSeededSource(DeriveSeed(f.seed, candidateStream, worker))
		f.candidates[worker] = src
	}
	return src
}

// Witnesses implements SourceFactory.
func (f *SeededFactory) Witnesses(worker int) RandSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.witnesses[worker]
	if !ok {
		src = NewSeededSource(DeriveSeed(f.seed, witnessStream, worker))
		f.witnesses[worker] = src
	}
	return src
}

// CryptoFactory hands every worker the shared crypto/rand source.
type CryptoFactory struct{}

// NewCryptoFactory returns a factory backed by crypto/rand.
func NewCryptoFactory() CryptoFactory {
	return CryptoFactory{}
}

// Candidates implements SourceFactory.
func (CryptoFactory) Candidates(int) RandSource { return CryptoSource{} }

// Witnesses implements SourceFactory.
func (CryptoFactory) Witnesses(int) RandSource { return CryptoSource{} }

// DeriveSeed mixes a master seed, a stream id and a worker index into an
// independent seed using the splitmix64 finalizer.
func DeriveSeed(master int64, stream, worker int) int64 {
	z := uint64(master)
	z += 0x9e3779b97f4a7c15 * uint64(stream)
	z += 0xbf58476d1ce4e5b9 * uint64(worker+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return int64(z)
}
