package textbookrsa

import (
	"context"
	"math/big"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mahdiidarabi/textbook-rsa/internal/metrics"
)

// SequentialStrategy samples and tests one candidate at a time until a
// probable prime turns up or the trial budget runs out.
type SequentialStrategy struct {
	Config SearchConfig

	factory SourceFactory
	testers TesterFactory
	logger  *zap.Logger
	metrics *Metrics

	mu sync.Mutex
}

// NewSequentialStrategy creates a sequential strategy with default settings
// drawing from factory's worker-0 sources.
func NewSequentialStrategy(factory SourceFactory) *SequentialStrategy {
	return &SequentialStrategy{
		Config:  DefaultSearchConfig(),
		factory: factory,
		logger:  zap.NewNop(),
	}
}

// WithConfig sets the search configuration for the strategy.
func (s *SequentialStrategy) WithConfig(config SearchConfig) *SequentialStrategy {
	s.Config = config
	return s
}

// WithTesterFactory replaces the default Miller-Rabin tester.
func (s *SequentialStrategy) WithTesterFactory(testers TesterFactory) *SequentialStrategy {
	s.testers = testers
	return s
}

// WithLogger sets the logger for the strategy.
func (s *SequentialStrategy) WithLogger(logger *zap.Logger) *SequentialStrategy {
	s.logger = logger
	return s
}

// WithMetrics sets the metrics sink for the strategy.
func (s *SequentialStrategy) WithMetrics(m *Metrics) *SequentialStrategy {
	s.metrics = m
	return s
}

// Name returns the name of this strategy.
func (s *SequentialStrategy) Name() string {
	return "Sequential"
}

// Search implements the SearchStrategy interface.
func (s *SequentialStrategy) Search(ctx context.Context, bits int) (*SearchResult, error) {
	if bits < 2 {
		return nil, errors.Wrapf(ErrInvalidBitWidth, "got %d", bits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.factory.Candidates(0)
	tester := newTester(s.testers, s.factory, s.Config.Rounds, 0)
	name := s.Name()

	s.logger.Debug("starting prime search",
		zap.String("strategy", name),
		zap.Int("bits", bits),
		zap.Int("rounds", s.Config.Rounds),
		zap.Int64("max_trials", s.Config.MaxTrials))

	start := time.Now()
	var trials int64
	for s.Config.MaxTrials <= 0 || trials < s.Config.MaxTrials {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "sequential search stopped after %d trials", trials)
		}

		trials++
		s.metrics.Sampled(name)

		candidate := sampleCandidate(src, bits, s.Config.ExactWidth)
		if candidate == nil {
			s.metrics.Rejected(name, metrics.ReasonDegenerate)
			continue
		}
		if !tester.ProbablyPrime(candidate) {
			s.metrics.Rejected(name, metrics.ReasonComposite)
			continue
		}

		elapsed := time.Since(start)
		s.metrics.Found(name, elapsed.Seconds())
		s.logger.Info("found probable prime",
			zap.String("strategy", name),
			zap.Int("bits", bits),
			zap.Int64("trials", trials),
			zap.Duration("elapsed", elapsed))

		return &SearchResult{
			Prime:    candidate,
			Trials:   trials,
			Worker:   0,
			Strategy: name,
			Elapsed:  elapsed,
		}, nil
	}

	return nil, errors.Wrapf(ErrSearchExhausted, "%d trials at %d bits", trials, bits)
}

// RaceStrategy runs a fixed pool of workers against one shared result slot.
// The first worker to publish a probable prime wins; the others stop at
// their next trial. In-flight tests of losing workers are not interrupted.
type RaceStrategy struct {
	Config SearchConfig

	factory SourceFactory
	testers TesterFactory
	logger  *zap.Logger
	metrics *Metrics

	mu sync.Mutex
}

// NewRaceStrategy creates a race strategy with default settings. Worker i
// draws from factory.Candidates(i) and factory.Witnesses(i).
func NewRaceStrategy(factory SourceFactory) *RaceStrategy {
	return &RaceStrategy{
		Config:  DefaultSearchConfig(),
		factory: factory,
		logger:  zap.NewNop(),
	}
}

// WithConfig sets the search configuration for the strategy.
func (s *RaceStrategy) WithConfig(config SearchConfig) *RaceStrategy {
	s.Config = config
	return s
}

// WithTesterFactory replaces the default Miller-Rabin tester.
func (s *RaceStrategy) WithTesterFactory(testers TesterFactory) *RaceStrategy {
	s.testers = testers
	return s
}

// WithLogger sets the logger for the strategy.
func (s *RaceStrategy) WithLogger(logger *zap.Logger) *RaceStrategy {
	s.logger = logger
	return s
}

// WithMetrics sets the metrics sink for the strategy.
func (s *RaceStrategy) WithMetrics(m *Metrics) *RaceStrategy {
	s.metrics = m
	return s
}

// Name returns the name of this strategy.
func (s *RaceStrategy) Name() string {
	return "Race"
}

// Search implements the SearchStrategy interface.
func (s *RaceStrategy) Search(ctx context.Context, bits int) (*SearchResult, error) {
	if bits < 2 {
		return nil, errors.Wrapf(ErrInvalidBitWidth, "got %d", bits)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	numWorkers := s.Config.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	s.logger.Debug("starting prime search",
		zap.String("strategy", s.Name()),
		zap.Int("bits", bits),
		zap.Int("workers", numWorkers),
		zap.Int("rounds", s.Config.Rounds),
		zap.Int64("max_trials", s.Config.MaxTrials))

	start := time.Now()
	state := &searchState{maxTrials: s.Config.MaxTrials}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < numWorkers; w++ {
		workerID := w
		src := s.factory.Candidates(workerID)
		tester := newTester(s.testers, s.factory, s.Config.Rounds, workerID)

		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Wrapf(ErrWorkerPanic, "worker %d: %v", workerID, r)
				}
			}()
			return s.worker(gctx, workerID, bits, src, tester, state)
		})
	}

	// Join every worker before reading the slot.
	if err := g.Wait(); err != nil {
		return nil, errors.WithMessagef(err, "race search at %d bits", bits)
	}

	prime, workerID, trials, found := state.snapshot()
	if !found {
		return nil, errors.Wrapf(ErrSearchExhausted, "%d trials at %d bits", trials, bits)
	}

	elapsed := time.Since(start)
	s.metrics.Found(s.Name(), elapsed.Seconds())
	s.logger.Info("found probable prime",
		zap.String("strategy", s.Name()),
		zap.Int("bits", bits),
		zap.Int("worker", workerID),
		zap.Int64("trials", trials),
		zap.Duration("elapsed", elapsed))

	return &SearchResult{
		Prime:    prime,
		Trials:   trials,
		Worker:   workerID,
		Strategy: s.Name(),
		Elapsed:  elapsed,
	}, nil
}

// worker draws and tests candidates until the slot is filled, the trial
// budget is spent or ctx is cancelled.
func (s *RaceStrategy) worker(
	ctx context.Context,
	workerID int,
	bits int,
	src RandSource,
	tester PrimalityTester,
	state *searchState,
) error {
	name := s.Name()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !state.claimTrial() {
			return nil
		}
		s.metrics.Sampled(name)

		candidate := sampleCandidate(src, bits, s.Config.ExactWidth)
		if candidate == nil {
			s.metrics.Rejected(name, metrics.ReasonDegenerate)
			continue
		}

		// The lock is not held here.
		if !tester.ProbablyPrime(candidate) {
			s.metrics.Rejected(name, metrics.ReasonComposite)
			continue
		}

		if !state.publish(candidate, workerID) {
			s.logger.Debug("lost prime race", zap.Int("worker", workerID))
		}
		return nil
	}
}

// searchState is the single result slot shared by race workers. Every
// access goes through mu and is O(1).
type searchState struct {
	mu        sync.Mutex
	maxTrials int64
	trials    int64
	found     bool
	winner    *big.Int
	worker    int
}

// claimTrial reserves one trial. It returns false once a winner is
// published or the budget is exhausted.
func (st *searchState) claimTrial() bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.found {
		return false
	}
	if st.maxTrials > 0 && st.trials >= st.maxTrials {
		return false
	}
	st.trials++
	return true
}

// publish stores candidate unless another worker got there first. The flag
// is re-checked here because it may have changed while the caller was
// testing without the lock.
func (st *searchState) publish(candidate *big.Int, workerID int) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.found {
		return false
	}
	st.found = true
	st.winner = candidate
	st.worker = workerID
	return true
}

func (st *searchState) snapshot() (*big.Int, int, int64, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.winner, st.worker, st.trials, st.found
}

func newTester(testers TesterFactory, factory SourceFactory, rounds, worker int) PrimalityTester {
	if testers != nil {
		return testers(worker)
	}
	return NewMillerRabin(rounds, factory.Witnesses(worker))
}
