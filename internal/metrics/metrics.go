// Package metrics holds the Prometheus collectors shared by the prime search
// strategies and the key pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "textbookrsa"

// Rejection reasons used for the rejected-candidate counter.
const (
	ReasonDegenerate = "degenerate"
	ReasonComposite  = "composite"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CandidatesSampled  *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec
	PrimesFound        *prometheus.CounterVec
	SearchDuration     *prometheus.HistogramVec
	KeygenRetries      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered, which is what tests that inspect values directly want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandidatesSampled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "candidates_sampled_total",
			Help:      "Candidates drawn by a prime search strategy.",
		}, []string{"strategy"}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "candidates_rejected_total",
			Help:      "Candidates rejected at the sampling boundary or by the primality test.",
		}, []string{"strategy", "reason"}),
		PrimesFound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "primes_found_total",
			Help:      "Probable primes published by a search.",
		}, []string{"strategy"}),
		SearchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time of a prime search.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"strategy"}),
		KeygenRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "keygen",
			Name:      "retries_total",
			Help:      "Prime pairs discarded during key generation.",
		}, []string{"reason"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CandidatesSampled,
			m.CandidatesRejected,
			m.PrimesFound,
			m.SearchDuration,
			m.KeygenRetries,
		)
	}
	return m
}

// Sampled records one drawn candidate.
func (m *Metrics) Sampled(strategy string) {
	if m == nil {
		return
	}
	m.CandidatesSampled.WithLabelValues(strategy).Inc()
}

// Rejected records one rejected candidate.
func (m *Metrics) Rejected(strategy, reason string) {
	if m == nil {
		return
	}
	m.CandidatesRejected.WithLabelValues(strategy, reason).Inc()
}

// Found records a published prime and the duration of its search.
func (m *Metrics) Found(strategy string, seconds float64) {
	if m == nil {
		return
	}
	m.PrimesFound.WithLabelValues(strategy).Inc()
	m.SearchDuration.WithLabelValues(strategy).Observe(seconds)
}

// Retried records one discarded prime pair.
func (m *Metrics) Retried(reason string) {
	if m == nil {
		return
	}
	m.KeygenRetries.WithLabelValues(reason).Inc()
}
