package textbookrsa

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mahdiidarabi/textbook-rsa/internal/metrics"
)

// Metrics collects search and key generation counters. A nil *Metrics
// records nothing.
type Metrics = metrics.Metrics

// NewMetrics creates the collectors and registers them with reg (nil skips
// registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return metrics.New(reg)
}
