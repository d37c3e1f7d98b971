package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks notarization attempts per path and outcome. Because the
// gateway has no idempotency key, duplicate receipts from caller retries are
// a known risk — the attempt counter at least makes them visible.
type Metrics struct {
	Attempts *prometheus.CounterVec
}

// New creates and registers notarization metrics.
func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talentgate_notarization_attempts_total",
			Help: "Notarization attempts by path (bridge/fallback) and outcome",
		}, []string{"path", "outcome"}),
	}
}

// ObserveAttempt records one attempt on a path.
func (m *Metrics) ObserveAttempt(path, outcome string) {
	m.Attempts.WithLabelValues(path, outcome).Inc()
}
