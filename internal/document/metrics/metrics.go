package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks document decisions and aggregate promotions.
type Metrics struct {
	Decisions  *prometheus.CounterVec
	Promotions prometheus.Counter
}

// New creates and registers document tracker metrics.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talentgate_document_decisions_total",
			Help: "Document verification decisions by outcome",
		}, []string{"outcome"}),
		Promotions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "talentgate_document_promotions_total",
			Help: "Candidates promoted to Docs Verified by the aggregate check",
		}),
	}
}

// ObserveDecision records one decision outcome.
func (m *Metrics) ObserveDecision(outcome string) {
	m.Decisions.WithLabelValues(outcome).Inc()
}

// ObservePromotion records one aggregate promotion.
func (m *Metrics) ObservePromotion() {
	m.Promotions.Inc()
}
