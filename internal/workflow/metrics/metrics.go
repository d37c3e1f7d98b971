package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks workflow engine throughput and audit health.
type Metrics struct {
	CandidatesCreated  prometheus.Counter
	OffersSent         prometheus.Counter
	VerificationEvents *prometheus.CounterVec
	AuditFailures      prometheus.Counter
}

// New creates and registers workflow metrics.
func New() *Metrics {
	return &Metrics{
		CandidatesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "talentgate_candidates_created_total",
			Help: "Candidates created",
		}),
		OffersSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "talentgate_offers_sent_total",
			Help: "Offer letters issued with a notarization receipt",
		}),
		VerificationEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "talentgate_verification_events_total",
			Help: "Ad-hoc verification notarizations by outcome",
		}, []string{"outcome"}),
		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "talentgate_audit_write_failures_total",
			Help: "Audit writes that failed after a successful mutation",
		}),
	}
}
