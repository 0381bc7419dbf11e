package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Outcomes           *prometheus.CounterVec
	LedgerErrors       *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	PairsBlocked       prometheus.Counter
	PairsCleared       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_verification_outcomes_total",
			Help: "Verification decisions by outcome kind",
		}, []string{"outcome"}),
		LedgerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "empverify_verification_ledger_errors_total",
			Help: "Attempt ledger failures by operation",
		}, []string{"op"}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "empverify_verification_duration_seconds",
			Help:    "Time to reach a verification decision",
			Buckets: prometheus.DefBuckets,
		}),
		PairsBlocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_verification_pairs_blocked_total",
			Help: "Pairs that transitioned to blocked",
		}),
		PairsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "empverify_verification_pairs_cleared_total",
			Help: "Pairs cleared by administrative action",
		}),
	}
}

func (m *Metrics) ObserveOutcome(kind string, seconds float64) {
	m.Outcomes.WithLabelValues(kind).Inc()
	m.ValidationDuration.Observe(seconds)
}

func (m *Metrics) IncrementLedgerError(op string) {
	m.LedgerErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) IncrementPairsBlocked() {
	m.PairsBlocked.Inc()
}

func (m *Metrics) IncrementPairsCleared() {
	m.PairsCleared.Inc()
}
