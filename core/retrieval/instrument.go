package retrieval

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/siherrmann/lexgraph/model"
)

// Metrics are the prometheus collectors of a coordinator.
// A nil *Metrics records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	latency     prometheus.Histogram
	degradation *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with registerer if it is not nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexgraph",
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Retrieval requests by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lexgraph",
			Subsystem: "retrieval",
			Name:      "duration_seconds",
			Help:      "Retrieval latency from validation to response.",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		degradation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lexgraph",
			Subsystem: "retrieval",
			Name:      "branch_degradations_total",
			Help:      "Search branches that contributed no hits, by branch and reason.",
		}, []string{"branch", "reason"}),
	}

	if registerer != nil {
		registerer.MustRegister(m.requests, m.latency, m.degradation)
	}

	return m
}

func (m *Metrics) observeRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.latency.Observe(elapsed.Seconds())
}

func (m *Metrics) observeBranch(branch string, outcome model.BranchOutcome) {
	if m == nil || !outcome.Degraded() {
		return
	}
	m.degradation.WithLabelValues(branch, string(outcome.Reason)).Inc()
}
