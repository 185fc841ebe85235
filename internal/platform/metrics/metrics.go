package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics shared by both services. Each service
// constructs its own set against its own registry, so the two processes (and
// tests) never collide on registration.
type Metrics struct {
	CredentialsIssued prometheus.Counter
	DuplicateIssues   prometheus.Counter
	Verifications     *prometheus.CounterVec
	Reconciliations   *prometheus.CounterVec
	EndpointLatency   *prometheus.HistogramVec
}

// Reconciliation outcome label values.
const (
	ReconcileCached   = "cached"
	ReconcileUnissued = "unissued"
	ReconcileFailed   = "failed"
)

// New creates and registers all metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CredentialsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_credentials_issued_total",
			Help: "Total number of credentials issued for the first time",
		}),
		DuplicateIssues: factory.NewCounter(prometheus.CounterOpts{
			Name: "vouch_duplicate_issue_total",
			Help: "Total number of issue requests for already-issued credentials",
		}),
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_verifications_total",
			Help: "Total number of verification requests, labeled by result",
		}, []string{"result"}),
		Reconciliations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vouch_reconciliations_total",
			Help: "Total number of remote reconciliation attempts, labeled by outcome",
		}, []string{"outcome"}),
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vouch_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// ObserveEndpointLatency records a request duration for an endpoint.
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
