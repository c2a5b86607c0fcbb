package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the authorization server.
type Metrics struct {
	GrantsTotal      *prometheus.CounterVec
	GrantStateTotal  *prometheus.CounterVec
	AuthorizeTotal   *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	CleanupRemoved   *prometheus.CounterVec
}

// New registers the collectors on the default registry. Call it once per
// process.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on reg; tests pass a fresh
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GrantsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pds_oauth_token_grants_total",
			Help: "Token endpoint requests by grant type and outcome",
		}, []string{"grant_type", "outcome"}),
		GrantStateTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pds_oauth_grant_state_transitions_total",
			Help: "Grant state machine transitions by grant type and state reached",
		}, []string{"grant_type", "state"}),
		AuthorizeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pds_oauth_authorize_total",
			Help: "Authorize requests by outcome",
		}, []string{"outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pds_oauth_identity_request_duration_seconds",
			Help:    "Latency of identity service calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
		CleanupRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pds_oauth_cleanup_removed_total",
			Help: "Expired records removed by the cleanup worker",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ObserveGrant(grantType, outcome string) {
	m.GrantsTotal.WithLabelValues(grantType, outcome).Inc()
}

func (m *Metrics) ObserveGrantState(grantType, state string) {
	m.GrantStateTotal.WithLabelValues(grantType, state).Inc()
}

func (m *Metrics) ObserveAuthorize(outcome string) {
	m.AuthorizeTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveUpstream(method, outcome string, elapsed time.Duration) {
	m.UpstreamDuration.WithLabelValues(method, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCleanup(kind string, removed int) {
	if removed > 0 {
		m.CleanupRemoved.WithLabelValues(kind).Add(float64(removed))
	}
}
