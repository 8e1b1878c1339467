package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "roster"

// Cache names used as the "cache" label.
const (
	cacheEntity  = "entity"
	cacheRelated = "related"
	cachePage    = "page"
)

// Cache lookup results used as the "result" label.
const (
	resultHit   = "hit"
	resultMiss  = "miss"
	resultShare = "share"
)

// Metrics counts cache behaviour and remote traffic for one session.
type Metrics struct {
	// CacheRequests counts lookups per [cache, result]. A share is a caller
	// that attached to another caller's in-flight fetch.
	CacheRequests *prometheus.CounterVec
	// RemoteRequests counts remote reads per [endpoint, outcome].
	RemoteRequests *prometheus.CounterVec
	// InFlight tracks remote reads currently running.
	InFlight prometheus.Gauge
}

// NewMetrics creates the session metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Number of cache lookups by cache and result.",
		}, []string{"cache", "result"}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Number of remote reads by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "remote",
			Name:      "in_flight",
			Help:      "Number of remote reads currently in flight.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CacheRequests, m.RemoteRequests, m.InFlight)
	}
	return m
}

func (m *Metrics) cache(cache, result string) {
	m.CacheRequests.WithLabelValues(cache, result).Inc()
}

// remote records the outcome of one remote read.
func (m *Metrics) remote(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RemoteRequests.WithLabelValues(endpoint, outcome).Inc()
}
