package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics records remote request outcomes and cart mutations.
type ClientMetrics struct {
	duration  *prometheus.HistogramVec
	success   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	mutations *prometheus.CounterVec
}

// NewClientMetrics registers the client metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	if reg == nil {
		return &ClientMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "remote_request_duration_seconds",
		Help:    "Duration of remote catalog/auth requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_request_success",
		Help: "Successful remote requests.",
	}, []string{"endpoint"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "remote_request_failure",
		Help: "Failed remote requests.",
	}, []string{"endpoint"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart container mutations by operation.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure, mutations)
	return &ClientMetrics{
		duration:  duration,
		success:   success,
		failure:   failure,
		mutations: mutations,
	}
}

// ObserveRequest records the duration for the named endpoint.
func (c *ClientMetrics) ObserveRequest(endpoint string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(endpoint)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named endpoint.
func (c *ClientMetrics) IncSuccess(endpoint string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

// IncFailure increments the failure counter for the named endpoint.
func (c *ClientMetrics) IncFailure(endpoint string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

// IncMutation counts a cart container mutation (add, update, remove, clear).
func (c *ClientMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
