package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "booklend"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Catalog request metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionTransitions *prometheus.CounterVec

	// Biometric metrics
	BiometricChallenges *prometheus.CounterVec
}

// NewRegistry creates a registry with every booklend metric registered.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "requests_total",
			Help:      "Catalog requests by method and response status (0 for transport failures).",
		}, []string{"method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_duration_seconds",
			Help:      "Catalog request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		SessionTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session state transitions.",
		}, []string{"from", "to"}),
		BiometricChallenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "biometric",
			Name:      "challenges_total",
			Help:      "Biometric challenges by result.",
		}, []string{"result"}),
	}

	r.reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.SessionTransitions,
		r.BiometricChallenges,
		NewBuildCollector(),
	)
	return r
}

// Register adds extra collectors, such as store statistics.
func (r *Registry) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveRequest records one catalog request. status is 0 when the
// request never produced a response.
func (r *Registry) ObserveRequest(method string, status int, d time.Duration) {
	r.RequestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveTransition records a session state change.
func (r *Registry) ObserveTransition(from, to string) {
	r.SessionTransitions.WithLabelValues(from, to).Inc()
}

// ObserveChallenge records a biometric challenge result
// ("success", "failure" or "unavailable").
func (r *Registry) ObserveChallenge(result string) {
	r.BiometricChallenges.WithLabelValues(result).Inc()
}

// WriteTextfile writes every metric to path in the text exposition
// format. The write is atomic.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
