package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics records counters and timings for permit transitions.
type LifecycleMetrics struct {
	duration *prometheus.HistogramVec
	accepted *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "permit_transition_duration_seconds",
		Help:    "Duration of permit transition requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permit_transitions_accepted",
		Help: "Accepted permit transitions.",
	}, []string{"action", "to_stage"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "permit_transitions_rejected",
		Help: "Rejected permit transition attempts.",
	}, []string{"action", "reason"})
	reg.MustRegister(duration, accepted, rejected)
	return &LifecycleMetrics{
		duration: duration,
		accepted: accepted,
		rejected: rejected,
	}
}

// ObserveDuration records how long the named action took.
func (m *LifecycleMetrics) ObserveDuration(action string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(action)).Observe(duration.Seconds())
}

// IncAccepted counts a transition that was applied.
func (m *LifecycleMetrics) IncAccepted(action, toStage string) {
	if m == nil || m.accepted == nil {
		return
	}
	m.accepted.WithLabelValues(normalizeLabel(action), normalizeLabel(toStage)).Inc()
}

// IncRejected counts a transition attempt that was refused.
func (m *LifecycleMetrics) IncRejected(action, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(action), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
