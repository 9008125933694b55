package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder with prometheus counter vectors.
type PrometheusRecorder struct {
	detected *prometheus.CounterVec
	accepted *prometheus.CounterVec
	dropped  *prometheus.CounterVec
	rejected *prometheus.CounterVec
	queued   *prometheus.CounterVec
	consumed *prometheus.CounterVec
}

// NewPrometheusRecorder creates a recorder registered on reg.
// Registration conflicts panic at construction, never at record time.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	counter := func(name, help string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pathflow",
			Name:      name,
			Help:      help,
		}, []string{"path"})
		reg.MustRegister(c)
		return c
	}

	return &PrometheusRecorder{
		detected: counter("events_detected_total", "Raw filesystem events seen by the event bridge."),
		accepted: counter("events_accepted_total", "Events that passed the bridge filters."),
		dropped:  counter("events_dropped_total", "Events lost to a full event queue."),
		rejected: counter("validation_failed_total", "Events rejected by a validator."),
		queued:   counter("tasks_queued_total", "Resolved paths placed on the task queue."),
		consumed: counter("tasks_consumed_total", "Tasks handed to the consumer callback."),
	}
}

// EventDetected implements Recorder.
func (r *PrometheusRecorder) EventDetected(path string) {
	r.detected.WithLabelValues(path).Inc()
}

// EventAccepted implements Recorder.
func (r *PrometheusRecorder) EventAccepted(path string) {
	r.accepted.WithLabelValues(path).Inc()
}

// EventDropped implements Recorder.
func (r *PrometheusRecorder) EventDropped(path string) {
	r.dropped.WithLabelValues(path).Inc()
}

// ValidationFailed implements Recorder.
func (r *PrometheusRecorder) ValidationFailed(path string) {
	r.rejected.WithLabelValues(path).Inc()
}

// TaskQueued implements Recorder.
func (r *PrometheusRecorder) TaskQueued(path string) {
	r.queued.WithLabelValues(path).Inc()
}

// TaskConsumed implements Recorder.
func (r *PrometheusRecorder) TaskConsumed(path string) {
	r.consumed.WithLabelValues(path).Inc()
}
