// Package metrics records decision outcomes as Prometheus metrics.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "proofcheck"

// Recorder holds the decision metrics. A nil *Recorder is a no-op, so
// callers never need to guard their calls.
type Recorder struct {
	decisions   *prometheus.CounterVec
	confidence  *prometheus.HistogramVec
	unavailable prometheus.Counter
	skipped     *prometheus.CounterVec
}

// NewRecorder registers the decision metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		// Labels: source (rule, model), verdict (valid, invalid, unknown)
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total proof decisions by deciding stage and verdict",
		}, []string{"source", "verdict"}),

		confidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_confidence",
			Help:      "Distribution of decision confidence scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0},
		}, []string{"source"}),

		unavailable: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_unavailable_total",
			Help:      "Decisions degraded to unknown because the model was unavailable",
		}),

		// Labels: reason (empty, malformed)
		skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "skipped_total",
			Help:      "Batch records skipped without a decision",
		}, []string{"reason"}),
	}
}

// ObserveDecision records one decision.
func (r *Recorder) ObserveDecision(source, verdict string, confidence float64) {
	if r == nil {
		return
	}
	r.decisions.WithLabelValues(source, verdict).Inc()
	r.confidence.WithLabelValues(source).Observe(confidence)
}

// ModelUnavailable records a degraded decision.
func (r *Recorder) ModelUnavailable() {
	if r == nil {
		return
	}
	r.unavailable.Inc()
}

// Skipped records n skipped batch records.
func (r *Recorder) Skipped(reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.skipped.WithLabelValues(reason).Add(float64(n))
}

// WriteTextfile dumps everything gathered by g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
