// SPDX-License-Identifier: MPL-2.0

// Package metrics records pipeline runs as Prometheus metrics and writes
// them in the node exporter textfile format, for hosts that run gluepipe
// from cron or CI.
package metrics

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gluepipe/gluepipe/internal/pipeline"
)

const namespace = "gluepipe"

// Run outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeSoft    = "soft_failure"
	OutcomeFailure = "failure"
)

// Recorder collects the metrics of the runs of one process. It implements
// pipeline.Observer.
type Recorder struct {
	clock    clockwork.Clock
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	runs     *prometheus.CounterVec
	attempts prometheus.Counter
}

var _ pipeline.Observer = (*Recorder)(nil)

// New creates a recorder. A nil clock means the real clock.
func New(clock clockwork.Clock) *Recorder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	r := &Recorder{
		clock:    clock,
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "module_phase_duration_seconds",
			Help:      "Time spent in a module phase.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"module", "phase"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_phase_failures_total",
			Help:      "Module phases that returned an error.",
		}, []string{"module", "phase"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished pipeline runs by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_attempts_total",
			Help:      "Pipeline run attempts, retries included.",
		}),
	}
	r.registry.MustRegister(r.duration, r.failures, r.runs, r.attempts)
	return r
}

// ObservePhase times the phase and counts its failure.
func (r *Recorder) ObservePhase(ctx context.Context, module string, phase pipeline.Phase) (context.Context, func(error)) {
	start := r.clock.Now()
	return ctx, func(err error) {
		labels := prometheus.Labels{"module": module, "phase": phase.String()}
		r.duration.With(labels).Observe(r.clock.Since(start).Seconds())
		if err != nil {
			r.failures.With(labels).Inc()
		}
	}
}

// AttemptStarted counts one pipeline attempt.
func (r *Recorder) AttemptStarted() { r.attempts.Inc() }

// RunFinished counts a finished run.
func (r *Recorder) RunFinished(outcome string) {
	r.runs.WithLabelValues(outcome).Inc()
}

// Gatherer exposes the collected metrics.
func (r *Recorder) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes the metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
