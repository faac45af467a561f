// Package metrics records per-run counters for cohort actions and polling.
//
// A Recorder owns a private registry so a run's numbers are never mixed
// with process-wide collectors. The registry is written once at the end
// of a run in the node_exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors of one run. A nil *Recorder discards
// every observation.
type Recorder struct {
	registry *prometheus.Registry

	cohortActions  *prometheus.CounterVec
	cohortDeviants *prometheus.GaugeVec
	pollIterations prometheus.Gauge
	pollConverged  prometheus.Gauge
}

// New creates a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		cohortActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shepherd",
				Subsystem: "cohort",
				Name:      "actions_total",
				Help:      "Actions dispatched to a cohort by outcome",
			},
			[]string{"provider", "region", "action", "outcome"},
		),
		cohortDeviants: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "shepherd",
				Subsystem: "cohort",
				Name:      "deviants",
				Help:      "Instances not yet in the desired state at the last poll",
			},
			[]string{"provider", "region"},
		),
		pollIterations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shepherd",
			Subsystem: "poll",
			Name:      "iterations",
			Help:      "Sleep rounds spent waiting for convergence",
		}),
		pollConverged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shepherd",
			Subsystem: "poll",
			Name:      "converged",
			Help:      "1 if every cohort reached its desired state, 0 otherwise",
		}),
	}
	r.registry.MustRegister(r.cohortActions, r.cohortDeviants, r.pollIterations, r.pollConverged)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// CohortAction counts one action taken against a cohort.
func (r *Recorder) CohortAction(provider, region, action, outcome string) {
	if r == nil {
		return
	}
	r.cohortActions.WithLabelValues(provider, region, action, outcome).Inc()
}

// CohortDeviants records the latest deviant count of a cohort.
func (r *Recorder) CohortDeviants(provider, region string, n int) {
	if r == nil {
		return
	}
	r.cohortDeviants.WithLabelValues(provider, region).Set(float64(n))
}

// PollFinished records the outcome of a convergence wait.
func (r *Recorder) PollFinished(iterations int, converged bool) {
	if r == nil {
		return
	}
	r.pollIterations.Set(float64(iterations))
	if converged {
		r.pollConverged.Set(1)
	} else {
		r.pollConverged.Set(0)
	}
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
