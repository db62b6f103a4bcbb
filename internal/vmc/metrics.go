package vmc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation the sampler feeds while a run
// is in flight. All methods are nil-safe so library users who do not care
// about metrics can pass nothing.
type Metrics struct {
	proposalsAccepted prometheus.Counter
	proposalsRejected prometheus.Counter
	outerSteps        prometheus.Counter
	alpha             prometheus.Gauge
	energy            prometheus.Gauge
	runDuration       prometheus.Histogram
}

// NewMetrics registers the sampler collectors with reg and returns them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		proposalsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vmc",
			Name:      "proposals_accepted_total",
			Help:      "Metropolis proposals accepted across all walkers.",
		}),
		proposalsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vmc",
			Name:      "proposals_rejected_total",
			Help:      "Metropolis proposals rejected across all walkers.",
		}),
		outerSteps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "vmc",
			Name:      "measurement_steps_total",
			Help:      "Completed outer measurement steps.",
		}),
		alpha: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmc",
			Name:      "alpha",
			Help:      "Current value of the variational parameter.",
		}),
		energy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmc",
			Name:      "mean_local_energy",
			Help:      "Mean local energy over the ensemble at the last measurement.",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "vmc",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of completed sampler runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

func (m *Metrics) observeSweep(accepted, rejected int) {
	if m == nil {
		return
	}
	m.proposalsAccepted.Add(float64(accepted))
	m.proposalsRejected.Add(float64(rejected))
}

func (m *Metrics) observeStep(alpha, energy float64) {
	if m == nil {
		return
	}
	m.outerSteps.Inc()
	m.alpha.Set(alpha)
	m.energy.Set(energy)
}

func (m *Metrics) observeRun(seconds float64) {
	if m == nil {
		return
	}
	m.runDuration.Observe(seconds)
}
