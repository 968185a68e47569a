package experiment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the per-run Prometheus collectors. Each run owns its registry so
// concurrent runs in one process never share counters.
type Metrics struct {
	Registry *prometheus.Registry

	// TrialsTotal counts finished trials by scenario, mode and status (ok/failed).
	TrialsTotal *prometheus.CounterVec
	// Makespan is the distribution of finite makespans.
	Makespan *prometheus.HistogramVec
	// ConflictsTotal counts conflict records across trials.
	ConflictsTotal *prometheus.CounterVec
	// DroppedWafersTotal counts wafers abandoned after a fault.
	DroppedWafersTotal *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := []string{"scenario", "mode"}
	return &Metrics{
		Registry: reg,
		TrialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wafersim_trials_total",
			Help: "Simulation trials finished",
		}, []string{"scenario", "mode", "status"}),
		Makespan: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wafersim_makespan_seconds",
			Help:    "Simulated makespan of successful trials",
			Buckets: prometheus.ExponentialBuckets(250, 1.5, 14),
		}, labels),
		ConflictsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wafersim_conflicts_total",
			Help: "Steps that started after their wafer became ready",
		}, labels),
		DroppedWafersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wafersim_dropped_wafers_total",
			Help: "Wafers abandoned after an injected fault",
		}, labels),
	}
}

// Observe records one trial.
func (m *Metrics) Observe(tr TrialResult) {
	scenario, mode := string(tr.Scenario), string(tr.Mode)
	if tr.Failed {
		m.TrialsTotal.WithLabelValues(scenario, mode, "failed").Inc()
		return
	}
	m.TrialsTotal.WithLabelValues(scenario, mode, "ok").Inc()
	m.Makespan.WithLabelValues(scenario, mode).Observe(tr.Makespan)
	m.ConflictsTotal.WithLabelValues(scenario, mode).Add(float64(tr.Conflicts))
	m.DroppedWafersTotal.WithLabelValues(scenario, mode).Add(float64(tr.Dropped))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
