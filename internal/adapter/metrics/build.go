package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BuildMetrics records how the bundle plan was assembled at startup.
type BuildMetrics struct {
	ProviderDuration *prometheus.HistogramVec
	PlanBundles      prometheus.Gauge
}

func NewBuildMetrics(reg prometheus.Registerer) *BuildMetrics {
	m := &BuildMetrics{
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bundles",
			Name:      "provider_duration_seconds",
			Help:      "Duration of bundle provider resolution, by plugin and whether a bundle was added.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"plugin", "added"}),
		PlanBundles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bundles",
			Name:      "plan_size",
			Help:      "Number of bundles in the frozen bundle plan.",
		}),
	}

	reg.MustRegister(m.ProviderDuration, m.PlanBundles)
	return m
}

func (m *BuildMetrics) ObserveProvider(pluginID string, added bool, d time.Duration) {
	m.ProviderDuration.WithLabelValues(pluginID, strconv.FormatBool(added)).Observe(d.Seconds())
}

func (m *BuildMetrics) ObservePlan(bundles int) {
	m.PlanBundles.Set(float64(bundles))
}
