package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/SadnessofAtlantis/kibana/internal/app"
)

// RenderMetrics counts rendering decisions and user-settings fetch failures.
type RenderMetrics struct {
	Decisions              *prometheus.CounterVec
	UserSettingsFetchFails prometheus.Counter
}

func NewRenderMetrics(reg prometheus.Registerer) *RenderMetrics {
	m := &RenderMetrics{
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "decisions_total",
			Help:      "Total number of app renders, by chosen strategy.",
		}, []string{"state"}),
		UserSettingsFetchFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "render",
			Name:      "user_settings_fetch_failures_total",
			Help:      "Total number of full renders that fell back to default settings.",
		}),
	}

	reg.MustRegister(m.Decisions, m.UserSettingsFetchFails)
	return m
}

func (m *RenderMetrics) ObserveDecision(state app.RenderState) {
	m.Decisions.WithLabelValues(state.String()).Inc()
}

func (m *RenderMetrics) ObserveUserSettingsFetch(err error) {
	if err != nil {
		m.UserSettingsFetchFails.Inc()
	}
}
