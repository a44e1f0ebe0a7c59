package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SadnessofAtlantis/kibana/internal/status"
)

// DependencyMetrics covers database queries, the redis circuit breaker and
// component status.
type DependencyMetrics struct {
	DBQueryDuration    *prometheus.HistogramVec
	DBErrorsTotal      *prometheus.CounterVec
	BreakerState       *prometheus.GaugeVec
	BreakerTransitions *prometheus.CounterVec
	ComponentState     *prometheus.GaugeVec
	RedisOpsTotal      *prometheus.CounterVec
	RedisOpDuration    *prometheus.HistogramVec
	RedisDialErrors    prometheus.Counter
}

func NewDependencyMetrics(reg prometheus.Registerer) *DependencyMetrics {
	m := &DependencyMetrics{
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Duration of database queries, by operation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		DBErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total number of failed database queries, by operation.",
		}, []string{"operation"}),
		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
		}, []string{"component"}),
		BreakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "circuit_breaker",
			Name:      "state_changes_total",
			Help:      "Total number of circuit breaker state changes, by target state.",
		}, []string{"component", "state"}),
		ComponentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "status",
			Name:      "component_state",
			Help:      "Component status (0=uninitialized, 1=green, 2=yellow, 3=red).",
		}, []string{"component"}),
		RedisOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operations_total",
			Help:      "Total Redis operations by operation and status.",
		}, []string{"operation", "status"}),
		RedisOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "operation_duration_seconds",
			Help:      "Redis operation duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"operation"}),
		RedisDialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "connection_errors_total",
			Help:      "Total Redis connection errors.",
		}),
	}

	reg.MustRegister(m.DBQueryDuration, m.DBErrorsTotal, m.BreakerState, m.BreakerTransitions, m.ComponentState,
		m.RedisOpsTotal, m.RedisOpDuration, m.RedisDialErrors)
	return m
}

func (m *DependencyMetrics) ObserveQuery(operation string, d time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
	if err != nil {
		m.DBErrorsTotal.WithLabelValues(operation).Inc()
	}
}

// ObserveBreakerState takes the numeric state encoding used by the BreakerState gauge.
func (m *DependencyMetrics) ObserveBreakerState(component, state string, value float64) {
	m.BreakerTransitions.WithLabelValues(component, state).Inc()
	m.BreakerState.WithLabelValues(component).Set(value)
}

func (m *DependencyMetrics) ObserveCommand(operation string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RedisOpsTotal.WithLabelValues(operation, status).Inc()
	m.RedisOpDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *DependencyMetrics) ObserveDialError() {
	m.RedisDialErrors.Inc()
}

func (m *DependencyMetrics) ObserveComponentState(name string, state status.State) {
	m.ComponentState.WithLabelValues(name).Set(componentStateValue(state))
}

func componentStateValue(state status.State) float64 {
	switch state {
	case status.StateGreen:
		return 1
	case status.StateYellow:
		return 2
	case status.StateRed:
		return 3
	default:
		return 0
	}
}
