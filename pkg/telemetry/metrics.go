package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/controlstore/pkg/store"
)

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "controlstore").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus exporter.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "controlstore",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a store.Observer that records store events as Prometheus
// metrics. One Metrics may observe any number of stores; the store name is
// a label.
type Metrics struct {
	notifications     *prometheus.CounterVec
	listenersNotified *prometheus.CounterVec
	rejectedWrites    *prometheus.CounterVec
	modeSwitches      *prometheus.CounterVec
	configurations    *prometheus.CounterVec
	diagnostics       *prometheus.CounterVec
}

var _ store.Observer = (*Metrics)(nil)

// NewMetrics registers the store metrics and returns an Observer that
// records them. Registering twice on the same registry panics, as with
// any promauto metric.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		notifications:     counter("notifications_total", "Total number of notification passes", "store"),
		listenersNotified: counter("listeners_notified_total", "Total number of listener calls", "store"),
		rejectedWrites:    counter("rejected_writes_total", "Total number of writes to controlled keys that were dropped", "store", "key", "via"),
		modeSwitches:      counter("mode_switches_total", "Total number of configuration checks that found a key in a different mode than its first configuration", "store", "key"),
		configurations:    counter("configurations_total", "Total number of accepted property configurations", "store", "mode"),
		diagnostics:       counter("diagnostics_total", "Total number of diagnostics reported", "code"),
	}
}

// Notified implements store.Observer.
func (m *Metrics) Notified(name string, listeners int) {
	m.notifications.WithLabelValues(name).Inc()
	m.listenersNotified.WithLabelValues(name).Add(float64(listeners))
}

// WriteRejected implements store.Observer.
func (m *Metrics) WriteRejected(name, key string, via store.WriteVia) {
	m.rejectedWrites.WithLabelValues(name, key, string(via)).Inc()
}

// ModeSwitched implements store.Observer.
func (m *Metrics) ModeSwitched(name, key string, _, _ bool) {
	m.modeSwitches.WithLabelValues(name, key).Inc()
}

// Configured implements store.Observer.
func (m *Metrics) Configured(name, _ string, mode store.Mode) {
	m.configurations.WithLabelValues(name, mode.String()).Inc()
}

// Reporter returns a store.Reporter that counts each diagnostic and then
// forwards it to next. A nil next only counts.
func (m *Metrics) Reporter(next store.Reporter) store.Reporter {
	return store.ReporterFunc(func(d store.Diagnostic) {
		m.diagnostics.WithLabelValues(d.Code).Inc()
		if next != nil {
			next.Report(d)
		}
	})
}
