package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/controlstore/internal/config"
	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/telemetry"
)

// stack holds the telemetry shared by the stores a command creates.
type stack struct {
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
	tracer   *telemetry.Tracer
}

func newStack(cfg *config.Config) *stack {
	s := &stack{}
	if cfg.MetricsEnabled() {
		s.registry = prometheus.NewRegistry()
		s.metrics = telemetry.NewMetrics(
			telemetry.WithNamespace(cfg.Metrics.Namespace),
			telemetry.WithSubsystem(cfg.Metrics.Subsystem),
			telemetry.WithRegistry(s.registry),
		)
	}
	if cfg.Tracing.Enabled {
		s.tracer = telemetry.NewTracer(
			telemetry.WithTracerName(cfg.Tracing.TracerName),
			telemetry.WithNotifySpans(cfg.Tracing.NotifySpans),
		)
		slog.Debug("tracing enabled", "tracer", cfg.Tracing.TracerName)
	}
	return s
}

// storeOptions returns the observers to attach to every store.
func (s *stack) storeOptions() []store.Option {
	var opts []store.Option
	if s.metrics != nil {
		opts = append(opts, store.WithObserver(s.metrics))
	}
	if s.tracer != nil {
		opts = append(opts, store.WithObserver(s.tracer))
	}
	return opts
}

// reporter wraps next so diagnostics are counted when metrics are on.
func (s *stack) reporter(next store.Reporter) store.Reporter {
	if s.metrics == nil {
		return next
	}
	return s.metrics.Reporter(next)
}

// metricsHandler returns the /metrics handler, or nil when metrics are off.
func (s *stack) metricsHandler() http.Handler {
	if s.registry == nil {
		return nil
	}
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}
