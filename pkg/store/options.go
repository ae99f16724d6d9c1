package store

import "log/slog"

// Option is a functional option for configuring stores.
type Option func(*options)

// options holds configuration shared by Store and ControllableStore.
type options struct {
	// name labels diagnostics, metrics and traces.
	name string

	reporter Reporter

	// diagnostics overrides DiagnosticsEnabled when set.
	diagnostics *bool

	observers []Observer
}

// WithName sets the store name used in diagnostics and telemetry.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithReporter sets where diagnostics are delivered.
// Default: a LogReporter on slog.Default().
func WithReporter(r Reporter) Option {
	return func(o *options) {
		o.reporter = r
	}
}

// WithLogger delivers diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.reporter = LogReporter{Logger: logger}
	}
}

// WithDiagnostics enables or disables diagnostics for this store,
// overriding the build default.
func WithDiagnostics(enabled bool) Option {
	return func(o *options) {
		o.diagnostics = &enabled
	}
}

// WithObserver adds an Observer. Observers are called in the order added.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// applyOptions applies the given options and returns the resulting config.
func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.reporter == nil {
		o.reporter = LogReporter{}
	}
	return o
}

func (o options) diagnosticsEnabled() bool {
	if o.diagnostics != nil {
		return *o.diagnostics
	}
	return DiagnosticsEnabled
}
