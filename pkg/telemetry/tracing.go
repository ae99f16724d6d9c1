package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/controlstore/pkg/store"
)

// Default tracer name.
const defaultTracerName = "controlstore"

// TracerConfig configures the OpenTelemetry exporter.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "controlstore").
	TracerName string

	// Provider supplies the tracer. Default: the global provider.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue

	// NotifySpans records a span for every notification pass. These are
	// frequent, so they are disabled by default.
	NotifySpans bool
}

// TracerOption configures the OpenTelemetry exporter.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// WithNotifySpans enables spans for notification passes.
func WithNotifySpans(enabled bool) TracerOption {
	return func(c *TracerConfig) {
		c.NotifySpans = enabled
	}
}

// Tracer is a store.Observer that records store events as spans.
// Observer callbacks carry no context, so event spans are roots; use Start
// to trace an operation inside an existing trace.
type Tracer struct {
	config TracerConfig
	tracer trace.Tracer
}

var _ store.Observer = (*Tracer)(nil)

// NewTracer creates a Tracer. The tracer is resolved once, from the
// configured provider or the global one.
//
// Configure the global provider in main() before creating stores:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	t := &Tracer{config: config}
	if config.Provider != nil {
		t.tracer = config.Provider.Tracer(config.TracerName)
	} else {
		t.tracer = otel.Tracer(config.TracerName)
	}
	return t
}

// Start starts a span named name carrying the configured attributes.
// The caller must end the returned span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if len(t.config.Attributes) > 0 {
		opts = append([]trace.SpanStartOption{trace.WithAttributes(t.config.Attributes...)}, opts...)
	}
	return t.tracer.Start(ctx, name, opts...)
}

// End ends span, recording err if it is non-nil.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) event(name, storeName string, status codes.Code, attrs ...attribute.KeyValue) {
	_, span := t.Start(context.Background(), name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(StoreAttr(storeName)),
		trace.WithAttributes(attrs...),
	)
	span.SetStatus(status, "")
	span.End()
}

// StoreAttr returns the span attribute naming a store.
func StoreAttr(name string) attribute.KeyValue {
	return attribute.String("controlstore.store", name)
}

// Notified implements store.Observer.
func (t *Tracer) Notified(name string, listeners int) {
	if !t.config.NotifySpans {
		return
	}
	t.event("controlstore.notify", name, codes.Ok, attribute.Int("controlstore.listeners", listeners))
}

// WriteRejected implements store.Observer.
func (t *Tracer) WriteRejected(name, key string, via store.WriteVia) {
	t.event("controlstore.write_rejected", name, codes.Error,
		attribute.String("controlstore.key", key),
		attribute.String("controlstore.via", string(via)),
	)
}

// ModeSwitched implements store.Observer.
func (t *Tracer) ModeSwitched(name, key string, wasControlled, isControlled bool) {
	t.event("controlstore.mode_switch", name, codes.Error,
		attribute.String("controlstore.key", key),
		attribute.Bool("controlstore.was_controlled", wasControlled),
		attribute.Bool("controlstore.is_controlled", isControlled),
	)
}

// Configured implements store.Observer. Configuration happens on every
// pass, so it is not traced.
func (t *Tracer) Configured(string, string, store.Mode) {}
