package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/controlstore/pkg/bind"
	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/telemetry"
)

// Result summarizes a replay.
type Result struct {
	// Steps is the number of steps run.
	Steps int

	// Diagnostics holds every diagnostic reported during the replay.
	Diagnostics []store.Diagnostic

	// Store is the replayed store, in its final state.
	Store *store.ControllableStore
}

// Option configures a replay.
type Option func(*runner)

// WithStoreOptions adds options used to create the store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(r *runner) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// WithReporter forwards every diagnostic to rep as well.
func WithReporter(rep store.Reporter) Option {
	return func(r *runner) {
		r.forward = rep
	}
}

// WithTracer records a span per step.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *runner) {
		r.tracer = t
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	sc        *Scenario
	cs        *store.ControllableStore
	bindings  map[string]*bind.ControlledProps
	storeOpts []store.Option
	forward   store.Reporter
	tracer    *telemetry.Tracer
	logger    *slog.Logger

	mu     sync.Mutex
	all    []store.Diagnostic
	window []store.Diagnostic
	calls  map[string][]any
}

// Report implements store.Reporter.
func (r *runner) Report(d store.Diagnostic) {
	r.mu.Lock()
	r.all = append(r.all, d)
	r.window = append(r.window, d)
	r.mu.Unlock()

	if r.forward != nil {
		r.forward.Report(d)
	}
}

func (r *runner) recordCall(key string) store.ChangeFunc {
	return func(value, _ any) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[key] = append(r.calls[key], value)
	}
}

// Run replays sc against a new ControllableStore. Diagnostics are always
// enabled for the replayed store. Run stops at the first failed expect step
// and returns an E182 error alongside the partial result.
func Run(ctx context.Context, sc *Scenario, opts ...Option) (*Result, error) {
	r := &runner{
		sc:       sc,
		bindings: make(map[string]*bind.ControlledProps),
		calls:    make(map[string][]any),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	storeOpts := append([]store.Option{store.WithName(sc.Store.Name)}, r.storeOpts...)
	storeOpts = append(storeOpts, store.WithReporter(r), store.WithDiagnostics(true))
	r.cs = store.NewControllable(store.NewState(sc.Store.Initial), storeOpts...)

	for name, spec := range sc.Bindings {
		config := make(map[string]bind.PropConfig, len(spec))
		for key, b := range spec {
			config[key] = bind.PropConfig{
				Default:    b.Default,
				HasDefault: b.HasDefault,
				OnChange:   r.recordCall(key),
				Name:       b.Name,
				State:      b.State,
			}
		}
		r.bindings[name] = bind.NewControlledProps(r.cs, config)
	}

	result := &Result{Store: r.cs}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return r.finish(result), err
		}
		if err := r.runStep(ctx, i, step); err != nil {
			return r.finish(result), err
		}
		result.Steps++
	}

	r.logger.Debug("scenario replayed", "scenario", sc.Name, "steps", result.Steps)
	return r.finish(result), nil
}

func (r *runner) finish(res *Result) *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	res.Diagnostics = append([]store.Diagnostic(nil), r.all...)
	return res
}

func (r *runner) runStep(ctx context.Context, i int, step Step) (err error) {
	kind := step.Kind()
	if r.tracer != nil {
		var span trace.Span
		_, span = r.tracer.Start(ctx, "scenario."+kind,
			trace.WithAttributes(
				telemetry.StoreAttr(r.sc.Store.Name),
				attribute.Int("scenario.step", i+1),
				attribute.Int("scenario.line", step.Line),
			),
		)
		defer func() { telemetry.End(span, err) }()
	}

	r.logger.Debug("scenario step", "step", i+1, "kind", kind, "line", step.Line)

	switch kind {
	case "configure":
		configs := store.ParseConfigs(step.Configure)
		for key, cfg := range configs {
			if cfg.OnChange == nil {
				configs[key] = cfg.WithOnChange(r.recordCall(key))
			}
		}
		r.cs.UpdateControlledConfigs(configs)
	case "set":
		for _, k := range sortedKeys(step.Set) {
			r.cs.Set(k, step.Set[k])
		}
	case "apply":
		r.cs.Apply(store.Changes(step.Apply))
	case "update":
		r.cs.Update(store.NewState(step.Update))
	case "setter":
		r.cs.CreateSetter(step.Setter.Key)(step.Setter.Value, step.Setter.Details)
	case "sync":
		r.bindings[step.Sync.Binding].Sync(bind.Props(step.Sync.Props))
	case "expect":
		return r.expect(i, step)
	}
	return nil
}

func (r *runner) expect(i int, step Step) error {
	e := step.Expect
	var failures []string

	snap := r.cs.Snapshot()
	for _, k := range sortedKeys(e.State) {
		want := e.State[k]
		got, ok := snap.Lookup(k)
		switch {
		case !ok:
			failures = append(failures, fmt.Sprintf("%s is absent, want %v", k, want))
		case !equalValue(got, want):
			failures = append(failures, fmt.Sprintf("%s = %v, want %v", k, got, want))
		}
	}
	for _, k := range e.Absent {
		if got, ok := snap.Lookup(k); ok {
			failures = append(failures, fmt.Sprintf("%s = %v, want absent", k, got))
		}
	}

	if e.Controlled != nil {
		var got []string
		for _, k := range r.cs.ConfiguredKeys() {
			if r.cs.IsControlled(k) {
				got = append(got, k)
			}
		}
		want := append([]string(nil), (*e.Controlled)...)
		sort.Strings(want)
		if strings.Join(got, ",") != strings.Join(want, ",") {
			failures = append(failures, fmt.Sprintf("controlled = %v, want %v", got, want))
		}
	}

	r.mu.Lock()
	if e.Codes != nil {
		got := make([]string, len(r.window))
		for j, d := range r.window {
			got[j] = d.Code
		}
		if strings.Join(got, ",") != strings.Join(*e.Codes, ",") {
			failures = append(failures, fmt.Sprintf("codes = %v, want %v", got, *e.Codes))
		}
		r.window = nil
	}
	if e.Calls != nil {
		for _, k := range sortedKeys(e.Calls) {
			if got, want := r.calls[k], e.Calls[k]; !equalValue(normalize(got), normalize(want)) {
				failures = append(failures, fmt.Sprintf("calls[%s] = %v, want %v", k, got, want))
			}
		}
		r.calls = make(map[string][]any)
	}
	r.mu.Unlock()

	if len(failures) == 0 {
		return nil
	}
	return r.sc.errorAt("E182", step.Line).
		WithMessage(fmt.Sprintf("Step %d: expectation failed", i+1)).
		WithDetail(strings.Join(failures, "\n"))
}

// equalValue compares a store value with an expected one. Identical values
// match; otherwise structured values match by contents.
func equalValue(got, want any) bool {
	if store.SameValue(got, want) {
		return true
	}
	return reflect.DeepEqual(got, want)
}

// normalize treats a missing call list like an empty one.
func normalize(v []any) []any {
	if v == nil {
		return []any{}
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
