package scenario

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/telemetry"
)

func asStoreError(t *testing.T, err error) *errors.StoreError {
	t.Helper()
	var se *errors.StoreError
	if !stderrors.As(err, &se) {
		t.Fatalf("error = %v (%T), want *StoreError", err, err)
	}
	return se
}

func TestParseFile(t *testing.T) {
	sc, err := ParseFile("testdata/dialog.yaml")
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	if sc.Store.Name != "dialog" || len(sc.Steps) != 7 {
		t.Errorf("scenario = %+v", sc)
	}
	if sc.Steps[0].Kind() != "sync" || sc.Steps[2].Kind() != "expect" {
		t.Errorf("kinds = %s, %s", sc.Steps[0].Kind(), sc.Steps[2].Kind())
	}
	if sc.Steps[0].Line != 13 {
		t.Errorf("Steps[0].Line = %d, want 13", sc.Steps[0].Line)
	}
	open := sc.Bindings["dialog"]["open"]
	if !open.HasDefault || open.Default != false || open.Name != "Dialog" {
		t.Errorf("binding = %+v", open)
	}
}

func TestParseJSON(t *testing.T) {
	sc, err := Parse([]byte(`{"store": {"name": "s"}, "steps": [{"set": {"a": 1}}]}`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if sc.Steps[0].Set["a"] != 1 {
		t.Errorf("set = %v", sc.Steps[0].Set)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"invalid yaml", "steps: [", "E180"},
		{"no steps", "store: {name: s}", "E180"},
		{"empty step", "steps:\n  - {}\n", "E181"},
		{"two operations", "steps:\n  - set: {a: 1}\n    apply: {b: 2}\n", "E181"},
		{"setter without key", "steps:\n  - setter: {value: 1}\n", "E180"},
		{"unknown binding", "steps:\n  - sync: {binding: nope}\n", "E180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if se := asStoreError(t, err); se.Code != tt.code {
				t.Errorf("Code = %q, want %q (%v)", se.Code, tt.code, err)
			}
		})
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - set: {a: 1}\n  - {}\n"))
	se := asStoreError(t, err)
	if se.Location == nil || se.Location.Line != 3 {
		t.Errorf("Location = %v, want line 3", se.Location)
	}
}

func TestRunDialogScenario(t *testing.T) {
	sc, err := ParseFile("testdata/dialog.yaml")
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	res, err := Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Steps != 7 {
		t.Errorf("Steps = %d, want 7", res.Steps)
	}
	if len(res.Diagnostics) != 2 {
		t.Errorf("Diagnostics = %v", res.Diagnostics)
	}
	if res.Store.Name() != "dialog" {
		t.Errorf("store name = %q", res.Store.Name())
	}
}

func TestRunFailingExpectation(t *testing.T) {
	sc, err := ParseFile("testdata/failing.yaml")
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}

	res, err := Run(context.Background(), sc)
	se := asStoreError(t, err)
	if se.Code != "E182" {
		t.Errorf("Code = %q, want E182", se.Code)
	}
	if !strings.Contains(se.Detail, "open = true, want false") {
		t.Errorf("Detail = %q", se.Detail)
	}
	if se.Location == nil || se.Location.File != "testdata/failing.yaml" || se.Location.Line != 7 {
		t.Errorf("Location = %v", se.Location)
	}
	if len(se.Context) == 0 {
		t.Error("Context should hold the surrounding lines")
	}
	if res == nil || res.Steps != 1 {
		t.Errorf("partial result = %+v", res)
	}
}

func TestRunSteps(t *testing.T) {
	doc := `
store:
  name: form
  initial: {value: "", count: 1}
steps:
  - configure:
      value: {controlled: true, value: typed, name: Input}
  - apply: {value: other, count: 2}
  - setter: {key: value, value: next}
  - update: {label: fresh}
  - expect:
      state: {label: fresh}
      absent: [count]
      codes: [W102]
      calls:
        value: [next]
  - configure:
      value: {controlled: true, value: typed}
  - expect:
      state: {value: typed}
      controlled: [value]
`
	sc, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	var forwarded []string
	res, err := Run(context.Background(), sc,
		WithReporter(store.ReporterFunc(func(d store.Diagnostic) { forwarded = append(forwarded, d.Code) })),
	)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Steps != 7 {
		t.Errorf("Steps = %d, want 7", res.Steps)
	}
	if strings.Join(forwarded, ",") != "W102" {
		t.Errorf("forwarded = %v", forwarded)
	}
}

func TestRunCancelled(t *testing.T) {
	sc, err := Parse([]byte("store: {name: s}\nsteps:\n  - set: {a: 1}\n"))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, sc)
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if res.Steps != 0 {
		t.Errorf("Steps = %d, want 0", res.Steps)
	}
}

func TestRunTracesSteps(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tracer := telemetry.NewTracer(telemetry.WithTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))))

	sc, err := ParseFile("testdata/failing.yaml")
	if err != nil {
		t.Fatal(err)
	}
	Run(context.Background(), sc, WithTracer(tracer))

	spans := sr.Ended()
	if len(spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(spans))
	}
	if spans[0].Name() != "scenario.set" || spans[1].Name() != "scenario.expect" {
		t.Errorf("names = %s, %s", spans[0].Name(), spans[1].Name())
	}
	if spans[1].Status().Code.String() != "Error" {
		t.Errorf("expect span status = %v, want Error", spans[1].Status().Code)
	}
}
