package store_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/storetest"
)

func newControllable(t *testing.T) (*store.ControllableStore, *storetest.Recorder) {
	t.Helper()
	rec := storetest.NewRecorder()
	cs := store.NewControllable(
		newState(map[string]any{"open": false, "value": "", "disabled": false, "count": 0}),
		store.WithReporter(rec),
		store.WithDiagnostics(true),
		store.WithName("test"),
	)
	return cs, rec
}

func TestControlledValueWinsOnConfigure(t *testing.T) {
	cs, rec := newControllable(t)

	cs.ConfigureControlled("open", store.Controlled(true, nil))

	if got := cs.Snapshot().Get("open"); got != true {
		t.Errorf("open = %v, want true", got)
	}
	if !cs.IsControlled("open") {
		t.Error("IsControlled(open) = false, want true")
	}
	rec.ExpectNone(t)
}

func TestControlledWithoutValueLeavesState(t *testing.T) {
	cs, _ := newControllable(t)

	cs.ConfigureControlled("open", store.PropertyConfig{Mode: store.ModeControlled})

	if got := cs.Snapshot().Get("open"); got != false {
		t.Errorf("open = %v, want false", got)
	}
}

func TestControlledWriteRejected(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("open", store.Controlled(true, nil))
	probe := storetest.Probe(cs.Store)

	cs.Set("open", false)

	if got := cs.Snapshot().Get("open"); got != true {
		t.Errorf("open = %v, want true", got)
	}
	probe.ExpectCalls(t, 0)
	rec.ExpectCodes(t, store.CodeControlledSet)
	rec.ExpectMessage(t, `Attempted to set controlled property "open"`)
}

func TestUncontrolledSetAllowed(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("value", store.Uncontrolled("default"))

	cs.Set("value", "changed")
	cs.Set("count", 3)

	if got := cs.Snapshot().Get("value"); got != "changed" {
		t.Errorf("value = %v, want changed", got)
	}
	if got := cs.Snapshot().Get("count"); got != 3 {
		t.Errorf("count = %v, want 3", got)
	}
	rec.ExpectNone(t)
}

func TestApplyFiltersControlledKeys(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("open", store.Controlled(true, nil))
	probe := storetest.Probe(cs.Store)

	cs.Apply(store.Changes{"open": false, "disabled": true})

	snap := cs.Snapshot()
	if snap.Get("open") != true {
		t.Errorf("open = %v, want true", snap.Get("open"))
	}
	if snap.Get("disabled") != true {
		t.Errorf("disabled = %v, want true", snap.Get("disabled"))
	}
	probe.ExpectCalls(t, 1)
	rec.ExpectCodes(t, store.CodeControlledApply)
}

func TestApplyAllControlledIsNoop(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("open", store.Controlled(true, nil))
	cs.ConfigureControlled("value", store.Controlled("v", nil))
	before := cs.Snapshot()
	probe := storetest.Probe(cs.Store)

	cs.Apply(store.Changes{"open": false, "value": "x"})

	probe.ExpectCalls(t, 0)
	if cs.Snapshot() != before {
		t.Error("state should be referentially unchanged")
	}
	rec.ExpectCodes(t, store.CodeControlledApply, store.CodeControlledApply)
}

func TestBaseApplyBypassesGuard(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("open", store.Controlled(true, nil))

	cs.Store.Apply(store.Changes{"open": false})

	if got := cs.Snapshot().Get("open"); got != false {
		t.Errorf("open = %v, want false", got)
	}
	rec.ExpectNone(t)
}

func TestUncontrolledDefaultAppliedOnce(t *testing.T) {
	cs, _ := newControllable(t)

	cs.ConfigureControlled("value", store.Uncontrolled("x"))
	if got := cs.Snapshot().Get("value"); got != "x" {
		t.Fatalf("value = %v, want x", got)
	}

	cs.Set("value", "y")
	cs.ConfigureControlled("value", store.Uncontrolled("x"))

	if got := cs.Snapshot().Get("value"); got != "y" {
		t.Errorf("value = %v, want y (default must not be reapplied)", got)
	}
}

func TestSetterDispatch(t *testing.T) {
	cs, _ := newControllable(t)

	var gotValue, gotDetails any
	calls := 0
	onChange := func(v any, d any) {
		calls++
		gotValue, gotDetails = v, d
	}

	cs.ConfigureControlled("open", store.PropertyConfig{
		Mode: store.ModeControlled, Value: false, HasValue: true, OnChange: onChange,
	})
	setOpen := cs.CreateSetter("open")
	probe := storetest.Probe(cs.Store)

	setOpen(true, "trigger-press")

	if calls != 1 {
		t.Fatalf("onChange calls = %d, want 1", calls)
	}
	if gotValue != true || gotDetails != "trigger-press" {
		t.Errorf("onChange(%v, %v), want (true, trigger-press)", gotValue, gotDetails)
	}
	if cs.Snapshot().Get("open") != false {
		t.Error("controlled setter must not touch state")
	}
	probe.ExpectCalls(t, 0)

	// Same setter, key now uncontrolled: writes directly.
	cs.ConfigureControlled("open", store.Uncontrolled(false).WithOnChange(onChange))
	setOpen(true, nil)

	if calls != 1 {
		t.Errorf("onChange calls = %d, want 1 for uncontrolled write", calls)
	}
	if cs.Snapshot().Get("open") != true {
		t.Error("uncontrolled setter should write state")
	}
}

func TestSetterUnconfiguredKeyWrites(t *testing.T) {
	cs, _ := newControllable(t)
	cs.CreateSetter("count")(5, nil)
	if got := cs.Snapshot().Get("count"); got != 5 {
		t.Errorf("count = %v, want 5", got)
	}
}

func TestSetterWithoutOnChange(t *testing.T) {
	cs, rec := newControllable(t)
	cs.ConfigureControlled("open", store.Controlled(true, nil))

	cs.CreateSetter("open")(false, nil)

	if cs.Snapshot().Get("open") != true {
		t.Error("state should be unchanged")
	}
	rec.ExpectCodes(t, store.CodeMissingOnChange)
}

func TestTypedControlledCallback(t *testing.T) {
	cs, _ := newControllable(t)
	var got string
	cs.ConfigureControlled("value", store.Controlled("a", func(v string, _ any) { got = v }))

	cs.CreateSetter("value")("b", nil)

	if got != "b" {
		t.Errorf("onChange value = %q, want b", got)
	}
}

func TestModeSwitchDiagnostic(t *testing.T) {
	tests := []struct {
		name      string
		first     store.PropertyConfig
		second    store.PropertyConfig
		wantMsg   string
		wantValue any
	}{
		{
			name:      "uncontrolled to controlled",
			first:     store.Uncontrolled(false),
			second:    store.Controlled(true, nil),
			wantMsg:   "A component is changing the uncontrolled open state of TestComponent to be controlled.",
			wantValue: true,
		},
		{
			name:      "controlled to uncontrolled",
			first:     store.Controlled(true, nil),
			second:    store.Uncontrolled(false),
			wantMsg:   "A component is changing the controlled open state of TestComponent to be uncontrolled.",
			wantValue: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs, rec := newControllable(t)

			cs.UpdateControlledConfigs(store.Configs{"open": tt.first.Named("TestComponent", "open")})
			rec.ExpectNone(t)

			cs.UpdateControlledConfigs(store.Configs{"open": tt.second.Named("TestComponent", "open")})

			rec.ExpectCodes(t, store.CodeModeSwitch)
			rec.ExpectMessage(t, tt.wantMsg)
			if got := cs.Snapshot().Get("open"); got != tt.wantValue {
				t.Errorf("open = %v, want %v", got, tt.wantValue)
			}
			if cs.IsControlled("open") != tt.second.Controlled() {
				t.Error("the new mode should be applied")
			}
			if d := rec.Diagnostics()[0]; d.Level != slog.LevelError || d.Key != "open" || d.Store != "test" {
				t.Errorf("diagnostic = %+v", d)
			}
		})
	}
}

func TestModeSwitchWithoutNameIsSilent(t *testing.T) {
	cs, rec := newControllable(t)

	cs.UpdateControlledConfigs(store.Configs{"open": store.Uncontrolled(false)})
	cs.UpdateControlledConfigs(store.Configs{"open": store.Controlled(true, nil)})

	rec.ExpectNone(t)
	if !cs.IsControlled("open") {
		t.Error("transition should still apply")
	}
	if cs.Snapshot().Get("open") != true {
		t.Error("controlled value should be written")
	}
}

func TestModeSwitchComparesAgainstBaseline(t *testing.T) {
	cs, rec := newControllable(t)
	unc := store.Uncontrolled(false).Named("TestComponent", "open")
	ctl := store.Controlled(true, nil).Named("TestComponent", "open")

	cs.UpdateControlledConfigs(store.Configs{"open": unc})
	cs.UpdateControlledConfigs(store.Configs{"open": ctl})
	cs.UpdateControlledConfigs(store.Configs{"open": ctl})
	rec.ExpectCodes(t, store.CodeModeSwitch, store.CodeModeSwitch)

	rec.Reset()
	cs.UpdateControlledConfigs(store.Configs{"open": unc})
	rec.ExpectNone(t)

	if was, ok := cs.InitiallyControlled("open"); !ok || was {
		t.Errorf("InitiallyControlled(open) = %v, %v, want false, true", was, ok)
	}
}

func TestDiagnosticsDisabled(t *testing.T) {
	rec := storetest.NewRecorder()
	cs := store.NewControllable(nil, store.WithReporter(rec), store.WithDiagnostics(false))

	cs.UpdateControlledConfigs(store.Configs{"open": store.Uncontrolled(false).Named("C", "open")})
	cs.UpdateControlledConfigs(store.Configs{"open": store.Controlled(true, nil).Named("C", "open")})
	cs.Set("open", false)
	cs.Apply(store.Changes{"open": false})

	rec.ExpectNone(t)
	if cs.Snapshot().Get("open") != true {
		t.Error("guards apply even without diagnostics")
	}
}

func TestUpdateControlledConfigsSkipsInvalid(t *testing.T) {
	cs, _ := newControllable(t)

	cs.UpdateControlledConfigs(store.Configs{
		"open":  {Mode: store.ModeUnset, Value: true, HasValue: true},
		"value": store.Uncontrolled("seed"),
	})

	if _, ok := cs.Config("open"); ok {
		t.Error("invalid config should be skipped")
	}
	if got := cs.Snapshot().Get("value"); got != "seed" {
		t.Errorf("value = %v, want seed", got)
	}
}

func TestSharedStoreIsolation(t *testing.T) {
	cs, rec := newControllable(t)

	// Component A owns "open".
	cs.UpdateControlledConfigs(store.Configs{"open": store.Controlled(true, nil).Named("ComponentA", "open")})
	// Component B owns "value".
	cs.UpdateControlledConfigs(store.Configs{"value": store.Uncontrolled("shared").Named("ComponentB", "value")})

	if !cs.IsControlled("open") {
		t.Error("configuring value changed the status of open")
	}
	if cs.Snapshot().Get("open") != true {
		t.Error("configuring value changed the value of open")
	}
	if cs.Snapshot().Get("value") != "shared" {
		t.Errorf("value = %v, want shared", cs.Snapshot().Get("value"))
	}

	cs.CreateSetter("value")("updated", nil)
	if cs.Snapshot().Get("value") != "updated" || cs.Snapshot().Get("open") != true {
		t.Errorf("state = %v", cs.Snapshot().Map())
	}
	rec.ExpectNone(t)

	if keys := cs.ConfiguredKeys(); strings.Join(keys, ",") != "open,value" {
		t.Errorf("ConfiguredKeys() = %v", keys)
	}
}

func TestParseConfig(t *testing.T) {
	onChange := func(any, any) {}

	tests := []struct {
		name   string
		raw    any
		wantOK bool
		want   store.Mode
	}{
		{name: "typed", raw: store.Uncontrolled(1), wantOK: true, want: store.ModeUncontrolled},
		{name: "pointer", raw: &store.PropertyConfig{Mode: store.ModeControlled}, wantOK: true, want: store.ModeControlled},
		{name: "nil pointer", raw: (*store.PropertyConfig)(nil)},
		{name: "map controlled", raw: map[string]any{"controlled": true, "value": 1, "onChange": onChange}, wantOK: true, want: store.ModeControlled},
		{name: "map uncontrolled", raw: map[string]any{"controlled": false, "defaultValue": 1}, wantOK: true, want: store.ModeUncontrolled},
		{name: "map missing flag", raw: map[string]any{"value": 1}},
		{name: "map string flag", raw: map[string]any{"controlled": "yes"}},
		{name: "unset mode", raw: store.PropertyConfig{}},
		{name: "string", raw: "controlled"},
		{name: "nil", raw: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, ok := store.ParseConfig(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && cfg.Mode != tt.want {
				t.Errorf("Mode = %v, want %v", cfg.Mode, tt.want)
			}
		})
	}
}

func TestParseConfigsDropsMalformed(t *testing.T) {
	configs := store.ParseConfigs(map[string]any{
		"open":  map[string]any{"controlled": true, "value": nil, "name": "Dialog"},
		"value": 42,
	})

	if len(configs) != 1 {
		t.Fatalf("len = %d, want 1", len(configs))
	}
	open := configs["open"]
	if !open.HasValue || open.Value != nil || open.Name != "Dialog" {
		t.Errorf("open = %+v", open)
	}
}

type recordingObserver struct {
	store.NopObserver
	rejected []string
	switched []string
	notified int
	modes    []store.Mode
}

func (o *recordingObserver) Notified(string, int) { o.notified++ }
func (o *recordingObserver) WriteRejected(_, key string, via store.WriteVia) {
	o.rejected = append(o.rejected, key+":"+string(via))
}
func (o *recordingObserver) ModeSwitched(_, key string, _, _ bool) {
	o.switched = append(o.switched, key)
}
func (o *recordingObserver) Configured(_, _ string, m store.Mode) { o.modes = append(o.modes, m) }

func TestObserverEvents(t *testing.T) {
	obs := &recordingObserver{}
	cs := store.NewControllable(nil, store.WithObserver(obs), store.WithDiagnostics(false))

	cs.UpdateControlledConfigs(store.Configs{"open": store.Controlled(true, nil)})
	cs.Set("open", false)
	cs.Apply(store.Changes{"open": false})
	cs.UpdateControlledConfigs(store.Configs{"open": store.Uncontrolled(false)})

	if obs.notified != 1 {
		t.Errorf("notified = %d, want 1", obs.notified)
	}
	if strings.Join(obs.rejected, ",") != "open:set,open:apply" {
		t.Errorf("rejected = %v", obs.rejected)
	}
	if strings.Join(obs.switched, ",") != "open" {
		t.Errorf("switched = %v", obs.switched)
	}
	if len(obs.modes) != 2 || obs.modes[0] != store.ModeControlled || obs.modes[1] != store.ModeUncontrolled {
		t.Errorf("modes = %v", obs.modes)
	}
}

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	cs := store.NewControllable(nil, store.WithLogger(logger), store.WithDiagnostics(true), store.WithName("menu"))

	cs.ConfigureControlled("open", store.Controlled(true, nil))
	cs.Set("open", false)

	out := buf.String()
	for _, want := range []string{"level=WARN", "code=W101", "key=open", "store=menu"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}
