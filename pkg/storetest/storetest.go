package storetest

import (
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/controlstore/pkg/store"
)

// Recorder is a store.Reporter that keeps every diagnostic.
type Recorder struct {
	mu    sync.Mutex
	diags []store.Diagnostic
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Report implements store.Reporter.
func (r *Recorder) Report(d store.Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = append(r.diags, d)
}

// Diagnostics returns a copy of the recorded diagnostics.
func (r *Recorder) Diagnostics() []store.Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]store.Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Codes returns the recorded codes in order.
func (r *Recorder) Codes() []string {
	diags := r.Diagnostics()
	codes := make([]string, len(diags))
	for i, d := range diags {
		codes[i] = d.Code
	}
	return codes
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diags = nil
}

// ExpectCodes fails t unless exactly codes were recorded, in order.
func (r *Recorder) ExpectCodes(t testing.TB, codes ...string) {
	t.Helper()
	got := r.Codes()
	if strings.Join(got, ",") != strings.Join(codes, ",") {
		t.Errorf("diagnostic codes = %v, want %v", got, codes)
	}
}

// ExpectNone fails t if anything was recorded.
func (r *Recorder) ExpectNone(t testing.TB) {
	t.Helper()
	if got := r.Codes(); len(got) != 0 {
		t.Errorf("unexpected diagnostics: %v", got)
	}
}

// ExpectMessage fails t unless some recorded message contains substr.
func (r *Recorder) ExpectMessage(t testing.TB, substr string) {
	t.Helper()
	for _, d := range r.Diagnostics() {
		if strings.Contains(d.Message, substr) {
			return
		}
	}
	t.Errorf("no diagnostic message contains %q; got %v", substr, r.Diagnostics())
}

// ListenerProbe counts notifications from a store.
type ListenerProbe struct {
	mu     sync.Mutex
	calls  int
	states []*store.State

	unsubscribe func()
}

// Probe subscribes a new ListenerProbe to s.
func Probe(s *store.Store) *ListenerProbe {
	p := &ListenerProbe{}
	p.unsubscribe = s.Subscribe(p.record)
	return p
}

func (p *ListenerProbe) record(state *store.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.states = append(p.states, state)
}

// Calls returns the number of notifications received.
func (p *ListenerProbe) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Last returns the most recently delivered state, or nil.
func (p *ListenerProbe) Last() *store.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return nil
	}
	return p.states[len(p.states)-1]
}

// Close unsubscribes the probe.
func (p *ListenerProbe) Close() {
	p.unsubscribe()
}

// ExpectCalls fails t unless exactly n notifications were received.
func (p *ListenerProbe) ExpectCalls(t testing.TB, n int) {
	t.Helper()
	if got := p.Calls(); got != n {
		t.Errorf("notifications = %d, want %d", got, n)
	}
}
