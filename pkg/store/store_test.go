package store_test

import (
	"math"
	"testing"

	"github.com/vango-dev/controlstore/pkg/store"
	"github.com/vango-dev/controlstore/pkg/storetest"
)

func newState(fields map[string]any) *store.State {
	return store.NewState(fields)
}

func TestNewNilInitialIsEmpty(t *testing.T) {
	s := store.New(nil)
	if s.Snapshot() == nil {
		t.Fatal("Snapshot() = nil, want empty state")
	}
	if s.Snapshot().Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Snapshot().Len())
	}
}

func TestUpdateSameStateNotifiesOnce(t *testing.T) {
	s := store.New(newState(nil))
	probe := storetest.Probe(s)

	next := newState(map[string]any{"open": true})
	s.Update(next)
	s.Update(next)

	probe.ExpectCalls(t, 1)
	if s.Snapshot() != next {
		t.Error("Snapshot() should be the state passed to Update")
	}
}

func TestUpdateDistinctStatesNotifiesTwice(t *testing.T) {
	s := store.New(newState(nil))
	probe := storetest.Probe(s)

	// Equal contents, different identity.
	s.Update(newState(map[string]any{"a": 1}))
	s.Update(newState(map[string]any{"a": 1}))

	probe.ExpectCalls(t, 2)
}

func TestUpdateDeliversNewState(t *testing.T) {
	s := store.New(newState(nil))
	var got *store.State
	s.Subscribe(func(st *store.State) { got = st })

	next := newState(map[string]any{"x": "y"})
	s.Update(next)

	if got != next {
		t.Error("listener should receive the new state")
	}
}

func TestApplyMergesInSingleUpdate(t *testing.T) {
	initial := newState(map[string]any{"a": 1, "b": 1, "c": 9})
	s := store.New(initial)
	probe := storetest.Probe(s)

	s.Apply(store.Changes{"a": 1, "b": 2})

	probe.ExpectCalls(t, 1)
	snap := s.Snapshot()
	want := map[string]any{"a": 1, "b": 2, "c": 9}
	for k, v := range want {
		if got := snap.Get(k); got != v {
			t.Errorf("state[%q] = %v, want %v", k, got, v)
		}
	}
	if initial.Get("b") != 1 {
		t.Error("Apply must not mutate the previous state")
	}
}

func TestApplyNoChangeIsNoop(t *testing.T) {
	initial := newState(map[string]any{"a": 1, "b": "x"})
	s := store.New(initial)
	probe := storetest.Probe(s)

	s.Apply(store.Changes{"a": 1, "b": "x"})
	s.Apply(store.Changes{})
	s.Apply(nil)

	probe.ExpectCalls(t, 0)
	if s.Snapshot() != initial {
		t.Error("state should be referentially unchanged")
	}
}

func TestApplyAddsAbsentKey(t *testing.T) {
	s := store.New(newState(nil))
	probe := storetest.Probe(s)

	s.Apply(store.Changes{"label": nil})

	probe.ExpectCalls(t, 1)
	if !s.Snapshot().Has("label") {
		t.Error("absent key should be added even with a nil value")
	}
}

func TestSetChangeDetection(t *testing.T) {
	tests := []struct {
		name     string
		initial  any
		value    any
		wantCall int
	}{
		{name: "same int", initial: 1, value: 1, wantCall: 0},
		{name: "different int", initial: 1, value: 2, wantCall: 1},
		{name: "NaN equals NaN", initial: math.NaN(), value: math.NaN(), wantCall: 0},
		{name: "+0 differs from -0", initial: 0.0, value: math.Copysign(0, -1), wantCall: 1},
		{name: "same string", initial: "a", value: "a", wantCall: 0},
		{name: "nil to nil", initial: nil, value: nil, wantCall: 0},
		{name: "nil to value", initial: nil, value: false, wantCall: 1},
		{name: "int vs int64", initial: 1, value: int64(1), wantCall: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New(newState(map[string]any{"k": tt.initial}))
			probe := storetest.Probe(s)

			s.Set("k", tt.value)

			probe.ExpectCalls(t, tt.wantCall)
		})
	}
}

func TestSetSliceComparesByIdentity(t *testing.T) {
	items := []string{"a", "b"}
	s := store.New(newState(map[string]any{"items": items}))
	probe := storetest.Probe(s)

	s.Set("items", items)
	probe.ExpectCalls(t, 0)

	s.Set("items", []string{"a", "b"})
	probe.ExpectCalls(t, 1)
}

func TestUnsubscribe(t *testing.T) {
	s := store.New(newState(nil))
	calls := 0
	unsubscribe := s.Subscribe(func(*store.State) { calls++ })

	s.Set("a", 1)
	unsubscribe()
	unsubscribe()
	s.Set("a", 2)

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := s.ListenerCount(); n != 0 {
		t.Errorf("ListenerCount() = %d, want 0", n)
	}
}

func TestUnsubscribeRemovesOnlyThatRegistration(t *testing.T) {
	s := store.New(newState(nil))
	a, b := 0, 0
	unsubA := s.Subscribe(func(*store.State) { a++ })
	s.Subscribe(func(*store.State) { b++ })

	unsubA()
	s.Set("x", 1)

	if a != 0 || b != 1 {
		t.Errorf("a, b = %d, %d, want 0, 1", a, b)
	}
}

func TestSubscribeDuringNotification(t *testing.T) {
	s := store.New(newState(nil))
	late := 0
	subscribed := false

	s.Subscribe(func(*store.State) {
		if !subscribed {
			subscribed = true
			s.Subscribe(func(*store.State) { late++ })
		}
	})

	s.Set("n", 1)
	if late != 0 {
		t.Errorf("listener added during a pass ran in that pass (late = %d)", late)
	}

	s.Set("n", 2)
	if late != 1 {
		t.Errorf("late = %d, want 1 after the next pass", late)
	}
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	s := store.New(newState(nil))
	second := 0
	var unsubSecond func()

	s.Subscribe(func(*store.State) {
		if unsubSecond != nil {
			unsubSecond()
		}
	})
	unsubSecond = s.Subscribe(func(*store.State) { second++ })

	s.Set("n", 1)
	if second != 1 {
		t.Errorf("second = %d, want 1: the current pass must still deliver", second)
	}

	s.Set("n", 2)
	if second != 1 {
		t.Errorf("second = %d, want 1 after unsubscribing", second)
	}
}

func TestListenerMayWrite(t *testing.T) {
	s := store.New(newState(map[string]any{"n": 0}))

	s.Subscribe(func(st *store.State) {
		if n, _ := st.Get("n").(int); n < 3 {
			s.Set("n", n+1)
		}
	})

	s.Set("n", 1)

	if got := s.Snapshot().Get("n"); got != 3 {
		t.Errorf("n = %v, want 3", got)
	}
}

type idListener struct {
	id    uint64
	calls int
}

func (l *idListener) OnChange(*store.State) { l.calls++ }
func (l *idListener) ID() uint64 { return l.id }

func TestSubscribeListenerDeduplicates(t *testing.T) {
	s := store.New(newState(nil))
	l := &idListener{id: 7}

	unsub := s.SubscribeListener(l)
	s.SubscribeListener(l)

	if n := s.ListenerCount(); n != 1 {
		t.Fatalf("ListenerCount() = %d, want 1", n)
	}

	s.Set("a", 1)
	if l.calls != 1 {
		t.Errorf("calls = %d, want 1", l.calls)
	}

	unsub()
	s.Set("a", 2)
	if l.calls != 1 {
		t.Errorf("calls = %d, want 1 after unsubscribe", l.calls)
	}
}

func TestSubscribeNil(t *testing.T) {
	s := store.New(nil)
	s.Subscribe(nil)()
	s.SubscribeListener(nil)()
	if n := s.ListenerCount(); n != 0 {
		t.Errorf("ListenerCount() = %d, want 0", n)
	}
}
