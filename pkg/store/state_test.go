package store

import (
	"math"
	"testing"
)

type point struct{ X, Y int }

type withSlice struct{ Items []int }

func TestSameValue(t *testing.T) {
	shared := []int{1, 2}
	m := map[string]int{"a": 1}
	fn := func() {}
	p := &point{1, 2}

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil zero", nil, 0, false},
		{"ints", 1, 1, true},
		{"int types differ", 1, int64(1), false},
		{"strings", "a", "b", false},
		{"NaN", math.NaN(), math.NaN(), true},
		{"NaN float32", float32(math.NaN()), float32(math.NaN()), true},
		{"zero signs", 0.0, math.Copysign(0, -1), false},
		{"negative zeros", math.Copysign(0, -1), math.Copysign(0, -1), true},
		{"float vs float32", 1.0, float32(1), false},
		{"same slice", shared, shared, true},
		{"slice prefix", shared, shared[:1], false},
		{"equal slices", []int{1, 2}, []int{1, 2}, false},
		{"same map", m, m, true},
		{"equal maps", map[string]int{"a": 1}, map[string]int{"a": 1}, false},
		{"func", fn, fn, false},
		{"structs", point{1, 2}, point{1, 2}, true},
		{"same pointer", p, p, true},
		{"equal pointers", &point{1, 2}, &point{1, 2}, false},
		{"non-comparable structs", withSlice{[]int{1}}, withSlice{[]int{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameValue(tt.a, tt.b); got != tt.want {
				t.Errorf("SameValue(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestStateImmutable(t *testing.T) {
	src := map[string]any{"a": 1}
	s := NewState(src)
	src["a"] = 2

	if s.Get("a") != 1 {
		t.Error("NewState must copy its input")
	}

	m := s.Map()
	m["a"] = 3
	if s.Get("a") != 1 {
		t.Error("Map must return a copy")
	}

	next := s.With("b", 2)
	if s.Has("b") || !next.Has("b") {
		t.Error("With must return a new state")
	}

	merged := s.Merge(Changes{"a": 5})
	if s.Get("a") != 1 || merged.Get("a") != 5 {
		t.Error("Merge must return a new state")
	}
}

func TestStateDiffers(t *testing.T) {
	s := NewState(map[string]any{"n": nil})

	if s.differs("n", nil) {
		t.Error("present nil should not differ from nil")
	}
	if !s.differs("missing", nil) {
		t.Error("absent key should differ from nil")
	}
}

func TestNilState(t *testing.T) {
	var s *State
	if s.Len() != 0 || s.Has("a") || s.Keys() != nil || len(s.Map()) != 0 {
		t.Error("nil state should read as empty")
	}
}

func TestStateMarshalJSON(t *testing.T) {
	s := NewState(map[string]any{"open": true, "count": 2})
	b, err := s.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if got, want := string(b), `{"count":2,"open":true}`; got != want {
		t.Errorf("MarshalJSON = %s, want %s", got, want)
	}
	if keys := s.Keys(); len(keys) != 2 || keys[0] != "count" {
		t.Errorf("Keys() = %v", keys)
	}
}
