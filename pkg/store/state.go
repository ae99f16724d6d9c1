package store

import (
	"encoding/json"
	"math"
	"reflect"
	"sort"
)

// State is an immutable mapping from field name to value.
// Methods that change it return a new *State; the receiver is never
// modified. A nil *State reads as empty.
type State struct {
	fields map[string]any
}

// Changes is a set of field values to merge into a State.
type Changes map[string]any

// NewState creates a State holding a copy of fields.
func NewState(fields map[string]any) *State {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &State{fields: copied}
}

// Get returns the value stored under key, or nil if it is absent.
func (s *State) Get(key string) any {
	v, _ := s.Lookup(key)
	return v
}

// Lookup returns the value stored under key and whether it is present.
func (s *State) Lookup(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (s *State) Has(key string) bool {
	_, ok := s.Lookup(key)
	return ok
}

// Len returns the number of fields.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Keys returns the field names in sorted order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the fields.
func (s *State) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// With returns a new State with key set to value.
func (s *State) With(key string, value any) *State {
	next := s.Map()
	next[key] = value
	return &State{fields: next}
}

// Merge returns a new State with every entry of changes applied.
func (s *State) Merge(changes Changes) *State {
	next := s.Map()
	for k, v := range changes {
		next[k] = v
	}
	return &State{fields: next}
}

// differs reports whether value is not the same as the current value of key.
// An absent key differs from every value, including nil.
func (s *State) differs(key string, value any) bool {
	cur, ok := s.Lookup(key)
	if !ok {
		return true
	}
	return !SameValue(cur, value)
}

// MarshalJSON encodes the fields as a JSON object.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// SameValue reports whether a and b are the same value.
//
// NaN is the same as NaN and +0 is not the same as -0. Comparable values
// compare with ==. Slices and maps compare by identity (same backing
// storage), never by contents. Functions are never the same unless both are
// nil. Other non-comparable values fall back to reflect.DeepEqual.
func SameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && sameFloat(av, bv)
	case float32:
		bv, ok := b.(float32)
		return ok && sameFloat(float64(av), float64(bv))
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Map:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == 0 && b == 0 {
		return math.Signbit(a) == math.Signbit(b)
	}
	return a == b
}
