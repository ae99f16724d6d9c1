package store

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Key is a typed handle for one state field.
//
//	var Open = store.NewKey[bool]("open")
//
//	open := Open.Get(cs.Snapshot())
//	setOpen := store.SetterFor(cs, Open)
type Key[T any] struct {
	name string
}

// NewKey returns a Key for the field name.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the field name.
func (k Key[T]) Name() string {
	return k.name
}

// Lookup returns the field value and whether it is present with type T.
func (k Key[T]) Lookup(s *State) (T, bool) {
	v, ok := s.Lookup(k.name)
	if !ok {
		var zero T
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}

// Get returns the field value, or the zero value of T.
func (k Key[T]) Get(s *State) T {
	v, _ := k.Lookup(s)
	return v
}

// SetterFor returns a typed Setter for k on cs.
func SetterFor[T any](cs *ControllableStore, k Key[T]) func(value T, details any) {
	set := cs.CreateSetter(k.name)
	return func(value T, details any) {
		set(value, details)
	}
}

// EnhancedStore is a ControllableStore with a setter pre-generated for each
// of a fixed set of keys.
type EnhancedStore struct {
	*ControllableStore

	setters map[string]Setter
}

// NewEnhanced creates a ControllableStore and generates a setter for each
// key. Setters are reachable by key with Setter and by generated method
// name ("open" becomes "setOpen") with Method.
func NewEnhanced(initial *State, keys []string, opts ...Option) *EnhancedStore {
	cs := NewControllable(initial, opts...)
	e := &EnhancedStore{
		ControllableStore: cs,
		setters:           make(map[string]Setter, len(keys)),
	}
	for _, k := range keys {
		e.setters[k] = cs.CreateSetter(k)
	}
	return e
}

// Setter returns the generated setter for key.
func (e *EnhancedStore) Setter(key string) (Setter, bool) {
	s, ok := e.setters[key]
	return s, ok
}

// Method returns the generated setter by its method name, e.g. "setOpen".
func (e *EnhancedStore) Method(name string) (Setter, bool) {
	for k, s := range e.setters {
		if SetterName(k) == name {
			return s, true
		}
	}
	return nil, false
}

// Methods returns the generated method names.
func (e *EnhancedStore) Methods() []string {
	names := make([]string, 0, len(e.setters))
	for k := range e.setters {
		names = append(names, SetterName(k))
	}
	return names
}

// SetterName returns the generated setter name for key: "set" followed by
// key with its first letter upper-cased.
func SetterName(key string) string {
	if key == "" {
		return "set"
	}
	r, size := utf8.DecodeRuneInString(key)
	var b strings.Builder
	b.WriteString("set")
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(key[size:])
	return b.String()
}
