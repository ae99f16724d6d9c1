package bind

import (
	"sync"

	"github.com/vango-dev/controlstore/pkg/store"
)

// Source is a readable, observable store.
type Source interface {
	Snapshot() *store.State
	Subscribe(fn func(*store.State)) (unsubscribe func())
}

// Select projects the current state of src through selector.
func Select[T any](src Source, selector func(*store.State) T) T {
	return selector(src.Snapshot())
}

// Watch calls fn with the selected value each time it changes. Values are
// compared with store.SameValue, so a state change that leaves the
// selection untouched does not call fn. fn is not called for the value
// current at subscription time.
func Watch[T any](src Source, selector func(*store.State) T, fn func(T)) (unsubscribe func()) {
	var mu sync.Mutex
	prev := selector(src.Snapshot())

	return src.Subscribe(func(st *store.State) {
		next := selector(st)

		mu.Lock()
		if store.SameValue(prev, next) {
			mu.Unlock()
			return
		}
		prev = next
		mu.Unlock()

		fn(next)
	})
}

// Field returns a selector reading key as a T.
func Field[T any](key string) func(*store.State) T {
	k := store.NewKey[T](key)
	return k.Get
}
