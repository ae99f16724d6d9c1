package bind

import (
	"sync"

	"github.com/vango-dev/controlstore/pkg/store"
)

// Props is one pass's property snapshot. A key that is present, even with
// a nil value, counts as supplied.
type Props map[string]any

// Applier is a store that accepts merged changes. Both *store.Store and
// *store.ControllableStore satisfy it; the latter filters controlled keys.
type Applier interface {
	Apply(changes store.Changes)
}

// WithProps merges props into target.
func WithProps(target Applier, props Props) {
	if len(props) == 0 {
		return
	}
	target.Apply(store.Changes(props))
}

// PropsBinding applies props to a store only when the props map itself
// changes. Passing the same map again is a no-op, even if its contents were
// modified in place.
type PropsBinding struct {
	mu      sync.Mutex
	target  Applier
	last    Props
	applied bool
}

// NewPropsBinding creates a binding for target.
func NewPropsBinding(target Applier) *PropsBinding {
	return &PropsBinding{target: target}
}

// Update applies props if they are not the props of the previous call.
// It reports whether anything was applied.
func (b *PropsBinding) Update(props Props) bool {
	b.mu.Lock()
	if b.applied && store.SameValue(b.last, props) {
		b.mu.Unlock()
		return false
	}
	b.last, b.applied = props, true
	b.mu.Unlock()

	WithProps(b.target, props)
	return true
}
