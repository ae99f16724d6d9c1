package store

import "sync"

// Listener is anything that can be notified when a store's state changes.
type Listener interface {
	// OnChange receives the new state after every replacement.
	OnChange(state *State)

	// ID returns a unique identifier for this listener.
	// Registering the same ID twice is a no-op.
	ID() uint64
}

type listenerEntry struct {
	seq uint64

	// lid is the Listener ID for SubscribeListener registrations.
	lid    uint64
	hasLID bool

	fn func(*State)
}

// Store is an observable container for one immutable State.
type Store struct {
	mu        sync.Mutex
	state     *State
	listeners []listenerEntry
	seq       uint64

	opts        options
	diagnostics bool
}

// New creates a store holding initial. A nil initial is an empty state.
func New(initial *State, opts ...Option) *Store {
	s := &Store{}
	s.init(initial, opts)
	return s
}

func (s *Store) init(initial *State, opts []Option) {
	if initial == nil {
		initial = NewState(nil)
	}
	s.state = initial
	s.opts = applyOptions(opts)
	s.diagnostics = s.opts.diagnosticsEnabled()
}

// Name returns the store name set with WithName.
func (s *Store) Name() string {
	return s.opts.name
}

// Snapshot returns the current state. It has no side effects.
func (s *Store) Snapshot() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to be called with the new state on every change.
// The returned function removes exactly this registration; calling it more
// than once is harmless.
func (s *Store) Subscribe(fn func(*State)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.listeners = append(s.listeners, listenerEntry{seq: seq, fn: fn})
	s.mu.Unlock()

	return func() { s.remove(seq) }
}

// SubscribeListener registers l. A listener whose ID is already registered
// is not added again, and the returned function removes that registration.
func (s *Store) SubscribeListener(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}

	lid := l.ID()

	s.mu.Lock()
	for _, existing := range s.listeners {
		if existing.hasLID && existing.lid == lid {
			s.mu.Unlock()
			seq := existing.seq
			return func() { s.remove(seq) }
		}
	}
	s.seq++
	seq := s.seq
	s.listeners = append(s.listeners, listenerEntry{seq: seq, lid: lid, hasLID: true, fn: l.OnChange})
	s.mu.Unlock()

	return func() { s.remove(seq) }
}

// ListenerCount returns the number of registered listeners.
func (s *Store) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) remove(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.listeners {
		if entry.seq == seq {
			// Preserve registration order for the next pass.
			s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
			return
		}
	}
}

// Update replaces the state and notifies every listener, unless next is the
// current state.
func (s *Store) Update(next *State) {
	s.commit(func(*State) *State { return next })
}

// Apply merges changes into the state. If any field differs from its current
// value, all of changes are merged in a single Update; otherwise nothing
// happens.
func (s *Store) Apply(changes Changes) {
	if len(changes) == 0 {
		return
	}
	s.commit(func(cur *State) *State {
		for k, v := range changes {
			if cur.differs(k, v) {
				return cur.Merge(changes)
			}
		}
		return cur
	})
}

// Set writes one field, notifying listeners only if the value changed.
func (s *Store) Set(key string, value any) {
	s.commit(func(cur *State) *State {
		if cur.differs(key, value) {
			return cur.With(key, value)
		}
		return cur
	})
}

// commit computes the next state under the lock and notifies outside it.
// The listener list is copied first so that registrations made during the
// pass only take effect on the next one.
func (s *Store) commit(next func(cur *State) *State) {
	s.mu.Lock()
	cur := s.state
	n := next(cur)
	if n == nil {
		n = NewState(nil)
	}
	if n == cur {
		s.mu.Unlock()
		return
	}
	s.state = n
	subs := make([]func(*State), len(s.listeners))
	for i, entry := range s.listeners {
		subs[i] = entry.fn
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}

	for _, obs := range s.opts.observers {
		obs.Notified(s.opts.name, len(subs))
	}
}

// report delivers d to the reporter when diagnostics are enabled.
func (s *Store) report(d Diagnostic) {
	if !s.diagnostics {
		return
	}
	d.Store = s.opts.name
	s.opts.reporter.Report(d)
}
