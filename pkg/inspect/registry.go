package inspect

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/store"
)

// DiagnosticRecord is a diagnostic as kept by the registry.
type DiagnosticRecord struct {
	Time    time.Time `json:"time"`
	Code    string    `json:"code"`
	Level   string    `json:"level"`
	Key     string    `json:"key"`
	Message string    `json:"message"`
	DocURL  string    `json:"docUrl,omitempty"`
}

// diagnosticLog is a fixed-size ring of diagnostics.
type diagnosticLog struct {
	mu   sync.Mutex
	buf  []DiagnosticRecord
	next int
	full bool
}

func newDiagnosticLog(size int) *diagnosticLog {
	if size <= 0 {
		size = 1
	}
	return &diagnosticLog{buf: make([]DiagnosticRecord, size)}
}

func (l *diagnosticLog) add(r DiagnosticRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.next] = r
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
}

// records returns the kept diagnostics, oldest first.
func (l *diagnosticLog) records() []DiagnosticRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.full {
		out := make([]DiagnosticRecord, l.next)
		copy(out, l.buf[:l.next])
		return out
	}
	out := make([]DiagnosticRecord, 0, len(l.buf))
	out = append(out, l.buf[l.next:]...)
	out = append(out, l.buf[:l.next]...)
	return out
}

// Entry is a registered store.
type Entry struct {
	ID    uuid.UUID
	Name  string
	Store *store.ControllableStore

	diags *diagnosticLog
}

// Diagnostics returns the store's recent diagnostics, oldest first.
func (e *Entry) Diagnostics() []DiagnosticRecord {
	return e.diags.records()
}

// Registry holds named stores for inspection.
// Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	logs    map[string]*diagnosticLog
	history int
	logger  *slog.Logger
}

// NewRegistry creates a Registry keeping up to history diagnostics per
// store.
func NewRegistry(history int) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		logs:    make(map[string]*diagnosticLog),
		history: history,
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger used for registration events.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// logFor returns the diagnostic log for name, creating it if needed.
// Callers must hold r.mu.
func (r *Registry) logFor(name string) *diagnosticLog {
	l, ok := r.logs[name]
	if !ok {
		l = newDiagnosticLog(r.history)
		r.logs[name] = l
	}
	return l
}

// Reporter returns a store.Reporter that records diagnostics for the store
// called name and then forwards them to next. A nil next only records.
// It may be created before the store is registered.
func (r *Registry) Reporter(name string, next store.Reporter) store.Reporter {
	r.mu.Lock()
	l := r.logFor(name)
	r.mu.Unlock()

	return store.ReporterFunc(func(d store.Diagnostic) {
		l.add(DiagnosticRecord{
			Time:    time.Now(),
			Code:    d.Code,
			Level:   d.Level.String(),
			Key:     d.Key,
			Message: d.Message,
			DocURL:  d.DocURL,
		})
		if next != nil {
			next.Report(d)
		}
	})
}

// Register adds cs under its name, replacing any store already registered
// under that name. Stores must be named with store.WithName.
func (r *Registry) Register(cs *store.ControllableStore) (*Entry, error) {
	name := cs.Name()
	if name == "" {
		return nil, errors.Newf(errors.CategoryCLI, "cannot register an unnamed store").
			WithSuggestion("Create the store with store.WithName")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{
		ID:    uuid.New(),
		Name:  name,
		Store: cs,
		diags: r.logFor(name),
	}
	if _, ok := r.entries[name]; ok {
		r.logger.Warn("replacing registered store", "store", name)
	}
	r.entries[name] = e
	r.logger.Debug("store registered", "store", name, "id", e.ID)
	return e, nil
}

// Unregister removes the store called name and its diagnostics.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
	delete(r.logs, name)
}

// Lookup returns the store called name. It fails with E190 if there is none.
func (r *Registry) Lookup(name string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, errors.New("E190").WithDetail(fmt.Sprintf("No store is registered as %q.", name))
	}
	return e, nil
}

// Entries returns the registered stores sorted by name.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	out := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
