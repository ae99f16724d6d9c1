package persist

import (
	"context"
	"sync"

	cserrors "github.com/vango-dev/controlstore/internal/errors"
)

// Backend stores encoded snapshots by ID.
// Implementations must be safe for concurrent use.
type Backend interface {
	// Save persists data under id, overwriting any previous snapshot.
	Save(ctx context.Context, id string, data []byte) error

	// Load retrieves the snapshot stored under id.
	// Returns (nil, nil) if there is none.
	Load(ctx context.Context, id string) ([]byte, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the backend.
	Close() error
}

// ErrClosed is returned when a closed backend is used.
var ErrClosed = cserrors.New("E163")

// MemoryBackend keeps snapshots in memory.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

// Save stores a copy of data.
func (m *MemoryBackend) Save(ctx context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	m.data[id] = dataCopy
	return nil
}

// Load returns a copy of the snapshot stored under id.
func (m *MemoryBackend) Load(ctx context.Context, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	d, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	dataCopy := make([]byte, len(d))
	copy(dataCopy, d)
	return dataCopy, nil
}

// Delete removes the snapshot stored under id.
func (m *MemoryBackend) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.data, id)
	return nil
}

// Close discards every snapshot.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.data = nil
	return nil
}

// Count returns the number of stored snapshots.
func (m *MemoryBackend) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
