package persist

import (
	"context"
	"log/slog"

	"github.com/vango-dev/controlstore/pkg/store"
)

// Source is a store that can be snapshotted.
type Source interface {
	Snapshot() *store.State
}

// Target is a store that snapshots can be restored into. A
// *store.ControllableStore drops controlled keys on restore.
type Target interface {
	Apply(changes store.Changes)
}

// Snapshotter saves store states to a Backend and restores them.
type Snapshotter struct {
	backend Backend
	codec   []Option
	logger  *slog.Logger
}

// SnapshotterOption configures a Snapshotter.
type SnapshotterOption func(*Snapshotter)

// WithCodecOptions sets the encoding options, such as WithTransient.
func WithCodecOptions(opts ...Option) SnapshotterOption {
	return func(s *Snapshotter) {
		s.codec = append(s.codec, opts...)
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) SnapshotterOption {
	return func(s *Snapshotter) {
		s.logger = logger
	}
}

// NewSnapshotter creates a Snapshotter writing to backend.
func NewSnapshotter(backend Backend, opts ...SnapshotterOption) *Snapshotter {
	s := &Snapshotter{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Save encodes the current state of src and stores it under id.
func (s *Snapshotter) Save(ctx context.Context, id string, src Source) error {
	data, err := Encode(src.Snapshot(), s.codec...)
	if err != nil {
		return err
	}
	if err := s.backend.Save(ctx, id, data); err != nil {
		return err
	}
	s.logger.Debug("snapshot saved", "id", id, "bytes", len(data))
	return nil
}

// Restore loads the snapshot stored under id and applies it to dst. It
// reports whether a snapshot was found.
func (s *Snapshotter) Restore(ctx context.Context, id string, dst Target) (bool, error) {
	data, err := s.backend.Load(ctx, id)
	if err != nil {
		return false, err
	}
	if data == nil {
		s.logger.Debug("no snapshot to restore", "id", id)
		return false, nil
	}

	changes, err := Decode(data, s.codec...)
	if err != nil {
		return false, err
	}
	dst.Apply(changes)
	s.logger.Debug("snapshot restored", "id", id, "fields", len(changes))
	return true, nil
}

// Delete removes the snapshot stored under id.
func (s *Snapshotter) Delete(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, id)
}
