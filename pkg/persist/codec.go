package persist

import (
	"encoding/json"
	"fmt"

	cserrors "github.com/vango-dev/controlstore/internal/errors"
	"github.com/vango-dev/controlstore/pkg/store"
)

// CurrentVersion is the current snapshot format version.
// Increment when making breaking changes to the format.
const CurrentVersion = 1

// Document is the JSON representation of a snapshot.
type Document struct {
	Version int                        `json:"version"`
	Fields  map[string]json.RawMessage `json:"fields"`
}

// Option configures encoding.
type Option func(*codecConfig)

type codecConfig struct {
	transient map[string]bool
}

// WithTransient excludes keys from snapshots. Transient keys are neither
// written by Encode nor restored by Decode.
func WithTransient(keys ...string) Option {
	return func(c *codecConfig) {
		for _, k := range keys {
			c.transient[k] = true
		}
	}
}

func newCodecConfig(opts []Option) codecConfig {
	c := codecConfig{transient: make(map[string]bool)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Encode serializes st. Every non-transient field must be JSON-encodable.
func Encode(st *store.State, opts ...Option) ([]byte, error) {
	config := newCodecConfig(opts)

	doc := Document{
		Version: CurrentVersion,
		Fields:  make(map[string]json.RawMessage, st.Len()),
	}
	for _, k := range st.Keys() {
		if config.transient[k] {
			continue
		}
		raw, err := json.Marshal(st.Get(k))
		if err != nil {
			return nil, cserrors.New("E160").
				WithDetail(fmt.Sprintf("Field %q could not be encoded.", k)).
				Wrap(err)
		}
		doc.Fields[k] = raw
	}

	return json.Marshal(doc)
}

// Decode parses a snapshot into changes ready to Apply. Numbers decode as
// float64, objects as map[string]any and arrays as []any.
func Decode(data []byte, opts ...Option) (store.Changes, error) {
	config := newCodecConfig(opts)

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, cserrors.New("E161").Wrap(err)
	}
	if doc.Version != CurrentVersion {
		return nil, cserrors.New("E161").
			WithDetail(fmt.Sprintf("Snapshot version %d is not supported (want %d).", doc.Version, CurrentVersion))
	}

	changes := make(store.Changes, len(doc.Fields))
	for k, raw := range doc.Fields {
		if config.transient[k] {
			continue
		}
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, cserrors.New("E161").
				WithDetail(fmt.Sprintf("Field %q could not be decoded.", k)).
				Wrap(err)
		}
		changes[k] = v
	}
	return changes, nil
}
