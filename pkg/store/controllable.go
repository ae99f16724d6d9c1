package store

import (
	"sort"
	"sync"
)

// Setter writes one property, routing to the owner's OnChange while the
// property is controlled.
type Setter func(value any, details any)

// ControllableStore is a Store whose keys can be controlled by an external
// owner or left to the store.
//
// Set and Apply are guarded: writes to controlled keys are dropped. The
// embedded Store's methods remain reachable as cs.Store.Set and
// cs.Store.Apply for callers that must bypass the guard.
type ControllableStore struct {
	*Store

	// cmu protects configs and initial.
	cmu sync.Mutex

	configs map[string]PropertyConfig

	// initial records whether each key was controlled when first
	// configured. Entries are never overwritten.
	initial map[string]bool
}

// NewControllable creates a ControllableStore holding initial.
func NewControllable(initial *State, opts ...Option) *ControllableStore {
	return &ControllableStore{
		Store:   New(initial, opts...),
		configs: make(map[string]PropertyConfig),
		initial: make(map[string]bool),
	}
}

// ConfigureControlled records cfg for key, replacing any previous
// configuration. A controlled value is written to state immediately; an
// uncontrolled default is written only the first time key is configured.
// Configurations with ModeUnset are ignored.
func (cs *ControllableStore) ConfigureControlled(key string, cfg PropertyConfig) {
	if !cfg.Valid() {
		return
	}

	cs.cmu.Lock()
	_, wasConfigured := cs.configs[key]
	if _, ok := cs.initial[key]; !ok {
		cs.initial[key] = cfg.Controlled()
	}
	cs.configs[key] = cfg
	cs.cmu.Unlock()

	for _, obs := range cs.opts.observers {
		obs.Configured(cs.opts.name, key, cfg.Mode)
	}

	switch {
	case cfg.Controlled() && cfg.HasValue:
		cs.Store.Set(key, cfg.Value)
	case !cfg.Controlled() && cfg.HasDefault && !wasConfigured:
		cs.Store.Set(key, cfg.Default)
	}
}

// UpdateControlledConfigs configures every valid entry of configs, then
// checks all configured keys against their first configuration. A key
// whose mode changed produces a W103 diagnostic when its config has a Name.
// The new mode is applied either way.
func (cs *ControllableStore) UpdateControlledConfigs(configs Configs) {
	for _, key := range configs.sortedKeys() {
		cfg := configs[key]
		if cfg.Valid() {
			cs.ConfigureControlled(key, cfg)
		}
	}

	type mismatch struct {
		key           string
		wasControlled bool
		cfg           PropertyConfig
	}

	cs.cmu.Lock()
	var switched []mismatch
	for key, cfg := range cs.configs {
		was := cs.initial[key]
		if was != cfg.Controlled() {
			switched = append(switched, mismatch{key: key, wasControlled: was, cfg: cfg})
		}
	}
	cs.cmu.Unlock()

	sort.Slice(switched, func(i, j int) bool { return switched[i].key < switched[j].key })

	for _, m := range switched {
		for _, obs := range cs.opts.observers {
			obs.ModeSwitched(cs.opts.name, m.key, m.wasControlled, m.cfg.Controlled())
		}
		if m.cfg.Name != "" {
			cs.report(modeSwitchDiagnostic(m.key, m.wasControlled, m.cfg))
		}
	}
}

// Set writes key unless it is controlled, in which case the write is
// dropped and a W101 diagnostic is reported.
func (cs *ControllableStore) Set(key string, value any) {
	if cs.IsControlled(key) {
		cs.rejected(CodeControlledSet, key, ViaSet)
		return
	}
	cs.Store.Set(key, value)
}

// Apply merges the uncontrolled and unconfigured entries of changes.
// Each controlled entry is dropped with a W102 diagnostic. If nothing
// remains, the store is not touched.
func (cs *ControllableStore) Apply(changes Changes) {
	filtered := make(Changes, len(changes))

	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if cs.IsControlled(k) {
			cs.rejected(CodeControlledApply, k, ViaApply)
			continue
		}
		filtered[k] = changes[k]
	}

	if len(filtered) > 0 {
		cs.Store.Apply(filtered)
	}
}

func (cs *ControllableStore) rejected(code, key string, via WriteVia) {
	for _, obs := range cs.opts.observers {
		obs.WriteRejected(cs.opts.name, key, via)
	}
	cs.report(controlledWriteDiagnostic(code, key))
}

// CreateSetter returns a Setter for key. The controlled check runs on every
// call: while key is controlled the setter calls its OnChange and leaves the
// state alone; otherwise it writes the state directly.
func (cs *ControllableStore) CreateSetter(key string) Setter {
	return func(value any, details any) {
		cfg, ok := cs.Config(key)
		if ok && cfg.Controlled() {
			if cfg.OnChange != nil {
				cfg.OnChange(value, details)
			} else {
				cs.report(missingOnChangeDiagnostic(key))
			}
			return
		}
		cs.Store.Set(key, value)
	}
}

// IsControlled reports whether key is currently configured as controlled.
func (cs *ControllableStore) IsControlled(key string) bool {
	cs.cmu.Lock()
	defer cs.cmu.Unlock()
	return cs.configs[key].Controlled()
}

// Config returns the configuration for key.
func (cs *ControllableStore) Config(key string) (PropertyConfig, bool) {
	cs.cmu.Lock()
	defer cs.cmu.Unlock()
	cfg, ok := cs.configs[key]
	return cfg, ok
}

// InitiallyControlled returns the mode key had on its first configuration.
func (cs *ControllableStore) InitiallyControlled(key string) (controlled, ok bool) {
	cs.cmu.Lock()
	defer cs.cmu.Unlock()
	controlled, ok = cs.initial[key]
	return controlled, ok
}

// ConfiguredKeys returns the configured keys in sorted order.
func (cs *ControllableStore) ConfiguredKeys() []string {
	cs.cmu.Lock()
	keys := make([]string, 0, len(cs.configs))
	for k := range cs.configs {
		keys = append(keys, k)
	}
	cs.cmu.Unlock()
	sort.Strings(keys)
	return keys
}
