package bind

import (
	"sort"

	"github.com/vango-dev/controlstore/pkg/store"
)

// PropConfig describes one property a component may control.
type PropConfig struct {
	// Default seeds the store while the property is uncontrolled.
	Default    any
	HasDefault bool

	OnChange store.ChangeFunc

	// Name is the component name used in mode-switch diagnostics.
	Name string

	// State names the property in diagnostics. Defaults to the key.
	State string
}

// ControlledProps derives property configurations from each pass's props
// and keeps a ControllableStore in step with them.
//
// Several ControlledProps may share one store as long as their key sets do
// not overlap.
type ControlledProps struct {
	store  *store.ControllableStore
	config map[string]PropConfig
}

// NewControlledProps binds config to cs. config is copied.
func NewControlledProps(cs *store.ControllableStore, config map[string]PropConfig) *ControlledProps {
	copied := make(map[string]PropConfig, len(config))
	for k, v := range config {
		copied[k] = v
	}
	return &ControlledProps{store: cs, config: copied}
}

// Store returns the bound store.
func (c *ControlledProps) Store() *store.ControllableStore {
	return c.store
}

// Configs returns the store configurations implied by props. A configured
// key is controlled exactly when it is present in props.
func (c *ControlledProps) Configs(props Props) store.Configs {
	configs := make(store.Configs, len(c.config))
	for key, pc := range c.config {
		cfg := store.PropertyConfig{
			OnChange: pc.OnChange,
			Name:     pc.Name,
			State:    pc.State,
		}
		if cfg.State == "" {
			cfg.State = key
		}
		if v, ok := props[key]; ok {
			cfg.Mode = store.ModeControlled
			cfg.Value, cfg.HasValue = v, true
		} else {
			cfg.Mode = store.ModeUncontrolled
			cfg.Default, cfg.HasDefault = pc.Default, pc.HasDefault
		}
		configs[key] = cfg
	}
	return configs
}

// Sync reconfigures the store for props, then writes every present prop
// that is not a configured key. Those writes bypass the controlled-key
// guard, since they are owned by the caller.
func (c *ControlledProps) Sync(props Props) {
	c.store.UpdateControlledConfigs(c.Configs(props))

	regular := make(store.Changes)
	for k, v := range props {
		if _, configured := c.config[k]; !configured {
			regular[k] = v
		}
	}
	if len(regular) > 0 {
		c.store.Store.Apply(regular)
	}
}

// Keys returns the configured keys in sorted order.
func (c *ControlledProps) Keys() []string {
	keys := make([]string, 0, len(c.config))
	for k := range c.config {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
