package store

import "sort"

// Mode is the ownership mode of a property.
type Mode uint8

const (
	// ModeUnset marks an invalid configuration. Batches skip it.
	ModeUnset Mode = iota

	// ModeUncontrolled means the store owns the value, seeded by a default.
	ModeUncontrolled

	// ModeControlled means the caller owns the value and receives change
	// requests through OnChange.
	ModeControlled
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeControlled:
		return "controlled"
	case ModeUncontrolled:
		return "uncontrolled"
	default:
		return "unset"
	}
}

// ChangeFunc is called with a requested value for a controlled property.
// details carries whatever the caller of the setter passed, often a reason.
type ChangeFunc func(value any, details any)

// PropertyConfig configures the ownership of one property.
type PropertyConfig struct {
	Mode Mode

	// Value is the externally supplied value of a controlled property.
	Value    any
	HasValue bool

	// Default seeds an uncontrolled property on first configuration.
	Default    any
	HasDefault bool

	OnChange ChangeFunc

	// Name is the owning component, used in diagnostics. Mode-switch
	// diagnostics are only emitted when it is set.
	Name string

	// State is the semantic state name used in diagnostics.
	// Defaults to the key.
	State string
}

// Controlled returns a controlled configuration with value. A nil onChange
// leaves the configuration without a callback.
func Controlled[T any](value T, onChange func(T, any)) PropertyConfig {
	cfg := PropertyConfig{Mode: ModeControlled, Value: value, HasValue: true}
	if onChange != nil {
		cfg.OnChange = typedChange(onChange)
	}
	return cfg
}

// Uncontrolled returns an uncontrolled configuration seeded with def.
func Uncontrolled[T any](def T) PropertyConfig {
	return PropertyConfig{Mode: ModeUncontrolled, Default: def, HasDefault: true}
}

func typedChange[T any](fn func(T, any)) ChangeFunc {
	return func(value any, details any) {
		v, _ := value.(T)
		fn(v, details)
	}
}

// Named returns a copy of c with diagnostic labels set.
func (c PropertyConfig) Named(component, state string) PropertyConfig {
	c.Name = component
	c.State = state
	return c
}

// WithOnChange returns a copy of c with fn as its change callback.
func (c PropertyConfig) WithOnChange(fn ChangeFunc) PropertyConfig {
	c.OnChange = fn
	return c
}

// Controlled reports whether c is a controlled configuration.
func (c PropertyConfig) Controlled() bool {
	return c.Mode == ModeControlled
}

// Valid reports whether c has a known mode.
func (c PropertyConfig) Valid() bool {
	return c.Mode == ModeControlled || c.Mode == ModeUncontrolled
}

// Configs maps keys to property configurations.
type Configs map[string]PropertyConfig

// sortedKeys returns the keys in sorted order so that batches configure
// deterministically.
func (c Configs) sortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseConfig validates a dynamically typed configuration.
//
// Accepted forms are PropertyConfig, a non-nil *PropertyConfig, and a map
// with a boolean "controlled" entry plus optional "value", "defaultValue",
// "onChange", "name" and "state" entries. A present "value" or
// "defaultValue" counts as supplied, even when nil. Anything else is
// rejected.
func ParseConfig(raw any) (PropertyConfig, bool) {
	switch v := raw.(type) {
	case PropertyConfig:
		return v, v.Valid()
	case *PropertyConfig:
		if v == nil {
			return PropertyConfig{}, false
		}
		return *v, v.Valid()
	case map[string]any:
		return parseConfigMap(v)
	}
	return PropertyConfig{}, false
}

func parseConfigMap(m map[string]any) (PropertyConfig, bool) {
	controlled, ok := m["controlled"].(bool)
	if !ok {
		return PropertyConfig{}, false
	}

	cfg := PropertyConfig{Mode: ModeUncontrolled}
	if controlled {
		cfg.Mode = ModeControlled
	}
	if v, ok := m["value"]; ok {
		cfg.Value, cfg.HasValue = v, true
	}
	if v, ok := m["defaultValue"]; ok {
		cfg.Default, cfg.HasDefault = v, true
	}
	switch fn := m["onChange"].(type) {
	case ChangeFunc:
		cfg.OnChange = fn
	case func(any, any):
		cfg.OnChange = fn
	}
	cfg.Name, _ = m["name"].(string)
	cfg.State, _ = m["state"].(string)
	return cfg, true
}

// ParseConfigs validates every entry of raw, dropping the malformed ones.
func ParseConfigs(raw map[string]any) Configs {
	out := make(Configs, len(raw))
	for k, v := range raw {
		if cfg, ok := ParseConfig(v); ok {
			out[k] = cfg
		}
	}
	return out
}
