package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vango-dev/controlstore/internal/errors"
)

const (
	// ConfigFileName is the file Load looks for.
	ConfigFileName = "controlstore.json"

	// DefaultAddress is the default inspector listen address.
	DefaultAddress = "localhost:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "controlstore"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "controlstore"

	// DefaultHistory is the default number of diagnostics kept per store.
	DefaultHistory = 100

	// Persistence backends.
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config represents the complete controlstore.json configuration.
type Config struct {
	// Inspector contains the HTTP inspector configuration.
	Inspector InspectorConfig `json:"inspector,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Persist contains snapshot persistence configuration.
	Persist PersistConfig `json:"persist,omitempty"`

	// Diagnostics contains diagnostic reporting configuration.
	Diagnostics DiagnosticsConfig `json:"diagnostics,omitempty"`

	// configPath is set by LoadFile and SaveTo.
	configPath string
}

// InspectorConfig contains inspector server settings.
type InspectorConfig struct {
	// Address is the host:port to listen on.
	Address string `json:"address,omitempty"`

	// AllowedOrigins lists the origins allowed to open watch sockets.
	// Empty allows same-origin requests only; "*" allows any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`

	// History is the number of diagnostics kept per store.
	History int `json:"history,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics and records store metrics.
	Enabled *bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `json:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled records spans for store events and inspector requests.
	Enabled bool `json:"enabled,omitempty"`

	// TracerName is the tracer name.
	TracerName string `json:"tracerName,omitempty"`

	// NotifySpans records a span for every notification pass.
	NotifySpans bool `json:"notifySpans,omitempty"`
}

// PersistConfig contains snapshot persistence settings.
type PersistConfig struct {
	// Backend is "memory" or "s3".
	Backend string `json:"backend,omitempty"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty"`

	// Prefix is prepended to every S3 object key.
	Prefix string `json:"prefix,omitempty"`

	// Region is the AWS region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty"`

	// Transient lists keys that are never persisted.
	Transient []string `json:"transient,omitempty"`
}

// DiagnosticsConfig contains diagnostic reporting settings.
type DiagnosticsConfig struct {
	// Enabled overrides the build default when set.
	Enabled *bool `json:"enabled,omitempty"`

	// Color enables ANSI colors in CLI output.
	Color *bool `json:"color,omitempty"`

	// Level is the minimum slog level logged: debug, info, warn or error.
	Level string `json:"level,omitempty"`
}

// New returns the default configuration.
func New() *Config {
	enabled := true
	return &Config{
		Inspector: InspectorConfig{
			Address: DefaultAddress,
			History: DefaultHistory,
		},
		Metrics: MetricsConfig{
			Enabled:   &enabled,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			TracerName: DefaultTracerName,
		},
		Persist: PersistConfig{
			Backend: BackendMemory,
		},
		Diagnostics: DiagnosticsConfig{
			Level: "warn",
		},
	}
}

// Load reads dir/controlstore.json.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads the config at path. Fields missing from the file keep
// their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	return cfg, nil
}

// LoadOrDefault loads dir's config, falling back to defaults when the file
// does not exist. Other errors are returned.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// Save writes the config back to Path.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the config as indented JSON and makes path its Path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the file the config was loaded from or last saved to.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory of Path, or "" for an unsaved config.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults restores defaults for settings a file left empty.
func (c *Config) applyDefaults() {
	if c.Inspector.Address == "" {
		c.Inspector.Address = DefaultAddress
	}
	if c.Inspector.History == 0 {
		c.Inspector.History = DefaultHistory
	}

	if c.Metrics.Enabled == nil {
		enabled := true
		c.Metrics.Enabled = &enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}

	if c.Persist.Backend == "" {
		c.Persist.Backend = BackendMemory
	}

	if c.Diagnostics.Level == "" {
		c.Diagnostics.Level = "warn"
	}
}

// Validate reports the first invalid setting as an E121 error.
func (c *Config) Validate() error {
	if _, port, err := net.SplitHostPort(c.Inspector.Address); err != nil {
		return errors.New("E121").
			WithDetail("inspector.address must be host:port, got " + strconv.Quote(c.Inspector.Address))
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		return errors.New("E121").
			WithDetail("inspector.address port must be between 0 and 65535")
	}

	if c.Inspector.History < 0 {
		return errors.New("E121").
			WithDetail("inspector.history must not be negative")
	}

	switch c.Persist.Backend {
	case BackendMemory:
	case BackendS3:
		if c.Persist.Bucket == "" {
			return errors.New("E121").
				WithDetail("persist.bucket is required for the s3 backend").
				WithSuggestion(`Set "persist": {"backend": "s3", "bucket": "my-bucket"}`)
		}
	default:
		return errors.New("E121").
			WithDetail("persist.backend must be \"memory\" or \"s3\", got " + strconv.Quote(c.Persist.Backend))
	}

	switch c.Diagnostics.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("E121").
			WithDetail("diagnostics.level must be debug, info, warn or error")
	}

	return nil
}

// MetricsEnabled reports whether metrics are enabled.
func (c *Config) MetricsEnabled() bool {
	return c.Metrics.Enabled == nil || *c.Metrics.Enabled
}

// ColorEnabled reports whether CLI output should be colored.
func (c *Config) ColorEnabled() bool {
	return c.Diagnostics.Color == nil || *c.Diagnostics.Color
}

// AllowAnyOrigin reports whether the inspector accepts watch sockets from
// any origin.
func (c *Config) AllowAnyOrigin() bool {
	for _, o := range c.Inspector.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Exists reports whether dir contains a controlstore.json.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot returns the nearest directory at or above startDir that
// contains a controlstore.json. It fails with E141 if there is none.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
