package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ValueSource describes where a configuration value originated from.
type ValueSource string

const (
	SourceDefault  ValueSource = "default"
	SourceFile     ValueSource = "file"
	SourceEnv      ValueSource = "environment"
	SourceOverride ValueSource = "override"
)

// DefaultServerURL is the local queue endpoint used when no value is configured.
const DefaultServerURL = "http://localhost:3000"

const (
	// DefaultRequestTimeoutSecs caps a single client round-trip.
	DefaultRequestTimeoutSecs = 30
	// DefaultTaskTimeoutSecs is forwarded to the server as the task execution budget.
	DefaultTaskTimeoutSecs = 300
	// DefaultMaxResponseBytes bounds how much of a response body the client buffers.
	DefaultMaxResponseBytes = 4 << 20
)

// RuntimeConfig captures user-configurable settings shared across binaries.
type RuntimeConfig struct {
	ServerURL          string
	APIKey             string
	Queue              string
	RequestTimeoutSecs int
	TaskTimeoutSecs    int
	MaxResponseBytes   int
	LogLevel           string
	LogFormat          string
	Verbose            bool
}

// RequestTimeout returns the per-call network deadline as a duration.
func (c RuntimeConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// Metadata contains provenance details for loaded configuration.
type Metadata struct {
	sources  map[string]ValueSource
	loadedAt time.Time
}

// Source returns the origin for the given configuration field.
func (m Metadata) Source(field string) ValueSource {
	if m.sources == nil {
		return SourceDefault
	}
	if src, ok := m.sources[field]; ok {
		return src
	}
	return SourceDefault
}

// LoadedAt returns the timestamp when the configuration was constructed.
func (m Metadata) LoadedAt() time.Time {
	return m.loadedAt
}

// Overrides conveys caller-specified values that should win over env/file sources.
type Overrides struct {
	ServerURL          *string
	APIKey             *string
	Queue              *string
	RequestTimeoutSecs *int
	TaskTimeoutSecs    *int
	MaxResponseBytes   *int
	LogLevel           *string
	LogFormat          *string
	Verbose            *bool
}

// EnvLookup resolves the value for an environment variable.
type EnvLookup func(string) (string, bool)

// Option customises the loader behaviour.
type Option func(*loadOptions)

type loadOptions struct {
	envLookup  EnvLookup
	readFile   func(string) ([]byte, error)
	homeDir    func() (string, error)
	overrides  Overrides
	configPath string
}

// WithEnv supplies a custom environment lookup implementation.
func WithEnv(lookup EnvLookup) Option {
	return func(o *loadOptions) {
		o.envLookup = lookup
	}
}

// WithOverrides applies caller overrides that take highest precedence.
func WithOverrides(overrides Overrides) Option {
	return func(o *loadOptions) {
		o.overrides = overrides
	}
}

// WithConfigPath forces the loader to read configuration from a specific file.
func WithConfigPath(path string) Option {
	return func(o *loadOptions) {
		o.configPath = path
	}
}

// WithFileReader injects a custom reader, used primarily for tests.
func WithFileReader(reader func(string) ([]byte, error)) Option {
	return func(o *loadOptions) {
		o.readFile = reader
	}
}

// WithHomeDir overrides how the loader resolves the user's home directory.
func WithHomeDir(resolver func() (string, error)) Option {
	return func(o *loadOptions) {
		o.homeDir = resolver
	}
}

// DefaultEnvLookup delegates to os.LookupEnv.
func DefaultEnvLookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// AliasEnvLookup wraps an EnvLookup with additional alias keys.
func AliasEnvLookup(base EnvLookup, aliases map[string][]string) EnvLookup {
	return func(key string) (string, bool) {
		if base == nil {
			base = DefaultEnvLookup
		}
		if value, ok := base(key); ok && value != "" {
			return value, true
		}
		if list, ok := aliases[key]; ok {
			for _, alias := range list {
				if value, ok := base(alias); ok && value != "" {
					return value, true
				}
			}
		}
		return "", false
	}
}

// DefaultConfigPath returns the standard config file location under home.
func DefaultConfigPath(home string) string {
	return filepath.Join(home, ".runqy", "config.yaml")
}

// Load constructs the runtime configuration by merging defaults, file, env and overrides.
func Load(opts ...Option) (RuntimeConfig, Metadata, error) {
	options := loadOptions{
		envLookup: DefaultEnvLookup,
		readFile:  os.ReadFile,
		homeDir:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	meta := Metadata{sources: map[string]ValueSource{}, loadedAt: time.Now()}

	cfg := RuntimeConfig{
		ServerURL:          DefaultServerURL,
		Queue:              "default",
		RequestTimeoutSecs: DefaultRequestTimeoutSecs,
		TaskTimeoutSecs:    DefaultTaskTimeoutSecs,
		MaxResponseBytes:   DefaultMaxResponseBytes,
		LogLevel:           "info",
		LogFormat:          "text",
	}

	// Load from config file if present.
	if err := applyFile(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}

	// Apply environment overrides.
	if err := applyEnv(&cfg, &meta, options); err != nil {
		return RuntimeConfig{}, Metadata{}, err
	}

	// Apply caller overrides last.
	applyOverrides(&cfg, &meta, options.overrides)

	return cfg, meta, nil
}

type fileConfig struct {
	ServerURL          string `yaml:"server_url"`
	URL                string `yaml:"url"`
	APIKey             string `yaml:"api_key"`
	Queue              string `yaml:"queue"`
	RequestTimeoutSecs *int   `yaml:"request_timeout_seconds"`
	TaskTimeoutSecs    *int   `yaml:"task_timeout_seconds"`
	MaxResponseBytes   *int   `yaml:"max_response_bytes"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	Verbose            *bool  `yaml:"verbose"`
}

func applyFile(cfg *RuntimeConfig, meta *Metadata, opts loadOptions) error {
	configPath := opts.configPath
	if configPath == "" {
		home, err := opts.homeDir()
		if err != nil {
			return nil
		}
		configPath = DefaultConfigPath(home)
	}

	data, err := opts.readFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}

	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if parsed.ServerURL != "" {
		cfg.ServerURL = parsed.ServerURL
		meta.sources["server_url"] = SourceFile
	} else if parsed.URL != "" {
		cfg.ServerURL = parsed.URL
		meta.sources["server_url"] = SourceFile
	}
	if parsed.APIKey != "" {
		cfg.APIKey = parsed.APIKey
		meta.sources["api_key"] = SourceFile
	}
	if parsed.Queue != "" {
		cfg.Queue = parsed.Queue
		meta.sources["queue"] = SourceFile
	}
	if parsed.RequestTimeoutSecs != nil {
		cfg.RequestTimeoutSecs = *parsed.RequestTimeoutSecs
		meta.sources["request_timeout_seconds"] = SourceFile
	}
	if parsed.TaskTimeoutSecs != nil {
		cfg.TaskTimeoutSecs = *parsed.TaskTimeoutSecs
		meta.sources["task_timeout_seconds"] = SourceFile
	}
	if parsed.MaxResponseBytes != nil {
		cfg.MaxResponseBytes = *parsed.MaxResponseBytes
		meta.sources["max_response_bytes"] = SourceFile
	}
	if parsed.LogLevel != "" {
		cfg.LogLevel = parsed.LogLevel
		meta.sources["log_level"] = SourceFile
	}
	if parsed.LogFormat != "" {
		cfg.LogFormat = parsed.LogFormat
		meta.sources["log_format"] = SourceFile
	}
	if parsed.Verbose != nil {
		cfg.Verbose = *parsed.Verbose
		meta.sources["verbose"] = SourceFile
	}

	return nil
}

func applyEnv(cfg *RuntimeConfig, meta *Metadata, opts loadOptions) error {
	lookup := AliasEnvLookup(opts.envLookup, map[string][]string{
		"RUNQY_SERVER_URL": {"RUNQY_URL"},
		"RUNQY_API_KEY":    {"RUNQY_TOKEN"},
	})

	if value, ok := lookup("RUNQY_SERVER_URL"); ok && value != "" {
		cfg.ServerURL = value
		meta.sources["server_url"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_API_KEY"); ok && value != "" {
		cfg.APIKey = value
		meta.sources["api_key"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_QUEUE"); ok && value != "" {
		cfg.Queue = value
		meta.sources["queue"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_REQUEST_TIMEOUT"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse RUNQY_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeoutSecs = parsed
		meta.sources["request_timeout_seconds"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_TASK_TIMEOUT"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse RUNQY_TASK_TIMEOUT: %w", err)
		}
		cfg.TaskTimeoutSecs = parsed
		meta.sources["task_timeout_seconds"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_MAX_RESPONSE_BYTES"); ok && value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("parse RUNQY_MAX_RESPONSE_BYTES: %w", err)
		}
		cfg.MaxResponseBytes = parsed
		meta.sources["max_response_bytes"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_LOG_LEVEL"); ok && value != "" {
		cfg.LogLevel = value
		meta.sources["log_level"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_LOG_FORMAT"); ok && value != "" {
		cfg.LogFormat = value
		meta.sources["log_format"] = SourceEnv
	}
	if value, ok := lookup("RUNQY_VERBOSE"); ok && value != "" {
		parsed, err := parseBoolEnv(value)
		if err != nil {
			return fmt.Errorf("parse RUNQY_VERBOSE: %w", err)
		}
		cfg.Verbose = parsed
		meta.sources["verbose"] = SourceEnv
	}

	return nil
}

func applyOverrides(cfg *RuntimeConfig, meta *Metadata, overrides Overrides) {
	if overrides.ServerURL != nil {
		cfg.ServerURL = *overrides.ServerURL
		meta.sources["server_url"] = SourceOverride
	}
	if overrides.APIKey != nil {
		cfg.APIKey = *overrides.APIKey
		meta.sources["api_key"] = SourceOverride
	}
	if overrides.Queue != nil {
		cfg.Queue = *overrides.Queue
		meta.sources["queue"] = SourceOverride
	}
	if overrides.RequestTimeoutSecs != nil {
		cfg.RequestTimeoutSecs = *overrides.RequestTimeoutSecs
		meta.sources["request_timeout_seconds"] = SourceOverride
	}
	if overrides.TaskTimeoutSecs != nil {
		cfg.TaskTimeoutSecs = *overrides.TaskTimeoutSecs
		meta.sources["task_timeout_seconds"] = SourceOverride
	}
	if overrides.MaxResponseBytes != nil {
		cfg.MaxResponseBytes = *overrides.MaxResponseBytes
		meta.sources["max_response_bytes"] = SourceOverride
	}
	if overrides.LogLevel != nil {
		cfg.LogLevel = *overrides.LogLevel
		meta.sources["log_level"] = SourceOverride
	}
	if overrides.LogFormat != nil {
		cfg.LogFormat = *overrides.LogFormat
		meta.sources["log_format"] = SourceOverride
	}
	if overrides.Verbose != nil {
		cfg.Verbose = *overrides.Verbose
		meta.sources["verbose"] = SourceOverride
	}
}

func parseBoolEnv(value string) (bool, error) {
	trimmed := strings.TrimSpace(value)
	lower := strings.ToLower(trimmed)
	switch lower {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value %q", value)
	}
}
