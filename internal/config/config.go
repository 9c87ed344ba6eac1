// Package config loads the screenstore daemon configuration from YAML with
// environment expansion and optional .env files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/screenstore/internal/foundation/errors"
	"git.home.luguber.info/inful/screenstore/internal/retry"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1.0"

// Config is the daemon configuration.
type Config struct {
	Version string        `yaml:"version"`
	Log     LogConfig     `yaml:"log"`
	Store   StoreConfig   `yaml:"store"`
	Journal JournalConfig `yaml:"journal"`
	Relay   RelayConfig   `yaml:"relay"`
	Sync    SyncConfig    `yaml:"sync"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// StoreConfig controls how stores deliver to observers.
type StoreConfig struct {
	Delivery DeliveryMode `yaml:"delivery"`
}

// JournalConfig controls the SQLite action journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
	// Session groups the actions of one daemon run. Empty means a fresh UUID per run.
	Session string `yaml:"session,omitempty"`
}

// RelayConfig controls publishing snapshots to NATS.
type RelayConfig struct {
	Enabled       bool        `yaml:"enabled"`
	NATSURL       string      `yaml:"nats_url"`
	SubjectPrefix string      `yaml:"subject_prefix"`
	KVBucket      string      `yaml:"kv_bucket,omitempty"`
	Retry         RetryConfig `yaml:"retry"`
}

// RetryConfig describes the backoff for failed publishes.
type RetryConfig struct {
	Mode       retry.Mode `yaml:"mode"`
	Initial    string     `yaml:"initial"`
	Max        string     `yaml:"max"`
	MaxRetries int        `yaml:"max_retries"`
}

// Policy converts the section to a retry.Policy. Validate guarantees the
// durations parse.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(r.Mode, mustDuration(r.Initial), mustDuration(r.Max), r.MaxRetries)
}

// SyncConfig controls the periodic sync of history and bookmarks.
type SyncConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	Timeout       string `yaml:"timeout"`
	HistoryFile   string `yaml:"history_file,omitempty"`
	BookmarksFile string `yaml:"bookmarks_file,omitempty"`
}

// IntervalDuration parses Interval. Validate guarantees it parses.
func (s SyncConfig) IntervalDuration() time.Duration { return mustDuration(s.Interval) }

// TimeoutDuration parses Timeout. Validate guarantees it parses.
func (s SyncConfig) TimeoutDuration() time.Duration { return mustDuration(s.Timeout) }

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
	Path       string `yaml:"path"`
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	// #nosec G304 -- path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).
				Build()
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration content.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").Build()
	}
	if err := normalize(&cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns the configuration Init writes.
func Example() Config {
	cfg := Config{
		Version: CurrentVersion,
		Log:     LogConfig{Level: LogLevelInfo, Format: LogFormatText},
		Store:   StoreConfig{Delivery: DeliveryInline},
		Journal: JournalConfig{Enabled: true, Path: "./screenstore.db"},
		Relay: RelayConfig{
			Enabled:       false,
			NATSURL:       "${NATS_URL}",
			SubjectPrefix: "screens",
			KVBucket:      "screenstore-snapshots",
			Retry: RetryConfig{
				Mode:       retry.ModeExponential,
				Initial:    "200ms",
				Max:        "5s",
				MaxRetries: 3,
			},
		},
		Sync: SyncConfig{
			Enabled:       true,
			Interval:      "5m",
			Timeout:       "30s",
			HistoryFile:   "./history.json",
			BookmarksFile: "./bookmarks.json",
		},
		Metrics: MetricsConfig{Enabled: true, ListenAddr: ":9464", Path: "/metrics"},
	}
	return cfg
}

func normalize(cfg *Config) error {
	cfg.Log.Level = NormalizeLogLevel(string(cfg.Log.Level))
	cfg.Log.Format = NormalizeLogFormat(string(cfg.Log.Format))

	delivery, err := deliveryNormalizer.NormalizeWithError(string(cfg.Store.Delivery))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid store.delivery").Build()
	}
	cfg.Store.Delivery = delivery

	mode, err := retryModeNormalizer.NormalizeWithError(string(cfg.Relay.Retry.Mode))
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid relay.retry.mode").Build()
	}
	cfg.Relay.Retry.Mode = mode
	return nil
}

func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
