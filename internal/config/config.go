// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Defaults applied by MergeWithDefaults when a field is unset.
const (
	DefaultPort                = 8080
	DefaultStoreTimeout        = 5 * time.Second
	DefaultLookupTimeout       = 10 * time.Second
	DefaultMovementConcurrency = 4
	DefaultRecentSentLimit     = 10
	DefaultOutboxQueue         = "jobtrail.messages"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "json"
)

// Duration is a time.Duration that reads and writes Go duration strings ("5s") in JSON.
type Duration time.Duration

// UnmarshalJSON accepts either a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(v))
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the runtime configuration. It can be loaded from a JSON file
// or from the environment. Zero values are filled by MergeWithDefaults.
type Config struct {
	// Storage
	DatabaseURL  string   `json:"database_url,omitempty"`  // PostgreSQL URL; empty selects the in-memory store
	StoreTimeout Duration `json:"store_timeout,omitempty"` // Bound on every storage call

	// HTTP
	Port int `json:"port,omitempty"`

	// Follow-ups and contacts
	LookupTimeout       Duration `json:"lookup_timeout,omitempty"`       // Bound on one company lookup
	MovementConcurrency int      `json:"movement_concurrency,omitempty"` // Parallel company lookups
	RecentSentLimit     int      `json:"recent_sent_limit,omitempty"`    // Size of the recently sent list

	// Outbox
	RabbitMQURL string `json:"rabbitmq_url,omitempty"` // Empty disables publishing
	OutboxQueue string `json:"outbox_queue,omitempty"`

	// Logging
	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"` // "console" or "json"
}

// Defaults returns a Config with every default applied.
func Defaults() Config {
	return Config{
		StoreTimeout:        Duration(DefaultStoreTimeout),
		Port:                DefaultPort,
		LookupTimeout:       Duration(DefaultLookupTimeout),
		MovementConcurrency: DefaultMovementConcurrency,
		RecentSentLimit:     DefaultRecentSentLimit,
		OutboxQueue:         DefaultOutboxQueue,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the configuration from environment variables. Unset variables stay zero.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		OutboxQueue: os.Getenv("OUTBOX_QUEUE"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   os.Getenv("LOG_FORMAT"),
	}

	var err error
	if cfg.Port, err = envInt("PORT"); err != nil {
		return nil, err
	}
	if cfg.MovementConcurrency, err = envInt("MOVEMENT_CONCURRENCY"); err != nil {
		return nil, err
	}
	if cfg.RecentSentLimit, err = envInt("RECENT_SENT_LIMIT"); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = envDuration("STORE_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.LookupTimeout, err = envDuration("LOOKUP_TIMEOUT"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the environment, overlays it on the optional JSON file at path,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		merged := cfg.MergeWithDefaults(*file)
		cfg = &merged
	}

	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}
	if c.StoreTimeout < 0 {
		return fmt.Errorf("config error: 'store_timeout' must be non-negative")
	}
	if c.LookupTimeout < 0 {
		return fmt.Errorf("config error: 'lookup_timeout' must be non-negative")
	}
	if c.MovementConcurrency < 0 {
		return fmt.Errorf("config error: 'movement_concurrency' must be non-negative")
	}
	if c.RecentSentLimit < 0 {
		return fmt.Errorf("config error: 'recent_sent_limit' must be non-negative")
	}
	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: 'log_format' must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RabbitMQURL == "" {
		result.RabbitMQURL = defaults.RabbitMQURL
	}
	if result.OutboxQueue == "" {
		result.OutboxQueue = defaults.OutboxQueue
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MovementConcurrency == 0 {
		result.MovementConcurrency = defaults.MovementConcurrency
	}
	if result.RecentSentLimit == 0 {
		result.RecentSentLimit = defaults.RecentSentLimit
	}
	if result.StoreTimeout == 0 {
		result.StoreTimeout = defaults.StoreTimeout
	}
	if result.LookupTimeout == 0 {
		result.LookupTimeout = defaults.LookupTimeout
	}

	return result
}

func envInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func envDuration(key string) (Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return Duration(d), nil
}
