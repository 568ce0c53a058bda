// Package config loads and validates library configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Logging, Storage, Index, Search, Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level library configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Storage StorageConfig `yaml:"storage"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls the event level gate, metadata masking, and the
// library's own slog output.
type LoggingConfig struct {
	Level           string   `yaml:"level"`
	SensitiveFields []string `yaml:"sensitiveFields"`
	InternalLevel   string   `yaml:"internalLevel"`
	Format          string   `yaml:"format"`
}

// StorageConfig holds the file store's directory, rotation, and retention
// settings.
type StorageConfig struct {
	Dir           string        `yaml:"dir"`
	RotationSize  int64         `yaml:"rotationSize"`
	RetentionAge  time.Duration `yaml:"retentionAge"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
}

// IndexConfig controls the in-memory search indexes.
type IndexConfig struct {
	RebuildOnOpen bool `yaml:"rebuildOnOpen"`
}

// SearchConfig controls query execution.
type SearchConfig struct {
	DefaultFuzzyThreshold float64 `yaml:"defaultFuzzyThreshold"`
	MaxFuzzyCandidates    int     `yaml:"maxFuzzyCandidates"`
	QueryCacheSize        int     `yaml:"queryCacheSize"`
}

// MetricsConfig controls the optional Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:         "INFO",
			InternalLevel: "info",
			Format:        "text",
		},
		Storage: StorageConfig{
			Dir:           "logs",
			RotationSize:  10 << 20,
			RetentionAge:  30 * 24 * time.Hour,
			SweepInterval: 24 * time.Hour,
		},
		Index: IndexConfig{
			RebuildOnOpen: true,
		},
		Search: SearchConfig{
			DefaultFuzzyThreshold: 0.7,
			QueryCacheSize:        512,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9091",
		},
	}
}

// Load reads configuration from a YAML file, layering values over Default
// and applying VIPERLOG_* environment overrides. An empty path yields the
// defaults (still subject to env overrides).
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Storage.RotationSize <= 0 {
		return fmt.Errorf("storage.rotationSize must be positive, got %d", c.Storage.RotationSize)
	}
	if c.Storage.RetentionAge < 0 {
		return fmt.Errorf("storage.retentionAge must not be negative")
	}
	if t := c.Search.DefaultFuzzyThreshold; t < 0 || t > 1 {
		return fmt.Errorf("search.defaultFuzzyThreshold must be in [0,1], got %v", t)
	}
	if c.Search.MaxFuzzyCandidates < 0 {
		return fmt.Errorf("search.maxFuzzyCandidates must not be negative")
	}
	if c.Search.QueryCacheSize <= 0 {
		return fmt.Errorf("search.queryCacheSize must be positive, got %d", c.Search.QueryCacheSize)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VIPERLOG_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VIPERLOG_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}
	if v := os.Getenv("VIPERLOG_ROTATION_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.RotationSize = n
		}
	}
	if v := os.Getenv("VIPERLOG_RETENTION_AGE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Storage.RetentionAge = d
		}
	}
	if v := os.Getenv("VIPERLOG_FUZZY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Search.DefaultFuzzyThreshold = f
		}
	}
	if v := os.Getenv("VIPERLOG_METRICS_ADDR"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
}
