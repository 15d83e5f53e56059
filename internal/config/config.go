// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package config loads layered configuration with koanf v2. Precedence is
// environment variables over the optional YAML file over built-in
// defaults.
package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nomadscope/config.yaml",
	"/etc/nomadscope/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "NOMADSCOPE_CONFIG"

// envPrefix namespaces all environment overrides.
const envPrefix = "NOMADSCOPE_"

// Config is the full server configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	Storage    StorageConfig    `koanf:"storage"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Behavior   BehaviorConfig   `koanf:"behavior"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Experiment ExperimentConfig `koanf:"experiment"`
	Forecast   ForecastConfig   `koanf:"forecast"`
	TextGen    TextGenConfig    `koanf:"textgen"`
	LinkCheck  LinkCheckConfig  `koanf:"linkcheck"`
	Scraper    ScraperConfig    `koanf:"scraper"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig configures the DuckDB behavior-event store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// StorageConfig configures the Badger record store.
type StorageConfig struct {
	Path       string        `koanf:"path"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// CatalogConfig points at the seed catalog file.
type CatalogConfig struct {
	SeedPath string `koanf:"seed_path"`
}

// BehaviorConfig configures event tracking and retention.
type BehaviorConfig struct {
	RetentionDays   int           `koanf:"retention_days"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	PipelineBuffer  int           `koanf:"pipeline_buffer"`
}

// RecommendConfig configures the recommendation engine.
type RecommendConfig struct {
	DefaultLimit       int           `koanf:"default_limit"`
	MaxLimit           int           `koanf:"max_limit"`
	WindowDays         int           `koanf:"window_days"`
	MinInteractions    int           `koanf:"min_interactions"`
	SimilarUserLimit   int           `koanf:"similar_user_limit"`
	HybridCollabWeight float64       `koanf:"hybrid_collab_weight"`
	CacheTTL           time.Duration `koanf:"cache_ttl"`
	CacheSize          int           `koanf:"cache_size"`
	TrainInterval      time.Duration `koanf:"train_interval"`
}

// ExperimentConfig sets default completion criteria for new experiments.
type ExperimentConfig struct {
	MinDurationDays int     `koanf:"min_duration_days"`
	MaxDurationDays int     `koanf:"max_duration_days"`
	MinVisitors     int     `koanf:"min_visitors"`
	MinConfidence   float64 `koanf:"min_confidence"`
}

// ForecastConfig configures trend forecasting.
type ForecastConfig struct {
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`
}

// TextGenConfig configures the content generator.
type TextGenConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// LinkCheckConfig configures affiliate link validation.
type LinkCheckConfig struct {
	Timeout       time.Duration `koanf:"timeout"`
	RatePerSecond float64       `koanf:"rate_per_second"`
}

// ScraperSource configures one job-board feed.
type ScraperSource struct {
	Name    string `koanf:"name"`
	URL     string `koanf:"url"`
	Enabled bool   `koanf:"enabled"`
}

// ScraperConfig configures job-board ingestion.
type ScraperConfig struct {
	Interval      time.Duration   `koanf:"interval"`
	RatePerSecond float64         `koanf:"rate_per_second"`
	Sources       []ScraperSource `koanf:"sources"`
}

// defaultConfig returns the built-in defaults. File and environment
// layers override these.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
			RateWindow:      time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "/data/nomadscope.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Storage: StorageConfig{
			Path:       "/data/nomadscope.badger",
			GCInterval: 10 * time.Minute,
		},
		Catalog: CatalogConfig{
			SeedPath: "/data/catalog.json",
		},
		Behavior: BehaviorConfig{
			RetentionDays:   365,
			CleanupInterval: 24 * time.Hour,
			PipelineBuffer:  1024,
		},
		Recommend: RecommendConfig{
			DefaultLimit:       10,
			MaxLimit:           50,
			WindowDays:         30,
			MinInteractions:    5,
			SimilarUserLimit:   50,
			HybridCollabWeight: 0.6,
			CacheTTL:           5 * time.Minute,
			CacheSize:          1000,
			TrainInterval:      6 * time.Hour,
		},
		Experiment: ExperimentConfig{
			MinDurationDays: 7,
			MaxDurationDays: 30,
			MinVisitors:     1000,
			MinConfidence:   95,
		},
		Forecast: ForecastConfig{
			SnapshotInterval: 24 * time.Hour,
		},
		TextGen: TextGenConfig{
			Timeout: 20 * time.Second,
		},
		LinkCheck: LinkCheckConfig{
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
		},
		Scraper: ScraperConfig{
			Interval:      6 * time.Hour,
			RatePerSecond: 1,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// NOMADSCOPE_* environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sections are the top-level config keys used to split environment
// variable names. NOMADSCOPE_SERVER_READ_TIMEOUT -> server.read_timeout.
var sections = []string{
	"server", "logging", "database", "storage", "catalog", "behavior",
	"recommend", "experiment", "forecast", "textgen", "linkcheck", "scraper",
}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + strings.TrimPrefix(key, section+"_")
		}
	}
	return ""
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Behavior.RetentionDays < 1 {
		return fmt.Errorf("behavior.retention_days must be positive, got %d", c.Behavior.RetentionDays)
	}
	if c.Recommend.DefaultLimit < 1 || c.Recommend.DefaultLimit > c.Recommend.MaxLimit {
		return fmt.Errorf("recommend.default_limit %d must be in [1, %d]",
			c.Recommend.DefaultLimit, c.Recommend.MaxLimit)
	}
	if c.Recommend.HybridCollabWeight < 0 || c.Recommend.HybridCollabWeight > 1 {
		return fmt.Errorf("recommend.hybrid_collab_weight %.2f must be in [0, 1]",
			c.Recommend.HybridCollabWeight)
	}
	if c.Experiment.MinConfidence < 50 || c.Experiment.MinConfidence > 99.9 {
		return fmt.Errorf("experiment.min_confidence %.1f must be in [50, 99.9]",
			c.Experiment.MinConfidence)
	}
	if c.Experiment.MinDurationDays > c.Experiment.MaxDurationDays {
		return fmt.Errorf("experiment.min_duration_days %d exceeds max_duration_days %d",
			c.Experiment.MinDurationDays, c.Experiment.MaxDurationDays)
	}
	if math.Signbit(c.LinkCheck.RatePerSecond) || math.Signbit(c.Scraper.RatePerSecond) {
		return fmt.Errorf("rate limits must not be negative")
	}
	for i, src := range c.Scraper.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("scraper.sources[%d] needs both name and url", i)
		}
	}
	return nil
}
