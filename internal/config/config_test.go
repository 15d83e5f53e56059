// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Recommend.HybridCollabWeight != 0.6 {
		t.Fatalf("default collab weight = %v, want 0.6", cfg.Recommend.HybridCollabWeight)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"NOMADSCOPE_SERVER_PORT", "server.port"},
		{"NOMADSCOPE_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"NOMADSCOPE_RECOMMEND_HYBRID_COLLAB_WEIGHT", "recommend.hybrid_collab_weight"},
		{"NOMADSCOPE_TEXTGEN_API_KEY", "textgen.api_key"},
		{"NOMADSCOPE_UNKNOWNSECTION_KEY", ""},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
logging:
  level: debug
recommend:
  default_limit: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("NOMADSCOPE_SERVER_PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Env beats file, file beats defaults.
	if cfg.Server.Port != 7070 {
		t.Fatalf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q, want file value debug", cfg.Logging.Level)
	}
	if cfg.Recommend.DefaultLimit != 5 {
		t.Fatalf("default_limit = %d, want file value 5", cfg.Recommend.DefaultLimit)
	}
	if cfg.Behavior.RetentionDays != 365 {
		t.Fatalf("retention = %d, want default 365", cfg.Behavior.RetentionDays)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"missing database path", func(c *Config) { c.Database.Path = "" }},
		{"zero retention", func(c *Config) { c.Behavior.RetentionDays = 0 }},
		{"default limit above max", func(c *Config) { c.Recommend.DefaultLimit = 100 }},
		{"collab weight above one", func(c *Config) { c.Recommend.HybridCollabWeight = 1.5 }},
		{"confidence below fifty", func(c *Config) { c.Experiment.MinConfidence = 10 }},
		{"min duration above max", func(c *Config) { c.Experiment.MinDurationDays = 90 }},
		{"source missing url", func(c *Config) {
			c.Scraper.Sources = []ScraperSource{{Name: "remoteok"}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	t.Run("fast scraper interval is fine", func(t *testing.T) {
		cfg := valid()
		cfg.Scraper.Interval = time.Minute
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}
