// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"fmt"
	"time"
)

// Config holds recommendation engine tuning knobs.
type Config struct {
	// DefaultLimit is used when a request omits its limit.
	DefaultLimit int

	// MaxLimit caps requested result counts.
	MaxLimit int

	// WindowDays bounds which behavior events feed the user profile.
	WindowDays int

	// MinInteractions is the per-user interaction threshold counted as a
	// training-sufficient sample.
	MinInteractions int

	// SimilarUserLimit caps how many similar users feed collaborative
	// filtering.
	SimilarUserLimit int

	// HybridCollabWeight and HybridContentWeight blend the two strategy
	// scores in hybrid mode. They must sum to 1.
	HybridCollabWeight  float64
	HybridContentWeight float64

	// CacheTTL and CacheSize bound the response cache.
	CacheTTL  time.Duration
	CacheSize int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:        10,
		MaxLimit:            50,
		WindowDays:          30,
		MinInteractions:     5,
		SimilarUserLimit:    50,
		HybridCollabWeight:  0.6,
		HybridContentWeight: 0.4,
		CacheTTL:            5 * time.Minute,
		CacheSize:           1000,
	}
}

// Validate checks the config for internal consistency.
func (c Config) Validate() error {
	if c.DefaultLimit <= 0 || c.MaxLimit <= 0 {
		return fmt.Errorf("limits must be positive")
	}
	if c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("default limit %d exceeds max limit %d", c.DefaultLimit, c.MaxLimit)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window days must be positive")
	}
	if c.MinInteractions <= 0 {
		return fmt.Errorf("min interactions must be positive")
	}
	if c.SimilarUserLimit <= 0 {
		return fmt.Errorf("similar user limit must be positive")
	}
	if sum := c.HybridCollabWeight + c.HybridContentWeight; sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("hybrid weights must sum to 1, got %v", sum)
	}
	return nil
}
