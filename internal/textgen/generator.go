// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package textgen produces short marketing copy (city summaries, job
// pitches) through an external completion API, with a circuit breaker,
// response caching, and a deterministic template fallback so content
// pages always render.
package textgen

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nomadscope/nomadscope/internal/cache"
	"github.com/nomadscope/nomadscope/internal/logging"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultCacheTTL  = time.Hour
	defaultCacheSize = 512

	maxResponseBytes = 1 << 20
)

// Config controls the generator's upstream endpoint and resilience knobs.
type Config struct {
	// BaseURL is the completion API root, e.g. "https://api.example.com".
	BaseURL string
	// APIKey is sent as a bearer token when non-empty.
	APIKey string
	// Model names the upstream model to use.
	Model string
	// Timeout bounds a single upstream call. Defaults to 20s.
	Timeout time.Duration
	// CacheSize and CacheTTL configure the response cache.
	// Defaults: 512 entries, 1 hour.
	CacheSize int
	CacheTTL  time.Duration
	// FailureThreshold is the consecutive-failure count that opens the
	// breaker. Defaults to 5.
	FailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open before probing.
	// Defaults to 60s.
	BreakerTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.CacheSize <= 0 {
		c.CacheSize = defaultCacheSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = 60 * time.Second
	}
}

// Options shapes the generated text.
type Options struct {
	// Kind selects the fallback template: "city_summary", "job_pitch",
	// or "article_teaser". Unknown kinds get a generic template.
	Kind string `json:"kind"`
	// Subject is the entity name the copy is about.
	Subject string `json:"subject"`
	// Tone is a free-text style hint passed to the upstream model.
	Tone string `json:"tone,omitempty"`
	// MaxWords caps the requested length. Zero lets the model decide.
	MaxWords int `json:"max_words,omitempty"`
}

// Generator calls the completion API behind a circuit breaker and cache.
// Generate never surfaces upstream failures; callers always get text.
type Generator struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
	cache   *cache.LRU[string]
}

// NewGenerator creates a generator. Zero config fields get defaults; an
// empty BaseURL makes every call fall back to templates.
func NewGenerator(cfg Config) *Generator {
	cfg.applyDefaults()

	settings := gobreaker.Settings{
		Name:    "textgen",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("text generation breaker state changed")
		},
	}

	return &Generator{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[string](settings),
		cache:   cache.NewLRU[string](cfg.CacheSize, cfg.CacheTTL),
	}
}

// Generate returns copy for the prompt. Results are cached for the cache
// TTL. Upstream errors and open-breaker rejections degrade to a
// deterministic template; the only error returned is context
// cancellation.
func (g *Generator) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := cacheKey(prompt, opts)
	if text, ok := g.cache.Get(key); ok {
		return text, nil
	}

	if g.cfg.BaseURL == "" {
		return fallback(prompt, opts), nil
	}

	text, err := g.breaker.Execute(func() (string, error) {
		return g.complete(ctx, prompt, opts)
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.Warn().Err(err).
			Str("kind", opts.Kind).
			Str("state", g.breaker.State().String()).
			Msg("text generation degraded to template")
		return fallback(prompt, opts), nil
	}

	g.cache.Set(key, text)
	return text, nil
}

// BreakerState reports the circuit breaker state for monitoring.
func (g *Generator) BreakerState() string {
	return g.breaker.State().String()
}

// CacheStats reports cache hit/miss counters and size.
func (g *Generator) CacheStats() (hits, misses int64, size int) {
	return g.cache.Stats()
}

type completionRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Tone     string `json:"tone,omitempty"`
	MaxWords int    `json:"max_words,omitempty"`
}

type completionResponse struct {
	Text string `json:"text"`
}

func (g *Generator) complete(ctx context.Context, prompt string, opts Options) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    g.cfg.Model,
		Prompt:   prompt,
		Tone:     opts.Tone,
		MaxWords: opts.MaxWords,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.cfg.BaseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call completion api: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes)) //nolint:errcheck
		return "", fmt.Errorf("completion api returned status %d", resp.StatusCode)
	}

	var out completionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("completion api returned empty text")
	}
	return out.Text, nil
}

func cacheKey(prompt string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(prompt))
	h.Write([]byte{0})
	enc, _ := json.Marshal(opts)
	h.Write(enc)
	return hex.EncodeToString(h.Sum(nil))
}

// fallback builds deterministic copy so pages render even when the
// upstream API is down.
func fallback(prompt string, opts Options) string {
	subject := opts.Subject
	if subject == "" {
		subject = strings.TrimSpace(prompt)
		if len(subject) > 60 {
			subject = subject[:60]
		}
	}

	switch opts.Kind {
	case "city_summary":
		return fmt.Sprintf("%s is a popular base for remote workers, with an active nomad community, coworking options, and a cost of living worth comparing before you book.", subject)
	case "job_pitch":
		return fmt.Sprintf("%s is hiring remote talent. Review the required skills and salary range to see if this role fits your next move.", subject)
	case "article_teaser":
		return fmt.Sprintf("Read our guide on %s for practical tips from nomads who have been there.", subject)
	default:
		return fmt.Sprintf("Learn more about %s on Nomadscope.", subject)
	}
}
