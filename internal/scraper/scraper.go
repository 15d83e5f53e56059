// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package scraper ingests remote-job postings from configured job-board
// feeds. Fetches are rate limited and every failure is tallied rather
// than aborting the run; a bad feed never takes down ingestion.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/logging"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultRateLimit = 1.0 // feed fetches per second
	maxFeedBytes     = 4 << 20
)

// Source is one job-board feed. The registry is copied at construction
// and never mutated afterwards.
type Source struct {
	// Name identifies the source in tallies and posting provenance.
	Name string `json:"name"`
	// URL serves a JSON array of postings.
	URL string `json:"url"`
	// Enabled sources are included in ScrapeAll runs.
	Enabled bool `json:"enabled"`
}

// RawPosting is a job posting as scraped, before catalog normalization.
type RawPosting struct {
	ExternalID  string   `json:"external_id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Remote      bool     `json:"remote"`
	Skills      []string `json:"skills"`
	Levels      []string `json:"experience_levels"`
	SalaryMin   float64  `json:"salary_min"`
	SalaryMax   float64  `json:"salary_max"`
	Description string   `json:"description"`
	Source      string   `json:"source,omitempty"`
}

// Sink receives scraped postings. Implementations decide how to
// normalize and store them.
type Sink interface {
	Ingest(ctx context.Context, posting RawPosting) error
}

// SourceTally counts one source's outcomes for a run.
type SourceTally struct {
	Source   string `json:"source"`
	Fetched  int    `json:"fetched"`
	Ingested int    `json:"ingested"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// Report aggregates a ScrapeAll run.
type Report struct {
	Sources  []SourceTally `json:"sources"`
	Ingested int           `json:"ingested"`
	Failed   int           `json:"failed"`
}

// Config controls fetch behavior.
type Config struct {
	// Timeout bounds one feed fetch. Defaults to 15s.
	Timeout time.Duration
	// RatePerSecond throttles feed fetches. Defaults to 1/s.
	RatePerSecond float64
	// UserAgent identifies the scraper to feed hosts.
	UserAgent string
}

// Scraper fetches postings from the registered sources.
type Scraper struct {
	cfg     Config
	sources []Source
	client  *http.Client
	limiter *rate.Limiter
	sink    Sink
}

// NewScraper creates a scraper over a fixed source registry.
func NewScraper(cfg Config, sources []Source, sink Sink) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = defaultRateLimit
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "nomadscope-scraper/1.0"
	}
	registry := make([]Source, len(sources))
	copy(registry, sources)
	return &Scraper{
		cfg:     cfg,
		sources: registry,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		sink:    sink,
	}
}

// Sources returns a copy of the registry.
func (s *Scraper) Sources() []Source {
	out := make([]Source, len(s.sources))
	copy(out, s.sources)
	return out
}

// ScrapeSource fetches one source by name and hands its postings to the
// sink. Per-posting sink failures are tallied; only an unknown source or
// a canceled context returns an error.
func (s *Scraper) ScrapeSource(ctx context.Context, name string) (SourceTally, error) {
	for _, src := range s.sources {
		if src.Name == name {
			return s.scrape(ctx, src), nil
		}
	}
	return SourceTally{}, apperrors.NotFound("scrape source", name)
}

// ScrapeAll runs every enabled source under the rate limit. Source-level
// failures land in the report; the run only stops on context
// cancellation.
func (s *Scraper) ScrapeAll(ctx context.Context) (Report, error) {
	var report Report
	for _, src := range s.sources {
		if !src.Enabled {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return report, err
		}

		tally := s.scrape(ctx, src)
		report.Sources = append(report.Sources, tally)
		report.Ingested += tally.Ingested
		report.Failed += tally.Failed
	}
	return report, nil
}

func (s *Scraper) scrape(ctx context.Context, src Source) SourceTally {
	tally := SourceTally{Source: src.Name}

	postings, err := s.fetch(ctx, src)
	if err != nil {
		tally.Error = err.Error()
		logging.Warn().Err(err).Str("source", src.Name).Msg("feed fetch failed")
		return tally
	}
	tally.Fetched = len(postings)

	for _, p := range postings {
		if ctx.Err() != nil {
			tally.Error = ctx.Err().Error()
			return tally
		}
		p.Source = src.Name
		if err := s.sink.Ingest(ctx, p); err != nil {
			tally.Failed++
			logging.Debug().Err(err).
				Str("source", src.Name).
				Str("external_id", p.ExternalID).
				Msg("posting rejected by sink")
			continue
		}
		tally.Ingested++
	}
	return tally
}

func (s *Scraper) fetch(ctx context.Context, src Source) ([]RawPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	var postings []RawPosting
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxFeedBytes)).Decode(&postings); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return postings, nil
}
