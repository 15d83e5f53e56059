// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/behavior"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// Engine produces ranked recommendations. It is safe for concurrent use.
type Engine struct {
	config    Config
	logger    zerolog.Logger
	scorer    *matching.Scorer
	directory catalog.Directory
	users     catalog.UserStore
	events    behavior.Store
	models    *ModelStore
	clock     func() time.Time

	// Response cache
	cache   map[string]cacheEntry
	cacheMu sync.RWMutex

	requestCount atomic.Int64
	cacheHits    atomic.Int64
}

type cacheEntry struct {
	response  *Response
	expiresAt time.Time
}

// NewEngine creates a recommendation engine.
func NewEngine(cfg Config, logger zerolog.Logger, scorer *matching.Scorer,
	directory catalog.Directory, users catalog.UserStore, events behavior.Store,
	models *ModelStore) (*Engine, error) {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		scorer:    scorer,
		directory: directory,
		users:     users,
		events:    events,
		models:    models,
		clock:     time.Now,
		cache:     make(map[string]cacheEntry),
	}, nil
}

// Recommend returns the ranked recommendations for one request.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := e.clock()
	req = e.prepareRequest(req)
	if req.UserID == "" {
		return nil, apperrors.Validationf("user_id", "must not be empty")
	}
	if !req.Kind.Valid() {
		return nil, apperrors.Validationf("entity_type", "unknown kind %q", req.Kind)
	}
	if !req.Strategy.Valid() {
		return nil, apperrors.Validationf("strategy", "unknown strategy %q", req.Strategy)
	}
	e.requestCount.Add(1)

	if resp := e.cachedResponse(req); resp != nil {
		e.cacheHits.Add(1)
		return resp, nil
	}

	profile, err := e.buildProfile(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	var recs []Recommendation
	var candidates int
	if req.Kind == catalog.KindMixed {
		recs, candidates, err = e.recommendMixed(ctx, req, profile)
	} else {
		recs, candidates, err = e.recommendKind(ctx, req, profile, req.Kind, req.Limit)
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{
		UserID:          req.UserID,
		Kind:            req.Kind,
		Strategy:        req.Strategy,
		Recommendations: recs,
		Metadata: ResponseMetadata{
			GeneratedAt: start.UTC(),
			DurationMs:  time.Since(start).Milliseconds(),
			Candidates:  candidates,
		},
	}
	e.storeCache(req, resp)

	for _, kind := range req.Kind.Concrete() {
		if err := e.models.IncrementUsage(ctx, kind); err != nil {
			e.logger.Warn().Err(err).Str("entity_type", string(kind)).
				Msg("failed to bump model usage counter")
		}
	}

	e.logger.Debug().
		Str("user_id", req.UserID).
		Str("entity_type", string(req.Kind)).
		Str("strategy", string(req.Strategy)).
		Int("results", len(recs)).
		Msg("recommendations served")
	return resp, nil
}

func (e *Engine) prepareRequest(req Request) Request {
	if req.Limit <= 0 {
		req.Limit = e.config.DefaultLimit
	}
	if req.Limit > e.config.MaxLimit {
		req.Limit = e.config.MaxLimit
	}
	if req.Strategy == "" {
		req.Strategy = StrategyHybrid
	}
	return req
}

// recommendKind runs one strategy against one concrete entity kind.
func (e *Engine) recommendKind(ctx context.Context, req Request, profile userProfile,
	kind catalog.Kind, limit int) ([]Recommendation, int, error) {
	switch req.Strategy {
	case StrategyContentBased:
		return e.contentBased(ctx, profile, kind, limit)
	case StrategyCollaborative:
		return e.collaborative(ctx, profile, kind, limit)
	default:
		return e.hybrid(ctx, profile, kind, limit)
	}
}

// recommendMixed partitions the limit across the concrete kinds: ceil for
// cities and jobs, the remainder for articles, then merges by score.
func (e *Engine) recommendMixed(ctx context.Context, req Request, profile userProfile) ([]Recommendation, int, error) {
	kinds := catalog.KindMixed.Concrete()
	share := (req.Limit + len(kinds) - 1) / len(kinds)

	var merged []Recommendation
	var candidates int
	remaining := req.Limit
	for i, kind := range kinds {
		take := share
		if i == len(kinds)-1 {
			take = remaining
		}
		if take <= 0 {
			break
		}
		recs, n, err := e.recommendKind(ctx, req, profile, kind, take)
		if err != nil {
			return nil, 0, err
		}
		merged = append(merged, recs...)
		candidates += n
		remaining -= take
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged, candidates, nil
}

// rank sorts descending by score and truncates to limit.
func rank(recs []Recommendation, limit int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func (e *Engine) cacheKey(req Request) string {
	return fmt.Sprintf("%s:%s:%s:%d", req.UserID, req.Kind, req.Strategy, req.Limit)
}

func (e *Engine) cachedResponse(req Request) *Response {
	e.cacheMu.RLock()
	entry, ok := e.cache[e.cacheKey(req)]
	e.cacheMu.RUnlock()
	if !ok || e.clock().After(entry.expiresAt) {
		return nil
	}
	cp := *entry.response
	cp.Metadata.CacheHit = true
	return &cp
}

func (e *Engine) storeCache(req Request, resp *Response) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	if len(e.cache) >= e.config.CacheSize {
		// Evict expired entries first, then fall back to dropping all.
		now := e.clock()
		for k, v := range e.cache {
			if now.After(v.expiresAt) {
				delete(e.cache, k)
			}
		}
		if len(e.cache) >= e.config.CacheSize {
			e.cache = make(map[string]cacheEntry)
		}
	}
	e.cache[e.cacheKey(req)] = cacheEntry{
		response:  resp,
		expiresAt: e.clock().Add(e.config.CacheTTL),
	}
}

// Stats reports request counters for metrics scraping.
func (e *Engine) Stats() (requests, cacheHits int64) {
	return e.requestCount.Load(), e.cacheHits.Load()
}
