// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/storage"
)

const experimentKeyPrefix = "experiment:"

// Engine manages the experiment lifecycle and result aggregation. All
// read-modify-write operations serialize on one mutex; experiment traffic is
// low-frequency control-plane work, not the hot path.
type Engine struct {
	records  storage.RecordStore
	defaults CompletionConfig
	logger   zerolog.Logger
	clock    func() time.Time
	mu       sync.Mutex
}

// NewEngine creates an experiment engine over the record store. The
// defaults apply to experiments created without completion thresholds;
// a zero value falls back to DefaultCompletionConfig.
func NewEngine(records storage.RecordStore, defaults CompletionConfig, logger zerolog.Logger) *Engine {
	if defaults == (CompletionConfig{}) {
		defaults = DefaultCompletionConfig()
	}
	return &Engine{
		records:  records,
		defaults: defaults,
		logger:   logger.With().Str("component", "experiment").Logger(),
		clock:    time.Now,
	}
}

func experimentKey(id string) string {
	return experimentKeyPrefix + id
}

// Create validates and stores a new draft experiment.
func (e *Engine) Create(ctx context.Context, exp Experiment) (Experiment, error) {
	if err := exp.Validate(); err != nil {
		return Experiment{}, err
	}
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	exp.Status = StatusDraft
	exp.CreatedAt = e.clock().UTC()
	exp.StartDate = nil
	exp.EndDate = nil
	exp.Winner = ""
	exp.Confidence = 0
	if exp.Completion == (CompletionConfig{}) {
		exp.Completion = e.defaults
	}
	exp.Results = make(map[string]*VariantResult, len(exp.Variants))
	for name := range exp.Variants {
		exp.Results[name] = &VariantResult{Events: make(map[string]int64)}
	}

	if err := e.put(ctx, exp); err != nil {
		return Experiment{}, err
	}
	e.logger.Info().Str("test_id", exp.ID).Str("name", exp.Name).Msg("experiment created")
	return exp, nil
}

// Get loads one experiment by ID.
func (e *Engine) Get(ctx context.Context, id string) (Experiment, error) {
	var exp Experiment
	err := storage.GetJSON(ctx, e.records, experimentKey(id), &exp)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return Experiment{}, apperrors.NotFound("experiment", id)
	}
	if err != nil {
		return Experiment{}, fmt.Errorf("load experiment %s: %w", id, err)
	}
	return exp, nil
}

// List returns all stored experiments.
func (e *Engine) List(ctx context.Context) ([]Experiment, error) {
	raw, err := e.records.List(ctx, experimentKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list experiments: %w", err)
	}
	out := make([]Experiment, 0, len(raw))
	for key, data := range raw {
		var exp Experiment
		if err := json.Unmarshal(data, &exp); err != nil {
			return nil, fmt.Errorf("decode experiment %s: %w", key, err)
		}
		out = append(out, exp)
	}
	return out, nil
}

// Start transitions a draft experiment to active and stamps the start date.
func (e *Engine) Start(ctx context.Context, id string) (Experiment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, err := e.Get(ctx, id)
	if err != nil {
		return Experiment{}, err
	}
	if exp.Status != StatusDraft {
		return Experiment{}, apperrors.StateConflict("start", string(exp.Status))
	}

	now := e.clock().UTC()
	exp.Status = StatusActive
	exp.StartDate = &now
	if err := e.put(ctx, exp); err != nil {
		return Experiment{}, err
	}
	e.logger.Info().Str("test_id", id).Msg("experiment started")
	return exp, nil
}

// Assign returns the visitor's variant, or empty when the experiment is not
// active or targeting excludes them. The result is pure in (user, test):
// repeated calls always agree.
func (e *Engine) Assign(ctx context.Context, id string, v Visitor) (string, error) {
	exp, err := e.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return assign(&exp, v), nil
}

func assign(exp *Experiment, v Visitor) string {
	if exp.Status != StatusActive || !exp.Targeting.Matches(v) {
		return ""
	}
	return variantFor(exp.Allocation, bucket(v.UserID, exp.ID))
}

// TrackEvent records one event against the visitor's variant. Spoofed or
// stale claims are dropped with a warning: the recomputed assignment must
// match the claimed variant and the experiment must be active.
func (e *Engine) TrackEvent(ctx context.Context, id string, v Visitor, claimed, eventType string, data map[string]any) error {
	return e.track(ctx, id, v, claimed, eventType, data)
}

// TrackConversion records a conversion event for the visitor's variant.
func (e *Engine) TrackConversion(ctx context.Context, id string, v Visitor, claimed string, data map[string]any) error {
	return e.track(ctx, id, v, claimed, "conversion", data)
}

func (e *Engine) track(ctx context.Context, id string, v Visitor, claimed, eventType string, data map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	actual := assign(&exp, v)
	if actual == "" || actual != claimed {
		e.logger.Warn().
			Str("test_id", id).
			Str("user_id", v.UserID).
			Str("claimed", claimed).
			Str("actual", actual).
			Msg("experiment event dropped")
		return nil
	}

	result := exp.Results[actual]
	if result == nil {
		result = &VariantResult{Events: make(map[string]int64)}
		exp.Results[actual] = result
	}
	if result.Events == nil {
		result.Events = make(map[string]int64)
	}

	// The caller carries the first-visit flag so visitor counting stays
	// idempotent without a per-user index here.
	if eventType == "page_view" && !asBool(data["visitor_counted"]) {
		result.Visitors++
	}
	if eventType == "conversion" {
		result.Conversions++
	}
	result.Events[eventType]++
	result.EventCount++

	if score, ok := asFloat(data["engagement_score"]); ok {
		n := float64(result.EventCount)
		result.AvgEngagement = (result.AvgEngagement*(n-1) + score) / n
	}

	return e.put(ctx, exp)
}

// CompleteResult reports the outcome of a completion attempt.
type CompleteResult struct {
	Completed  bool    `json:"completed"`
	Winner     string  `json:"winner_variant,omitempty"`
	Confidence float64 `json:"confidence_level,omitempty"`
}

// Complete finishes an active experiment, stamping the winner and
// confidence. Unless force is set, the experiment keeps running when
// ShouldComplete says the evidence is not in yet.
func (e *Engine) Complete(ctx context.Context, id string, force bool) (CompleteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	exp, err := e.Get(ctx, id)
	if err != nil {
		return CompleteResult{}, err
	}
	if exp.Status != StatusActive {
		return CompleteResult{}, apperrors.StateConflict("complete", string(exp.Status))
	}

	now := e.clock().UTC()
	if !force && !ShouldComplete(&exp, now) {
		return CompleteResult{Completed: false}, nil
	}

	exp.Status = StatusCompleted
	exp.EndDate = &now
	exp.Winner = winner(&exp)
	exp.Confidence = Significance(&exp)
	if err := e.put(ctx, exp); err != nil {
		return CompleteResult{}, err
	}

	e.logger.Info().
		Str("test_id", id).
		Str("winner", exp.Winner).
		Float64("confidence", exp.Confidence).
		Msg("experiment completed")
	return CompleteResult{Completed: true, Winner: exp.Winner, Confidence: exp.Confidence}, nil
}

func (e *Engine) put(ctx context.Context, exp Experiment) error {
	if err := storage.PutJSON(ctx, e.records, experimentKey(exp.ID), exp); err != nil {
		return fmt.Errorf("store experiment %s: %w", exp.ID, err)
	}
	return nil
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
