// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package experiment manages A/B tests: experiment definitions, deterministic
// variant bucketing, per-variant result aggregation, and significance-based
// completion.
package experiment

import (
	"math"
	"time"

	"github.com/nomadscope/nomadscope/internal/apperrors"
)

// Status is the experiment lifecycle state. Transitions are monotonic:
// draft, then active, then completed.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Allocation is one variant's traffic share. Order matters: assignment walks
// the slice accumulating percentages.
type Allocation struct {
	Variant string  `json:"variant"`
	Percent float64 `json:"percent"`
}

// TargetingRules restrict which users enter an experiment. A nil rules value
// matches everyone; within a rule set, empty fields are wildcards.
type TargetingRules struct {
	UserTypes        []string   `json:"user_types,omitempty"`
	PremiumOnly      bool       `json:"premium_only,omitempty"`
	Locations        []string   `json:"locations,omitempty"`
	RegisteredAfter  *time.Time `json:"registered_after,omitempty"`
	RegisteredBefore *time.Time `json:"registered_before,omitempty"`
}

// Visitor carries the user attributes targeting rules evaluate.
type Visitor struct {
	UserID       string    `json:"user_id"`
	UserType     string    `json:"user_type,omitempty"`
	Premium      bool      `json:"premium,omitempty"`
	Location     string    `json:"location,omitempty"`
	RegisteredAt time.Time `json:"registered_at,omitempty"`
}

// VariantResult accumulates outcomes for one variant.
type VariantResult struct {
	Visitors      int64            `json:"visitors"`
	Conversions   int64            `json:"conversions"`
	Events        map[string]int64 `json:"events"`
	EventCount    int64            `json:"event_count"`
	AvgEngagement float64          `json:"avg_engagement_score"`
}

// ConversionRate is conversions over visitors, zero when unvisited.
func (r *VariantResult) ConversionRate() float64 {
	if r == nil || r.Visitors == 0 {
		return 0
	}
	return float64(r.Conversions) / float64(r.Visitors)
}

// CompletionConfig bounds when an experiment may auto-complete.
type CompletionConfig struct {
	MinDurationDays int     `json:"min_duration_days"`
	MaxDurationDays int     `json:"max_duration_days"`
	MinVisitors     int64   `json:"min_visitors"`
	MinConfidence   float64 `json:"min_confidence"`
}

// DefaultCompletionConfig returns the production completion thresholds.
func DefaultCompletionConfig() CompletionConfig {
	return CompletionConfig{
		MinDurationDays: 7,
		MaxDurationDays: 30,
		MinVisitors:     1000,
		MinConfidence:   95,
	}
}

// Experiment is one A/B test definition plus its accumulated results.
type Experiment struct {
	ID            string                    `json:"id"`
	Name          string                    `json:"name"`
	TestType      string                    `json:"test_type"`
	TargetElement string                    `json:"target_element"`
	Variants      map[string]map[string]any `json:"variants"`
	Allocation    []Allocation              `json:"traffic_allocation"`
	Targeting     *TargetingRules           `json:"targeting_rules,omitempty"`
	Status        Status                    `json:"status"`
	Results       map[string]*VariantResult `json:"results"`
	Winner        string                    `json:"winner_variant,omitempty"`
	Confidence    float64                   `json:"confidence_level,omitempty"`
	Completion    CompletionConfig          `json:"completion"`
	CreatedAt     time.Time                 `json:"created_at"`
	StartDate     *time.Time                `json:"start_date,omitempty"`
	EndDate       *time.Time                `json:"end_date,omitempty"`
}

// Validate checks a definition before it is stored.
func (e *Experiment) Validate() error {
	if e.Name == "" {
		return apperrors.Validationf("name", "must not be empty")
	}
	if len(e.Variants) < 2 {
		return apperrors.Validationf("variants", "need at least 2, got %d", len(e.Variants))
	}
	if len(e.Allocation) == 0 {
		return apperrors.Validationf("traffic_allocation", "must not be empty")
	}

	var total float64
	for _, a := range e.Allocation {
		if a.Percent < 0 {
			return apperrors.Validationf("traffic_allocation", "negative share for %q", a.Variant)
		}
		if _, ok := e.Variants[a.Variant]; !ok {
			return apperrors.Validationf("traffic_allocation", "unknown variant %q", a.Variant)
		}
		total += a.Percent
	}
	// Rounding-adjusted: shares like 33.33/33.33/33.34 must pass.
	if math.Abs(total-100) > 0.5 {
		return apperrors.Validationf("traffic_allocation", "shares sum to %.2f, want 100", total)
	}
	return nil
}

// Matches evaluates the targeting rules against a visitor.
func (t *TargetingRules) Matches(v Visitor) bool {
	if t == nil {
		return true
	}
	if len(t.UserTypes) > 0 && !contains(t.UserTypes, v.UserType) {
		return false
	}
	if t.PremiumOnly && !v.Premium {
		return false
	}
	if len(t.Locations) > 0 && !contains(t.Locations, v.Location) {
		return false
	}
	if t.RegisteredAfter != nil && v.RegisteredAt.Before(*t.RegisteredAfter) {
		return false
	}
	if t.RegisteredBefore != nil && v.RegisteredAt.After(*t.RegisteredBefore) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
