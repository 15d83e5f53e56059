// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package recommend orchestrates match scoring over candidate sets and
// produces ranked recommendations per entity kind and strategy.
package recommend

import (
	"time"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// Strategy selects how candidates are sourced and scored.
type Strategy string

const (
	StrategyContentBased  Strategy = "content_based"
	StrategyCollaborative Strategy = "collaborative"
	StrategyHybrid        Strategy = "hybrid"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyContentBased, StrategyCollaborative, StrategyHybrid:
		return true
	}
	return false
}

// Request asks for recommendations for one user.
type Request struct {
	UserID   string       `json:"user_id"`
	Kind     catalog.Kind `json:"entity_type"`
	Limit    int          `json:"limit"`
	Strategy Strategy     `json:"strategy"`
}

// Recommendation is one ranked result.
type Recommendation struct {
	Entity  catalog.Entity              `json:"entity"`
	Score   float64                     `json:"score"`
	Reasons []string                    `json:"reasons"`
	Type    matching.RecommendationType `json:"recommendation_type"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	GeneratedAt time.Time `json:"generated_at"`
	DurationMs  int64     `json:"duration_ms"`
	CacheHit    bool      `json:"cache_hit"`
	Candidates  int       `json:"candidates_considered"`
}

// Response is a full recommendation result.
type Response struct {
	UserID          string           `json:"user_id"`
	Kind            catalog.Kind     `json:"entity_type"`
	Strategy        Strategy         `json:"strategy"`
	Recommendations []Recommendation `json:"recommendations"`
	Metadata        ResponseMetadata `json:"metadata"`
}

// Model is the persisted per-kind training record. Accuracy is a
// data-sufficiency measure: the fraction of users in the window with enough
// interactions to recommend from.
type Model struct {
	EntityKind          catalog.Kind `json:"entity_type"`
	Status              string       `json:"status"`
	Accuracy            float64      `json:"accuracy_score"`
	TrainingSamples     int          `json:"training_samples"`
	TrainedAt           time.Time    `json:"trained_at"`
	RecommendationCount int64        `json:"recommendation_count"`
	ClickCount          int64        `json:"click_count"`
	ConversionCount     int64        `json:"conversion_count"`
}

// ClickThroughRate is clicks over served recommendations.
func (m Model) ClickThroughRate() float64 {
	if m.RecommendationCount == 0 {
		return 0
	}
	return float64(m.ClickCount) / float64(m.RecommendationCount)
}

// ConversionRate is conversions over served recommendations.
func (m Model) ConversionRate() float64 {
	if m.RecommendationCount == 0 {
		return 0
	}
	return float64(m.ConversionCount) / float64(m.RecommendationCount)
}

// TrainResult summarizes one training run.
type TrainResult struct {
	EntityKind      catalog.Kind `json:"entity_type"`
	Accuracy        float64      `json:"accuracy_score"`
	TrainingSamples int          `json:"training_samples"`
	TrainedAt       time.Time    `json:"trained_at"`
}
