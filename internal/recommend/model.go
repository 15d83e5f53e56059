// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/storage"
)

const modelKeyPrefix = "model:"

// ModelStore persists one recommendation model per entity kind and keeps the
// active models in memory behind atomic pointers so the serving path never
// blocks on storage.
type ModelStore struct {
	records storage.RecordStore

	mu     sync.Mutex
	active map[catalog.Kind]*atomic.Pointer[Model]
}

// NewModelStore creates a model store over the record store.
func NewModelStore(records storage.RecordStore) *ModelStore {
	return &ModelStore{
		records: records,
		active:  make(map[catalog.Kind]*atomic.Pointer[Model]),
	}
}

func modelKey(kind catalog.Kind) string {
	return modelKeyPrefix + string(kind)
}

func (s *ModelStore) pointer(kind catalog.Kind) *atomic.Pointer[Model] {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.active[kind]
	if !ok {
		p = &atomic.Pointer[Model]{}
		s.active[kind] = p
	}
	return p
}

// Get returns the active model for a kind, loading it from storage on first
// access.
func (s *ModelStore) Get(ctx context.Context, kind catalog.Kind) (Model, error) {
	p := s.pointer(kind)
	if m := p.Load(); m != nil {
		return *m, nil
	}

	var m Model
	err := storage.GetJSON(ctx, s.records, modelKey(kind), &m)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return Model{}, apperrors.NotFound("recommendation_model", string(kind))
	}
	if err != nil {
		return Model{}, fmt.Errorf("load model for %s: %w", kind, err)
	}
	p.Store(&m)
	return m, nil
}

// Upsert replaces the kind's model in storage and swaps the active pointer.
// A second run with identical inputs writes an identical record; there is
// one model row per kind, never more.
func (s *ModelStore) Upsert(ctx context.Context, m Model) error {
	if err := storage.PutJSON(ctx, s.records, modelKey(m.EntityKind), m); err != nil {
		return fmt.Errorf("store model for %s: %w", m.EntityKind, err)
	}
	s.pointer(m.EntityKind).Store(&m)
	return nil
}

// mutate applies fn to the kind's model under the store lock and persists
// the result. Missing models are tolerated as a zero model so usage counts
// survive early traffic before the first training run.
func (s *ModelStore) mutate(ctx context.Context, kind catalog.Kind, fn func(*Model)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m Model
	err := storage.GetJSON(ctx, s.records, modelKey(kind), &m)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return fmt.Errorf("load model for %s: %w", kind, err)
	}
	if m.EntityKind == "" {
		m.EntityKind = kind
		m.Status = "untrained"
	}

	fn(&m)

	if err := storage.PutJSON(ctx, s.records, modelKey(kind), m); err != nil {
		return fmt.Errorf("store model for %s: %w", kind, err)
	}
	p, ok := s.active[kind]
	if !ok {
		p = &atomic.Pointer[Model]{}
		s.active[kind] = p
	}
	p.Store(&m)
	return nil
}

// IncrementUsage bumps the served-recommendation counter.
func (s *ModelStore) IncrementUsage(ctx context.Context, kind catalog.Kind) error {
	return s.mutate(ctx, kind, func(m *Model) {
		m.RecommendationCount++
	})
}

// FeedbackKind names an explicit user reaction to a recommendation.
type FeedbackKind string

const (
	FeedbackClick      FeedbackKind = "click"
	FeedbackConversion FeedbackKind = "conversion"
)

// Feedback records an explicit click or conversion against the kind's
// model. Rates are derived, never stored.
func (s *ModelStore) Feedback(ctx context.Context, kind catalog.Kind, fb FeedbackKind) error {
	switch fb {
	case FeedbackClick:
		return s.mutate(ctx, kind, func(m *Model) { m.ClickCount++ })
	case FeedbackConversion:
		return s.mutate(ctx, kind, func(m *Model) { m.ConversionCount++ })
	default:
		return apperrors.Validationf("feedback", "unknown kind %q", fb)
	}
}

// ModelInfo returns the stored model metadata for the kind.
func (e *Engine) ModelInfo(ctx context.Context, kind catalog.Kind) (Model, error) {
	if !kind.Valid() || kind == catalog.KindMixed {
		return Model{}, apperrors.Validationf("entity_type", "no model for %q", kind)
	}
	return e.models.Get(ctx, kind)
}

// RecordFeedback counts an explicit click or conversion against the
// kind's model.
func (e *Engine) RecordFeedback(ctx context.Context, kind catalog.Kind, fb FeedbackKind) error {
	if !kind.Valid() || kind == catalog.KindMixed {
		return apperrors.Validationf("entity_type", "no model for %q", kind)
	}
	return e.models.Feedback(ctx, kind, fb)
}

// Train rebuilds the kind's model from the trailing window. Accuracy is the
// fraction of users whose interaction count meets the configured minimum.
// Retraining on the same window is idempotent: same accuracy, same single
// model row.
func (e *Engine) Train(ctx context.Context, kind catalog.Kind, days int) (TrainResult, error) {
	if !kind.Valid() || kind == catalog.KindMixed {
		return TrainResult{}, apperrors.Validationf("entity_type", "cannot train %q", kind)
	}
	if days <= 0 {
		days = e.config.WindowDays
	}

	now := e.clock().UTC()
	events, err := e.events.EventsByKind(ctx, string(kind), windowStart(now, days))
	if err != nil {
		return TrainResult{}, fmt.Errorf("load training window: %w", err)
	}

	byUser := interactionsByUser(events)
	samples := len(byUser)
	sufficient := 0
	for _, entities := range byUser {
		if len(entities) >= e.config.MinInteractions {
			sufficient++
		}
	}
	accuracy := 0.0
	if samples > 0 {
		accuracy = float64(sufficient) / float64(samples)
	}

	prev, err := e.models.Get(ctx, kind)
	if err != nil && !apperrors.IsNotFound(err) {
		return TrainResult{}, err
	}

	model := Model{
		EntityKind:          kind,
		Status:              "active",
		Accuracy:            accuracy,
		TrainingSamples:     samples,
		TrainedAt:           now,
		RecommendationCount: prev.RecommendationCount,
		ClickCount:          prev.ClickCount,
		ConversionCount:     prev.ConversionCount,
	}
	if err := e.models.Upsert(ctx, model); err != nil {
		return TrainResult{}, err
	}

	e.logger.Info().
		Str("entity_type", string(kind)).
		Float64("accuracy", accuracy).
		Int("samples", samples).
		Msg("recommendation model trained")

	return TrainResult{
		EntityKind:      kind,
		Accuracy:        accuracy,
		TrainingSamples: samples,
		TrainedAt:       now,
	}, nil
}
