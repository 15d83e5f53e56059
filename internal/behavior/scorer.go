// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/logging"
)

// Scorer ingests behavior events and assigns each one an engagement score.
// The score is the event type's base weight scaled by the user context
// multiplier; anonymous traffic gets the base weight unchanged.
type Scorer struct {
	store Store
	users catalog.UserStore
	clock func() time.Time
}

// NewScorer wires a scorer to an event store. users may be nil when no
// profile store is available; last-active bookkeeping is skipped in that
// case.
func NewScorer(store Store, users catalog.UserStore) *Scorer {
	return &Scorer{
		store: store,
		users: users,
		clock: time.Now,
	}
}

// Track scores and persists a single event. It returns the stored event,
// including the generated ID, session ID, and engagement score.
func (s *Scorer) Track(ctx context.Context, req TrackRequest) (Event, error) {
	if req.Type == "" {
		return Event{}, apperrors.Validationf("event_type", "must not be empty")
	}
	if req.EntityKind != "" && !req.EntityKind.Valid() {
		return Event{}, apperrors.Validationf("entity_type", "unknown kind %q", req.EntityKind)
	}

	now := s.clock().UTC()

	ev := Event{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		SessionID:       req.SessionID,
		Type:            req.Type,
		EntityKind:      req.EntityKind,
		EntityID:        req.EntityID,
		Data:            req.Data,
		Context:         req.Context,
		EngagementScore: req.Type.BaseWeight() * req.Context.Multiplier(),
		OccurredAt:      now,
	}
	if ev.SessionID == "" {
		ev.SessionID = uuid.NewString()
	}

	if err := s.store.Append(ctx, ev); err != nil {
		return Event{}, fmt.Errorf("track event: %w", err)
	}

	if ev.UserID != "" && s.users != nil {
		if err := s.users.TouchLastActive(ctx, ev.UserID, now); err != nil {
			// Bookkeeping only; the event itself is already durable.
			logging.Warn().
				Err(err).
				Str("user_id", ev.UserID).
				Msg("failed to update last active timestamp")
		}
	}

	logging.Debug().
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Float64("engagement_score", ev.EngagementScore).
		Msg("behavior event tracked")

	return ev, nil
}
