// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
)

type touchRecorder struct {
	id string
	t  time.Time
}

func (r *touchRecorder) User(ctx context.Context, id string) (catalog.User, error) {
	return catalog.User{ID: id}, nil
}

func (r *touchRecorder) TouchLastActive(ctx context.Context, id string, t time.Time) error {
	r.id = id
	r.t = t
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBaseWeight(t *testing.T) {
	tests := []struct {
		eventType EventType
		want      float64
	}{
		{EventPageView, 1.0},
		{EventClick, 2.0},
		{EventSearch, 3.0},
		{EventDownload, 4.0},
		{EventFavorite, 5.0},
		{EventComment, 6.0},
		{EventShare, 8.0},
		{EventApply, 10.0},
		{EventSignup, 15.0},
		{EventPurchase, 20.0},
		{EventType("unknown_thing"), 1.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			if got := tt.eventType.BaseWeight(); got != tt.want {
				t.Errorf("BaseWeight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContextMultiplier(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
		want float64
	}{
		{
			name: "anonymous visitor",
			ctx:  Context{},
			want: 1.0,
		},
		{
			name: "returning user",
			ctx:  Context{IsReturning: true},
			want: 1.2,
		},
		{
			name: "complete profile",
			ctx:  Context{ProfileCompletionPct: 85},
			want: 1.3,
		},
		{
			name: "profile at exactly 80 percent gets no bonus",
			ctx:  Context{ProfileCompletionPct: 80},
			want: 1.0,
		},
		{
			name: "premium member",
			ctx:  Context{IsPremium: true},
			want: 1.5,
		},
		{
			name: "all bonuses stack additively",
			ctx:  Context{IsReturning: true, ProfileCompletionPct: 95, IsPremium: true},
			want: 2.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ctx.Multiplier(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Multiplier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorerTrack(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("scores and persists an event", func(t *testing.T) {
		store := NewMemoryStore()
		users := &touchRecorder{}
		s := NewScorer(store, users)
		s.clock = fixedClock(now)

		ev, err := s.Track(context.Background(), TrackRequest{
			UserID:     "user-1",
			Type:       EventApply,
			EntityKind: catalog.KindJob,
			EntityID:   "job-7",
			Context:    Context{IsReturning: true, IsPremium: true},
		})
		if err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if want := 10.0 * 1.7; math.Abs(ev.EngagementScore-want) > 1e-9 {
			t.Errorf("EngagementScore = %v, want %v", ev.EngagementScore, want)
		}
		if ev.ID == "" {
			t.Error("expected generated event ID")
		}
		if ev.SessionID == "" {
			t.Error("expected generated session ID")
		}
		if store.Len() != 1 {
			t.Errorf("store has %d events, want 1", store.Len())
		}
		if users.id != "user-1" || !users.t.Equal(now) {
			t.Errorf("last active not touched: id=%q t=%v", users.id, users.t)
		}
	})

	t.Run("keeps caller supplied session", func(t *testing.T) {
		s := NewScorer(NewMemoryStore(), nil)
		s.clock = fixedClock(now)

		ev, err := s.Track(context.Background(), TrackRequest{
			SessionID: "sess-abc",
			Type:      EventPageView,
		})
		if err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if ev.SessionID != "sess-abc" {
			t.Errorf("SessionID = %q, want sess-abc", ev.SessionID)
		}
	})

	t.Run("anonymous events skip last active bookkeeping", func(t *testing.T) {
		users := &touchRecorder{}
		s := NewScorer(NewMemoryStore(), users)
		s.clock = fixedClock(now)

		if _, err := s.Track(context.Background(), TrackRequest{Type: EventClick}); err != nil {
			t.Fatalf("Track() error = %v", err)
		}
		if users.id != "" {
			t.Errorf("unexpected TouchLastActive for %q", users.id)
		}
	})

	t.Run("rejects missing event type", func(t *testing.T) {
		s := NewScorer(NewMemoryStore(), nil)
		_, err := s.Track(context.Background(), TrackRequest{})
		if !apperrors.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects unknown entity kind", func(t *testing.T) {
		s := NewScorer(NewMemoryStore(), nil)
		_, err := s.Track(context.Background(), TrackRequest{
			Type:       EventClick,
			EntityKind: catalog.Kind("planets"),
		})
		if !apperrors.IsValidation(err) {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}
