// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

func seedEvent(t *testing.T, store Store, ev Event) {
	t.Helper()
	if err := store.Append(context.Background(), ev); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("empty window returns zero summary with starter suggestion", func(t *testing.T) {
		s := NewScorer(NewMemoryStore(), nil)
		s.clock = fixedClock(now)

		sum, err := s.Analyze(context.Background(), "user-1", 30)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if sum.TotalEvents != 0 || sum.EngagementScore != 0 {
			t.Errorf("expected zero summary, got %+v", sum)
		}
		if len(sum.Suggestions) == 0 {
			t.Error("expected a starter suggestion for empty history")
		}
	})

	t.Run("computes distribution and overall engagement", func(t *testing.T) {
		store := NewMemoryStore()
		s := NewScorer(store, nil)
		s.clock = fixedClock(now)

		// Two page views at 1.0 and one purchase at 20.0.
		seedEvent(t, store, Event{ID: "1", UserID: "u", SessionID: "s1", Type: EventPageView, EngagementScore: 1.0, OccurredAt: now.Add(-2 * time.Hour)})
		seedEvent(t, store, Event{ID: "2", UserID: "u", SessionID: "s1", Type: EventPageView, EngagementScore: 1.0, OccurredAt: now.Add(-1 * time.Hour)})
		seedEvent(t, store, Event{ID: "3", UserID: "u", SessionID: "s2", Type: EventPurchase, EngagementScore: 20.0, OccurredAt: now.Add(-30 * time.Minute)})

		sum, err := s.Analyze(context.Background(), "u", 30)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}

		pv := sum.Distribution[EventPageView]
		if pv.Count != 2 {
			t.Errorf("page_view count = %d, want 2", pv.Count)
		}
		if math.Abs(pv.Percentage-66.666) > 0.01 {
			t.Errorf("page_view percentage = %v, want ~66.67", pv.Percentage)
		}
		if pv.AvgEngagement != 1.0 {
			t.Errorf("page_view avg engagement = %v, want 1.0", pv.AvgEngagement)
		}

		// (1+1+20) / (3 * 20) * 100
		if want := 22.0 / 60.0 * 100; math.Abs(sum.EngagementScore-want) > 1e-9 {
			t.Errorf("EngagementScore = %v, want %v", sum.EngagementScore, want)
		}
		if sum.Sessions.Sessions != 2 {
			t.Errorf("sessions = %d, want 2", sum.Sessions.Sessions)
		}
	})

	t.Run("peak hours ranked by event count", func(t *testing.T) {
		store := NewMemoryStore()
		s := NewScorer(store, nil)
		s.clock = fixedClock(now)

		at := func(hour, n int) {
			for i := 0; i < n; i++ {
				seedEvent(t, store, Event{
					ID:         fmt.Sprintf("ev-%d-%d", hour, i),
					UserID:     "u",
					SessionID:  "s",
					Type:       EventClick,
					OccurredAt: time.Date(2026, 3, 14, hour, i, 0, 0, time.UTC),
				})
			}
		}
		at(9, 5)
		at(14, 3)
		at(20, 4)
		at(7, 1)

		sum, err := s.Analyze(context.Background(), "u", 30)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if len(sum.PeakHours) != 3 {
			t.Fatalf("peak hours len = %d, want 3", len(sum.PeakHours))
		}
		wantHours := []int{9, 20, 14}
		for i, w := range wantHours {
			if sum.PeakHours[i].Hour != w {
				t.Errorf("PeakHours[%d] = %d, want %d", i, sum.PeakHours[i].Hour, w)
			}
		}
	})

	t.Run("preferences deduplicate entity ids per kind", func(t *testing.T) {
		store := NewMemoryStore()
		s := NewScorer(store, nil)
		s.clock = fixedClock(now)

		for i, id := range []string{"lisbon", "lisbon", "chiang-mai", "lisbon"} {
			seedEvent(t, store, Event{
				ID:         string(rune('a' + i)),
				UserID:     "u",
				SessionID:  "s",
				Type:       EventPageView,
				EntityKind: catalog.KindCity,
				EntityID:   id,
				OccurredAt: now.Add(-time.Duration(i) * time.Minute),
			})
		}

		sum, err := s.Analyze(context.Background(), "u", 30)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if got := sum.Preferences[catalog.KindCity]; len(got) != 2 {
			t.Errorf("city preferences = %v, want 2 distinct ids", got)
		}
		if sum.KindInteractions[catalog.KindCity] != 4 {
			t.Errorf("city interactions = %d, want 4", sum.KindInteractions[catalog.KindCity])
		}
	})

	t.Run("session duration is span between first and last event", func(t *testing.T) {
		store := NewMemoryStore()
		s := NewScorer(store, nil)
		s.clock = fixedClock(now)

		seedEvent(t, store, Event{ID: "1", UserID: "u", SessionID: "s1", Type: EventClick, OccurredAt: now.Add(-40 * time.Minute)})
		seedEvent(t, store, Event{ID: "2", UserID: "u", SessionID: "s1", Type: EventClick, OccurredAt: now.Add(-10 * time.Minute)})

		sum, err := s.Analyze(context.Background(), "u", 30)
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if math.Abs(sum.Sessions.AvgDurationMins-30) > 1e-9 {
			t.Errorf("AvgDurationMins = %v, want 30", sum.Sessions.AvgDurationMins)
		}
		if sum.Sessions.AvgEvents != 2 {
			t.Errorf("AvgEvents = %v, want 2", sum.Sessions.AvgEvents)
		}
	})
}

func TestChurnScore(t *testing.T) {
	tests := []struct {
		name         string
		engagement   float64
		daysInactive float64
		sessionFreq  float64
		wantProb     float64
		wantLevel    string
	}{
		{
			name:       "healthy user",
			engagement: 60, daysInactive: 1, sessionFreq: 0.5,
			wantProb: 0, wantLevel: "low",
		},
		{
			name:       "all penalties cap at 100",
			engagement: 10, daysInactive: 10, sessionFreq: 0.05,
			wantProb: 100, wantLevel: "high",
		},
		{
			name:       "middle bands",
			engagement: 30, daysInactive: 5, sessionFreq: 0.2,
			wantProb: 50, wantLevel: "medium",
		},
		{
			name:       "single heavy penalty stays low risk",
			engagement: 15, daysInactive: 1, sessionFreq: 0.5,
			wantProb: 40, wantLevel: "medium",
		},
		{
			name:       "boundary day three is not penalized",
			engagement: 60, daysInactive: 3, sessionFreq: 0.5,
			wantProb: 0, wantLevel: "low",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prob, _ := churnScore(tt.engagement, tt.daysInactive, tt.sessionFreq)
			if prob != tt.wantProb {
				t.Errorf("churnScore() = %v, want %v", prob, tt.wantProb)
			}
			if got := riskLevel(prob); got != tt.wantLevel {
				t.Errorf("riskLevel(%v) = %q, want %q", prob, got, tt.wantLevel)
			}
		})
	}
}

func TestChurnProbability(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("no events means maximum inactivity", func(t *testing.T) {
		s := NewScorer(NewMemoryStore(), nil)
		s.clock = fixedClock(now)

		risk, err := s.ChurnProbability(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("ChurnProbability() error = %v", err)
		}
		if risk.Probability != 100 {
			t.Errorf("Probability = %v, want 100", risk.Probability)
		}
		if risk.RiskLevel != "high" {
			t.Errorf("RiskLevel = %q, want high", risk.RiskLevel)
		}
	})

	t.Run("recent heavy activity scores low", func(t *testing.T) {
		store := NewMemoryStore()
		s := NewScorer(store, nil)
		s.clock = fixedClock(now)

		// 15 sessions of purchases in the last two weeks: engagement high,
		// inactivity low, session frequency 0.5.
		for i := 0; i < 15; i++ {
			seedEvent(t, store, Event{
				ID:              string(rune('a' + i)),
				UserID:          "u",
				SessionID:       "s" + string(rune('a'+i)),
				Type:            EventPurchase,
				EngagementScore: 20,
				OccurredAt:      now.Add(-time.Duration(i) * 12 * time.Hour),
			})
		}

		risk, err := s.ChurnProbability(context.Background(), "u")
		if err != nil {
			t.Fatalf("ChurnProbability() error = %v", err)
		}
		if risk.Probability != 0 {
			t.Errorf("Probability = %v (factors %v), want 0", risk.Probability, risk.Factors)
		}
		if risk.RiskLevel != "low" {
			t.Errorf("RiskLevel = %q, want low", risk.RiskLevel)
		}
	})
}
