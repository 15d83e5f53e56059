// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

// TypeStats summarizes one event type inside a window.
type TypeStats struct {
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// HourActivity is one peak activity hour with its event count.
type HourActivity struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DayActivity is one active calendar day with its event count.
type DayActivity struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// SessionStats aggregates the per-session view of a window.
type SessionStats struct {
	Sessions        int     `json:"sessions"`
	AvgDurationMins float64 `json:"avg_duration_minutes"`
	AvgEvents       float64 `json:"avg_events_per_session"`
	AvgEngagement   float64 `json:"avg_engagement_per_session"`
}

// Summary is the analytic view of a user's events over a window.
type Summary struct {
	UserID           string                    `json:"user_id"`
	Days             int                       `json:"days"`
	TotalEvents      int                       `json:"total_events"`
	EngagementScore  float64                   `json:"engagement_score"`
	Distribution     map[EventType]TypeStats   `json:"event_distribution"`
	PeakHours        []HourActivity            `json:"peak_hours"`
	ActiveDays       []DayActivity             `json:"active_days"`
	KindInteractions map[catalog.Kind]int      `json:"entity_interactions"`
	Preferences      map[catalog.Kind][]string `json:"extracted_preferences"`
	Sessions         SessionStats              `json:"sessions"`
	Suggestions      []string                  `json:"suggestions"`
}

// Analyze builds a Summary from the user's events in [now-days, now].
// An empty window returns a zero summary rather than an error.
func (s *Scorer) Analyze(ctx context.Context, userID string, days int) (Summary, error) {
	if days <= 0 {
		days = 30
	}
	now := s.clock().UTC()
	events, err := s.store.EventsByUser(ctx, userID, now.AddDate(0, 0, -days))
	if err != nil {
		return Summary{}, fmt.Errorf("analyze user %s: %w", userID, err)
	}
	return summarize(userID, days, events), nil
}

func summarize(userID string, days int, events []Event) Summary {
	sum := Summary{
		UserID:           userID,
		Days:             days,
		TotalEvents:      len(events),
		Distribution:     make(map[EventType]TypeStats),
		KindInteractions: make(map[catalog.Kind]int),
		Preferences:      make(map[catalog.Kind][]string),
	}
	if len(events) == 0 {
		sum.Suggestions = []string{"Start exploring cities and jobs to build your profile"}
		return sum
	}

	var (
		totalScore float64
		typeScores = make(map[EventType]float64)
		typeCounts = make(map[EventType]int)
		hourCounts = make(map[int]int)
		dayCounts  = make(map[string]int)
		seenEntity = make(map[catalog.Kind]map[string]bool)
		sessions   = make(map[string][]Event)
	)
	for _, ev := range events {
		totalScore += ev.EngagementScore
		typeScores[ev.Type] += ev.EngagementScore
		typeCounts[ev.Type]++
		hourCounts[ev.OccurredAt.Hour()]++
		dayCounts[ev.OccurredAt.Format("2006-01-02")]++
		sessions[ev.SessionID] = append(sessions[ev.SessionID], ev)

		if ev.EntityKind != "" {
			sum.KindInteractions[ev.EntityKind]++
			if ev.EntityID != "" {
				if seenEntity[ev.EntityKind] == nil {
					seenEntity[ev.EntityKind] = make(map[string]bool)
				}
				if !seenEntity[ev.EntityKind][ev.EntityID] {
					seenEntity[ev.EntityKind][ev.EntityID] = true
					sum.Preferences[ev.EntityKind] = append(sum.Preferences[ev.EntityKind], ev.EntityID)
				}
			}
		}
	}

	for t, n := range typeCounts {
		sum.Distribution[t] = TypeStats{
			Count:         n,
			Percentage:    float64(n) / float64(len(events)) * 100,
			AvgEngagement: typeScores[t] / float64(n),
		}
	}

	sum.EngagementScore = totalScore / (float64(len(events)) * MaxEventWeight) * 100
	sum.PeakHours = topHours(hourCounts, 3)
	sum.ActiveDays = topDays(dayCounts, 5)
	sum.Sessions = sessionStats(sessions)
	sum.Suggestions = suggestions(sum)
	return sum
}

func topHours(counts map[int]int, n int) []HourActivity {
	out := make([]HourActivity, 0, len(counts))
	for h, c := range counts {
		out = append(out, HourActivity{Hour: h, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func topDays(counts map[string]int, n int) []DayActivity {
	out := make([]DayActivity, 0, len(counts))
	for d, c := range counts {
		out = append(out, DayActivity{Day: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Day > out[j].Day
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func sessionStats(sessions map[string][]Event) SessionStats {
	if len(sessions) == 0 {
		return SessionStats{}
	}
	var durMins, events, engagement float64
	for _, evs := range sessions {
		minT, maxT := evs[0].OccurredAt, evs[0].OccurredAt
		var score float64
		for _, ev := range evs {
			if ev.OccurredAt.Before(minT) {
				minT = ev.OccurredAt
			}
			if ev.OccurredAt.After(maxT) {
				maxT = ev.OccurredAt
			}
			score += ev.EngagementScore
		}
		durMins += maxT.Sub(minT).Minutes()
		events += float64(len(evs))
		engagement += score / float64(len(evs))
	}
	n := float64(len(sessions))
	return SessionStats{
		Sessions:        len(sessions),
		AvgDurationMins: durMins / n,
		AvgEvents:       events / n,
		AvgEngagement:   engagement / n,
	}
}

// suggestions emits rule-based prompts from the aggregate numbers. The rules
// are deliberately simple; they feed the profile page, not the recommender.
func suggestions(sum Summary) []string {
	var out []string
	var avgPerEvent float64
	if sum.TotalEvents > 0 {
		// Undo the percentage normalization to recover the mean raw score.
		avgPerEvent = sum.EngagementScore / 100 * MaxEventWeight
	}
	if avgPerEvent < 3.0 {
		out = append(out, "Average engagement is low; try interactive features like favorites and search filters")
	}
	if sum.KindInteractions[catalog.KindJob] == 0 {
		out = append(out, "Browse remote job listings to unlock job matching")
	}
	if sum.KindInteractions[catalog.KindCity] == 0 {
		out = append(out, "Explore city guides to get destination recommendations")
	}
	if sum.Sessions.AvgEvents > 0 && sum.Sessions.AvgEvents < 3 {
		out = append(out, "Sessions are short; saved searches can pick up where you left off")
	}
	return out
}

// windowStart returns the beginning of an n-day lookback from now.
func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
