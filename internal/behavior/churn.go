// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"fmt"
)

// churnWindowDays is the lookback used for churn inputs.
const churnWindowDays = 30

// ChurnRisk is the churn assessment for one user.
type ChurnRisk struct {
	UserID      string   `json:"user_id"`
	Probability float64  `json:"probability"`
	RiskLevel   string   `json:"risk_level"`
	Factors     []string `json:"factors"`
}

// ChurnProbability scores a user's churn risk over the last 30 days.
func (s *Scorer) ChurnProbability(ctx context.Context, userID string) (ChurnRisk, error) {
	now := s.clock().UTC()
	events, err := s.store.EventsByUser(ctx, userID, windowStart(now, churnWindowDays))
	if err != nil {
		return ChurnRisk{}, fmt.Errorf("churn probability for %s: %w", userID, err)
	}

	sum := summarize(userID, churnWindowDays, events)

	daysInactive := float64(churnWindowDays)
	if len(events) > 0 {
		last := events[0].OccurredAt
		for _, ev := range events {
			if ev.OccurredAt.After(last) {
				last = ev.OccurredAt
			}
		}
		daysInactive = now.Sub(last).Hours() / 24
	}

	sessionFreq := float64(sum.Sessions.Sessions) / float64(churnWindowDays)

	prob, factors := churnScore(sum.EngagementScore, daysInactive, sessionFreq)
	return ChurnRisk{
		UserID:      userID,
		Probability: prob,
		RiskLevel:   riskLevel(prob),
		Factors:     factors,
	}, nil
}

// churnScore sums independent penalty bands over the three signals and caps
// the total at 100. It is deterministic for a given input triple.
func churnScore(engagement, daysInactive, sessionFreq float64) (float64, []string) {
	var prob float64
	var factors []string

	switch {
	case engagement < 20:
		prob += 40
		factors = append(factors, "very low engagement")
	case engagement < 50:
		prob += 20
		factors = append(factors, "below average engagement")
	}

	switch {
	case daysInactive > 7:
		prob += 30
		factors = append(factors, "inactive for over a week")
	case daysInactive > 3:
		prob += 15
		factors = append(factors, "inactive for several days")
	}

	switch {
	case sessionFreq < 0.1:
		prob += 30
		factors = append(factors, "rarely visits")
	case sessionFreq < 0.3:
		prob += 15
		factors = append(factors, "infrequent visits")
	}

	if prob > 100 {
		prob = 100
	}
	return prob, factors
}

func riskLevel(prob float64) string {
	switch {
	case prob >= 70:
		return "high"
	case prob >= 40:
		return "medium"
	default:
		return "low"
	}
}
