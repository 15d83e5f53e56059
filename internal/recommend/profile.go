// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nomadscope/nomadscope/internal/behavior"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// userProfile is the assembled matching profile plus the interaction sets
// the strategies need. It is rebuilt on every request from the user record
// and the behavior window; nothing here is persisted.
type userProfile struct {
	matching.Profile

	// interactions maps entity kind to the set of entity IDs the user
	// touched inside the window.
	interactions map[catalog.Kind]map[string]bool
}

// interacted reports whether the user touched the entity in the window.
func (p userProfile) interacted(kind catalog.Kind, entityID string) bool {
	return p.interactions[kind][entityID]
}

// buildProfile assembles the matching view of a user. A missing user record
// is tolerated: anonymous profiles still carry behavior-derived interaction
// sets.
func (e *Engine) buildProfile(ctx context.Context, userID string) (userProfile, error) {
	profile := userProfile{
		Profile: matching.Profile{
			UserID:          userID,
			RecentEntityIDs: make(map[string]bool),
		},
		interactions: make(map[catalog.Kind]map[string]bool),
	}

	if e.users != nil {
		user, err := e.users.User(ctx, userID)
		if err == nil {
			profile.Skills = user.Skills
			profile.Interests = user.Interests
			profile.WorkType = user.WorkType
			profile.ExperienceYears = user.ExperienceYears
			profile.BudgetMin = user.BudgetMin
			profile.BudgetMax = user.BudgetMax
			profile.PreferredClimate = user.PreferredClimate
			profile.SalaryMin = user.SalaryExpectationMin
			if user.Location != "" {
				profile.Locations = splitLocations(user.Location)
			}
		}
	}

	since := e.clock().UTC().AddDate(0, 0, -e.config.WindowDays)
	events, err := e.events.EventsByUser(ctx, userID, since)
	if err != nil {
		return userProfile{}, fmt.Errorf("load behavior window: %w", err)
	}

	for _, ev := range events {
		if ev.EntityKind == "" || ev.EntityID == "" {
			continue
		}
		if profile.interactions[ev.EntityKind] == nil {
			profile.interactions[ev.EntityKind] = make(map[string]bool)
		}
		profile.interactions[ev.EntityKind][ev.EntityID] = true
		profile.RecentEntityIDs[ev.EntityID] = true
	}
	return profile, nil
}

// splitLocations turns "Lisbon, Portugal" into matchable location terms.
func splitLocations(location string) []string {
	parts := strings.Split(location, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// interactionsByUser groups a kind's events into per-user entity sets.
func interactionsByUser(events []behavior.Event) map[string]map[string]bool {
	byUser := make(map[string]map[string]bool)
	for _, ev := range events {
		if ev.UserID == "" || ev.EntityID == "" {
			continue
		}
		if byUser[ev.UserID] == nil {
			byUser[ev.UserID] = make(map[string]bool)
		}
		byUser[ev.UserID][ev.EntityID] = true
	}
	return byUser
}

// windowStart is the shared lookback helper for training and profiles.
func windowStart(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}
