// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"
	"fmt"
	"sort"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// collaborative recommends entities that similar users touched and the
// target user has not. Similar users share at least one interacted entity of
// this kind; the most-overlapping ones drive the ranking.
func (e *Engine) collaborative(ctx context.Context, profile userProfile,
	kind catalog.Kind, limit int) ([]Recommendation, int, error) {
	scores, candidates, err := e.collaborativeScores(ctx, profile, kind)
	if err != nil {
		return nil, 0, err
	}

	recs := make([]Recommendation, 0, len(scores))
	for _, rec := range scores {
		recs = append(recs, rec)
	}
	return rank(recs, limit), candidates, nil
}

// collaborativeScores computes the per-entity collaborative recommendations.
// Scores are aggregate interaction counts among similar users, normalized to
// 0-100 against the most popular candidate.
func (e *Engine) collaborativeScores(ctx context.Context, profile userProfile,
	kind catalog.Kind) (map[string]Recommendation, int, error) {
	since := windowStart(e.clock().UTC(), e.config.WindowDays)
	events, err := e.events.EventsByKind(ctx, string(kind), since)
	if err != nil {
		return nil, 0, fmt.Errorf("load %s interactions: %w", kind, err)
	}

	mine := profile.interactions[kind]
	byUser := interactionsByUser(events)
	similar := similarUsers(profile.UserID, mine, byUser, e.config.SimilarUserLimit)

	// Aggregate interaction counts over entities the target user has not
	// touched.
	counts := make(map[string]int)
	for _, su := range similar {
		for entityID := range byUser[su.userID] {
			if !mine[entityID] {
				counts[entityID]++
			}
		}
	}
	if len(counts) == 0 {
		return map[string]Recommendation{}, 0, nil
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	index, err := e.entityIndex(ctx, kind)
	if err != nil {
		return nil, 0, err
	}

	out := make(map[string]Recommendation, len(counts))
	for entityID, count := range counts {
		entity, ok := index[entityID]
		if !ok {
			// Interactions can outlive catalog entries; skip the orphan.
			e.logger.Debug().Str("entity_id", entityID).Msg("skipping stale interaction target")
			continue
		}
		out[entityID] = Recommendation{
			Entity:  entity,
			Score:   float64(count) / float64(maxCount) * 100,
			Reasons: []string{"Popular with nomads like you"},
			Type:    matching.TypeCollaborative,
		}
	}
	return out, len(counts), nil
}

type similarUser struct {
	userID string
	shared int
}

// similarUsers ranks other users by shared-interaction count and keeps the
// top n.
func similarUsers(selfID string, mine map[string]bool, byUser map[string]map[string]bool, n int) []similarUser {
	out := make([]similarUser, 0, len(byUser))
	for userID, entities := range byUser {
		if userID == selfID {
			continue
		}
		shared := 0
		for entityID := range entities {
			if mine[entityID] {
				shared++
			}
		}
		if shared > 0 {
			out = append(out, similarUser{userID: userID, shared: shared})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].shared != out[j].shared {
			return out[i].shared > out[j].shared
		}
		return out[i].userID < out[j].userID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// entityIndex lists the kind's catalog once and indexes it by ID.
func (e *Engine) entityIndex(ctx context.Context, kind catalog.Kind) (map[string]catalog.Entity, error) {
	entities, err := catalog.Entities(ctx, e.directory, kind, catalog.Filter{})
	if err != nil {
		return nil, fmt.Errorf("index %s catalog: %w", kind, err)
	}
	out := make(map[string]catalog.Entity, len(entities))
	for _, entity := range entities {
		out[entity.EntityID()] = entity
	}
	return out, nil
}
