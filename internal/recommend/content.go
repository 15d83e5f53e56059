// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"
	"fmt"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// contentBased fetches candidates under the profile's hard constraints,
// scores each with the match scorer, and ranks descending.
func (e *Engine) contentBased(ctx context.Context, profile userProfile,
	kind catalog.Kind, limit int) ([]Recommendation, int, error) {
	candidates, err := e.candidates(ctx, profile, kind)
	if err != nil {
		return nil, 0, err
	}

	recs := make([]Recommendation, 0, len(candidates))
	for _, entity := range candidates {
		ms := e.scorer.Score(profile.Profile, entity)
		recs = append(recs, Recommendation{
			Entity:  entity,
			Score:   ms.Overall,
			Reasons: ms.Reasons,
			Type:    matching.TypeContentBased,
		})
	}
	return rank(recs, limit), len(candidates), nil
}

// candidates lists entities of the kind, narrowed by the profile's hard
// constraints. An empty profile lists everything.
func (e *Engine) candidates(ctx context.Context, profile userProfile, kind catalog.Kind) ([]catalog.Entity, error) {
	var filter catalog.Filter
	switch kind {
	case catalog.KindCity:
		filter.BudgetMax = profile.BudgetMax
	case catalog.KindJob:
		filter.Skills = profile.Skills
		filter.Remote = profile.WorkType == "remote"
	case catalog.KindArticle:
		filter.Topics = profile.Interests
	}

	entities, err := catalog.Entities(ctx, e.directory, kind, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s candidates: %w", kind, err)
	}
	return entities, nil
}

// contentScores returns the per-entity content score map used by the hybrid
// blend.
func (e *Engine) contentScores(ctx context.Context, profile userProfile,
	kind catalog.Kind) (map[string]Recommendation, error) {
	candidates, err := e.candidates(ctx, profile, kind)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Recommendation, len(candidates))
	for _, entity := range candidates {
		ms := e.scorer.Score(profile.Profile, entity)
		out[entity.EntityID()] = Recommendation{
			Entity:  entity,
			Score:   ms.Overall,
			Reasons: ms.Reasons,
			Type:    matching.TypeContentBased,
		}
	}
	return out, nil
}
