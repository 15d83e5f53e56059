// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package recommend

import (
	"context"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
)

// hybrid blends collaborative and content scores per entity. Entities absent
// from one side contribute zero for that side.
func (e *Engine) hybrid(ctx context.Context, profile userProfile,
	kind catalog.Kind, limit int) ([]Recommendation, int, error) {
	collab, collabCandidates, err := e.collaborativeScores(ctx, profile, kind)
	if err != nil {
		return nil, 0, err
	}
	content, err := e.contentScores(ctx, profile, kind)
	if err != nil {
		return nil, 0, err
	}

	combined := blend(collab, content, e.config.HybridCollabWeight, e.config.HybridContentWeight)

	recs := make([]Recommendation, 0, len(combined))
	for _, rec := range combined {
		recs = append(recs, rec)
	}
	return rank(recs, limit), collabCandidates + len(content), nil
}

// blend combines the two score maps. An entity missing from one side
// contributes zero for that side's term.
func blend(collab, content map[string]Recommendation, collabWeight, contentWeight float64) map[string]Recommendation {
	combined := make(map[string]Recommendation, len(collab)+len(content))
	for id, rec := range content {
		blended := rec
		blended.Score = rec.Score * contentWeight
		blended.Type = matching.TypeHybrid
		combined[id] = blended
	}
	for id, rec := range collab {
		if existing, ok := combined[id]; ok {
			existing.Score += rec.Score * collabWeight
			existing.Reasons = append(existing.Reasons, rec.Reasons...)
			combined[id] = existing
			continue
		}
		blended := rec
		blended.Score = rec.Score * collabWeight
		blended.Type = matching.TypeHybrid
		combined[id] = blended
	}
	return combined
}
