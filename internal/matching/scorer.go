// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package matching

import (
	"strings"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

// Profile is the matching view of a user, assembled on demand from the user
// record and their behavior history. Zero values mean the preference is not
// set.
type Profile struct {
	UserID           string
	Skills           []string
	Interests        []string
	Locations        []string
	WorkType         string
	ExperienceYears  float64
	BudgetMin        float64
	BudgetMax        float64
	PreferredClimate string
	SalaryMin        float64
	SalaryMax        float64

	// RecentEntityIDs holds entity IDs the user interacted with inside
	// the recency window, keyed by entity ID.
	RecentEntityIDs map[string]bool
}

// RecommendationType tags how a MatchScore was produced.
type RecommendationType string

const (
	TypeContentBased  RecommendationType = "content_based"
	TypeCollaborative RecommendationType = "collaborative"
	TypeHybrid        RecommendationType = "hybrid"
	TypeAlgorithmic   RecommendationType = "algorithmic"
)

// MatchScore is the compatibility result for one (user, entity) pair.
type MatchScore struct {
	UserID     string             `json:"user_id"`
	EntityKind catalog.Kind       `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	Overall    float64            `json:"overall_score"`
	SubScores  map[string]float64 `json:"sub_scores"`
	Reasons    []string           `json:"match_reasons"`
	Type       RecommendationType `json:"recommendation_type"`
}

// Scorer computes match scores with a fixed weight table.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer. Zero-valued weights fall back to defaults.
func NewScorer(w Weights) *Scorer {
	if w.Jobs == (JobWeights{}) {
		w.Jobs = DefaultWeights().Jobs
	}
	if w.Cities == (CityWeights{}) {
		w.Cities = DefaultWeights().Cities
	}
	if w.RecencyBonus == 0 {
		w.RecencyBonus = DefaultWeights().RecencyBonus
	}
	return &Scorer{weights: w}
}

// Score computes the compatibility between profile and entity. It never
// fails; unknown entity kinds fall back to the interest-overlap score used
// for articles.
func (s *Scorer) Score(profile Profile, entity catalog.Entity) MatchScore {
	ms := MatchScore{
		UserID:     profile.UserID,
		EntityKind: entity.EntityKind(),
		EntityID:   entity.EntityID(),
		SubScores:  make(map[string]float64),
		Type:       TypeAlgorithmic,
	}

	switch entity.EntityKind() {
	case catalog.KindJob:
		s.scoreJob(profile, entity, &ms)
	case catalog.KindCity:
		s.scoreCity(profile, entity, &ms)
	default:
		s.scoreArticle(profile, entity, &ms)
	}

	if profile.RecentEntityIDs[entity.EntityID()] {
		ms.Overall += s.weights.RecencyBonus
	}
	ms.Overall = clamp(ms.Overall)
	ms.Reasons = reasons(profile, entity, ms.SubScores)
	return ms
}

func (s *Scorer) scoreJob(profile Profile, entity catalog.Entity, ms *MatchScore) {
	w := s.weights.Jobs

	skills := neutralSkills
	if sig, ok := entity.(catalog.SkillsSignal); ok {
		skills = skillScore(profile.Skills, sig.RequiredSkills())
	}
	experience := neutralExperience
	if sig, ok := entity.(catalog.ExperienceSignal); ok {
		experience = experienceScore(profile.ExperienceYears, sig.ExperienceLevels())
	}
	location := neutralLocation
	if sig, ok := entity.(catalog.LocationSignal); ok {
		loc, remote := sig.WorkLocation()
		location = locationScore(profile.Locations, loc, remote)
	}
	salary := neutralSalaryJob
	if sig, ok := entity.(catalog.SalarySignal); ok {
		jobMin, jobMax := sig.SalaryRange()
		salary = rangeScore(profile.SalaryMin, profile.SalaryMax, jobMin, jobMax)
	}
	culture := defaultClimateScore
	if sig, ok := entity.(catalog.ClimateSignal); ok {
		culture = climateScore(profile.PreferredClimate, sig.ClimateDescriptor())
	}

	ms.SubScores["skills"] = skills
	ms.SubScores["experience"] = experience
	ms.SubScores["location"] = location
	ms.SubScores["salary"] = salary
	ms.SubScores["culture"] = culture
	ms.Overall = skills*w.Skills + experience*w.Experience +
		location*w.Location + salary*w.Salary + culture*w.Culture
}

func (s *Scorer) scoreCity(profile Profile, entity catalog.Entity, ms *MatchScore) {
	w := s.weights.Cities

	budget := neutralSalaryJob
	if sig, ok := entity.(catalog.BudgetSignal); ok {
		costMin, costMax := sig.BudgetRange()
		budget = rangeScore(profile.BudgetMin, profile.BudgetMax, costMin, costMax)
	}
	climate := defaultClimateScore
	if sig, ok := entity.(catalog.ClimateSignal); ok {
		climate = climateScore(profile.PreferredClimate, sig.ClimateDescriptor())
	}
	internet := neutralLocation
	if sig, ok := entity.(catalog.ConnectivitySignal); ok {
		internet = internetScore(sig.InternetMbps())
	}
	safety := neutralLocation
	if sig, ok := entity.(catalog.SafetySignal); ok {
		safety = safetyScore(sig.SafetyScore())
	}

	ms.SubScores["budget"] = budget
	ms.SubScores["climate"] = climate
	ms.SubScores["internet"] = internet
	ms.SubScores["safety"] = safety
	ms.Overall = budget*w.Budget + climate*w.Climate +
		internet*w.Internet + safety*w.Safety
}

// scoreArticle ranks editorial content by topic overlap with the user's
// combined skills and interests.
func (s *Scorer) scoreArticle(profile Profile, entity catalog.Entity, ms *MatchScore) {
	topics := neutralSkills
	if sig, ok := entity.(catalog.SkillsSignal); ok {
		interests := append(append([]string{}, profile.Skills...), profile.Interests...)
		topics = skillScore(interests, sig.RequiredSkills())
	}
	ms.SubScores["topics"] = topics
	ms.Overall = topics
}

// skillScore maps the required-skill overlap ratio into [20,100], with a
// flat bonus for any overlap at all. Neutral when nothing is required.
func skillScore(userSkills, required []string) float64 {
	if len(required) == 0 {
		return neutralSkills
	}
	have := make(map[string]bool, len(userSkills))
	for _, s := range userSkills {
		have[normalize(s)] = true
	}
	var overlap int
	for _, s := range required {
		if have[normalize(s)] {
			overlap++
		}
	}
	score := 20 + float64(overlap)/float64(len(required))*80
	if overlap > 0 {
		score += 20
	}
	return clamp(score)
}

// experienceScore compares user years against the levels' year thresholds.
func experienceScore(userYears float64, levels []string) float64 {
	minReq, maxReq, found := -1.0, -1.0, false
	for _, level := range levels {
		years, ok := experienceYears[normalize(level)]
		if !ok {
			continue
		}
		if !found || years < minReq {
			minReq = years
		}
		if !found || years > maxReq {
			maxReq = years
		}
		found = true
	}
	if !found {
		return neutralExperience
	}

	switch {
	case userYears >= minReq && userYears <= maxReq+3:
		return 90
	case userYears < minReq:
		return max(30, 100-(minReq-userYears)*10)
	default:
		return max(60, 100-(userYears-maxReq)*5)
	}
}

func locationScore(preferences []string, jobLocation string, remote bool) float64 {
	if remote {
		return 95
	}
	if len(preferences) == 0 {
		return neutralLocation
	}
	loc := normalize(jobLocation)
	for _, pref := range preferences {
		if pref != "" && strings.Contains(loc, normalize(pref)) {
			return 90
		}
	}
	return 40
}

// rangeScore compares the user's acceptable range against the candidate's
// offered range. A missing bound on either side defaults to 1.5x the present
// bound; a side with neither bound is neutral.
func rangeScore(userMin, userMax, candMin, candMax float64) float64 {
	if userMin <= 0 && userMax <= 0 {
		return neutralSalaryUser
	}
	if candMin <= 0 && candMax <= 0 {
		return neutralSalaryJob
	}

	userMin, userMax = fillBounds(userMin, userMax)
	candMin, candMax = fillBounds(candMin, candMax)

	switch {
	case userMin <= candMax && candMin <= userMax:
		return 90
	case userMin > candMax:
		// User wants more than the candidate offers.
		return max(20, 90-(userMin-candMax)/candMax*100)
	default:
		// Candidate exceeds the user's whole range.
		return max(30, 90-(candMin-userMax)/candMin*100)
	}
}

func fillBounds(lo, hi float64) (float64, float64) {
	if lo <= 0 {
		lo = hi / missingBoundFactor
	}
	if hi <= 0 {
		hi = lo * missingBoundFactor
	}
	return lo, hi
}

// climateScore checks the preference against the descriptor text first,
// then falls back to the climate family table.
func climateScore(preference, descriptor string) float64 {
	if preference == "" || descriptor == "" {
		return defaultClimateScore
	}
	pref, desc := normalize(preference), normalize(descriptor)
	if strings.Contains(desc, pref) || strings.Contains(pref, desc) {
		return 100
	}
	if family := climateFamily(pref); family != "" && family == climateFamily(desc) {
		return 100
	}
	return defaultClimateScore
}

// climateFamily returns the first family whose synonyms appear in the text.
func climateFamily(text string) string {
	for _, family := range climateFamilies {
		for _, syn := range family.synonyms {
			if strings.Contains(text, syn) {
				return family.name
			}
		}
	}
	return ""
}

// internetScore bands measured speed in Mbps. Unknown speed is neutral.
func internetScore(mbps float64) float64 {
	switch {
	case mbps <= 0:
		return neutralLocation
	case mbps >= 50:
		return 100
	case mbps >= 30:
		return 80
	case mbps >= 20:
		return 60
	case mbps >= 10:
		return 40
	default:
		return 20
	}
}

// safetyScore scales a 0-10 rating to 0-100. Unknown is neutral.
func safetyScore(rating float64) float64 {
	if rating <= 0 {
		return neutralLocation
	}
	return clamp(rating * 10)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
