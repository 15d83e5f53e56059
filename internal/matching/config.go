// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package matching computes compatibility scores between a user profile and
// directory entities. Every sub-score is a total function over partial data;
// missing fields map to documented neutral values instead of errors.
package matching

// JobWeights are the fixed sub-score weights for job candidates.
type JobWeights struct {
	Skills     float64
	Experience float64
	Location   float64
	Salary     float64
	Culture    float64
}

// CityWeights are the fixed sub-score weights for city candidates.
type CityWeights struct {
	Budget   float64
	Climate  float64
	Internet float64
	Safety   float64
}

// Weights bundles the per-kind weight tables.
type Weights struct {
	Jobs   JobWeights
	Cities CityWeights

	// RecencyBonus is added to a city or article score when the user
	// recently interacted with the entity.
	RecencyBonus float64
}

// DefaultWeights returns the production weight tables.
func DefaultWeights() Weights {
	return Weights{
		Jobs: JobWeights{
			Skills:     0.30,
			Experience: 0.25,
			Location:   0.20,
			Salary:     0.15,
			Culture:    0.10,
		},
		Cities: CityWeights{
			Budget:   0.30,
			Climate:  0.25,
			Internet: 0.20,
			Safety:   0.15,
		},
		RecencyBonus: 10,
	}
}

// experienceYears maps level tags to minimum years required.
var experienceYears = map[string]float64{
	"entry":     0,
	"junior":    2,
	"mid":       5,
	"senior":    8,
	"lead":      12,
	"executive": 15,
}

// climateFamilies groups climate descriptors into families. A user
// preference and a candidate descriptor that land in the same family score
// a full climate match.
var climateFamilies = []struct {
	name     string
	synonyms []string
}{
	{"mediterranean", []string{"mediterranean", "coastal", "warm summers", "mild winters"}},
	{"tropical", []string{"tropical", "hot", "humid", "warm", "equatorial"}},
	{"temperate", []string{"temperate", "mild", "moderate", "oceanic", "maritime"}},
	{"continental", []string{"continental", "cold", "snowy", "four seasons"}},
	{"arid", []string{"arid", "dry", "desert", "sunny"}},
}

// Neutral sub-scores used when one side of a comparison is missing.
const (
	neutralSkills       = 70.0
	neutralExperience   = 75.0
	neutralLocation     = 70.0
	neutralSalaryUser   = 75.0
	neutralSalaryJob    = 80.0
	defaultClimateScore = 50.0
	missingBoundFactor  = 1.5
)
