// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package catalog defines the directory's entity model: cities, jobs, and
// articles, plus the capability interfaces the match scorer dispatches on.
//
// Entities expose their scoreable attributes through small capability
// interfaces (BudgetSignal, ClimateSignal, SkillsSignal, ...) instead of ad
// hoc field lookups, so a scorer never has to presence-check fields at
// runtime: an entity either implements a capability or the scorer falls back
// to the documented neutral score.
package catalog

import "context"

// Kind identifies an entity family in the directory.
type Kind string

const (
	// KindCity is a destination city profile.
	KindCity Kind = "cities"
	// KindJob is a remote job posting.
	KindJob Kind = "jobs"
	// KindArticle is an editorial article.
	KindArticle Kind = "articles"
	// KindMixed requests a blend across all entity kinds.
	KindMixed Kind = "mixed"
)

// Valid reports whether k names a concrete or mixed entity kind.
func (k Kind) Valid() bool {
	switch k {
	case KindCity, KindJob, KindArticle, KindMixed:
		return true
	default:
		return false
	}
}

// Concrete returns the concrete kinds covered by k.
func (k Kind) Concrete() []Kind {
	if k == KindMixed {
		return []Kind{KindCity, KindJob, KindArticle}
	}
	return []Kind{k}
}

// Entity is the minimal contract every directory entity satisfies.
type Entity interface {
	// EntityID returns the entity's stable identifier.
	EntityID() string

	// EntityKind returns the entity's family.
	EntityKind() Kind
}

// BudgetSignal exposes a monthly cost range (USD) for budget matching.
type BudgetSignal interface {
	// BudgetRange returns the entity's monthly cost bounds.
	// Zero values mean the bound is unknown.
	BudgetRange() (min, max float64)
}

// ClimateSignal exposes a climate descriptor for climate preference matching.
type ClimateSignal interface {
	// ClimateDescriptor returns a free-text climate description, for
	// example "tropical" or "mild mediterranean summers".
	ClimateDescriptor() string
}

// SkillsSignal exposes required skills for skill-overlap matching.
type SkillsSignal interface {
	// RequiredSkills returns the skills a candidate is expected to have.
	// An empty slice means no explicit requirement.
	RequiredSkills() []string
}

// ExperienceSignal exposes required experience levels.
type ExperienceSignal interface {
	// ExperienceLevels returns the accepted level tags
	// (entry, junior, mid, senior, lead, executive).
	ExperienceLevels() []string
}

// LocationSignal exposes work-location attributes.
type LocationSignal interface {
	// WorkLocation returns the posting's location text and whether the
	// position is fully remote.
	WorkLocation() (location string, remote bool)
}

// SalarySignal exposes an offered salary range (USD/year).
type SalarySignal interface {
	// SalaryRange returns the offered bounds. Zero values mean the bound
	// is not listed.
	SalaryRange() (min, max float64)
}

// ConnectivitySignal exposes internet quality.
type ConnectivitySignal interface {
	// InternetMbps returns the typical measured download speed.
	InternetMbps() float64
}

// SafetySignal exposes a safety rating.
type SafetySignal interface {
	// SafetyScore returns a 0-10 safety rating.
	SafetyScore() float64
}

// City is a destination city profile.
type City struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Country        string   `json:"country"`
	Climate        string   `json:"climate"`
	Description    string   `json:"description"`
	CostIndex      float64  `json:"cost_index"`
	MonthlyCostMin float64  `json:"monthly_cost_min"`
	MonthlyCostMax float64  `json:"monthly_cost_max"`
	InternetSpeed  float64  `json:"internet_speed_mbps"`
	Safety         float64  `json:"safety_score"`
	Tags           []string `json:"tags,omitempty"`
}

// EntityID implements Entity.
func (c City) EntityID() string { return c.ID }

// EntityKind implements Entity.
func (c City) EntityKind() Kind { return KindCity }

// BudgetRange implements BudgetSignal.
func (c City) BudgetRange() (float64, float64) { return c.MonthlyCostMin, c.MonthlyCostMax }

// ClimateDescriptor implements ClimateSignal.
func (c City) ClimateDescriptor() string {
	if c.Climate != "" {
		return c.Climate
	}
	return c.Description
}

// InternetMbps implements ConnectivitySignal.
func (c City) InternetMbps() float64 { return c.InternetSpeed }

// SafetyScore implements SafetySignal.
func (c City) SafetyScore() float64 { return c.Safety }

// Job is a remote job posting.
type Job struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Skills      []string `json:"skills"`
	Levels      []string `json:"experience_levels"`
	Location    string   `json:"location"`
	Remote      bool     `json:"remote"`
	SalaryMin   float64  `json:"salary_min"`
	SalaryMax   float64  `json:"salary_max"`
	Description string   `json:"description"`
	Source      string   `json:"source,omitempty"`
}

// EntityID implements Entity.
func (j Job) EntityID() string { return j.ID }

// EntityKind implements Entity.
func (j Job) EntityKind() Kind { return KindJob }

// RequiredSkills implements SkillsSignal.
func (j Job) RequiredSkills() []string { return j.Skills }

// ExperienceLevels implements ExperienceSignal.
func (j Job) ExperienceLevels() []string { return j.Levels }

// WorkLocation implements LocationSignal.
func (j Job) WorkLocation() (string, bool) { return j.Location, j.Remote }

// SalaryRange implements SalarySignal.
func (j Job) SalaryRange() (float64, float64) { return j.SalaryMin, j.SalaryMax }

// ClimateDescriptor implements ClimateSignal. Job postings occasionally
// advertise a climate ("sunny Lisbon hub"); the description is the best
// available signal.
func (j Job) ClimateDescriptor() string { return j.Description }

// Article is an editorial article.
type Article struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Topics  []string `json:"topics"`
	CityID  string   `json:"city_id,omitempty"`
	Summary string   `json:"summary,omitempty"`
}

// EntityID implements Entity.
func (a Article) EntityID() string { return a.ID }

// EntityKind implements Entity.
func (a Article) EntityKind() Kind { return KindArticle }

// RequiredSkills implements SkillsSignal. Topic tags double as the skill /
// interest overlap signal for articles.
func (a Article) RequiredSkills() []string { return a.Topics }

// Filter narrows a directory listing. Zero values mean "no constraint".
type Filter struct {
	// BudgetMax keeps cities whose minimum monthly cost fits the budget.
	BudgetMax float64

	// Skills keeps jobs requiring at least one of these skills.
	Skills []string

	// Remote keeps only fully-remote jobs when true.
	Remote bool

	// Topics keeps articles tagged with at least one of these topics.
	Topics []string

	// MentionsCity keeps jobs whose location or description mentions the
	// given city name.
	MentionsCity string

	// Limit caps the number of returned entities. Zero means no cap.
	Limit int
}

// Directory is the storage collaborator for catalog entities.
// Implementations live outside the core; the engines only filter and list.
type Directory interface {
	// Cities lists city profiles matching the filter.
	Cities(ctx context.Context, f Filter) ([]City, error)

	// Jobs lists job postings matching the filter.
	Jobs(ctx context.Context, f Filter) ([]Job, error)

	// Articles lists articles matching the filter.
	Articles(ctx context.Context, f Filter) ([]Article, error)

	// City resolves a single city by ID.
	City(ctx context.Context, id string) (City, error)
}

// Entities lists entities of the given concrete kind as the Entity interface.
func Entities(ctx context.Context, d Directory, kind Kind, f Filter) ([]Entity, error) {
	switch kind {
	case KindCity:
		cities, err := d.Cities(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]Entity, len(cities))
		for i, c := range cities {
			out[i] = c
		}
		return out, nil
	case KindJob:
		jobs, err := d.Jobs(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]Entity, len(jobs))
		for i, j := range jobs {
			out[i] = j
		}
		return out, nil
	case KindArticle:
		articles, err := d.Articles(ctx, f)
		if err != nil {
			return nil, err
		}
		out := make([]Entity, len(articles))
		for i, a := range articles {
			out[i] = a
		}
		return out, nil
	default:
		return nil, nil
	}
}
