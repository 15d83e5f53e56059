// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package catalog

import (
	"context"
	"time"
)

// User is the underlying member record the profile builder reads.
// Authentication and account management live outside the core; only the
// preference and demographic fields matter here.
type User struct {
	ID                   string    `json:"id"`
	Location             string    `json:"location"`
	WorkType             string    `json:"work_type"`
	ExperienceLevel      string    `json:"experience_level"`
	ExperienceYears      float64   `json:"experience_years"`
	Skills               []string  `json:"skills"`
	Interests            []string  `json:"interests"`
	BudgetMin            float64   `json:"budget_min"`
	BudgetMax            float64   `json:"budget_max"`
	PreferredClimate     string    `json:"preferred_climate"`
	SalaryExpectationMin float64   `json:"salary_expectation_min"`
	Premium              bool      `json:"premium"`
	UserType             string    `json:"user_type"`
	RegisteredAt         time.Time `json:"registered_at"`
	LastActive           time.Time `json:"last_active"`
}

// UserStore is the storage collaborator for member records.
type UserStore interface {
	// User resolves a member by ID.
	User(ctx context.Context, id string) (User, error)

	// TouchLastActive stamps the member's last-activity timestamp.
	TouchLastActive(ctx context.Context, id string, t time.Time) error
}
