// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package matching

import "github.com/nomadscope/nomadscope/internal/catalog"

// reasons re-checks sub-score thresholds and emits a canned explanation per
// satisfied condition. Order is fixed: budget/salary, climate/skills,
// connectivity/remote, safety/experience.
func reasons(profile Profile, entity catalog.Entity, sub map[string]float64) []string {
	switch entity.EntityKind() {
	case catalog.KindJob:
		return jobReasons(entity, sub)
	case catalog.KindCity:
		return cityReasons(sub)
	default:
		return articleReasons(sub)
	}
}

func cityReasons(sub map[string]float64) []string {
	var out []string
	if sub["budget"] >= 90 {
		out = append(out, "Monthly costs fit your budget")
	}
	if sub["climate"] >= 100 {
		out = append(out, "Climate matches your preference")
	}
	if sub["internet"] >= 80 {
		out = append(out, "Fast and reliable internet")
	}
	if sub["safety"] >= 80 {
		out = append(out, "High safety rating")
	}
	return out
}

func jobReasons(entity catalog.Entity, sub map[string]float64) []string {
	var out []string
	if sub["salary"] >= 90 {
		out = append(out, "Salary range matches your expectations")
	}
	if sub["skills"] >= 60 {
		out = append(out, "Your skills match the requirements")
	}
	if sig, ok := entity.(catalog.LocationSignal); ok {
		if _, remote := sig.WorkLocation(); remote {
			out = append(out, "Fully remote position")
		} else if sub["location"] >= 90 {
			out = append(out, "Located in your preferred region")
		}
	}
	if sub["experience"] >= 90 {
		out = append(out, "Experience level fits the role")
	}
	return out
}

func articleReasons(sub map[string]float64) []string {
	if sub["topics"] >= 60 {
		return []string{"Covers topics you follow"}
	}
	return nil
}
