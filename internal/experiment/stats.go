// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package experiment

import (
	"math"
	"time"
)

// Significance runs a two-proportion z-test between the first two variants
// in allocation order and maps the z statistic onto a discrete confidence
// ladder. It returns 0 when either arm has no visitors or fewer than two
// variants exist.
func Significance(e *Experiment) float64 {
	if len(e.Allocation) < 2 {
		return 0
	}
	a := e.Results[e.Allocation[0].Variant]
	b := e.Results[e.Allocation[1].Variant]
	if a == nil || b == nil || a.Visitors == 0 || b.Visitors == 0 {
		return 0
	}

	rateA := a.ConversionRate()
	rateB := b.ConversionRate()
	seA := math.Sqrt(rateA * (1 - rateA) / float64(a.Visitors))
	seB := math.Sqrt(rateB * (1 - rateB) / float64(b.Visitors))
	se := math.Sqrt(seA*seA + seB*seB)
	if se == 0 {
		return 0
	}

	z := math.Abs(rateB-rateA) / se
	switch {
	case z >= 2.58:
		return 99
	case z >= 1.96:
		return 95
	case z >= 1.65:
		return 90
	case z >= 1.28:
		return 80
	default:
		return 50
	}
}

// ShouldComplete decides whether an active experiment has run long enough
// and gathered enough evidence to stop.
func ShouldComplete(e *Experiment, now time.Time) bool {
	if e.Status != StatusActive || e.StartDate == nil {
		return false
	}
	cfg := e.Completion
	running := now.Sub(*e.StartDate)

	if running < time.Duration(cfg.MinDurationDays)*24*time.Hour {
		return false
	}

	var visitors int64
	for _, r := range e.Results {
		visitors += r.Visitors
	}
	if visitors < cfg.MinVisitors {
		return false
	}

	if Significance(e) >= cfg.MinConfidence {
		return true
	}
	return running >= time.Duration(cfg.MaxDurationDays)*24*time.Hour
}

// winner picks the variant with the highest conversion rate, ties broken by
// allocation order.
func winner(e *Experiment) string {
	best, bestRate := "", -1.0
	for _, a := range e.Allocation {
		rate := e.Results[a.Variant].ConversionRate()
		if rate > bestRate {
			best, bestRate = a.Variant, rate
		}
	}
	return best
}
