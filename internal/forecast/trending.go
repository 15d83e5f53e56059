// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package forecast

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

// trendingThreshold is the minimum weighted score a city must reach to be
// reported as trending.
const trendingThreshold = 0.6

// trendingLimit caps the trending report.
const trendingLimit = 10

// TrendingCity is one entry in the trending report.
type TrendingCity struct {
	City    catalog.City       `json:"city"`
	Score   float64            `json:"score"`
	Signals map[string]float64 `json:"signals"`
}

// Trending ranks cities by a weighted composite of job-market availability,
// cost attractiveness, internet quality, safety, and recent user activity.
// Only cities above the threshold are reported, best first, at most ten.
func (f *Forecaster) Trending(ctx context.Context) ([]TrendingCity, error) {
	cities, err := f.directory.Cities(ctx, catalog.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	jobs, err := f.directory.Jobs(ctx, catalog.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	activity := f.recentCityActivity(ctx)

	out := make([]TrendingCity, 0, len(cities))
	for _, city := range cities {
		signals := map[string]float64{
			"job_market":      jobMarketSignal(city, jobs),
			"cost":            costSignal(city.CostIndex),
			"internet":        internetSignal(city.InternetSpeed),
			"safety":          clamp01(city.Safety / 10),
			"recent_activity": activity[city.ID],
		}
		score := signals["job_market"]*0.30 +
			signals["cost"]*0.25 +
			signals["internet"]*0.20 +
			signals["safety"]*0.15 +
			signals["recent_activity"]*0.10

		if score > trendingThreshold {
			out = append(out, TrendingCity{City: city, Score: score, Signals: signals})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > trendingLimit {
		out = out[:trendingLimit]
	}
	return out, nil
}

// jobMarketSignal counts open jobs mentioning the city, normalized per ten
// and capped at one.
func jobMarketSignal(city catalog.City, jobs []catalog.Job) float64 {
	name := strings.ToLower(city.Name)
	if name == "" {
		return 0
	}
	count := 0
	for _, job := range jobs {
		if strings.Contains(strings.ToLower(job.Location), name) ||
			strings.Contains(strings.ToLower(job.Description), name) {
			count++
		}
	}
	return clamp01(float64(count) / 10)
}

// costSignal bands the cost index: cheaper is more attractive.
func costSignal(index float64) float64 {
	switch {
	case index <= 30:
		return 1.0
	case index <= 50:
		return 0.8
	case index <= 70:
		return 0.6
	case index <= 90:
		return 0.4
	default:
		return 0.2
	}
}

// internetSignal bands measured speed in Mbps.
func internetSignal(mbps float64) float64 {
	switch {
	case mbps >= 50:
		return 1.0
	case mbps >= 30:
		return 0.8
	case mbps >= 20:
		return 0.6
	case mbps >= 10:
		return 0.4
	default:
		return 0.2
	}
}

// recentCityActivity normalizes the last week's event counts per city,
// capped at one per hundred events. Without an event store every city
// scores zero on this signal.
func (f *Forecaster) recentCityActivity(ctx context.Context) map[string]float64 {
	out := make(map[string]float64)
	if f.events == nil {
		return out
	}
	since := f.clock().UTC().AddDate(0, 0, -7)
	events, err := f.events.EventsByKind(ctx, string(catalog.KindCity), since)
	if err != nil {
		f.logger.Warn().Err(err).Msg("recent activity signal unavailable")
		return out
	}
	counts := make(map[string]int)
	for _, ev := range events {
		if ev.EntityID != "" {
			counts[ev.EntityID]++
		}
	}
	for id, n := range counts {
		out[id] = clamp01(float64(n) / 100)
	}
	return out
}
