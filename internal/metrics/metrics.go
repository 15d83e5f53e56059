// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package metrics exposes Prometheus instrumentation for event ingest,
// recommendation serving, experimentation, forecasting, and link
// validation.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Behavior tracking
	EventsTracked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_events_tracked_total",
			Help: "Total behavior events accepted, by event type",
		},
		[]string{"event_type"},
	)

	EventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nomadscope_events_rejected_total",
			Help: "Total behavior events rejected by validation",
		},
	)

	// Recommendations
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nomadscope_recommend_duration_seconds",
			Help:    "Recommendation request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity_kind", "strategy"},
	)

	RecommendCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nomadscope_recommend_cache_hits_total",
			Help: "Recommendation responses served from cache",
		},
	)

	ModelTrainings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_model_trainings_total",
			Help: "Model training runs, by entity kind and outcome",
		},
		[]string{"entity_kind", "outcome"},
	)

	// Experiments
	ExperimentAssignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_experiment_assignments_total",
			Help: "Variant assignments handed out, by experiment",
		},
		[]string{"experiment"},
	)

	ExperimentEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_experiment_events_total",
			Help: "Experiment events recorded, by experiment and outcome",
		},
		[]string{"experiment", "outcome"}, // "recorded", "dropped"
	)

	// Forecasting
	ForecastRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_forecast_runs_total",
			Help: "Forecast computations, by outcome",
		},
		[]string{"outcome"}, // "ok", "insufficient_data", "error"
	)

	// Link validation
	LinkChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_link_checks_total",
			Help: "Affiliate link checks, by verdict",
		},
		[]string{"verdict"}, // "valid", "invalid"
	)

	// Scraper
	PostingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nomadscope_postings_ingested_total",
			Help: "Job postings ingested, by source",
		},
		[]string{"source"},
	)

	// HTTP surface
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nomadscope_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).
		Observe(elapsed.Seconds())
}

// ObserveLinkCheck records one link verdict.
func ObserveLinkCheck(valid bool) {
	verdict := "invalid"
	if valid {
		verdict = "valid"
	}
	LinkChecks.WithLabelValues(verdict).Inc()
}
