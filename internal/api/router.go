// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig carries the HTTP-surface knobs.
type RouterConfig struct {
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
}

// NewRouter builds the chi route tree over the handler set.
func NewRouter(cfg RouterConfig, h *Handlers) http.Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 300
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg.CORSOrigins))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		r.Use(instrument)

		r.Post("/events", h.TrackEvent)

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/behavior", h.BehaviorSummary)
			r.Get("/churn", h.ChurnRisk)
			r.Get("/recommendations", h.Recommendations)
			r.Get("/matches/{kind}", h.MatchScores)
			r.Post("/matches/{kind}/{entityID}/actions", h.MarkMatchAction)
		})

		r.Route("/models/{kind}", func(r chi.Router) {
			r.Get("/", h.Model)
			r.Post("/train", h.TrainModel)
			r.Post("/feedback", h.ModelFeedback)
		})

		r.Route("/experiments", func(r chi.Router) {
			r.Post("/", h.CreateExperiment)
			r.Get("/", h.ListExperiments)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetExperiment)
				r.Post("/start", h.StartExperiment)
				r.Post("/assign", h.AssignVariant)
				r.Post("/events", h.TrackExperimentEvent)
				r.Post("/conversions", h.TrackExperimentConversion)
				r.Post("/complete", h.CompleteExperiment)
			})
		})

		r.Get("/cities/trending", h.TrendingCities)
		r.Route("/cities/{cityID}", func(r chi.Router) {
			r.Get("/forecast", h.ForecastCost)
			r.Post("/cost-index", h.RecordCostIndex)
		})
		r.Get("/predictions", h.Predictions)

		r.Post("/generate", h.GenerateText)
		r.Post("/linkcheck", h.CheckLinks)
		r.Post("/scrape", h.ScrapeAll)
		r.Post("/scrape/{source}", h.ScrapeSource)
	})

	return r
}
