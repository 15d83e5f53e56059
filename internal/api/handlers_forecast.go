// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/forecast"
	"github.com/nomadscope/nomadscope/internal/linkcheck"
	"github.com/nomadscope/nomadscope/internal/metrics"
)

// TrendingCities returns the current trending destinations.
func (h *Handlers) TrendingCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.forecaster.Trending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trending": cities})
}

// ForecastCost predicts a city's cost index days ahead.
// Query parameter: days (default 30).
func (h *Handlers) ForecastCost(w http.ResponseWriter, r *http.Request) {
	cityID := chi.URLParam(r, "cityID")
	days := queryInt(r, "days", 30)

	pred, err := h.forecaster.ForecastCost(r.Context(), cityID, days)
	if err != nil {
		if errors.Is(err, forecast.ErrInsufficientData) {
			metrics.ForecastRuns.WithLabelValues("insufficient_data").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error: err.Error(), Code: "insufficient_data",
			})
			return
		}
		metrics.ForecastRuns.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}
	metrics.ForecastRuns.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, pred)
}

// Predictions lists stored predictions, optionally filtered by type.
func (h *Handlers) Predictions(w http.ResponseWriter, r *http.Request) {
	preds, err := h.forecaster.Predictions(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"predictions": preds})
}

type costIndexRequest struct {
	Value float64 `json:"value" validate:"required,gt=0"`
	Date  string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// RecordCostIndex stores a daily cost-index snapshot for a city. An
// omitted date means today.
func (h *Handlers) RecordCostIndex(w http.ResponseWriter, r *http.Request) {
	cityID := chi.URLParam(r, "cityID")

	var req costIndexRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	day := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			writeError(w, apperrors.Validationf("date", "invalid date %q", req.Date))
			return
		}
		day = parsed
	}

	if err := h.costs.RecordCostIndex(r.Context(), cityID, day, req.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type linkCheckRequest struct {
	Links []linkcheck.Link `json:"links" validate:"required,min=1,max=500,dive"`
}

// CheckLinks validates a batch of outbound links under the rate limit.
func (h *Handlers) CheckLinks(w http.ResponseWriter, r *http.Request) {
	var req linkCheckRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	report, err := h.links.ValidateAll(r.Context(), req.Links, func(res linkcheck.Result) {
		metrics.ObserveLinkCheck(res.Valid)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ScrapeAll runs every enabled job-board source.
func (h *Handlers) ScrapeAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.scraper.ScrapeAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, tally := range report.Sources {
		metrics.PostingsIngested.WithLabelValues(tally.Source).Add(float64(tally.Ingested))
	}
	writeJSON(w, http.StatusOK, report)
}

// ScrapeSource runs one job-board source by name.
func (h *Handlers) ScrapeSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "source")

	tally, err := h.scraper.ScrapeSource(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.PostingsIngested.WithLabelValues(tally.Source).Add(float64(tally.Ingested))
	writeJSON(w, http.StatusOK, tally)
}
