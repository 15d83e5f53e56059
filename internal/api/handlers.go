// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/behavior"
	"github.com/nomadscope/nomadscope/internal/experiment"
	"github.com/nomadscope/nomadscope/internal/forecast"
	"github.com/nomadscope/nomadscope/internal/linkcheck"
	"github.com/nomadscope/nomadscope/internal/matching"
	"github.com/nomadscope/nomadscope/internal/metrics"
	"github.com/nomadscope/nomadscope/internal/recommend"
	"github.com/nomadscope/nomadscope/internal/scraper"
	"github.com/nomadscope/nomadscope/internal/textgen"
)

// Handlers bundles the service collaborators behind the HTTP surface.
type Handlers struct {
	pipeline    *behavior.Pipeline
	scorer      *behavior.Scorer
	engine      *recommend.Engine
	matches     *matching.Store
	experiments *experiment.Engine
	forecaster  *forecast.Forecaster
	costs       *forecast.MetricStore
	links       *linkcheck.Validator
	scraper     *scraper.Scraper
	generator   *textgen.Generator

	startedAt time.Time
}

// Deps lists what NewHandlers needs. Optional collaborators may be nil;
// their endpoints answer 404.
type Deps struct {
	Pipeline    *behavior.Pipeline
	Scorer      *behavior.Scorer
	Engine      *recommend.Engine
	Matches     *matching.Store
	Experiments *experiment.Engine
	Forecaster  *forecast.Forecaster
	Costs       *forecast.MetricStore
	Links       *linkcheck.Validator
	Scraper     *scraper.Scraper
	Generator   *textgen.Generator
}

// NewHandlers creates the handler set.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		pipeline:    deps.Pipeline,
		scorer:      deps.Scorer,
		engine:      deps.Engine,
		matches:     deps.Matches,
		experiments: deps.Experiments,
		forecaster:  deps.Forecaster,
		costs:       deps.Costs,
		links:       deps.Links,
		scraper:     deps.Scraper,
		generator:   deps.Generator,
		startedAt:   time.Now(),
	}
}

type generateRequest struct {
	Prompt   string `json:"prompt" validate:"required,max=2000"`
	Kind     string `json:"kind,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Tone     string `json:"tone,omitempty"`
	MaxWords int    `json:"max_words,omitempty" validate:"omitempty,min=1,max=500"`
}

// GenerateText produces marketing copy for an entity. Upstream outages
// degrade to template output rather than failing the request.
func (h *Handlers) GenerateText(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	text, err := h.generator.Generate(r.Context(), req.Prompt, textgen.Options{
		Kind:     req.Kind,
		Subject:  req.Subject,
		Tone:     req.Tone,
		MaxWords: req.MaxWords,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// Health reports liveness and uptime.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// TrackEvent accepts a behavior event. With a pipeline attached the event
// is published asynchronously and the client gets a 202; otherwise it is
// scored inline.
func (h *Handlers) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req behavior.TrackRequest
	if err := decode(r, &req); err != nil {
		metrics.EventsRejected.Inc()
		writeError(w, err)
		return
	}
	if req.Type == "" {
		metrics.EventsRejected.Inc()
		writeError(w, apperrors.Validationf("event_type", "event_type is required"))
		return
	}
	if req.EntityKind != "" && !req.EntityKind.Valid() {
		metrics.EventsRejected.Inc()
		writeError(w, apperrors.Validationf("entity_type", "unknown entity type %q", req.EntityKind))
		return
	}

	metrics.EventsTracked.WithLabelValues(string(req.Type)).Inc()

	if h.pipeline != nil {
		if err := h.pipeline.Publish(r.Context(), req); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	ev, err := h.scorer.Track(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// BehaviorSummary returns the engagement analysis for a user.
func (h *Handlers) BehaviorSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	days := queryInt(r, "days", 0)

	summary, err := h.scorer.Analyze(r.Context(), userID, days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ChurnRisk returns the churn probability for a user.
func (h *Handlers) ChurnRisk(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	risk, err := h.scorer.ChurnProbability(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, risk)
}

// queryInt parses an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
