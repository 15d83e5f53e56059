// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/matching"
	"github.com/nomadscope/nomadscope/internal/metrics"
	"github.com/nomadscope/nomadscope/internal/recommend"
)

// Recommendations serves personalized recommendations for a user.
// Query parameters: type (cities|jobs|articles|mixed), limit, strategy.
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	q := r.URL.Query()

	req := recommend.Request{
		UserID:   userID,
		Kind:     catalog.Kind(q.Get("type")),
		Limit:    queryInt(r, "limit", 0),
		Strategy: recommend.Strategy(q.Get("strategy")),
	}
	if req.Kind == "" {
		req.Kind = catalog.KindMixed
	}

	start := time.Now()
	resp, err := h.engine.Recommend(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.RecommendDuration.
		WithLabelValues(string(req.Kind), string(resp.Strategy)).
		Observe(time.Since(start).Seconds())
	if resp.Metadata.CacheHit {
		metrics.RecommendCacheHits.Inc()
	}
	writeJSON(w, http.StatusOK, resp)
}

type trainRequest struct {
	Days int `json:"days" validate:"omitempty,min=1,max=365"`
}

// TrainModel retrains the recommendation model for an entity kind.
func (h *Handlers) TrainModel(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(chi.URLParam(r, "kind"))

	var req trainRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.engine.Train(r.Context(), kind, req.Days)
	if err != nil {
		metrics.ModelTrainings.WithLabelValues(string(kind), "error").Inc()
		writeError(w, err)
		return
	}
	metrics.ModelTrainings.WithLabelValues(string(kind), "ok").Inc()
	writeJSON(w, http.StatusOK, result)
}

// Model returns the stored model metadata for an entity kind.
func (h *Handlers) Model(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(chi.URLParam(r, "kind"))

	model, err := h.engine.ModelInfo(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

type feedbackRequest struct {
	Type string `json:"type" validate:"required,oneof=click conversion"`
}

// ModelFeedback records a click or conversion against a model's served
// recommendations.
func (h *Handlers) ModelFeedback(w http.ResponseWriter, r *http.Request) {
	kind := catalog.Kind(chi.URLParam(r, "kind"))

	var req feedbackRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.engine.RecordFeedback(r.Context(), kind, recommend.FeedbackKind(req.Type)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// MatchScores lists stored match scores for a user and kind.
func (h *Handlers) MatchScores(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kind := catalog.Kind(chi.URLParam(r, "kind"))

	scores, err := h.matches.ByUser(r.Context(), userID, kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": scores})
}

type matchActionRequest struct {
	Action string `json:"action" validate:"required,oneof=viewed applied saved"`
}

// MarkMatchAction flags a stored match score as viewed, applied, or saved.
func (h *Handlers) MarkMatchAction(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	kind := catalog.Kind(chi.URLParam(r, "kind"))
	entityID := chi.URLParam(r, "entityID")

	var req matchActionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.matches.MarkAction(r.Context(), userID, kind, entityID, matching.Flag(req.Action)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
