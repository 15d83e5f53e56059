// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nomadscope/nomadscope/internal/experiment"
	"github.com/nomadscope/nomadscope/internal/metrics"
)

// CreateExperiment registers a new draft experiment.
func (h *Handlers) CreateExperiment(w http.ResponseWriter, r *http.Request) {
	var exp experiment.Experiment
	if err := decode(r, &exp); err != nil {
		writeError(w, err)
		return
	}

	created, err := h.experiments.Create(r.Context(), exp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ListExperiments returns all experiments.
func (h *Handlers) ListExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := h.experiments.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiments": exps})
}

// GetExperiment returns one experiment with its running results.
func (h *Handlers) GetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := h.experiments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// StartExperiment transitions a draft experiment to active.
func (h *Handlers) StartExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := h.experiments.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

type assignRequest struct {
	Visitor experiment.Visitor `json:"visitor" validate:"required"`
}

// AssignVariant returns the visitor's deterministic variant, or an empty
// variant when the experiment is inactive or targeting excludes them.
func (h *Handlers) AssignVariant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req assignRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	variant, err := h.experiments.Assign(r.Context(), id, req.Visitor)
	if err != nil {
		writeError(w, err)
		return
	}
	if variant != "" {
		metrics.ExperimentAssignments.WithLabelValues(id).Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{"variant": variant})
}

type experimentEventRequest struct {
	Visitor   experiment.Visitor `json:"visitor" validate:"required"`
	Variant   string             `json:"variant" validate:"required"`
	EventType string             `json:"event_type" validate:"required"`
	Data      map[string]any     `json:"event_data,omitempty"`
}

// TrackExperimentEvent records an event against the visitor's variant.
// The claimed variant is recomputed server side; mismatches are dropped.
func (h *Handlers) TrackExperimentEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req experimentEventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.experiments.TrackEvent(r.Context(), id, req.Visitor, req.Variant, req.EventType, req.Data)
	if err != nil {
		metrics.ExperimentEvents.WithLabelValues(id, "dropped").Inc()
		writeError(w, err)
		return
	}
	metrics.ExperimentEvents.WithLabelValues(id, "recorded").Inc()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

type experimentConversionRequest struct {
	Visitor experiment.Visitor `json:"visitor" validate:"required"`
	Variant string             `json:"variant" validate:"required"`
	Data    map[string]any     `json:"event_data,omitempty"`
}

// TrackExperimentConversion records a conversion for the visitor.
func (h *Handlers) TrackExperimentConversion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req experimentConversionRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	err := h.experiments.TrackConversion(r.Context(), id, req.Visitor, req.Variant, req.Data)
	if err != nil {
		metrics.ExperimentEvents.WithLabelValues(id, "dropped").Inc()
		writeError(w, err)
		return
	}
	metrics.ExperimentEvents.WithLabelValues(id, "recorded").Inc()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

type completeRequest struct {
	Force bool `json:"force"`
}

// CompleteExperiment checks the completion criteria and, when they hold
// (or force is set), locks the experiment and declares a winner.
func (h *Handlers) CompleteExperiment(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.experiments.Complete(r.Context(), chi.URLParam(r, "id"), req.Force)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
