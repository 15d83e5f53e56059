// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package api serves the HTTP surface: behavior tracking, analysis,
// recommendations, A/B testing, forecasting, link validation, and
// scraping triggers.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/logging"
)

var validate = validator.New()

const maxRequestBytes = 1 << 20

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
	case apperrors.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case apperrors.IsStateConflict(err):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "state_conflict"})
	case errors.Is(err, io.EOF):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty request body", Code: "validation"})
	default:
		logging.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
	}
}

// decode parses and validates a JSON request body. Struct fields carry
// validator tags; failures surface as 400s.
func decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validationf("body", "request body is required")
		}
		return apperrors.Validationf("body", "invalid json: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.Validationf("body", "%v", err)
	}
	return nil
}

// decodeOptional is decode for endpoints where the body may be omitted
// entirely; an empty body leaves dst at its zero value.
func decodeOptional(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Validationf("body", "invalid json: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.Validationf("body", "%v", err)
	}
	return nil
}
