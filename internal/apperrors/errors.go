// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package apperrors defines the error taxonomy shared by the core engines.
//
// The taxonomy distinguishes four caller-visible failure classes:
//
//   - ValidationError: malformed input to a public operation; rejected
//     eagerly, no partial state is written.
//   - NotFoundError: a referenced entity, experiment, or user does not exist.
//   - StateConflictError: the operation is invalid for the record's current
//     lifecycle state.
//   - ErrExternalUnavailable: an outbound collaborator failed or timed out;
//     callers recover via fallback content, never by retrying blindly.
//
// Integrity anomalies (for example a claimed experiment variant that does not
// match the recomputed assignment) are deliberately NOT errors: they are
// logged as warnings and the offending input is dropped.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrExternalUnavailable indicates an outbound collaborator (text generation,
// HTTP fetch) failed or timed out. Batch operations tally it and continue.
var ErrExternalUnavailable = errors.New("external collaborator unavailable")

// ValidationError indicates malformed input to a public operation.
type ValidationError struct {
	// Field is the offending input field, if attributable.
	Field string

	// Reason describes why the input was rejected.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates a referenced record does not exist.
type NotFoundError struct {
	// Kind is the record kind (user, experiment, city, model, ...).
	Kind string

	// ID is the identifier that failed to resolve.
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// StateConflictError indicates an operation invalid for the record's
// current lifecycle state.
type StateConflictError struct {
	// Op is the attempted operation.
	Op string

	// Current is the record's current state.
	Current string
}

// Error implements the error interface.
func (e *StateConflictError) Error() string {
	return fmt.Sprintf("%s not allowed in state %q", e.Op, e.Current)
}

// StateConflict builds a StateConflictError.
func StateConflict(op, current string) error {
	return &StateConflictError{Op: op, Current: current}
}

// IsStateConflict reports whether err is a StateConflictError.
func IsStateConflict(err error) bool {
	var sce *StateConflictError
	return errors.As(err, &sce)
}
