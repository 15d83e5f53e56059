// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Package behavior tracks user interaction events and derives engagement
// signals from them: per-event engagement scores at write time, behavior
// summaries and extracted preferences on demand, and a churn-risk heuristic.
//
// Events are append-only. Once written they are never updated; the only
// delete path is bulk retention cleanup.
package behavior

import (
	"time"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

// EventType classifies a user interaction.
type EventType string

// Known event types, ordered by increasing engagement weight.
const (
	EventPageView EventType = "page_view"
	EventClick    EventType = "click"
	EventSearch   EventType = "search"
	EventDownload EventType = "download"
	EventFavorite EventType = "favorite"
	EventComment  EventType = "comment"
	EventShare    EventType = "share"
	EventApply    EventType = "apply"
	EventSignup   EventType = "signup"
	EventPurchase EventType = "purchase"
)

// MaxEventWeight is the largest base weight in the table (purchase).
// Overall engagement normalizes against it.
const MaxEventWeight = 20.0

// baseWeights maps event types to their engagement base weight.
var baseWeights = map[EventType]float64{
	EventPageView: 1.0,
	EventClick:    2.0,
	EventSearch:   3.0,
	EventDownload: 4.0,
	EventFavorite: 5.0,
	EventComment:  6.0,
	EventShare:    8.0,
	EventApply:    10.0,
	EventSignup:   15.0,
	EventPurchase: 20.0,
}

// BaseWeight returns the engagement base weight for the event type.
// Unknown types weigh 1.0 so ad hoc client events still register.
func (t EventType) BaseWeight() float64 {
	if w, ok := baseWeights[t]; ok {
		return w
	}
	return 1.0
}

// Context carries the user attributes known at tracking time. It is derived
// by the HTTP layer and passed in already resolved.
type Context struct {
	// IsReturning marks a user seen before this session.
	IsReturning bool `json:"is_returning"`

	// ProfileCompletionPct is the user's profile completeness, 0-100.
	ProfileCompletionPct float64 `json:"profile_completion_pct"`

	// IsPremium marks a paying member.
	IsPremium bool `json:"is_premium"`

	// UserType is the member segment (nomad, employer, reader, ...).
	UserType string `json:"user_type,omitempty"`

	// Location is the user's coarse location, if known.
	Location string `json:"location,omitempty"`
}

// Multiplier returns the engagement multiplier for this context.
// Bonuses stack additively and deliberately uncapped: a returning premium
// user with a complete profile multiplies by 2.0.
func (c Context) Multiplier() float64 {
	m := 1.0
	if c.IsReturning {
		m += 0.2
	}
	if c.ProfileCompletionPct > 80 {
		m += 0.3
	}
	if c.IsPremium {
		m += 0.5
	}
	return m
}

// Event is one immutable user interaction record.
type Event struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id,omitempty"`
	SessionID       string         `json:"session_id"`
	Type            EventType      `json:"event_type"`
	EntityKind      catalog.Kind   `json:"entity_type,omitempty"`
	EntityID        string         `json:"entity_id,omitempty"`
	Data            map[string]any `json:"event_data,omitempty"`
	Context         Context        `json:"context"`
	EngagementScore float64        `json:"engagement_score"`
	OccurredAt      time.Time      `json:"occurred_at"`
}

// TrackRequest is the input to Scorer.Track. UserID may be empty for
// anonymous traffic; SessionID is generated when absent.
type TrackRequest struct {
	UserID     string         `json:"user_id,omitempty"`
	SessionID  string         `json:"session_id,omitempty"`
	Type       EventType      `json:"event_type"`
	EntityKind catalog.Kind   `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Data       map[string]any `json:"event_data,omitempty"`
	Context    Context        `json:"context"`
}
