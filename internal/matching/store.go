// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/storage"
)

const scoreKeyPrefix = "match:"

// StoredScore is a persisted MatchScore plus the user action flags. A repeat
// match overwrites score fields but preserves the flags.
type StoredScore struct {
	MatchScore
	UserViewed  bool      `json:"user_viewed"`
	UserApplied bool      `json:"user_applied"`
	UserSaved   bool      `json:"user_saved"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store persists match scores keyed by (user, entity).
type Store struct {
	records storage.RecordStore
	clock   func() time.Time
}

// NewStore creates a match score store over the record store.
func NewStore(records storage.RecordStore) *Store {
	return &Store{records: records, clock: time.Now}
}

func scoreKey(userID string, kind catalog.Kind, entityID string) string {
	return fmt.Sprintf("%s%s:%s:%s", scoreKeyPrefix, userID, kind, entityID)
}

// Upsert writes the score, keeping any previously set action flags.
func (s *Store) Upsert(ctx context.Context, score MatchScore) error {
	key := scoreKey(score.UserID, score.EntityKind, score.EntityID)

	stored := StoredScore{MatchScore: score, UpdatedAt: s.clock().UTC()}
	var prev StoredScore
	err := storage.GetJSON(ctx, s.records, key, &prev)
	switch {
	case err == nil:
		stored.UserViewed = prev.UserViewed
		stored.UserApplied = prev.UserApplied
		stored.UserSaved = prev.UserSaved
	case errors.Is(err, storage.ErrKeyNotFound):
	default:
		return fmt.Errorf("load prior match score: %w", err)
	}

	if err := storage.PutJSON(ctx, s.records, key, stored); err != nil {
		return fmt.Errorf("store match score: %w", err)
	}
	return nil
}

// Get returns the stored score for one (user, entity) pair.
func (s *Store) Get(ctx context.Context, userID string, kind catalog.Kind, entityID string) (StoredScore, error) {
	var stored StoredScore
	err := storage.GetJSON(ctx, s.records, scoreKey(userID, kind, entityID), &stored)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return StoredScore{}, apperrors.NotFound("match_score", entityID)
	}
	if err != nil {
		return StoredScore{}, fmt.Errorf("load match score: %w", err)
	}
	return stored, nil
}

// ByUser lists all stored scores for a user and kind.
func (s *Store) ByUser(ctx context.Context, userID string, kind catalog.Kind) ([]StoredScore, error) {
	prefix := fmt.Sprintf("%s%s:%s:", scoreKeyPrefix, userID, kind)
	raw, err := s.records.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list match scores: %w", err)
	}
	out := make([]StoredScore, 0, len(raw))
	for key, data := range raw {
		var stored StoredScore
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("decode match score %s: %w", key, err)
		}
		out = append(out, stored)
	}
	return out, nil
}

// Flag is a user action recorded against a stored score.
type Flag string

const (
	FlagViewed  Flag = "viewed"
	FlagApplied Flag = "applied"
	FlagSaved   Flag = "saved"
)

// MarkAction sets one of the viewed/applied/saved flags. The score row must
// already exist.
func (s *Store) MarkAction(ctx context.Context, userID string, kind catalog.Kind, entityID string, flag Flag) error {
	key := scoreKey(userID, kind, entityID)
	var stored StoredScore
	err := storage.GetJSON(ctx, s.records, key, &stored)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return apperrors.NotFound("match_score", entityID)
	}
	if err != nil {
		return fmt.Errorf("load match score: %w", err)
	}

	switch flag {
	case FlagViewed:
		stored.UserViewed = true
	case FlagApplied:
		stored.UserApplied = true
	case FlagSaved:
		stored.UserSaved = true
	default:
		return apperrors.Validationf("flag", "unknown action %q", flag)
	}
	stored.UpdatedAt = s.clock().UTC()

	if err := storage.PutJSON(ctx, s.records, key, stored); err != nil {
		return fmt.Errorf("store match score: %w", err)
	}
	return nil
}
