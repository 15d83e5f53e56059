// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package matching

import (
	"context"
	"testing"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/storage"
)

func TestStoreUpsertPreservesFlags(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	score := MatchScore{
		UserID:     "u1",
		EntityKind: catalog.KindJob,
		EntityID:   "job-1",
		Overall:    82,
		Type:       TypeContentBased,
	}
	if err := store.Upsert(ctx, score); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.MarkAction(ctx, "u1", catalog.KindJob, "job-1", FlagApplied); err != nil {
		t.Fatalf("MarkAction() error = %v", err)
	}

	// Rescoring overwrites the score but keeps the applied flag.
	score.Overall = 64
	if err := store.Upsert(ctx, score); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.Get(ctx, "u1", catalog.KindJob, "job-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Overall != 64 {
		t.Errorf("Overall = %v, want 64", got.Overall)
	}
	if !got.UserApplied {
		t.Error("UserApplied flag lost on upsert")
	}
	if got.UserViewed || got.UserSaved {
		t.Error("unset flags should stay false")
	}
}

func TestStoreMissingScore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	if _, err := store.Get(ctx, "u1", catalog.KindJob, "nope"); !apperrors.IsNotFound(err) {
		t.Errorf("Get() error = %v, want not found", err)
	}
	if err := store.MarkAction(ctx, "u1", catalog.KindJob, "nope", FlagViewed); !apperrors.IsNotFound(err) {
		t.Errorf("MarkAction() error = %v, want not found", err)
	}
}

func TestStoreByUserFiltersKind(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore())

	for _, s := range []MatchScore{
		{UserID: "u1", EntityKind: catalog.KindJob, EntityID: "j1", Overall: 80},
		{UserID: "u1", EntityKind: catalog.KindCity, EntityID: "c1", Overall: 70},
		{UserID: "u2", EntityKind: catalog.KindJob, EntityID: "j2", Overall: 60},
	} {
		if err := store.Upsert(ctx, s); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	jobs, err := store.ByUser(ctx, "u1", catalog.KindJob)
	if err != nil {
		t.Fatalf("ByUser() error = %v", err)
	}
	if len(jobs) != 1 || jobs[0].EntityID != "j1" {
		t.Errorf("ByUser() = %+v, want only j1", jobs)
	}
}
