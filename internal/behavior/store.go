// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Store is the append-only event log consumed by every scoring component.
//
// Append is safe under concurrent writers: there is no read-modify-write on
// an event, ever. Queries return copies; callers may mutate results freely.
type Store interface {
	// Append writes one event. Events are immutable once written.
	Append(ctx context.Context, ev Event) error

	// EventsByUser returns the user's events with occurred_at >= since,
	// ordered by occurred_at ascending.
	EventsByUser(ctx context.Context, userID string, since time.Time) ([]Event, error)

	// EventsByKind returns all events referencing the given entity kind
	// with occurred_at >= since, ordered by occurred_at ascending.
	EventsByKind(ctx context.Context, kind string, since time.Time) ([]Event, error)

	// DeleteOlderThan removes events with occurred_at < cutoff and
	// returns the number removed. Used only by retention cleanup.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and small installs.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore creates an empty in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// EventsByUser implements Store.
func (s *MemoryStore) EventsByUser(_ context.Context, userID string, since time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if ev.UserID == userID && !ev.OccurredAt.Before(since) {
			out = append(out, ev)
		}
	}
	sortByTime(out)
	return out, nil
}

// EventsByKind implements Store.
func (s *MemoryStore) EventsByKind(_ context.Context, kind string, since time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, ev := range s.events {
		if string(ev.EntityKind) == kind && !ev.OccurredAt.Before(since) {
			out = append(out, ev)
		}
	}
	sortByTime(out)
	return out, nil
}

// DeleteOlderThan implements Store.
func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.events[:0]
	removed := 0
	for _, ev := range s.events {
		if ev.OccurredAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	s.events = kept
	return removed, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored events.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// sortByTime orders events by occurred_at ascending, stable for equal stamps.
func sortByTime(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
}
