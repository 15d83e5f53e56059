// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/apperrors"
)

// MemoryDirectory is an in-memory Directory. The server seeds it from the
// catalog file at startup; the scraper sink appends to it at runtime.
type MemoryDirectory struct {
	mu       sync.RWMutex
	cities   []City
	jobs     []Job
	articles []Article
}

// NewMemoryDirectory creates an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{}
}

// Seed is the on-disk catalog format. Users ride along so a single file
// can bootstrap a development instance.
type Seed struct {
	Cities   []City    `json:"cities"`
	Jobs     []Job     `json:"jobs"`
	Articles []Article `json:"articles"`
	Users    []User    `json:"users,omitempty"`
}

// ReadSeed parses a JSON catalog file.
func ReadSeed(path string) (Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return Seed{}, fmt.Errorf("read catalog seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse catalog seed: %w", err)
	}
	return seed, nil
}

// ApplySeed replaces the directory contents with the seed's entities.
func (d *MemoryDirectory) ApplySeed(seed Seed) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cities = seed.Cities
	d.jobs = seed.Jobs
	d.articles = seed.Articles
}

// LoadSeed reads a JSON catalog file into the directory, replacing current
// contents.
func (d *MemoryDirectory) LoadSeed(path string) error {
	seed, err := ReadSeed(path)
	if err != nil {
		return err
	}
	d.ApplySeed(seed)
	return nil
}

// AddJob appends a job posting, replacing any existing posting with the
// same ID.
func (d *MemoryDirectory) AddJob(job Job) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.jobs {
		if existing.ID == job.ID {
			d.jobs[i] = job
			return
		}
	}
	d.jobs = append(d.jobs, job)
}

// Cities implements Directory.
func (d *MemoryDirectory) Cities(ctx context.Context, f Filter) ([]City, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]City, 0, len(d.cities))
	for _, c := range d.cities {
		if f.BudgetMax > 0 && c.MonthlyCostMin > f.BudgetMax {
			continue
		}
		out = append(out, c)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Jobs implements Directory.
func (d *MemoryDirectory) Jobs(ctx context.Context, f Filter) ([]Job, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Job, 0, len(d.jobs))
	for _, j := range d.jobs {
		if f.Remote && !j.Remote {
			continue
		}
		if len(f.Skills) > 0 && !anyOverlap(f.Skills, j.Skills) {
			continue
		}
		if f.MentionsCity != "" && !mentions(j, f.MentionsCity) {
			continue
		}
		out = append(out, j)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Articles implements Directory.
func (d *MemoryDirectory) Articles(ctx context.Context, f Filter) ([]Article, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Article, 0, len(d.articles))
	for _, a := range d.articles {
		if len(f.Topics) > 0 && !anyOverlap(f.Topics, a.Topics) {
			continue
		}
		out = append(out, a)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// City implements Directory.
func (d *MemoryDirectory) City(ctx context.Context, id string) (City, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.cities {
		if c.ID == id {
			return c, nil
		}
	}
	return City{}, apperrors.NotFound("city", id)
}

func anyOverlap(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(w, h) {
				return true
			}
		}
	}
	return false
}

func mentions(j Job, city string) bool {
	city = strings.ToLower(city)
	return strings.Contains(strings.ToLower(j.Location), city) ||
		strings.Contains(strings.ToLower(j.Description), city)
}

// MemoryUserStore is an in-memory UserStore.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryUserStore creates a user store, optionally pre-seeded.
func NewMemoryUserStore(users []User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Put inserts or replaces a user record.
func (s *MemoryUserStore) Put(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// User implements UserStore.
func (s *MemoryUserStore) User(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, apperrors.NotFound("user", id)
	}
	return u, nil
}

// TouchLastActive implements UserStore.
func (s *MemoryUserStore) TouchLastActive(ctx context.Context, id string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperrors.NotFound("user", id)
	}
	u.LastActive = t
	s.users[id] = u
	return nil
}
