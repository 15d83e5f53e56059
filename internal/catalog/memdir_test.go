// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nomadscope/nomadscope/internal/apperrors"
)

func seededDirectory() *MemoryDirectory {
	d := NewMemoryDirectory()
	d.cities = []City{
		{ID: "lisbon", Name: "Lisbon", MonthlyCostMin: 1800, MonthlyCostMax: 2600},
		{ID: "chiang-mai", Name: "Chiang Mai", MonthlyCostMin: 800, MonthlyCostMax: 1400},
		{ID: "zurich", Name: "Zurich", MonthlyCostMin: 4000, MonthlyCostMax: 6000},
	}
	d.jobs = []Job{
		{ID: "j1", Title: "Go Engineer", Company: "Acme", Skills: []string{"go", "sql"}, Remote: true},
		{ID: "j2", Title: "Designer", Company: "Umbrella", Skills: []string{"figma"}, Location: "Lisbon, Portugal"},
	}
	d.articles = []Article{
		{ID: "a1", Title: "Visa guide", Topics: []string{"visas", "travel"}},
		{ID: "a2", Title: "Tax basics", Topics: []string{"taxes"}},
	}
	return d
}

func TestDirectoryFilters(t *testing.T) {
	d := seededDirectory()
	ctx := context.Background()

	t.Run("budget filter keeps affordable cities", func(t *testing.T) {
		cities, err := d.Cities(ctx, Filter{BudgetMax: 2000})
		if err != nil {
			t.Fatal(err)
		}
		if len(cities) != 2 {
			t.Fatalf("got %d cities, want 2", len(cities))
		}
	})

	t.Run("remote filter drops on-site jobs", func(t *testing.T) {
		jobs, err := d.Jobs(ctx, Filter{Remote: true})
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 1 || jobs[0].ID != "j1" {
			t.Fatalf("jobs = %+v", jobs)
		}
	})

	t.Run("skills filter matches case-insensitively", func(t *testing.T) {
		jobs, err := d.Jobs(ctx, Filter{Skills: []string{"GO"}})
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 1 || jobs[0].ID != "j1" {
			t.Fatalf("jobs = %+v", jobs)
		}
	})

	t.Run("mentions city searches location and description", func(t *testing.T) {
		jobs, err := d.Jobs(ctx, Filter{MentionsCity: "lisbon"})
		if err != nil {
			t.Fatal(err)
		}
		if len(jobs) != 1 || jobs[0].ID != "j2" {
			t.Fatalf("jobs = %+v", jobs)
		}
	})

	t.Run("topics filter narrows articles", func(t *testing.T) {
		articles, err := d.Articles(ctx, Filter{Topics: []string{"taxes"}})
		if err != nil {
			t.Fatal(err)
		}
		if len(articles) != 1 || articles[0].ID != "a2" {
			t.Fatalf("articles = %+v", articles)
		}
	})

	t.Run("limit caps listings", func(t *testing.T) {
		cities, err := d.Cities(ctx, Filter{Limit: 1})
		if err != nil {
			t.Fatal(err)
		}
		if len(cities) != 1 {
			t.Fatalf("got %d cities, want 1", len(cities))
		}
	})

	t.Run("city lookup by id", func(t *testing.T) {
		city, err := d.City(ctx, "lisbon")
		if err != nil || city.Name != "Lisbon" {
			t.Fatalf("City = %+v, %v", city, err)
		}
		if _, err := d.City(ctx, "atlantis"); !apperrors.IsNotFound(err) {
			t.Fatalf("missing city error = %v, want not found", err)
		}
	})
}

func TestDirectoryAddJobUpserts(t *testing.T) {
	d := NewMemoryDirectory()
	d.AddJob(Job{ID: "j1", Title: "Engineer"})
	d.AddJob(Job{ID: "j1", Title: "Senior Engineer"})

	jobs, _ := d.Jobs(context.Background(), Filter{})
	if len(jobs) != 1 || jobs[0].Title != "Senior Engineer" {
		t.Fatalf("jobs = %+v", jobs)
	}
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `{
		"cities": [{"id": "lisbon", "name": "Lisbon"}],
		"jobs": [{"id": "j1", "title": "Engineer", "company": "Acme"}],
		"articles": [{"id": "a1", "title": "Guide"}]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	d := NewMemoryDirectory()
	if err := d.LoadSeed(path); err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(d.cities) != 1 || len(d.jobs) != 1 || len(d.articles) != 1 {
		t.Fatalf("seed counts = %d/%d/%d", len(d.cities), len(d.jobs), len(d.articles))
	}

	if err := d.LoadSeed(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}

func TestMemoryUserStore(t *testing.T) {
	s := NewMemoryUserStore([]User{{ID: "u1", Skills: []string{"go"}}})
	ctx := context.Background()

	u, err := s.User(ctx, "u1")
	if err != nil || len(u.Skills) != 1 {
		t.Fatalf("User = %+v, %v", u, err)
	}

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := s.TouchLastActive(ctx, "u1", now); err != nil {
		t.Fatalf("TouchLastActive: %v", err)
	}
	u, _ = s.User(ctx, "u1")
	if !u.LastActive.Equal(now) {
		t.Fatalf("LastActive = %v, want %v", u.LastActive, now)
	}

	if _, err := s.User(ctx, "ghost"); !apperrors.IsNotFound(err) {
		t.Fatalf("missing user error = %v", err)
	}
	if err := s.TouchLastActive(ctx, "ghost", now); !apperrors.IsNotFound(err) {
		t.Fatalf("touch missing user error = %v", err)
	}
}
