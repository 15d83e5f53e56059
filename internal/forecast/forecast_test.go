// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package forecast

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/logging"
	"github.com/nomadscope/nomadscope/internal/storage"
)

func TestLinearTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   float64
	}{
		{"empty series", nil, 0},
		{"single point", []float64{5}, 0},
		{"flat series", []float64{3, 3, 3, 3}, 0},
		{"unit slope", []float64{1, 2, 3, 4, 5}, 1},
		{"negative slope", []float64{10, 8, 6, 4}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearTrend(tt.series); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("LinearTrend(%v) = %v, want %v", tt.series, got, tt.want)
			}
		})
	}
}

func TestConfidence(t *testing.T) {
	t.Run("empty series is zero", func(t *testing.T) {
		if got := Confidence(nil); got != 0 {
			t.Errorf("Confidence(nil) = %v, want 0", got)
		}
	})
	t.Run("zero mean is zero", func(t *testing.T) {
		if got := Confidence([]float64{-1, 1}); got != 0 {
			t.Errorf("Confidence() = %v, want 0", got)
		}
	})
	t.Run("constant series is fully confident", func(t *testing.T) {
		if got := Confidence([]float64{5, 5, 5}); got != 1 {
			t.Errorf("Confidence() = %v, want 1", got)
		}
	})
	t.Run("noisy series loses confidence", func(t *testing.T) {
		smooth := Confidence([]float64{50, 51, 49, 50, 51})
		noisy := Confidence([]float64{50, 10, 95, 20, 80})
		if noisy >= smooth {
			t.Errorf("noisy %v should score below smooth %v", noisy, smooth)
		}
	})
}

type fakeMetrics struct {
	series map[string][]float64
}

func (m *fakeMetrics) CostIndexSeries(ctx context.Context, cityID string, days int) ([]float64, error) {
	return m.series[cityID], nil
}

type fakeDirectory struct {
	cities []catalog.City
	jobs   []catalog.Job
}

func (d *fakeDirectory) Cities(ctx context.Context, f catalog.Filter) ([]catalog.City, error) {
	return d.cities, nil
}

func (d *fakeDirectory) Jobs(ctx context.Context, f catalog.Filter) ([]catalog.Job, error) {
	return d.jobs, nil
}

func (d *fakeDirectory) Articles(ctx context.Context, f catalog.Filter) ([]catalog.Article, error) {
	return nil, nil
}

func (d *fakeDirectory) City(ctx context.Context, id string) (catalog.City, error) {
	for _, c := range d.cities {
		if c.ID == id {
			return c, nil
		}
	}
	return catalog.City{}, apperrors.NotFound("city", id)
}

func TestForecastCost(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{cities: []catalog.City{{ID: "lisbon", Name: "Lisbon", CostIndex: 60}}}

	t.Run("projects along the fitted slope", func(t *testing.T) {
		metrics := &fakeMetrics{series: map[string][]float64{
			"lisbon": {53, 54, 55, 56, 57, 58, 59, 60},
		}}
		f := NewForecaster(storage.NewMemoryStore(), metrics, dir, nil, logging.Logger())
		f.clock = func() time.Time { return now }

		pred, err := f.ForecastCost(ctx, "lisbon", 10)
		if err != nil {
			t.Fatalf("ForecastCost() error = %v", err)
		}
		// Slope is exactly 1 per day.
		if math.Abs(pred.PredictedValue-70) > 1e-9 {
			t.Errorf("PredictedValue = %v, want 70", pred.PredictedValue)
		}
		if pred.Confidence <= 0.9 {
			t.Errorf("Confidence = %v, want high for a tight series", pred.Confidence)
		}
		if !pred.TargetDate.Equal(now.AddDate(0, 0, 10)) {
			t.Errorf("TargetDate = %v, want %v", pred.TargetDate, now.AddDate(0, 0, 10))
		}

		stored, err := f.Predictions(ctx, "cost_index")
		if err != nil {
			t.Fatalf("Predictions() error = %v", err)
		}
		if len(stored) != 1 {
			t.Errorf("stored predictions = %d, want 1", len(stored))
		}
	})

	t.Run("rejects short series", func(t *testing.T) {
		metrics := &fakeMetrics{series: map[string][]float64{"lisbon": {60, 61, 62}}}
		f := NewForecaster(storage.NewMemoryStore(), metrics, dir, nil, logging.Logger())
		f.clock = func() time.Time { return now }

		if _, err := f.ForecastCost(ctx, "lisbon", 10); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("ForecastCost() error = %v, want ErrInsufficientData", err)
		}
	})

	t.Run("clamps negative projections to zero", func(t *testing.T) {
		metrics := &fakeMetrics{series: map[string][]float64{
			"lisbon": {70, 60, 50, 40, 30, 20, 10, 5},
		}}
		f := NewForecaster(storage.NewMemoryStore(), metrics, dir, nil, logging.Logger())
		f.clock = func() time.Time { return now }

		pred, err := f.ForecastCost(ctx, "lisbon", 365)
		if err != nil {
			t.Fatalf("ForecastCost() error = %v", err)
		}
		if pred.PredictedValue != 0 {
			t.Errorf("PredictedValue = %v, want 0", pred.PredictedValue)
		}
	})

	t.Run("unknown city", func(t *testing.T) {
		f := NewForecaster(storage.NewMemoryStore(), &fakeMetrics{}, dir, nil, logging.Logger())
		if _, err := f.ForecastCost(ctx, "atlantis", 5); !apperrors.IsNotFound(err) {
			t.Errorf("ForecastCost() error = %v, want not found", err)
		}
	})
}

func TestTrending(t *testing.T) {
	ctx := context.Background()
	dir := &fakeDirectory{
		cities: []catalog.City{
			// Strong on every signal.
			{ID: "chiang-mai", Name: "Chiang Mai", CostIndex: 28, InternetSpeed: 60, Safety: 8},
			// Expensive and slow; should not trend.
			{ID: "zurich", Name: "Zurich", CostIndex: 95, InternetSpeed: 8, Safety: 9},
		},
		jobs: []catalog.Job{
			{ID: "j1", Location: "Chiang Mai, Thailand"},
			{ID: "j2", Description: "Remote-first team with a Chiang Mai hub"},
		},
	}
	f := NewForecaster(storage.NewMemoryStore(), &fakeMetrics{}, dir, nil, logging.Logger())

	trending, err := f.Trending(ctx)
	if err != nil {
		t.Fatalf("Trending() error = %v", err)
	}
	if len(trending) != 1 {
		t.Fatalf("trending = %d cities, want 1", len(trending))
	}
	top := trending[0]
	if top.City.ID != "chiang-mai" {
		t.Errorf("top city = %s, want chiang-mai", top.City.ID)
	}

	// jobs 2/10=0.2*0.30 + cost 1.0*0.25 + internet 1.0*0.20 + safety 0.8*0.15 = 0.63
	if math.Abs(top.Score-0.63) > 1e-9 {
		t.Errorf("score = %v, want 0.63", top.Score)
	}
	if top.Signals["job_market"] != 0.2 {
		t.Errorf("job_market signal = %v, want 0.2", top.Signals["job_market"])
	}
}
