// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/behavior"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/storage"
)

const predictionKeyPrefix = "prediction:"

// minSeriesPoints is the historical data floor below which no forecast is
// attempted.
const minSeriesPoints = 7

// ErrInsufficientData is returned when a series is too short to forecast.
var ErrInsufficientData = errors.New("forecast: insufficient historical data")

// MetricSource supplies ordered daily metric series. Implementations read
// from whatever holds the historical snapshots.
type MetricSource interface {
	// CostIndexSeries returns the city's daily cost index values, oldest
	// first.
	CostIndexSeries(ctx context.Context, cityID string, days int) ([]float64, error)
}

// Prediction is one persisted forecast. Repeated forecasts for the same
// (type, entity, target date) overwrite the prior record.
type Prediction struct {
	Type           string    `json:"prediction_type"`
	EntityID       string    `json:"entity_id"`
	TargetDate     time.Time `json:"target_date"`
	CurrentValue   float64   `json:"current_value"`
	PredictedValue float64   `json:"predicted_value"`
	Confidence     float64   `json:"confidence"`
	CreatedAt      time.Time `json:"created_at"`
}

// Forecaster fits trends and persists predictions.
type Forecaster struct {
	records   storage.RecordStore
	metrics   MetricSource
	directory catalog.Directory
	events    behavior.Store
	logger    zerolog.Logger
	clock     func() time.Time
}

// NewForecaster wires a forecaster to its collaborators. events may be nil;
// trending then loses its recent-activity component.
func NewForecaster(records storage.RecordStore, metrics MetricSource,
	directory catalog.Directory, events behavior.Store, logger zerolog.Logger) *Forecaster {
	return &Forecaster{
		records:   records,
		metrics:   metrics,
		directory: directory,
		events:    events,
		logger:    logger.With().Str("component", "forecast").Logger(),
		clock:     time.Now,
	}
}

func predictionKey(predType, entityID string, target time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", predictionKeyPrefix, predType, entityID, target.Format("2006-01-02"))
}

// ForecastCost projects a city's cost index days ahead from its historical
// series. It requires at least 7 points and upserts the resulting
// prediction.
func (f *Forecaster) ForecastCost(ctx context.Context, cityID string, days int) (Prediction, error) {
	if days <= 0 {
		return Prediction{}, apperrors.Validationf("days", "must be positive")
	}

	city, err := f.directory.City(ctx, cityID)
	if err != nil {
		return Prediction{}, apperrors.NotFound("city", cityID)
	}

	series, err := f.metrics.CostIndexSeries(ctx, cityID, 90)
	if err != nil {
		return Prediction{}, fmt.Errorf("load cost series for %s: %w", cityID, err)
	}
	if len(series) < minSeriesPoints {
		return Prediction{}, fmt.Errorf("%w: %d points for %s, need %d",
			ErrInsufficientData, len(series), cityID, minSeriesPoints)
	}

	slope := LinearTrend(series)
	predicted := city.CostIndex + slope*float64(days)
	if predicted < 0 {
		predicted = 0
	}

	now := f.clock().UTC()
	pred := Prediction{
		Type:           "cost_index",
		EntityID:       cityID,
		TargetDate:     now.AddDate(0, 0, days),
		CurrentValue:   city.CostIndex,
		PredictedValue: predicted,
		Confidence:     Confidence(series),
		CreatedAt:      now,
	}

	key := predictionKey(pred.Type, pred.EntityID, pred.TargetDate)
	if err := storage.PutJSON(ctx, f.records, key, pred); err != nil {
		return Prediction{}, fmt.Errorf("store prediction: %w", err)
	}

	f.logger.Debug().
		Str("city_id", cityID).
		Float64("slope", slope).
		Float64("predicted", predicted).
		Msg("cost forecast stored")
	return pred, nil
}

// Predictions lists stored predictions of one type.
func (f *Forecaster) Predictions(ctx context.Context, predType string) ([]Prediction, error) {
	raw, err := f.records.List(ctx, predictionKeyPrefix+predType+":")
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	out := make([]Prediction, 0, len(raw))
	for key, data := range raw {
		var p Prediction
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode prediction %s: %w", key, err)
		}
		out = append(out, p)
	}
	return out, nil
}
