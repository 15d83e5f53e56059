// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/storage"
)

const costSeriesKeyPrefix = "costseries:"

// MetricStore keeps daily cost index snapshots in the record store, one
// point per (city, day). It implements MetricSource.
type MetricStore struct {
	records storage.RecordStore
}

// NewMetricStore creates a metric store over the record store.
func NewMetricStore(records storage.RecordStore) *MetricStore {
	return &MetricStore{records: records}
}

type costPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

func costKey(cityID string, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", costSeriesKeyPrefix, cityID, day.Format("2006-01-02"))
}

// RecordCostIndex stores one daily snapshot. Re-recording the same day
// overwrites it.
func (m *MetricStore) RecordCostIndex(ctx context.Context, cityID string, day time.Time, value float64) error {
	point := costPoint{Date: day.Format("2006-01-02"), Value: value}
	if err := storage.PutJSON(ctx, m.records, costKey(cityID, day), point); err != nil {
		return fmt.Errorf("store cost snapshot: %w", err)
	}
	return nil
}

// CostIndexSeries implements MetricSource: the city's snapshots, oldest
// first, truncated to the trailing days.
func (m *MetricStore) CostIndexSeries(ctx context.Context, cityID string, days int) ([]float64, error) {
	raw, err := m.records.List(ctx, costSeriesKeyPrefix+cityID+":")
	if err != nil {
		return nil, fmt.Errorf("list cost snapshots: %w", err)
	}

	points := make([]costPoint, 0, len(raw))
	for key, data := range raw {
		var p costPoint
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode cost snapshot %s: %w", key, err)
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	if days > 0 && len(points) > days {
		points = points[len(points)-days:]
	}

	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out, nil
}
