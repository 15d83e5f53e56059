// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// PeriodicService runs a job on a fixed interval. Job errors are logged
// and the ticker keeps going; a periodic job failing once should not
// bounce the whole service through the supervisor.
type PeriodicService struct {
	name       string
	interval   time.Duration
	runAtStart bool
	job        func(ctx context.Context) error
	logger     zerolog.Logger
}

// NewPeriodicService wraps a job. runAtStart fires the job immediately on
// startup instead of waiting a full interval.
func NewPeriodicService(name string, interval time.Duration, runAtStart bool,
	logger zerolog.Logger, job func(ctx context.Context) error) *PeriodicService {
	return &PeriodicService{
		name:       name,
		interval:   interval,
		runAtStart: runAtStart,
		job:        job,
		logger:     logger.With().Str("service", name).Logger(),
	}
}

// Serve implements suture.Service.
func (s *PeriodicService) Serve(ctx context.Context) error {
	if s.runAtStart {
		s.run(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *PeriodicService) run(ctx context.Context) {
	start := time.Now()
	if err := s.job(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Msg("periodic job failed")
		return
	}
	s.logger.Debug().Dur("elapsed", time.Since(start)).Msg("periodic job finished")
}

func (s *PeriodicService) String() string { return s.name }
