// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package services

import (
	"context"
	"fmt"

	"github.com/nomadscope/nomadscope/internal/behavior"
)

// PipelineService runs the behavior event pipeline under supervision.
type PipelineService struct {
	pipeline *behavior.Pipeline
}

// NewPipelineService wraps the pipeline.
func NewPipelineService(pipeline *behavior.Pipeline) *PipelineService {
	return &PipelineService{pipeline: pipeline}
}

// Serve implements suture.Service. The pipeline consumes in its own
// goroutines; this blocks until shutdown and then drains it.
func (s *PipelineService) Serve(ctx context.Context) error {
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("start event pipeline: %w", err)
	}

	<-ctx.Done()
	if err := s.pipeline.Stop(); err != nil {
		return fmt.Errorf("stop event pipeline: %w", err)
	}
	return ctx.Err()
}

func (s *PipelineService) String() string { return "behavior-pipeline" }
