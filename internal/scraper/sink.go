// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nomadscope/nomadscope/internal/catalog"
)

// JobWriter is the directory surface the sink needs.
type JobWriter interface {
	AddJob(job catalog.Job)
}

// DirectorySink normalizes raw postings into catalog jobs.
type DirectorySink struct {
	directory JobWriter
}

// NewDirectorySink creates a sink writing into the given directory.
func NewDirectorySink(directory JobWriter) *DirectorySink {
	return &DirectorySink{directory: directory}
}

// Ingest implements Sink. Postings without a title or company are
// rejected. The catalog ID is derived from source and external ID so
// re-scrapes upsert instead of duplicating.
func (s *DirectorySink) Ingest(ctx context.Context, p RawPosting) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("posting has no title")
	}
	if strings.TrimSpace(p.Company) == "" {
		return fmt.Errorf("posting %q has no company", p.Title)
	}

	id := p.ExternalID
	if id == "" {
		id = uuid.NewString()
	}

	s.directory.AddJob(catalog.Job{
		ID:          p.Source + ":" + id,
		Title:       strings.TrimSpace(p.Title),
		Company:     strings.TrimSpace(p.Company),
		Skills:      p.Skills,
		Levels:      p.Levels,
		Location:    strings.TrimSpace(p.Location),
		Remote:      p.Remote,
		SalaryMin:   p.SalaryMin,
		SalaryMax:   p.SalaryMax,
		Description: p.Description,
		Source:      p.Source,
	})
	return nil
}
