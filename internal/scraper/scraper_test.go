// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nomadscope/nomadscope/internal/apperrors"
	"github.com/nomadscope/nomadscope/internal/catalog"
)

type collectSink struct {
	postings []RawPosting
	rejectID string
}

func (s *collectSink) Ingest(ctx context.Context, p RawPosting) error {
	if s.rejectID != "" && p.ExternalID == s.rejectID {
		return fmt.Errorf("rejected")
	}
	s.postings = append(s.postings, p)
	return nil
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/remoteok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"external_id":"1","title":"Go Engineer","company":"Acme","remote":true,"skills":["go"]},
			{"external_id":"2","title":"Designer","company":"Umbrella","location":"Lisbon, Portugal"}
		]`)) //nolint:errcheck
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	return httptest.NewServer(mux)
}

func TestScrapeSource(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	sink := &collectSink{}
	s := NewScraper(Config{RatePerSecond: 1000}, []Source{
		{Name: "remoteok", URL: srv.URL + "/remoteok", Enabled: true},
	}, sink)

	tally, err := s.ScrapeSource(context.Background(), "remoteok")
	if err != nil {
		t.Fatalf("ScrapeSource: %v", err)
	}
	if tally.Fetched != 2 || tally.Ingested != 2 || tally.Failed != 0 {
		t.Fatalf("tally = %+v", tally)
	}
	if sink.postings[0].Source != "remoteok" {
		t.Fatalf("provenance not stamped, got %q", sink.postings[0].Source)
	}

	if _, err := s.ScrapeSource(context.Background(), "unknown"); !apperrors.IsNotFound(err) {
		t.Fatalf("unknown source error = %v, want not found", err)
	}
}

func TestScrapeAllTalliesFailuresWithoutAborting(t *testing.T) {
	srv := feedServer(t)
	defer srv.Close()

	sink := &collectSink{rejectID: "2"}
	s := NewScraper(Config{RatePerSecond: 1000}, []Source{
		{Name: "broken", URL: srv.URL + "/broken", Enabled: true},
		{Name: "remoteok", URL: srv.URL + "/remoteok", Enabled: true},
		{Name: "disabled", URL: srv.URL + "/remoteok", Enabled: false},
	}, sink)

	report, err := s.ScrapeAll(context.Background())
	if err != nil {
		t.Fatalf("ScrapeAll: %v", err)
	}

	if len(report.Sources) != 2 {
		t.Fatalf("ran %d sources, want 2 (disabled skipped)", len(report.Sources))
	}
	if report.Sources[0].Error == "" {
		t.Fatal("broken feed error not tallied")
	}
	if report.Ingested != 1 || report.Failed != 1 {
		t.Fatalf("report = %+v, want 1 ingested, 1 failed", report)
	}
}

func TestDirectorySink(t *testing.T) {
	dir := catalog.NewMemoryDirectory()
	sink := NewDirectorySink(dir)

	err := sink.Ingest(context.Background(), RawPosting{
		ExternalID: "42",
		Title:      "  Go Engineer ",
		Company:    "Acme",
		Remote:     true,
		Skills:     []string{"go", "sql"},
		Source:     "remoteok",
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	jobs, err := dir.Jobs(context.Background(), catalog.Filter{})
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "remoteok:42" || jobs[0].Title != "Go Engineer" {
		t.Fatalf("stored job = %+v", jobs)
	}

	// Re-ingesting the same external ID upserts rather than duplicating.
	if err := sink.Ingest(context.Background(), RawPosting{
		ExternalID: "42", Title: "Senior Go Engineer", Company: "Acme", Source: "remoteok",
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	jobs, _ = dir.Jobs(context.Background(), catalog.Filter{})
	if len(jobs) != 1 || jobs[0].Title != "Senior Go Engineer" {
		t.Fatalf("upsert failed, jobs = %+v", jobs)
	}

	if err := sink.Ingest(context.Background(), RawPosting{Company: "Acme"}); err == nil {
		t.Fatal("expected rejection for missing title")
	}
}
