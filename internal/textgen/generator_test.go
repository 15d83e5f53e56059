// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package textgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestGenerateCachesUpstreamText(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/v1/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"text":"Lisbon blends surf mornings with fiber internet."}`)) //nolint:errcheck
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "writer-1"})
	opts := Options{Kind: "city_summary", Subject: "Lisbon"}

	first, err := g.Generate(context.Background(), "describe lisbon", opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := g.Generate(context.Background(), "describe lisbon", opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if first != second || !strings.Contains(first, "Lisbon") {
		t.Fatalf("unexpected text %q / %q", first, second)
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want 1", calls.Load())
	}
}

func TestGenerateFallsBackOnUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL})
	text, err := g.Generate(context.Background(), "describe lisbon",
		Options{Kind: "city_summary", Subject: "Lisbon"})
	if err != nil {
		t.Fatalf("Generate returned error despite fallback: %v", err)
	}
	if !strings.HasPrefix(text, "Lisbon is a popular base") {
		t.Fatalf("expected template fallback, got %q", text)
	}
}

func TestGenerateBreakerOpensAfterFailures(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(Config{BaseURL: srv.URL, FailureThreshold: 2})
	for i := 0; i < 5; i++ {
		if _, err := g.Generate(context.Background(), "prompt", Options{Kind: "job_pitch", Subject: "Acme"}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	if g.BreakerState() != "open" {
		t.Fatalf("breaker state = %s, want open", g.BreakerState())
	}
	// Two failures trip the breaker; later calls are rejected locally.
	if calls.Load() != 2 {
		t.Fatalf("upstream called %d times, want 2", calls.Load())
	}
}

func TestGenerateWithoutEndpointUsesTemplates(t *testing.T) {
	g := NewGenerator(Config{})

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"city summary", Options{Kind: "city_summary", Subject: "Chiang Mai"}, "Chiang Mai is a popular base"},
		{"job pitch", Options{Kind: "job_pitch", Subject: "Acme Corp"}, "Acme Corp is hiring"},
		{"article teaser", Options{Kind: "article_teaser", Subject: "visa runs"}, "guide on visa runs"},
		{"unknown kind", Options{Kind: "banner", Subject: "Tbilisi"}, "Learn more about Tbilisi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.Generate(context.Background(), "prompt", tt.opts)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Fatalf("Generate = %q, want substring %q", got, tt.want)
			}
		})
	}
}

func TestGenerateRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := NewGenerator(Config{})
	if _, err := g.Generate(ctx, "prompt", Options{}); err == nil {
		t.Fatal("expected context error")
	}
}
