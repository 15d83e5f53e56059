// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestLRUBasic(t *testing.T) {
	c := NewLRU[string](3, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("a", "alpha")
	got, ok := c.Get("a")
	if !ok || got != "alpha" {
		t.Fatalf("Get(a) = %q, %v, want alpha, true", got, ok)
	}

	c.Set("a", "alpha2")
	if got, _ := c.Get("a"); got != "alpha2" {
		t.Fatalf("overwrite not applied, got %q", got)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d after overwrite, want 1", c.Len())
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	// Touch a so b becomes the eviction candidate.
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected least recently used entry to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("newest entry missing")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d after lazy expiry, want 0", c.Len())
	}
}

func TestLRUCleanupExpired(t *testing.T) {
	c := NewLRU[int](10, 10*time.Millisecond)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 99)

	if removed := c.CleanupExpired(); removed != 5 {
		t.Fatalf("CleanupExpired removed %d, want 5", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry removed by cleanup")
	}
}

func TestLRUDeleteAndStats(t *testing.T) {
	c := NewLRU[int](10, time.Minute)
	c.Set("a", 1)

	if !c.Delete("a") {
		t.Fatal("Delete(a) = false, want true")
	}
	if c.Delete("a") {
		t.Fatal("second Delete(a) = true, want false")
	}

	c.Set("b", 2)
	c.Get("b")
	c.Get("nope")
	hits, misses, size := c.Stats()
	if hits != 1 || misses != 1 || size != 1 {
		t.Fatalf("Stats = %d hits, %d misses, %d size, want 1, 1, 1", hits, misses, size)
	}
}
