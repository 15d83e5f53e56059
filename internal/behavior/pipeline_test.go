// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPipelinePublishAndConsume(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scorer := NewScorer(store, &touchRecorder{})

	p := NewPipeline(PipelineConfig{BufferSize: 16}, scorer)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	for i := 0; i < 3; i++ {
		err := p.Publish(ctx, TrackRequest{
			UserID:     "u1",
			Type:       EventClick,
			EntityKind: "cities",
			EntityID:   "lisbon",
		})
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	waitFor(t, 2*time.Second, func() bool { return store.Len() == 3 })

	events, err := store.EventsByUser(ctx, "u1", time.Time{})
	if err != nil {
		t.Fatalf("EventsByUser: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("stored %d events, want 3", len(events))
	}
	if events[0].Type != EventClick || events[0].EntityID != "lisbon" {
		t.Fatalf("stored event = %+v", events[0])
	}

	stats := p.Stats()
	if stats.Published != 3 || stats.Processed != 3 {
		t.Fatalf("Stats = %+v, want 3 published and 3 processed", stats)
	}
}

func TestPipelineDropsMalformedPayloads(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	scorer := NewScorer(store, &touchRecorder{})

	p := NewPipeline(PipelineConfig{BufferSize: 16}, scorer)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Stop()

	// Bypass Publish to inject a payload that is not a track request.
	poison := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	if err := p.pubsub.Publish(EventsTopic, poison); err != nil {
		t.Fatalf("publish poison message: %v", err)
	}
	if err := p.Publish(ctx, TrackRequest{UserID: "u1", Type: EventSearch}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// The poison message must be acked and dropped, not wedge the consumer.
	waitFor(t, 2*time.Second, func() bool { return store.Len() == 1 })

	stats := p.Stats()
	if stats.ParseErrs != 1 {
		t.Fatalf("ParseErrs = %d, want 1", stats.ParseErrs)
	}
	if stats.Processed != 1 {
		t.Fatalf("Processed = %d, want 1", stats.Processed)
	}
}

func TestPipelineStartStop(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(PipelineConfig{}, NewScorer(NewMemoryStore(), &touchRecorder{}))

	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("second Start succeeded, want already-running error")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	// Stop on a stopped pipeline is a no-op.
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
}
