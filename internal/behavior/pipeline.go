// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

package behavior

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/nomadscope/nomadscope/internal/logging"
)

// EventsTopic is the pub/sub topic carrying raw track requests.
const EventsTopic = "behavior.events"

// PipelineConfig holds configuration for the event pipeline.
type PipelineConfig struct {
	// BufferSize is the in-flight message buffer. Default: 1024.
	BufferSize int64
}

// DefaultPipelineConfig returns a PipelineConfig with sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{BufferSize: 1024}
}

// PipelineStats holds runtime counters for monitoring.
type PipelineStats struct {
	Published int64
	Processed int64
	ParseErrs int64
	StoreErrs int64
}

// Pipeline decouples HTTP ingestion from event scoring and storage. Track
// requests are published to an in-process topic; a consumer goroutine scores
// and persists them. Ingestion latency stays flat while DuckDB writes absorb
// bursts.
type Pipeline struct {
	pubsub *gochannel.GoChannel
	scorer *Scorer

	running atomic.Bool
	stopFn  context.CancelFunc
	wg      sync.WaitGroup

	published atomic.Int64
	processed atomic.Int64
	parseErrs atomic.Int64
	storeErrs atomic.Int64
}

// NewPipeline creates a pipeline backed by an in-process pub/sub channel.
func NewPipeline(cfg PipelineConfig, scorer *Scorer) *Pipeline {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultPipelineConfig().BufferSize
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            cfg.BufferSize,
		BlockPublishUntilSubscriberAck: false,
	}, watermill.NopLogger{})

	return &Pipeline{
		pubsub: pubsub,
		scorer: scorer,
	}
}

// Publish enqueues a track request for asynchronous scoring.
func (p *Pipeline) Publish(ctx context.Context, req TrackRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal track request: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := p.pubsub.Publish(EventsTopic, msg); err != nil {
		return fmt.Errorf("publish track request: %w", err)
	}
	p.published.Add(1)
	return nil
}

// Start subscribes to the events topic and begins draining it. It returns
// once the subscription is established; processing runs until Stop or the
// context is cancelled.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already running")
	}

	subCtx, cancel := context.WithCancel(ctx)
	p.stopFn = cancel

	messages, err := p.pubsub.Subscribe(subCtx, EventsTopic)
	if err != nil {
		cancel()
		p.running.Store(false)
		return fmt.Errorf("subscribe to %s: %w", EventsTopic, err)
	}

	p.wg.Add(1)
	go p.consume(subCtx, messages)

	logging.Info().Str("topic", EventsTopic).Msg("behavior pipeline started")
	return nil
}

func (p *Pipeline) consume(ctx context.Context, messages <-chan *message.Message) {
	defer p.wg.Done()
	for msg := range messages {
		var req TrackRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			p.parseErrs.Add(1)
			logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("malformed track request dropped")
			msg.Ack()
			continue
		}

		if _, err := p.scorer.Track(ctx, req); err != nil {
			p.storeErrs.Add(1)
			logging.Error().Err(err).Str("message_id", msg.UUID).Msg("failed to persist behavior event")
			// Nack would redeliver forever for a poison message; drop it.
			msg.Ack()
			continue
		}

		p.processed.Add(1)
		msg.Ack()
	}
}

// Stop shuts the pipeline down and waits for the consumer to drain.
func (p *Pipeline) Stop() error {
	if !p.running.CompareAndSwap(true, false) {
		return nil
	}
	if p.stopFn != nil {
		p.stopFn()
	}
	err := p.pubsub.Close()
	p.wg.Wait()
	if err != nil {
		return fmt.Errorf("close pipeline pubsub: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{
		Published: p.published.Load(),
		Processed: p.processed.Load(),
		ParseErrs: p.parseErrs.Load(),
		StoreErrs: p.storeErrs.Load(),
	}
}
