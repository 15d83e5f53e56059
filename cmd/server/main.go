// Nomadscope - Digital Nomad Directory Intelligence Platform
// Copyright 2026 Nomadscope Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nomadscope/nomadscope

// Command server runs the Nomadscope intelligence platform: behavior
// tracking and analysis, recommendations, A/B testing, forecasting, link
// validation, and job-board ingestion behind one HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nomadscope/nomadscope/internal/api"
	"github.com/nomadscope/nomadscope/internal/behavior"
	"github.com/nomadscope/nomadscope/internal/catalog"
	"github.com/nomadscope/nomadscope/internal/config"
	"github.com/nomadscope/nomadscope/internal/experiment"
	"github.com/nomadscope/nomadscope/internal/forecast"
	"github.com/nomadscope/nomadscope/internal/linkcheck"
	"github.com/nomadscope/nomadscope/internal/logging"
	"github.com/nomadscope/nomadscope/internal/matching"
	"github.com/nomadscope/nomadscope/internal/recommend"
	"github.com/nomadscope/nomadscope/internal/scraper"
	"github.com/nomadscope/nomadscope/internal/storage"
	"github.com/nomadscope/nomadscope/internal/supervisor"
	"github.com/nomadscope/nomadscope/internal/supervisor/services"
	"github.com/nomadscope/nomadscope/internal/textgen"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Int("port", cfg.Server.Port).
		Str("database", cfg.Database.Path).
		Msg("starting nomadscope")

	// Storage layers.
	events, err := behavior.NewDuckDBStore(behavior.DuckDBConfig{
		Path:      cfg.Database.Path,
		MaxMemory: cfg.Database.MaxMemory,
		Threads:   cfg.Database.Threads,
	})
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer events.Close() //nolint:errcheck

	records, err := storage.NewBadgerStore(storage.BadgerConfig{
		Path:       cfg.Storage.Path,
		GCInterval: cfg.Storage.GCInterval,
	})
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer records.Close() //nolint:errcheck

	// Catalog.
	directory := catalog.NewMemoryDirectory()
	var users *catalog.MemoryUserStore
	if seed, err := catalog.ReadSeed(cfg.Catalog.SeedPath); err != nil {
		logging.Warn().Err(err).Str("path", cfg.Catalog.SeedPath).
			Msg("catalog seed unavailable, starting empty")
		users = catalog.NewMemoryUserStore(nil)
	} else {
		directory.ApplySeed(seed)
		users = catalog.NewMemoryUserStore(seed.Users)
		logging.Info().
			Int("cities", len(seed.Cities)).
			Int("jobs", len(seed.Jobs)).
			Int("articles", len(seed.Articles)).
			Int("users", len(seed.Users)).
			Msg("catalog seeded")
	}

	// Engines.
	scorer := behavior.NewScorer(events, users)
	pipeline := behavior.NewPipeline(behavior.PipelineConfig{
		BufferSize: int64(cfg.Behavior.PipelineBuffer),
	}, scorer)

	models := recommend.NewModelStore(records)
	engine, err := recommend.NewEngine(recommend.Config{
		DefaultLimit:        cfg.Recommend.DefaultLimit,
		MaxLimit:            cfg.Recommend.MaxLimit,
		WindowDays:          cfg.Recommend.WindowDays,
		MinInteractions:     cfg.Recommend.MinInteractions,
		SimilarUserLimit:    cfg.Recommend.SimilarUserLimit,
		HybridCollabWeight:  cfg.Recommend.HybridCollabWeight,
		HybridContentWeight: 1 - cfg.Recommend.HybridCollabWeight,
		CacheTTL:            cfg.Recommend.CacheTTL,
		CacheSize:           cfg.Recommend.CacheSize,
	}, logging.Logger(), matching.NewScorer(matching.DefaultWeights()),
		directory, users, events, models)
	if err != nil {
		return fmt.Errorf("build recommendation engine: %w", err)
	}

	experiments := experiment.NewEngine(records, experiment.CompletionConfig{
		MinDurationDays: cfg.Experiment.MinDurationDays,
		MaxDurationDays: cfg.Experiment.MaxDurationDays,
		MinVisitors:     int64(cfg.Experiment.MinVisitors),
		MinConfidence:   cfg.Experiment.MinConfidence,
	}, logging.Logger())
	costs := forecast.NewMetricStore(records)
	forecaster := forecast.NewForecaster(records, costs, directory, events, logging.Logger())

	generator := textgen.NewGenerator(textgen.Config{
		BaseURL: cfg.TextGen.BaseURL,
		APIKey:  cfg.TextGen.APIKey,
		Model:   cfg.TextGen.Model,
		Timeout: cfg.TextGen.Timeout,
	})

	links := linkcheck.NewValidator(linkcheck.Config{
		Timeout:       cfg.LinkCheck.Timeout,
		RatePerSecond: cfg.LinkCheck.RatePerSecond,
	})

	sources := make([]scraper.Source, 0, len(cfg.Scraper.Sources))
	for _, s := range cfg.Scraper.Sources {
		sources = append(sources, scraper.Source{Name: s.Name, URL: s.URL, Enabled: s.Enabled})
	}
	boards := scraper.NewScraper(scraper.Config{
		RatePerSecond: cfg.Scraper.RatePerSecond,
	}, sources, scraper.NewDirectorySink(directory))

	// HTTP surface.
	handlers := api.NewHandlers(api.Deps{
		Pipeline:    pipeline,
		Scorer:      scorer,
		Engine:      engine,
		Matches:     matching.NewStore(records),
		Experiments: experiments,
		Forecaster:  forecaster,
		Costs:       costs,
		Links:       links,
		Scraper:     boards,
		Generator:   generator,
	})
	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(api.RouterConfig{
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimit:   cfg.Server.RateLimit,
			RateWindow:  cfg.Server.RateWindow,
		}, handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Supervision.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddPipelineService(services.NewPipelineService(pipeline))
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	tree.AddJobService(services.NewPeriodicService("model-trainer",
		cfg.Recommend.TrainInterval, true, logging.Logger(),
		func(ctx context.Context) error {
			return trainModels(ctx, engine)
		}))
	tree.AddJobService(services.NewPeriodicService("retention-cleanup",
		cfg.Behavior.CleanupInterval, false, logging.Logger(),
		func(ctx context.Context) error {
			cutoff := time.Now().UTC().AddDate(0, 0, -cfg.Behavior.RetentionDays)
			n, err := events.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				logging.Info().Int("deleted", n).Time("cutoff", cutoff).
					Msg("expired events removed")
			}
			return nil
		}))
	tree.AddJobService(services.NewPeriodicService("cost-snapshots",
		cfg.Forecast.SnapshotInterval, true, logging.Logger(),
		func(ctx context.Context) error {
			return snapshotCosts(ctx, directory, costs)
		}))
	if len(sources) > 0 {
		tree.AddJobService(services.NewPeriodicService("job-scraper",
			cfg.Scraper.Interval, false, logging.Logger(),
			func(ctx context.Context) error {
				report, err := boards.ScrapeAll(ctx)
				if err != nil {
					return err
				}
				logging.Info().
					Int("ingested", report.Ingested).
					Int("failed", report.Failed).
					Msg("scrape run finished")
				return nil
			}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("supervisor tree starting")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor tree: %w", err)
	}
	logging.Info().Msg("shutdown complete")
	return nil
}

// trainModels retrains every concrete entity kind. A kind with no events
// still trains to an empty model, so errors here are real failures.
func trainModels(ctx context.Context, engine *recommend.Engine) error {
	for _, kind := range []catalog.Kind{catalog.KindCity, catalog.KindJob, catalog.KindArticle} {
		if _, err := engine.Train(ctx, kind, 0); err != nil {
			return fmt.Errorf("train %s: %w", kind, err)
		}
	}
	return nil
}

// snapshotCosts records today's cost index for every listed city, feeding
// the forecaster's historical series.
func snapshotCosts(ctx context.Context, directory catalog.Directory, costs *forecast.MetricStore) error {
	cities, err := directory.Cities(ctx, catalog.Filter{})
	if err != nil {
		return err
	}
	day := time.Now().UTC()
	for _, city := range cities {
		if city.CostIndex <= 0 {
			continue
		}
		if err := costs.RecordCostIndex(ctx, city.ID, day, city.CostIndex); err != nil {
			return fmt.Errorf("snapshot %s: %w", city.ID, err)
		}
	}
	return nil
}
