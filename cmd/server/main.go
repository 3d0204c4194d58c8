// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Service-Request Triage Service
//
// Entry point for the triage service. It:
//  1. Loads configuration from config.yaml
//  2. Connects to Redis and, for the durable dedup backend, PostgreSQL
//  3. Wires the extraction sidecar and classifier clients
//  4. Serves the upload endpoint and a health check
//  5. Handles graceful shutdown on SIGTERM/SIGINT
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/ewfx/gaied-deep-learners/internal/classify"
	"github.com/ewfx/gaied-deep-learners/internal/config"
	"github.com/ewfx/gaied-deep-learners/internal/dedup"
	"github.com/ewfx/gaied-deep-learners/internal/extract"
	"github.com/ewfx/gaied-deep-learners/internal/pipeline"
	"github.com/ewfx/gaied-deep-learners/internal/queue"
	"github.com/ewfx/gaied-deep-learners/internal/routing"
	"github.com/ewfx/gaied-deep-learners/internal/server"
	"github.com/ewfx/gaied-deep-learners/internal/textract"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting triage service")

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"dedup_backend", cfg.DedupBackend,
		"extract_workers", cfg.ExtractWorkers,
		"workflow_queue", cfg.WorkflowQueue,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Connect to Redis ---
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		slog.Error("invalid REDIS_URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(opt)

	publisher := queue.NewPublisher(rdb, cfg.WorkflowQueue)
	if err := publisher.Ping(ctx); err != nil {
		slog.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	slog.Info("connected to Redis")

	// --- Fingerprint Store ---
	var (
		store  dedup.Store
		pgPool *pgxpool.Pool
	)
	switch cfg.DedupBackend {
	case "postgres":
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()
		if err := pgPool.Ping(ctx); err != nil {
			slog.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		slog.Info("connected to PostgreSQL")

		store, err = dedup.NewPostgresStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise fingerprint store", "error", err)
			os.Exit(1)
		}
	case "memory":
		store = dedup.NewMemoryStore()
	default:
		store = dedup.NewRedisStore(rdb)
	}

	// --- Extraction Sidecar ---
	sidecar := textract.NewClient(&http.Client{Timeout: cfg.SlowCallTimeout}, cfg.TextractURL)
	if err := sidecar.Ping(ctx); err != nil {
		slog.Warn("extraction sidecar not reachable, attachment extraction will degrade", "error", err)
	}

	extractor := extract.New(extract.Config{
		OCR:             sidecar,
		PDF:             sidecar,
		Sheets:          sidecar,
		Workers:         cfg.ExtractWorkers,
		SlowCallTimeout: cfg.SlowCallTimeout,
	})

	// --- Classifier Client ---
	classifierHTTP := &http.Client{Timeout: 60 * time.Second}
	if cfg.Classifier.TokenURL != "" {
		creds := &clientcredentials.Config{
			ClientID:     cfg.Classifier.ClientID,
			ClientSecret: cfg.Classifier.ClientSecret,
			TokenURL:     cfg.Classifier.TokenURL,
		}
		classifierHTTP = creds.Client(ctx)
		classifierHTTP.Timeout = 60 * time.Second
	}
	classifier := classify.NewClient(classifierHTTP, cfg.Classifier.URL)

	// --- Pipeline ---
	router := routing.NewRouter(routing.DefaultTeams)
	pipe := pipeline.New(store, extractor, classifier, router)

	// --- HTTP Server ---
	handler := server.NewHandler(pipe, publisher, cfg.MaxUploadBytes)
	health := func(w http.ResponseWriter, r *http.Request) {
		if err := publisher.Ping(r.Context()); err != nil {
			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
			return
		}
		if pgPool != nil {
			if err := pgPool.Ping(r.Context()); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}

	ready, err := server.Serve(ctx, cfg.Port, handler, health)
	if err != nil {
		slog.Error("failed to start triage server", "error", err)
		os.Exit(1)
	}
	<-ready

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigCh

	slog.Info("received shutdown signal", "signal", sig)
	cancel()

	// Give in-flight requests a moment to finish before closing Redis.
	time.Sleep(2 * time.Second)
	rdb.Close()

	slog.Info("triage service stopped")
}
