package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/monitoragent/stream-monitor/internal/broadcast"
	"github.com/monitoragent/stream-monitor/internal/config"
	"github.com/monitoragent/stream-monitor/internal/logger"
	"github.com/monitoragent/stream-monitor/internal/metrics"
	"github.com/monitoragent/stream-monitor/internal/pipeline"
	"github.com/monitoragent/stream-monitor/internal/resolver"
	"github.com/monitoragent/stream-monitor/internal/server"
	"github.com/monitoragent/stream-monitor/internal/session"
	"github.com/monitoragent/stream-monitor/internal/store"
	"github.com/monitoragent/stream-monitor/internal/summarizer"
	"github.com/monitoragent/stream-monitor/internal/transcriber"
	"github.com/monitoragent/stream-monitor/pkg/executor"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	// Secrets come from the environment; .env is optional.
	_ = godotenv.Load()

	cfg, err := config.Load(config.GetEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info(ctx, "========================================")
	log.Info(ctx, "Stream Monitor Agent")
	log.Info(ctx, "========================================")
	log.Info(ctx, "Stream page: %s", cfg.Stream.PageURL)
	log.Info(ctx, "Segment duration: %ds", cfg.Capture.SegmentSeconds)
	log.Info(ctx, "Audio output: %s", cfg.Paths.AudioDir)
	log.Info(ctx, "Max concurrent transcriptions: %d", cfg.Performance.MaxConcurrent)

	geminiKeys := config.GeminiKeys()
	if len(geminiKeys) == 0 {
		log.Warn(ctx, "GEMINI_API_KEYS not set; summaries will use word truncation")
	}

	met := metrics.New()
	exec := executor.New()
	res := resolver.New(cfg, log)
	tr := transcriber.New(cfg, exec, log)
	sum := summarizer.New(geminiKeys, cfg.Gemini.Model, log)
	st := store.New(cfg.Server.HistoryLimit)
	hub := broadcast.NewHub(log, met)
	pipe := pipeline.New(tr, sum, st, hub, log, met)
	coord := session.NewCoordinator(cfg, res, exec, pipe, log, met)

	h := server.NewHandler(coord, st, hub, log)
	r := chi.NewRouter()
	h.Routes(r)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		met.Handler(func() { met.SetConnectedSubscribers(hub.Count()) }).ServeHTTP(w, req)
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "Server error: %v", err)
			os.Exit(1)
		}
	}()

	log.Info(ctx, "Monitor Agent API listening on %s", addr)
	log.Info(ctx, "Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info(ctx, "Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := coord.Stop(shutdownCtx); err != nil && err != session.ErrNotRunning {
		log.Error(ctx, "Error stopping session: %v", err)
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "Shutdown error: %v", err)
		os.Exit(1)
	}

	log.Info(ctx, "Monitor Agent stopped")
}
