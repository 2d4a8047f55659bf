package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/craftfair/dispatch/internal/bootstrap"
	"github.com/craftfair/dispatch/internal/config"
	"github.com/craftfair/dispatch/internal/logger"
	"github.com/craftfair/dispatch/internal/queue"
	"github.com/craftfair/dispatch/internal/storage"
	"github.com/craftfair/dispatch/internal/worker"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(logger.Config{
		Level:     cfg.Logging.Level,
		Output:    cfg.Logging.Output,
		FilePath:  cfg.Logging.FilePath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	log.Info().Msg("starting dispatch worker")

	// Initialize database connection pool.
	ctx := context.Background()
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// The handler is wired after the queue exists, so build the queue with a
	// late-bound handler reference.
	var handler worker.Handler
	enqueuer, dequeuer, _, err := queue.NewQueue(cfg.Queue, &handler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}

	components, err := bootstrap.Build(cfg, db, enqueuer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatch engine")
	}
	handler = *worker.NewHandler(components.Engine, enqueuer, log)

	if err := dequeuer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start dequeuer")
	}
	log.Info().
		Int("workers", cfg.Queue.WorkerCount).
		Str("queue_type", cfg.Queue.Type).
		Msg("dispatch worker pool started")

	// Expose Prometheus metrics.
	metricsAddr := fmt.Sprintf(":%d", cfg.API.MetricsPort)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	// Wait for interrupt signal for graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down dispatch worker")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := dequeuer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("dequeuer shutdown error")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown error")
	}

	log.Info().Msg("dispatch worker stopped")
}
