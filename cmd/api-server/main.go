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

	"github.com/craftfair/dispatch/internal/api"
	"github.com/craftfair/dispatch/internal/auth"
	"github.com/craftfair/dispatch/internal/bootstrap"
	"github.com/craftfair/dispatch/internal/config"
	"github.com/craftfair/dispatch/internal/logger"
	"github.com/craftfair/dispatch/internal/queue"
	"github.com/craftfair/dispatch/internal/storage"
)

// noopHandler satisfies the queue factory; the API server never consumes
// tasks, only enqueues them.
type noopHandler struct{}

func (noopHandler) HandleTask(context.Context, *queue.Task) error { return nil }

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
	log.Info().Msg("starting API server")

	ctx := context.Background()
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	log.Info().Msg("database connection established")

	enqueuer, _, dlq, err := queue.NewQueue(cfg.Queue, noopHandler{}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue")
	}

	components, err := bootstrap.Build(cfg, db, enqueuer, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build dispatch engine")
	}

	keys := make([]auth.APIKey, 0, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		keys = append(keys, auth.APIKey{Name: k.Name, Hash: k.Hash})
	}
	if len(keys) == 0 {
		log.Warn().Msg("no API keys configured; all authenticated endpoints will reject requests")
	}
	verifier := auth.NewVerifier(keys)

	router := api.NewRouter(api.RouterDeps{
		DB:          db,
		Records:     components.Records,
		Preferences: components.Preferences,
		Sender:      components.Engine,
		DLQ:         dlq,
		Tokens:      components.Tokens,
		Verifier:    verifier,
	}, log)

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("API server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	metricsAddr := fmt.Sprintf(":%d", cfg.API.MetricsPort)
	metricsSrv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("addr", metricsAddr).Msg("metrics endpoint listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server shutdown error")
	}

	log.Info().Msg("server stopped")
}
