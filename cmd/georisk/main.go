package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/app"
	"github.com/riskfeed/georisk/internal/platform/config"
	"github.com/riskfeed/georisk/internal/platform/observability"
	"github.com/riskfeed/georisk/internal/platform/worker"
	"github.com/riskfeed/georisk/internal/storage"
)

func main() {
	mode := flag.String("mode", "serve", "run mode: serve (periodic cycles) or analyze (single cycle)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.AppEnv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	store, err := storage.NewFileStore(cfg.ArtifactDir, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create artifact store")
	}

	var history *storage.HistoryStore

	if cfg.PostgresDSN != "" {
		history, err = storage.NewHistoryStore(ctx, cfg.PostgresDSN, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to history database")
		}

		defer history.Close()

		if err = history.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	a, err := app.New(ctx, cfg, store, history, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to assemble pipeline")
	}

	switch *mode {
	case "analyze":
		if err = a.RunCycle(ctx); err != nil {
			logger.Fatal().Err(err).Msg("analysis cycle failed")
		}
	case "serve":
		runServe(ctx, cfg, a, store, &logger)
	default:
		logger.Fatal().Str("mode", *mode).Msg("unknown mode")
	}

	logger.Info().Msg("stopped")
}

// runServe runs the periodic cycle loop with the health/metrics server.
func runServe(ctx context.Context, cfg *config.Config, a *app.App, store *storage.FileStore, logger *zerolog.Logger) {
	health := observability.NewServer(store, cfg.HealthPort, logger)

	go func() {
		logger.Info().Int("port", cfg.HealthPort).Msg("starting health server")

		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("health server error")
		}
	}()

	err := worker.Run(ctx, worker.Config{
		Name:       "analysis",
		Interval:   cfg.CycleInterval,
		RunOnStart: true,
		Logger:     logger,
		OnTick: func(ctx context.Context) {
			if err := a.RunCycle(ctx); err != nil {
				logger.Error().Err(err).Msg("analysis cycle failed")
			}
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("cycle loop error")
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
