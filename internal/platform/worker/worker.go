// Package worker runs the periodic analysis loop.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config configures the single-ticker cycle loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Interval between cycle starts.
	Interval time.Duration

	// OnTick runs one cycle. A tick is skipped while a previous cycle is
	// still running: cycles never overlap.
	OnTick func(ctx context.Context)

	// RunOnStart runs OnTick immediately when the loop starts.
	RunOnStart bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Run executes the loop until the context is canceled. It returns the
// wrapped context error on cancellation.
func Run(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str("worker", cfg.Name).Dur("interval", cfg.Interval).Msg("starting cycle loop")

	var running atomic.Bool

	tick := func() {
		if !running.CompareAndSwap(false, true) {
			logger.Warn().Str("worker", cfg.Name).Msg("previous cycle still running, skipping tick")
			return
		}

		defer running.Store(false)

		cfg.OnTick(ctx)
	}

	if cfg.RunOnStart && cfg.OnTick != nil {
		tick()
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str("worker", cfg.Name).Msg("cycle loop stopped")

			return fmt.Errorf("cycle loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			if cfg.OnTick != nil {
				tick()
			}
		}
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
