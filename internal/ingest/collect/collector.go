// Package collect implements the source collectors that fetch heterogeneous
// news signals and normalize them into canonical events.
//
// Collectors never return errors: network and parse failures are logged and
// yield a possibly-empty list. The runner executes collectors sequentially,
// a deliberate choice that throttles load on rate-limited third-party
// endpoints and keeps failures isolated per source.
package collect

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

// Collector fetches events from one channel-specific source.
type Collector interface {
	// Name identifies the collector for logging and metrics.
	Name() string

	// Channel is the retrieval channel tag stamped on collected events.
	Channel() domain.RetrievalChannel

	// Trusted reports whether the source is curated and bypasses the
	// keyword relevance check.
	Trusted() bool

	// MaxAge is the freshness window applied to this collector's events.
	MaxAge() time.Duration

	// Collect fetches and normalizes events. It never returns an error;
	// failures are logged and produce a short or empty result.
	Collect(ctx context.Context) []domain.Event
}

// EventFilter narrows a collector's raw output; implemented by the
// relevance filter.
type EventFilter interface {
	Apply(events []domain.Event, maxAge time.Duration, trusted bool) []domain.Event
}

// Runner executes a set of collectors in order and filters each one's
// output before accumulating.
type Runner struct {
	collectors []Collector
	filter     EventFilter
	logger     *zerolog.Logger
}

// NewRunner creates a Runner over the given collectors.
func NewRunner(collectors []Collector, filter EventFilter, logger *zerolog.Logger) *Runner {
	return &Runner{
		collectors: collectors,
		filter:     filter,
		logger:     logger,
	}
}

// Collect runs every collector sequentially and returns the filtered,
// channel-tagged union of their outputs.
func (r *Runner) Collect(ctx context.Context) []domain.Event {
	var all []domain.Event

	for _, c := range r.collectors {
		if ctx.Err() != nil {
			r.logger.Warn().Msg("collection interrupted")
			break
		}

		raw := c.Collect(ctx)

		for i := range raw {
			raw[i].Channel = c.Channel()
		}

		kept := r.filter.Apply(raw, c.MaxAge(), c.Trusted())

		observability.EventsCollected.WithLabelValues(c.Name()).Add(float64(len(kept)))

		r.logger.Info().
			Str("collector", c.Name()).
			Int("fetched", len(raw)).
			Int("kept", len(kept)).
			Msg("collector finished")

		all = append(all, kept...)
	}

	return all
}

// sleepBetweenItems pauses between item fetches from streaming sources to
// avoid bursty request patterns. It returns early on context cancellation.
func sleepBetweenItems(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
