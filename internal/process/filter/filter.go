// Package filter applies relevance and freshness checks to collected events.
package filter

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
)

// Filter keeps events that match the configured keyword vocabulary and fall
// inside the per-channel age window. Events from trusted collectors bypass
// the keyword check but not the age check.
type Filter struct {
	keywords []string
	now      func() time.Time
	logger   *zerolog.Logger
}

// Option customizes a Filter.
type Option func(*Filter)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(f *Filter) {
		f.now = now
	}
}

// New creates a filter over the given lowercase keyword vocabulary.
func New(keywords []string, logger *zerolog.Logger, opts ...Option) *Filter {
	f := &Filter{
		keywords: keywords,
		now:      time.Now,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Apply returns the events that pass relevance, freshness and link-format
// checks. Rejections are not errors; counts are logged at debug level.
func (f *Filter) Apply(events []domain.Event, maxAge time.Duration, trusted bool) []domain.Event {
	kept := make([]domain.Event, 0, len(events))

	var rejectedAge, rejectedKeyword, rejectedLink int

	for _, e := range events {
		if !f.fresh(e, maxAge) {
			rejectedAge++
			continue
		}

		if !e.HasValidLink() {
			rejectedLink++
			continue
		}

		if !trusted && !f.relevant(e) {
			rejectedKeyword++
			continue
		}

		kept = append(kept, e)
	}

	if rejectedAge+rejectedKeyword+rejectedLink > 0 {
		f.logger.Debug().
			Int("kept", len(kept)).
			Int("rejected_age", rejectedAge).
			Int("rejected_keyword", rejectedKeyword).
			Int("rejected_link", rejectedLink).
			Msg("relevance filter applied")
	}

	return kept
}

// fresh reports whether the event's published date is present and inside
// the age window. Events with a zero date are rejected: an unparsable date
// fails closed.
func (f *Filter) fresh(e domain.Event, maxAge time.Duration) bool {
	if e.PublishedAt.IsZero() {
		return false
	}

	age := f.now().Sub(e.PublishedAt)

	return age >= 0 && age <= maxAge
}

// relevant reports whether the event's title or description contains at
// least one configured keyword.
func (f *Filter) relevant(e domain.Event) bool {
	haystack := strings.ToLower(e.Title + " " + e.Description)

	for _, k := range f.keywords {
		if strings.Contains(haystack, k) {
			return true
		}
	}

	return false
}
