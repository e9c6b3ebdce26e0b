package collect

import (
	"context"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

const (
	defaultFeedTimeout = 30 * time.Second
	descriptionMax     = 500
)

// FeedCollector fetches RSS/Atom feeds with gofeed.
type FeedCollector struct {
	name       string
	channel    domain.RetrievalChannel
	trusted    bool
	maxAge     time.Duration
	urls       []string
	perFeedCap int
	itemDelay  time.Duration
	parser     *gofeed.Parser
	logger     *zerolog.Logger
}

// FeedConfig configures a feed collector.
type FeedConfig struct {
	Name       string
	Channel    domain.RetrievalChannel
	Trusted    bool
	MaxAge     time.Duration
	URLs       []string
	PerFeedCap int
	ItemDelay  time.Duration
}

// NewFeedCollector creates a collector over general news feeds
// (channel "feed", 48h window by default).
func NewFeedCollector(cfg FeedConfig, logger *zerolog.Logger) *FeedCollector {
	parser := gofeed.NewParser()

	if cfg.Channel == "" {
		cfg.Channel = domain.ChannelFeed
	}

	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 48 * time.Hour
	}

	if cfg.PerFeedCap <= 0 {
		cfg.PerFeedCap = 20
	}

	return &FeedCollector{
		name:       cfg.Name,
		channel:    cfg.Channel,
		trusted:    cfg.Trusted,
		maxAge:     cfg.MaxAge,
		urls:       cfg.URLs,
		perFeedCap: cfg.PerFeedCap,
		itemDelay:  cfg.ItemDelay,
		parser:     parser,
		logger:     logger,
	}
}

// NewAnalystCollector creates a collector over curated analyst feeds.
// Analyst feeds are implicitly trusted and update slowly, so maxAge is
// expected to be a relaxed window (seven days when non-positive).
func NewAnalystCollector(urls []string, maxAge, itemDelay time.Duration, logger *zerolog.Logger) *FeedCollector {
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}

	return NewFeedCollector(FeedConfig{
		Name:      "analyst",
		Channel:   domain.ChannelAnalysis,
		Trusted:   true,
		MaxAge:    maxAge,
		URLs:      urls,
		ItemDelay: itemDelay,
	}, logger)
}

func (c *FeedCollector) Name() string { return c.name }

func (c *FeedCollector) Channel() domain.RetrievalChannel { return c.channel }

func (c *FeedCollector) Trusted() bool { return c.trusted }

func (c *FeedCollector) MaxAge() time.Duration { return c.maxAge }

// Collect parses every configured feed, pacing item handling with a small
// fixed delay between feeds.
func (c *FeedCollector) Collect(ctx context.Context) []domain.Event {
	var events []domain.Event

	for i, feedURL := range c.urls {
		if i > 0 {
			sleepBetweenItems(ctx, c.itemDelay)
		}

		fetchCtx, cancel := context.WithTimeout(ctx, defaultFeedTimeout)
		feed, err := c.parser.ParseURLWithContext(feedURL, fetchCtx)

		cancel()

		if err != nil {
			observability.CollectorFailures.WithLabelValues(c.name).Inc()
			c.logger.Warn().Err(err).Str("feed", feedURL).Msg("feed fetch failed")

			continue
		}

		events = append(events, c.normalizeFeed(feed)...)
	}

	return events
}

// normalizeFeed converts feed items into events, applying the per-feed cap.
func (c *FeedCollector) normalizeFeed(feed *gofeed.Feed) []domain.Event {
	source := strings.TrimSpace(feed.Title)
	if source == "" {
		source = c.name
	}

	events := make([]domain.Event, 0, c.perFeedCap)

	for _, item := range feed.Items {
		if len(events) >= c.perFeedCap {
			break
		}

		e, ok := normalizeFeedItem(item, source)
		if !ok {
			continue
		}

		events = append(events, e)
	}

	return events
}

// normalizeFeedItem maps one gofeed item onto the canonical Event record.
// Items without a title are skipped; items without a parsable date carry a
// zero time and get rejected downstream by the freshness check.
func normalizeFeedItem(item *gofeed.Item, source string) (domain.Event, bool) {
	title := htmlutils.StripTags(item.Title)
	if title == "" {
		return domain.Event{}, false
	}

	published := time.Time{}

	switch {
	case item.PublishedParsed != nil:
		published = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		published = *item.UpdatedParsed
	case item.Published != "":
		if t, err := dateparse.ParseAny(item.Published); err == nil {
			published = t
		}
	}

	return domain.Event{
		Title:       title,
		Description: htmlutils.Truncate(htmlutils.StripTags(item.Description), descriptionMax),
		Link:        strings.TrimSpace(item.Link),
		PublishedAt: published,
		Source:      source,
	}, true
}
