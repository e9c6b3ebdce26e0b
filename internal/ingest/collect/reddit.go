package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

const (
	redditBaseURL        = "https://www.reddit.com"
	redditDefaultTimeout = 30 * time.Second
	redditDefaultRPM     = 30
	redditListingLimit   = 25
	redditUserAgent      = "georisk/1.0 (geopolitical risk monitor)"
)

// RedditCollector pulls top posts from curated subreddits via the public
// JSON listing endpoint (channel "social").
type RedditCollector struct {
	baseURL     string
	subreddits  []string
	perCap      int
	maxAge      time.Duration
	itemDelay   time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// RedditConfig configures the Reddit collector.
type RedditConfig struct {
	Subreddits   []string
	PerSourceCap int
	MaxAge       time.Duration
	ItemDelay    time.Duration
	Timeout      time.Duration
}

// NewRedditCollector creates a Reddit collector.
func NewRedditCollector(cfg RedditConfig, logger *zerolog.Logger) *RedditCollector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = redditDefaultTimeout
	}

	perCap := cfg.PerSourceCap
	if perCap <= 0 {
		perCap = 20
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 48 * time.Hour
	}

	return &RedditCollector{
		baseURL:    redditBaseURL,
		subreddits: cfg.Subreddits,
		perCap:     perCap,
		maxAge:     maxAge,
		itemDelay:  cfg.ItemDelay,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(redditDefaultRPM)/secondsPerMinute), 1),
		logger:      logger,
	}
}

func (c *RedditCollector) Name() string { return "reddit" }

func (c *RedditCollector) Channel() domain.RetrievalChannel { return domain.ChannelSocial }

func (c *RedditCollector) Trusted() bool { return false }

func (c *RedditCollector) MaxAge() time.Duration { return c.maxAge }

// Collect fetches each subreddit listing in turn. Per-subreddit failures
// are logged and skipped.
func (c *RedditCollector) Collect(ctx context.Context) []domain.Event {
	var events []domain.Event

	for i, sub := range c.subreddits {
		if i > 0 {
			sleepBetweenItems(ctx, c.itemDelay)
		}

		subEvents, err := c.fetchSubreddit(ctx, sub)
		if err != nil {
			observability.CollectorFailures.WithLabelValues(c.Name()).Inc()
			c.logger.Warn().Err(err).Str("subreddit", sub).Msg("reddit fetch failed")

			continue
		}

		events = append(events, subEvents...)
	}

	return events
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
	Subreddit  string  `json:"subreddit"`
	Stickied   bool    `json:"stickied"`
}

func (c *RedditCollector) fetchSubreddit(ctx context.Context, sub string) ([]domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("reddit rate limit: %w", err)
	}

	listingURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", c.baseURL, sub, redditListingLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create reddit request: %w", err)
	}

	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read reddit response: %w", err)
	}

	return c.parseListing(body)
}

func (c *RedditCollector) parseListing(body []byte) ([]domain.Event, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("parse reddit json: %w", err)
	}

	events := make([]domain.Event, 0, len(listing.Data.Children))

	for _, child := range listing.Data.Children {
		if len(events) >= c.perCap {
			break
		}

		post := child.Data
		if post.Stickied || post.Title == "" {
			continue
		}

		link := post.URL
		if !domain.IsHTTPURL(link) && post.Permalink != "" {
			link = redditBaseURL + post.Permalink
		}

		var published time.Time
		if post.CreatedUTC > 0 {
			published = time.Unix(int64(post.CreatedUTC), 0).UTC()
		}

		events = append(events, domain.Event{
			Title:       htmlutils.StripTags(post.Title),
			Description: htmlutils.Truncate(htmlutils.StripTags(post.SelfText), descriptionMax),
			Link:        link,
			PublishedAt: published,
			Source:      "r/" + post.Subreddit,
		})
	}

	return events, nil
}
