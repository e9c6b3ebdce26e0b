package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

const (
	gdeltBaseURL        = "https://api.gdeltproject.org/api/v2/doc/doc"
	gdeltDefaultTimeout = 30 * time.Second
	gdeltDefaultRPM     = 60
	gdeltSeenDateLayout = "20060102T150405Z"
	gdeltErrTruncateLen = 200
)

var errGDELTAPIError = errors.New("gdelt api error")

// GDELTCollector queries the GDELT Doc API (channel "search").
type GDELTCollector struct {
	baseURL     string
	query       string
	perCap      int
	maxAge      time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// GDELTConfig configures the GDELT collector.
type GDELTConfig struct {
	Keywords       []string
	PerSourceCap   int
	MaxAge         time.Duration
	RequestsPerMin int
	Timeout        time.Duration
}

// NewGDELTCollector creates a GDELT collector.
func NewGDELTCollector(cfg GDELTConfig, logger *zerolog.Logger) *GDELTCollector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = gdeltDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = gdeltDefaultRPM
	}

	perCap := cfg.PerSourceCap
	if perCap <= 0 {
		perCap = 20
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 48 * time.Hour
	}

	return &GDELTCollector{
		baseURL: gdeltBaseURL,
		query:   buildORQuery(cfg.Keywords, newsAPIQueryTerms),
		perCap:  perCap,
		maxAge:  maxAge,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(rpm)/secondsPerMinute), 1),
		logger:      logger,
	}
}

func (c *GDELTCollector) Name() string { return "gdelt" }

func (c *GDELTCollector) Channel() domain.RetrievalChannel { return domain.ChannelSearch }

func (c *GDELTCollector) Trusted() bool { return false }

func (c *GDELTCollector) MaxAge() time.Duration { return c.maxAge }

// Collect queries GDELT once per cycle. Any failure yields an empty list.
func (c *GDELTCollector) Collect(ctx context.Context) []domain.Event {
	events, err := c.search(ctx)
	if err != nil {
		observability.CollectorFailures.WithLabelValues(c.Name()).Inc()
		c.logger.Warn().Err(err).Msg("gdelt fetch failed")

		return nil
	}

	return events
}

func (c *GDELTCollector) search(ctx context.Context) ([]domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("gdelt rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("query", c.query)
	params.Set("mode", "ArtList")
	params.Set("maxrecords", fmt.Sprintf("%d", c.perCap))
	params.Set("format", "json")
	params.Set("sort", "DateDesc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create gdelt request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gdelt request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gdelt unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gdelt response: %w", err)
	}

	return c.parseResponse(body)
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL       string `json:"url"`
	URLMobile string `json:"url_mobile"`
	Title     string `json:"title"`
	SeenDate  string `json:"seendate"`
	Domain    string `json:"domain"`
}

func (c *GDELTCollector) parseResponse(body []byte) ([]domain.Event, error) {
	// GDELT reports errors as plain text, not JSON.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
		errMsg := string(trimmed)
		if len(errMsg) > gdeltErrTruncateLen {
			errMsg = errMsg[:gdeltErrTruncateLen] + "..."
		}

		return nil, fmt.Errorf("%w: %s", errGDELTAPIError, errMsg)
	}

	var resp gdeltResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse gdelt json: %w", err)
	}

	events := make([]domain.Event, 0, len(resp.Articles))

	for _, a := range resp.Articles {
		if len(events) >= c.perCap {
			break
		}

		link := a.URL
		if link == "" {
			link = a.URLMobile
		}

		title := htmlutils.StripTags(a.Title)
		if title == "" || link == "" {
			continue
		}

		var published time.Time
		if a.SeenDate != "" {
			if t, err := time.Parse(gdeltSeenDateLayout, a.SeenDate); err == nil {
				published = t
			}
		}

		source := a.Domain
		if source == "" {
			source = "GDELT"
		}

		events = append(events, domain.Event{
			Title:       title,
			Link:        link,
			PublishedAt: published,
			Source:      source,
		})
	}

	return events, nil
}
