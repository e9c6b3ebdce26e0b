package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

const (
	newsAPIBaseURL        = "https://newsapi.org/v2/everything"
	newsAPIDefaultTimeout = 30 * time.Second
	newsAPIDefaultRPM     = 1 // Free tier: 100 requests/day, keep the limiter conservative
	newsAPIAuthHeader     = "X-Api-Key"
	newsAPIPageSize       = 50
	newsAPIQueryTerms     = 5

	secondsPerMinute = 60
)

// NewsAPICollector fetches articles from newsapi.org (channel "api").
type NewsAPICollector struct {
	baseURL     string
	apiKey      string
	query       string
	perCap      int
	maxAge      time.Duration
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *zerolog.Logger
}

// NewsAPIConfig configures the NewsAPI collector.
type NewsAPIConfig struct {
	APIKey         string
	Keywords       []string
	PerSourceCap   int
	MaxAge         time.Duration
	RequestsPerMin int
	Timeout        time.Duration
}

// NewNewsAPICollector creates a NewsAPI collector. The search query is
// built from the first few configured keywords joined with OR.
func NewNewsAPICollector(cfg NewsAPIConfig, logger *zerolog.Logger) *NewsAPICollector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = newsAPIDefaultTimeout
	}

	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = newsAPIDefaultRPM
	}

	perCap := cfg.PerSourceCap
	if perCap <= 0 {
		perCap = 20
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 48 * time.Hour
	}

	return &NewsAPICollector{
		baseURL: newsAPIBaseURL,
		apiKey:  cfg.APIKey,
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

func (c *NewsAPICollector) Name() string { return "newsapi" }

func (c *NewsAPICollector) Channel() domain.RetrievalChannel { return domain.ChannelAPI }

func (c *NewsAPICollector) Trusted() bool { return false }

func (c *NewsAPICollector) MaxAge() time.Duration { return c.maxAge }

// Collect queries NewsAPI once per cycle. Any failure yields an empty list.
func (c *NewsAPICollector) Collect(ctx context.Context) []domain.Event {
	if c.apiKey == "" {
		c.logger.Debug().Msg("newsapi key not configured, skipping")
		return nil
	}

	events, err := c.search(ctx)
	if err != nil {
		observability.CollectorFailures.WithLabelValues(c.Name()).Inc()
		c.logger.Warn().Err(err).Msg("newsapi fetch failed")

		return nil
	}

	return events
}

func (c *NewsAPICollector) search(ctx context.Context) ([]domain.Event, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("newsapi rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", c.query)
	params.Set("from", time.Now().Add(-c.maxAge).Format("2006-01-02"))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", newsAPIPageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create newsapi request: %w", err)
	}

	req.Header.Set(newsAPIAuthHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}

	return c.parseResponse(body)
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

func (c *NewsAPICollector) parseResponse(body []byte) ([]domain.Event, error) {
	var resp newsAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse newsapi json: %w", err)
	}

	if resp.Status != "ok" {
		return nil, fmt.Errorf("newsapi api error: %s", resp.Message)
	}

	events := make([]domain.Event, 0, len(resp.Articles))

	for _, a := range resp.Articles {
		if len(events) >= c.perCap {
			break
		}

		title := htmlutils.StripTags(a.Title)
		if title == "" || a.URL == "" {
			continue
		}

		var published time.Time
		if a.PublishedAt != "" {
			if t, err := dateparse.ParseAny(a.PublishedAt); err == nil {
				published = t
			}
		}

		source := strings.TrimSpace(a.Source.Name)
		if source == "" {
			source = "NewsAPI"
		}

		events = append(events, domain.Event{
			Title:       title,
			Description: htmlutils.Truncate(htmlutils.StripTags(a.Description), descriptionMax),
			Link:        a.URL,
			PublishedAt: published,
			Source:      source,
		})
	}

	return events, nil
}

// buildORQuery joins up to max keywords with OR, quoting multi-word terms.
func buildORQuery(keywords []string, maxTerms int) string {
	terms := make([]string, 0, maxTerms)

	for _, k := range keywords {
		if len(terms) >= maxTerms {
			break
		}

		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		if strings.Contains(k, " ") {
			k = `"` + k + `"`
		}

		terms = append(terms, k)
	}

	return strings.Join(terms, " OR ")
}
