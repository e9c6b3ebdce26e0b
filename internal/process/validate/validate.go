// Package validate checks risk citations: malformed URLs are removed
// synchronously, then the remaining URLs are probed for reachability with a
// bounded worker pool. A risk survives as long as one source remains.
package validate

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

// Outcome label values.
const (
	outcomeReachable   = "reachable"
	outcomeUnreachable = "unreachable"
	outcomeMalformed   = "malformed"
)

type Validator struct {
	enabled     bool
	concurrency int
	timeout     time.Duration
	maxURLs     int
	httpClient  *http.Client
	logger      *zerolog.Logger
}

type Config struct {
	Enabled     bool
	Concurrency int
	Timeout     time.Duration
	MaxURLs     int
}

type Option func(*Validator)

// WithHTTPClient overrides the probe client, for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(v *Validator) { v.httpClient = client }
}

func New(cfg Config, logger *zerolog.Logger, opts ...Option) *Validator {
	v := &Validator{
		enabled:     cfg.Enabled,
		concurrency: cfg.Concurrency,
		timeout:     cfg.Timeout,
		maxURLs:     cfg.MaxURLs,
		logger:      logger,
	}

	if v.concurrency <= 0 {
		v.concurrency = 10
	}

	if v.timeout <= 0 {
		v.timeout = 5 * time.Second
	}

	if v.httpClient == nil {
		v.httpClient = &http.Client{Timeout: v.timeout}
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Apply filters the sources of every risk in place and returns the risks
// that still have at least one valid source. Format checking always runs;
// reachability probing is skipped when disabled or when the URL count
// exceeds the configured ceiling.
func (v *Validator) Apply(ctx context.Context, risks []domain.Risk) []domain.Risk {
	risks = v.dropMalformed(risks)

	total := countSources(risks)
	if !v.enabled {
		return risks
	}

	if v.maxURLs > 0 && total > v.maxURLs {
		v.logger.Info().
			Int("urls", total).
			Int("max", v.maxURLs).
			Msg("skipping reachability checks, too many urls")

		return risks
	}

	reachable := v.probeAll(ctx, risks)

	kept := risks[:0]

	for _, r := range risks {
		srcs := r.Sources[:0]

		for _, s := range r.Sources {
			if reachable[s.URL] {
				srcs = append(srcs, s)
			}
		}

		r.Sources = srcs

		if len(r.Sources) == 0 {
			observability.RisksDropped.Inc()
			v.logger.Warn().Str("risk", r.Name).Msg("risk dropped, no reachable sources")

			continue
		}

		kept = append(kept, r)
	}

	return kept
}

// dropMalformed removes sources whose URL is not absolute http(s) and the
// risks left without any source.
func (v *Validator) dropMalformed(risks []domain.Risk) []domain.Risk {
	kept := risks[:0]

	for _, r := range risks {
		srcs := r.Sources[:0]

		for _, s := range r.Sources {
			if !domain.IsHTTPURL(s.URL) {
				observability.SourcesValidated.WithLabelValues(outcomeMalformed).Inc()
				continue
			}

			srcs = append(srcs, s)
		}

		r.Sources = srcs

		if len(r.Sources) == 0 {
			observability.RisksDropped.Inc()
			v.logger.Warn().Str("risk", r.Name).Msg("risk dropped, no well-formed sources")

			continue
		}

		kept = append(kept, r)
	}

	return kept
}

// probeAll checks every distinct URL with a fixed worker pool and reports
// which ones answered.
func (v *Validator) probeAll(ctx context.Context, risks []domain.Risk) map[string]bool {
	urls := make([]string, 0, countSources(risks))
	seen := make(map[string]bool)

	for _, r := range risks {
		for _, s := range r.Sources {
			if !seen[s.URL] {
				seen[s.URL] = true
				urls = append(urls, s.URL)
			}
		}
	}

	var mu sync.Mutex

	reachable := make(map[string]bool, len(urls))

	jobs := make(chan string)

	var wg sync.WaitGroup

	for i := 0; i < v.concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for u := range jobs {
				ok := v.probe(ctx, u)

				outcome := outcomeUnreachable
				if ok {
					outcome = outcomeReachable
				}

				observability.SourcesValidated.WithLabelValues(outcome).Inc()

				mu.Lock()
				reachable[u] = ok
				mu.Unlock()
			}
		}()
	}

	for _, u := range urls {
		jobs <- u
	}

	close(jobs)
	wg.Wait()

	return reachable
}

// probe checks one URL with HEAD, falling back to GET when the server does
// not allow HEAD. Any 2xx or 3xx status counts as reachable.
func (v *Validator) probe(ctx context.Context, url string) bool {
	status, err := v.request(ctx, http.MethodHead, url)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = v.request(ctx, http.MethodGet, url)
	}

	if err != nil {
		v.logger.Debug().Err(err).Str("url", url).Msg("source unreachable")
		return false
	}

	return status >= http.StatusOK && status < http.StatusBadRequest
}

func (v *Validator) request(ctx context.Context, method, url string) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, err
	}

	defer resp.Body.Close()

	return resp.StatusCode, nil
}

func countSources(risks []domain.Risk) int {
	n := 0
	for _, r := range risks {
		n += len(r.Sources)
	}

	return n
}
