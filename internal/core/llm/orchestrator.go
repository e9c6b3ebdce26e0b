package llm

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/config"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

// ResultParser turns a raw provider response into a structured result.
type ResultParser interface {
	ParseResponse(raw string) (*domain.AnalysisResult, error)
}

// PromptSink persists the last prompt sent to a provider, for debugging.
type PromptSink interface {
	SavePrompt(prompt string) error
}

// Attempt status label values.
const (
	attemptStatusSuccess    = "success"
	attemptStatusError      = "error"
	attemptStatusParseError = "parse_error"
)

// Orchestrator runs one analysis across the configured providers with
// per-provider retry and cross-provider fallback. It never returns an
// error: when everything fails the caller gets a degraded result.
type Orchestrator struct {
	cfg       *config.Config
	providers []Provider
	parser    ResultParser
	sink      PromptSink
	logger    *zerolog.Logger

	rng   *rand.Rand
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

type OrchestratorOption func(*Orchestrator)

// WithRand overrides the randomness source used for provider ordering and
// retry jitter, for tests.
func WithRand(rng *rand.Rand) OrchestratorOption {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithSleep overrides the retry delay function, for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) OrchestratorOption {
	return func(o *Orchestrator) { o.sleep = sleep }
}

// WithNow overrides the clock, for tests.
func WithNow(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator over the given providers.
func NewOrchestrator(cfg *config.Config, providers []Provider, parser ResultParser, sink PromptSink, logger *zerolog.Logger, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		providers: providers,
		parser:    parser,
		sink:      sink,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter, not crypto
		sleep:     sleepContext,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Analyze builds the analysis prompt for the candidate events and runs it
// against providers until one returns a parseable result. A response that
// cannot be parsed counts as a provider failure and triggers fallback.
func (o *Orchestrator) Analyze(ctx context.Context, events []domain.Event) *domain.AnalysisResult {
	prompt := BuildAnalysisPrompt(events, o.cfg.TargetRiskCount)

	order := o.providerOrder()
	if len(order) == 0 {
		o.logger.Error().Msg("no AI providers available")
		observability.DegradedCycles.Inc()

		return domain.DegradedResult(o.now())
	}

	var first ProviderName

	for i, p := range order {
		if i == 0 {
			first = p.Name()
		}

		raw, err := o.callWithRetry(ctx, p, prompt)
		if err != nil {
			o.logger.Warn().Err(err).
				Str("provider", string(p.Name())).
				Msg("provider failed, trying fallback")

			continue
		}

		res, err := o.parser.ParseResponse(raw)
		if err != nil {
			observability.ProviderAttempts.WithLabelValues(string(p.Name()), attemptStatusParseError).Inc()
			o.logger.Warn().Err(err).
				Str("provider", string(p.Name())).
				Msg("response unparseable, trying fallback")

			continue
		}

		res.Provider = string(p.Name())

		if i > 0 {
			observability.ProviderFallbacks.WithLabelValues(string(first), string(p.Name())).Inc()
			o.logger.Info().
				Str("from_provider", string(first)).
				Str("provider", string(p.Name())).
				Msg("used fallback AI provider")
		}

		return res
	}

	o.logger.Error().Int("providers", len(order)).Msg("all AI providers failed")
	observability.DegradedCycles.Inc()

	return domain.DegradedResult(o.now())
}

// ProviderOrderPriority selects fixed priority ordering instead of the
// default per-cycle shuffle.
const ProviderOrderPriority = "priority"

// providerOrder returns the providers to try. A forced provider short
// circuits everything else. The default order is a per-cycle shuffle so
// load and quota spread across providers over time; PROVIDER_ORDER=priority
// pins the fixed Priority() ranking instead.
func (o *Orchestrator) providerOrder() []Provider {
	if forced := o.cfg.ForceProvider; forced != "" {
		for _, p := range o.providers {
			if string(p.Name()) == forced && p.IsAvailable() {
				return []Provider{p}
			}
		}

		o.logger.Warn().Str("provider", forced).Msg("forced provider not available")

		return nil
	}

	available := make([]Provider, 0, len(o.providers))

	for _, p := range o.providers {
		if p.IsAvailable() {
			available = append(available, p)
		}
	}

	if o.cfg.ProviderOrder == ProviderOrderPriority {
		sort.SliceStable(available, func(i, j int) bool {
			return available[i].Priority() > available[j].Priority()
		})

		return available
	}

	o.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})

	return available
}

// callWithRetry runs the prompt against one provider with bounded retry and
// jittered delay. Missing credentials fail immediately.
func (o *Orchestrator) callWithRetry(ctx context.Context, p Provider, prompt string) (string, error) {
	attempts := o.cfg.ProviderAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		o.savePrompt(prompt)

		raw, err := p.Analyze(ctx, prompt, "")
		if err == nil {
			observability.ProviderAttempts.WithLabelValues(string(p.Name()), attemptStatusSuccess).Inc()

			return raw, nil
		}

		observability.ProviderAttempts.WithLabelValues(string(p.Name()), attemptStatusError).Inc()

		lastErr = err

		if errors.Is(err, ErrNotConfigured) {
			break
		}

		if attempt+1 < attempts {
			o.sleep(ctx, o.retryDelay(attempt))
		}
	}

	return "", lastErr
}

// savePrompt persists the prompt best-effort; failures are logged and do
// not affect the call.
func (o *Orchestrator) savePrompt(prompt string) {
	if o.sink == nil {
		return
	}

	if err := o.sink.SavePrompt(prompt); err != nil {
		o.logger.Warn().Err(err).Msg("failed to save prompt")
	}
}

// retryDelay returns the base delay plus up to one extra base of jitter,
// scaled by the attempt number.
func (o *Orchestrator) retryDelay(attempt int) time.Duration {
	base := o.cfg.RetryBaseDelay
	if base <= 0 {
		base = time.Second
	}

	jitter := time.Duration(o.rng.Int63n(int64(base)))

	return time.Duration(attempt+1)*base + jitter
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
