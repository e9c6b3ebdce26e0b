// Package app wires the pipeline stages together and runs analysis cycles.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/core/llm"
	"github.com/riskfeed/georisk/internal/ingest/collect"
	"github.com/riskfeed/georisk/internal/platform/config"
	"github.com/riskfeed/georisk/internal/platform/observability"
	"github.com/riskfeed/georisk/internal/process/assemble"
	"github.com/riskfeed/georisk/internal/process/dedup"
	"github.com/riskfeed/georisk/internal/process/filter"
	"github.com/riskfeed/georisk/internal/process/parse"
	"github.com/riskfeed/georisk/internal/process/validate"
	"github.com/riskfeed/georisk/internal/storage"
)

// App owns the assembled pipeline. One call to RunCycle performs a full
// collect-analyze-publish pass.
type App struct {
	cfg          *config.Config
	runner       *collect.Runner
	dedup        *dedup.Deduplicator
	orchestrator *llm.Orchestrator
	validator    *validate.Validator
	assembler    *assemble.Assembler
	history      *storage.HistoryStore
	logger       *zerolog.Logger
}

// parserAdapter bridges the cascade parser into the orchestrator, dropping
// the strategy tag the orchestrator does not care about.
type parserAdapter struct {
	parser *parse.Parser
}

func (a parserAdapter) ParseResponse(raw string) (*domain.AnalysisResult, error) {
	res, _, err := a.parser.Parse(raw)
	return res, err
}

// New assembles the pipeline. The history store may be nil.
func New(ctx context.Context, cfg *config.Config, store *storage.FileStore, history *storage.HistoryStore, logger *zerolog.Logger) (*App, error) {
	relevance := filter.New(cfg.Keywords, logger)

	runner := collect.NewRunner(buildCollectors(cfg, logger), relevance, logger)

	providers, err := buildProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	orchestrator := llm.NewOrchestrator(
		cfg,
		providers,
		parserAdapter{parser: parse.New(logger)},
		storage.NewPromptFile(cfg.ArtifactDir),
		logger,
	)

	validator := validate.New(validate.Config{
		Enabled:     cfg.SourceValidationEnabled,
		Concurrency: cfg.ValidationConcurrency,
		Timeout:     cfg.ValidationTimeout,
		MaxURLs:     cfg.ValidationMaxURLs,
	}, logger)

	return &App{
		cfg:          cfg,
		runner:       runner,
		dedup:        dedup.New(cfg.SimilarityThreshold, cfg.GlobalCandidateCap, logger),
		orchestrator: orchestrator,
		validator:    validator,
		assembler:    assemble.New(cfg.TargetRiskCount, cfg.GlobalMaxChars, store, logger),
		history:      history,
		logger:       logger,
	}, nil
}

// buildCollectors instantiates the collectors enabled by configuration.
func buildCollectors(cfg *config.Config, logger *zerolog.Logger) []collect.Collector {
	var collectors []collect.Collector

	if len(cfg.FeedURLs) > 0 {
		collectors = append(collectors, collect.NewFeedCollector(collect.FeedConfig{
			Name:       "feeds",
			Channel:    domain.ChannelFeed,
			MaxAge:     cfg.MaxEventAge,
			URLs:       cfg.FeedURLs,
			PerFeedCap: cfg.PerSourceCap,
			ItemDelay:  cfg.InterItemDelay,
		}, logger))
	}

	if len(cfg.AnalystFeedURLs) > 0 {
		collectors = append(collectors, collect.NewAnalystCollector(cfg.AnalystFeedURLs, cfg.AnalystMaxAge, cfg.InterItemDelay, logger))
	}

	if cfg.NewsAPIKey != "" {
		collectors = append(collectors, collect.NewNewsAPICollector(collect.NewsAPIConfig{
			APIKey:         cfg.NewsAPIKey,
			Keywords:       cfg.Keywords,
			PerSourceCap:   cfg.PerSourceCap,
			MaxAge:         cfg.MaxEventAge,
			RequestsPerMin: cfg.NewsAPIRequestsPerMin,
			Timeout:        cfg.NewsAPITimeout,
		}, logger))
	}

	if cfg.GDELTEnabled {
		collectors = append(collectors, collect.NewGDELTCollector(collect.GDELTConfig{
			Keywords:       cfg.Keywords,
			PerSourceCap:   cfg.PerSourceCap,
			MaxAge:         cfg.MaxEventAge,
			RequestsPerMin: cfg.GDELTRequestsPerMin,
			Timeout:        cfg.GDELTTimeout,
		}, logger))
	}

	if cfg.RedditEnabled {
		collectors = append(collectors, collect.NewRedditCollector(collect.RedditConfig{
			Subreddits:   cfg.Subreddits,
			PerSourceCap: cfg.PerSourceCap,
			MaxAge:       cfg.MaxEventAge,
			ItemDelay:    cfg.InterItemDelay,
		}, logger))
	}

	return collectors
}

// buildProviders instantiates the AI providers. When no credential is set
// the mock provider keeps the pipeline runnable.
func buildProviders(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) ([]llm.Provider, error) {
	providers := []llm.Provider{
		llm.NewOpenAIProvider(cfg, logger),
		llm.NewAnthropicProvider(cfg, logger),
	}

	if cfg.GoogleAPIKey != "" {
		google, err := llm.NewGoogleProvider(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("creating google provider: %w", err)
		}

		providers = append(providers, google)
	}

	if !cfg.HasAnyProviderKey() {
		logger.Warn().Msg("no AI provider configured, using mock provider")

		providers = append(providers, llm.NewMockProvider())
	}

	return providers, nil
}

// RunCycle executes one full pipeline pass. Upstream failures degrade the
// result; only publishing the artifact can fail the cycle.
func (a *App) RunCycle(ctx context.Context) error {
	start := time.Now()

	a.logger.Info().Msg("cycle started")

	events := a.runner.Collect(ctx)

	candidates := a.dedup.Merge(events)
	observability.CandidateSetSize.Set(float64(len(candidates)))

	res := a.orchestrator.Analyze(ctx, candidates)

	if res.Status == domain.StatusOK {
		res.Risks = a.validator.Apply(ctx, res.Risks)
	}

	if err := a.assembler.Finalize(res, candidates); err != nil {
		return fmt.Errorf("publishing analysis: %w", err)
	}

	if a.history != nil {
		if err := a.history.Append(ctx, res); err != nil {
			a.logger.Warn().Err(err).Msg("failed to append analysis history")
		}
	}

	observability.CycleDuration.Observe(time.Since(start).Seconds())

	a.logger.Info().
		Int("events", len(events)).
		Int("candidates", len(candidates)).
		Int("risks", len(res.Risks)).
		Int("risk_index", res.RiskIndex).
		Str("status", res.Status).
		Str("provider", res.Provider).
		Dur("duration", time.Since(start)).
		Msg("cycle finished")

	return nil
}
