// Package config loads pipeline configuration from environment variables,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the analysis pipeline.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Collectors
	FeedURLs        []string      `env:"FEED_URLS" envSeparator:","`
	AnalystFeedURLs []string      `env:"ANALYST_FEED_URLS" envSeparator:","`
	Keywords        []string      `env:"RELEVANCE_KEYWORDS" envSeparator:","`
	MaxEventAge     time.Duration `env:"MAX_EVENT_AGE" envDefault:"48h"`
	AnalystMaxAge   time.Duration `env:"ANALYST_MAX_AGE" envDefault:"168h"`
	PerSourceCap    int           `env:"PER_SOURCE_CAP" envDefault:"20"`
	InterItemDelay  time.Duration `env:"INTER_ITEM_DELAY" envDefault:"200ms"`

	// NewsAPI collector
	NewsAPIKey            string        `env:"NEWSAPI_KEY"`
	NewsAPIRequestsPerMin int           `env:"NEWSAPI_RPM" envDefault:"1"`
	NewsAPITimeout        time.Duration `env:"NEWSAPI_TIMEOUT" envDefault:"30s"`

	// GDELT collector
	GDELTEnabled        bool          `env:"GDELT_ENABLED" envDefault:"true"`
	GDELTRequestsPerMin int           `env:"GDELT_RPM" envDefault:"60"`
	GDELTTimeout        time.Duration `env:"GDELT_TIMEOUT" envDefault:"30s"`

	// Reddit collector
	RedditEnabled bool     `env:"REDDIT_ENABLED" envDefault:"false"`
	Subreddits    []string `env:"SUBREDDITS" envSeparator:"," envDefault:"geopolitics,worldnews"`

	// Deduplication / ranking
	SimilarityThreshold float64 `env:"SIMILARITY_THRESHOLD" envDefault:"0.65"`
	GlobalCandidateCap  int     `env:"GLOBAL_CANDIDATE_CAP" envDefault:"50"`

	// AI providers
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey  string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel   string        `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4.5"`
	GoogleAPIKey     string        `env:"GOOGLE_API_KEY"`
	GoogleModel      string        `env:"GOOGLE_MODEL" envDefault:"gemini-2.5-flash-lite"`
	ForceProvider    string        `env:"FORCE_PROVIDER"`
	ProviderOrder    string        `env:"PROVIDER_ORDER" envDefault:"shuffle"`
	ProviderAttempts int           `env:"PROVIDER_ATTEMPTS" envDefault:"2"`
	RetryBaseDelay   time.Duration `env:"RETRY_BASE_DELAY" envDefault:"2s"`
	RateLimitRPS     int           `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Report shape
	TargetRiskCount int `env:"TARGET_RISK_COUNT" envDefault:"6"`
	GlobalMaxChars  int `env:"GLOBAL_MAX_CHARS" envDefault:"600"`

	// Source validation
	SourceValidationEnabled bool          `env:"SOURCE_VALIDATION_ENABLED" envDefault:"true"`
	ValidationConcurrency   int           `env:"VALIDATION_CONCURRENCY" envDefault:"10"`
	ValidationTimeout       time.Duration `env:"VALIDATION_TIMEOUT" envDefault:"5s"`
	ValidationMaxURLs       int           `env:"VALIDATION_MAX_URLS" envDefault:"50"`

	// Persistence
	ArtifactDir string `env:"ARTIFACT_DIR" envDefault:"./data"`
	PostgresDSN string `env:"POSTGRES_DSN"`

	// Service
	CycleInterval time.Duration `env:"CYCLE_INTERVAL" envDefault:"1h"`
	HealthPort    int           `env:"HEALTH_PORT" envDefault:"8080"`
}

// defaultKeywords is the geopolitical/trade/conflict vocabulary used for
// relevance filtering when RELEVANCE_KEYWORDS is not set.
var defaultKeywords = []string{
	"geopolit", "sanction", "tariff", "trade war", "embargo", "conflict",
	"military", "missile", "invasion", "ceasefire", "escalation", "nato",
	"opec", "oil price", "energy security", "supply chain", "blockade",
	"coup", "election", "diplomatic", "treaty", "nuclear", "cyberattack",
	"strait", "shipping", "export control", "semiconductor", "central bank",
	"currency", "default", "unrest", "protest", "refugee", "annex",
}

// Load parses the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if len(cfg.Keywords) == 0 {
		cfg.Keywords = append([]string(nil), defaultKeywords...)
	}

	normalizeKeywords(cfg)

	return cfg, nil
}

// HasAnyProviderKey reports whether at least one AI provider credential is
// configured.
func (c *Config) HasAnyProviderKey() bool {
	return c.OpenAIAPIKey != "" || c.AnthropicAPIKey != "" || c.GoogleAPIKey != ""
}

func normalizeKeywords(cfg *Config) {
	cleaned := cfg.Keywords[:0]

	for _, k := range cfg.Keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}

	cfg.Keywords = cleaned
}
