package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/riskfeed/georisk/internal/platform/config"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"

	openaiRateLimiterBurst = 5
)

// openaiProvider implements the Provider interface for OpenAI.
type openaiProvider struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg *config.Config, logger *zerolog.Logger) Provider {
	return &openaiProvider{
		cfg:         cfg,
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond(cfg)), openaiRateLimiterBurst),
	}
}

func (p *openaiProvider) Name() ProviderName {
	return ProviderOpenAI
}

func (p *openaiProvider) IsAvailable() bool {
	return p.cfg.OpenAIAPIKey != ""
}

func (p *openaiProvider) Priority() int {
	return PriorityPrimary
}

func (p *openaiProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}

	if p.cfg.OpenAIModel != "" {
		return p.cfg.OpenAIModel
	}

	return defaultOpenAIModel
}

// Analyze sends the prompt as a single user message and returns the text of
// the first choice.
func (p *openaiProvider) Analyze(ctx context.Context, prompt, model string) (string, error) {
	if !p.IsAvailable() {
		return "", ErrNotConfigured
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resolvedModel := p.resolveModel(model)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: resolvedModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// ratePerSecond resolves the shared request rate, defaulting to 1 rps.
func ratePerSecond(cfg *config.Config) float64 {
	if cfg.RateLimitRPS <= 0 {
		return 1
	}

	return float64(cfg.RateLimitRPS)
}
