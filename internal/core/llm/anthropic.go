package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/riskfeed/georisk/internal/platform/config"
)

const (
	defaultAnthropicModel = "claude-haiku-4.5"

	anthropicRateLimiterBurst = 5
	anthropicMaxTokens        = 4096

	contentTypeText = "text"
)

// anthropicProvider implements the Provider interface for Anthropic Claude.
type anthropicProvider struct {
	cfg         *config.Config
	client      anthropic.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg *config.Config, logger *zerolog.Logger) Provider {
	return &anthropicProvider{
		cfg:         cfg,
		client:      anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond(cfg)), anthropicRateLimiterBurst),
	}
}

func (p *anthropicProvider) Name() ProviderName {
	return ProviderAnthropic
}

func (p *anthropicProvider) IsAvailable() bool {
	return p.cfg.AnthropicAPIKey != ""
}

func (p *anthropicProvider) Priority() int {
	return PriorityFallback
}

func (p *anthropicProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}

	if p.cfg.AnthropicModel != "" {
		return p.cfg.AnthropicModel
	}

	return defaultAnthropicModel
}

// Analyze sends the prompt as a single user message and returns the
// concatenated text blocks of the response.
func (p *anthropicProvider) Analyze(ctx context.Context, prompt, model string) (string, error) {
	if !p.IsAvailable() {
		return "", ErrNotConfigured
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.resolveModel(model)),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic message: %w", err)
	}

	text := strings.TrimSpace(extractAnthropicText(resp))
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// extractAnthropicText extracts text content from an Anthropic response.
func extractAnthropicText(resp *anthropic.Message) string {
	var result strings.Builder

	for _, block := range resp.Content {
		if block.Type == contentTypeText {
			result.WriteString(block.Text)
		}
	}

	return result.String()
}
