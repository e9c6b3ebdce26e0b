package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/riskfeed/georisk/internal/platform/config"
)

const (
	defaultGoogleModel = "gemini-2.5-flash-lite"

	googleRateLimiterBurst = 5
)

// googleProvider implements the Provider interface for Google Gemini.
type googleProvider struct {
	cfg         *config.Config
	client      *genai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (Provider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GoogleAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating google genai client: %w", err)
	}

	return &googleProvider{
		cfg:         cfg,
		client:      client,
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond(cfg)), googleRateLimiterBurst),
	}, nil
}

func (p *googleProvider) Name() ProviderName {
	return ProviderGoogle
}

func (p *googleProvider) IsAvailable() bool {
	return p.cfg.GoogleAPIKey != ""
}

func (p *googleProvider) Priority() int {
	return PriorityLast
}

// Close closes the underlying genai client.
func (p *googleProvider) Close() error {
	if p.client != nil {
		if err := p.client.Close(); err != nil {
			return fmt.Errorf("closing google genai client: %w", err)
		}
	}

	return nil
}

func (p *googleProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}

	if p.cfg.GoogleModel != "" {
		return p.cfg.GoogleModel
	}

	return defaultGoogleModel
}

// Analyze sends the prompt and returns the concatenated text parts of all
// candidates.
func (p *googleProvider) Analyze(ctx context.Context, prompt, model string) (string, error) {
	if !p.IsAvailable() {
		return "", ErrNotConfigured
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	genModel := p.client.GenerativeModel(p.resolveModel(model))

	resp, err := genModel.GenerateContent(ctx, genai.Text(sanitizeUTF8(prompt)))
	if err != nil {
		return "", fmt.Errorf("google genai completion: %w", err)
	}

	text := strings.TrimSpace(extractGoogleText(resp))
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}

// extractGoogleText extracts text content from a Gemini response.
func extractGoogleText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var result strings.Builder

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}

		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				result.WriteString(string(text))
			}
		}
	}

	return result.String()
}

// sanitizeUTF8 removes invalid UTF-8 sequences. The Gemini API rejects
// payloads with invalid bytes, and collected feed content may contain them.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var builder strings.Builder
	builder.Grow(len(s))

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			builder.WriteRune(utf8.RuneError)

			i++
		} else {
			builder.WriteRune(r)

			i += size
		}
	}

	return builder.String()
}
