// Package llm holds the AI provider implementations and the orchestrator
// that runs an analysis request against them with retry and fallback.
package llm

import (
	"context"
	"errors"
)

// ProviderName identifies an AI provider.
type ProviderName string

// Provider name constants.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderMock      ProviderName = "mock"
)

// Priority constants for provider ordering.
const (
	PriorityPrimary  = 100
	PriorityFallback = 50
	PriorityLast     = 25
	PriorityMock     = 0
)

// Provider errors.
var (
	// ErrNotConfigured means the provider has no API key. It is never
	// retried.
	ErrNotConfigured = errors.New("provider not configured")

	// ErrEmptyResponse means the call succeeded but carried no text.
	ErrEmptyResponse = errors.New("provider returned empty response")
)

// Provider is a single AI backend able to run one analysis prompt.
type Provider interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// IsAvailable returns true if the provider is configured.
	IsAvailable() bool

	// Priority returns the provider priority (higher = preferred).
	Priority() int

	// Analyze sends the prompt and returns the raw response text. An
	// empty model selects the provider default.
	Analyze(ctx context.Context, prompt, model string) (string, error)
}
