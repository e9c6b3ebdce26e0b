package llm

import (
	"context"
)

// mockProvider returns a canned analysis. It is registered when no real
// provider has credentials so the pipeline stays exercisable locally.
type mockProvider struct{}

// NewMockProvider creates the mock provider.
func NewMockProvider() Provider {
	return &mockProvider{}
}

func (p *mockProvider) Name() ProviderName {
	return ProviderMock
}

func (p *mockProvider) IsAvailable() bool {
	return true
}

func (p *mockProvider) Priority() int {
	return PriorityMock
}

func (p *mockProvider) Analyze(_ context.Context, _, _ string) (string, error) {
	return mockAnalysisResponse, nil
}

const mockAnalysisResponse = `{
  "riskIndex": 50,
  "global": "Mock analysis: no AI provider is configured, this content is generated locally.",
  "executive": "Configure an API key for OpenAI, Anthropic or Google to receive real analysis.",
  "risks": [
    {
      "name": "Sample Regional Tension",
      "description": "Placeholder risk emitted by the mock provider.",
      "region": "Global",
      "impactLevel": 5,
      "sources": []
    }
  ]
}`
