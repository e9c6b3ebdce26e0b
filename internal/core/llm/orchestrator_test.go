package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/config"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

type fakeProvider struct {
	name      ProviderName
	available bool
	priority  int
	responses []string
	errs      []error
	calls     int
}

func (p *fakeProvider) Name() ProviderName { return p.name }

func (p *fakeProvider) IsAvailable() bool { return p.available }

func (p *fakeProvider) Priority() int {
	if p.priority != 0 {
		return p.priority
	}

	return PriorityPrimary
}

func (p *fakeProvider) Analyze(_ context.Context, _, _ string) (string, error) {
	i := p.calls
	p.calls++

	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}

	if i < len(p.responses) {
		return p.responses[i], nil
	}

	return "", ErrEmptyResponse
}

type fakeParser struct {
	failOn map[string]bool
}

func (f *fakeParser) ParseResponse(raw string) (*domain.AnalysisResult, error) {
	if f.failOn[raw] {
		return nil, errors.New("unparseable")
	}

	return &domain.AnalysisResult{Status: domain.StatusOK, Global: raw}, nil
}

type recordingSink struct {
	prompts []string
	err     error
}

func (s *recordingSink) SavePrompt(prompt string) error {
	s.prompts = append(s.prompts, prompt)
	return s.err
}

// noSwapSource yields a shuffle that keeps a two-element slice in place,
// so provider order in tests matches registration order.
type noSwapSource struct{}

func (noSwapSource) Int63() int64 { return 1 << 62 }

func (noSwapSource) Seed(int64) {}

func newTestOrchestrator(cfg *config.Config, providers []Provider, parser ResultParser, sink PromptSink) *Orchestrator {
	logger := zerolog.Nop()

	return NewOrchestrator(cfg, providers, parser, sink, &logger,
		WithRand(rand.New(noSwapSource{})),
		WithSleep(func(context.Context, time.Duration) {}),
		WithNow(func() time.Time { return testNow }),
	)
}

func testConfig() *config.Config {
	return &config.Config{
		ProviderAttempts: 2,
		RetryBaseDelay:   time.Second,
		TargetRiskCount:  6,
	}
}

func TestAnalyzeFirstProviderSucceeds(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"resp"}}

	o := newTestOrchestrator(testConfig(), []Provider{p}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, "resp", res.Global)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, 1, p.calls)
}

func TestAnalyzeRetriesThenSucceeds(t *testing.T) {
	p := &fakeProvider{
		name:      ProviderOpenAI,
		available: true,
		errs:      []error{errors.New("transient")},
		responses: []string{"", "resp"},
	}

	o := newTestOrchestrator(testConfig(), []Provider{p}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, 2, p.calls)
}

func TestAnalyzeFallsBackAcrossProviders(t *testing.T) {
	bad := &fakeProvider{name: ProviderOpenAI, available: true, errs: []error{errors.New("down"), errors.New("down")}}
	good := &fakeProvider{name: ProviderAnthropic, available: true, responses: []string{"resp"}}

	o := newTestOrchestrator(testConfig(), []Provider{bad, good}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, 2, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestAnalyzeParseFailureTriggersFallback(t *testing.T) {
	first := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"garbage"}}
	second := &fakeProvider{name: ProviderAnthropic, available: true, responses: []string{"clean"}}

	parser := &fakeParser{failOn: map[string]bool{"garbage": true}}

	o := newTestOrchestrator(testConfig(), []Provider{first, second}, parser, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusOK, res.Status)
	assert.Equal(t, "clean", res.Global)
	assert.Equal(t, "anthropic", res.Provider)
}

func TestAnalyzeAllFailReturnsDegraded(t *testing.T) {
	p1 := &fakeProvider{name: ProviderOpenAI, available: true, errs: []error{errors.New("down"), errors.New("down")}}
	p2 := &fakeProvider{name: ProviderAnthropic, available: true, errs: []error{errors.New("down"), errors.New("down")}}

	o := newTestOrchestrator(testConfig(), []Provider{p1, p2}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, domain.NeutralRiskIndex, res.RiskIndex)
	assert.Empty(t, res.Risks)
	assert.Equal(t, testNow, res.UpdatedAt)
}

func TestAnalyzeNoProvidersReturnsDegraded(t *testing.T) {
	unavailable := &fakeProvider{name: ProviderOpenAI}

	o := newTestOrchestrator(testConfig(), []Provider{unavailable}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, 0, unavailable.calls)
}

func TestAnalyzeNotConfiguredSkipsRetry(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, errs: []error{ErrNotConfigured, ErrNotConfigured}}

	o := newTestOrchestrator(testConfig(), []Provider{p}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, 1, p.calls)
}

func TestAnalyzeForcedProvider(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"openai resp"}}
	anthropic := &fakeProvider{name: ProviderAnthropic, available: true, responses: []string{"anthropic resp"}}

	cfg := testConfig()
	cfg.ForceProvider = "anthropic"

	o := newTestOrchestrator(cfg, []Provider{openai, anthropic}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, "anthropic resp", res.Global)
	assert.Equal(t, 0, openai.calls)
}

func TestAnalyzeForcedProviderUnavailable(t *testing.T) {
	openai := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"resp"}}

	cfg := testConfig()
	cfg.ForceProvider = "google"

	o := newTestOrchestrator(cfg, []Provider{openai}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusUnavailable, res.Status)
	assert.Equal(t, 0, openai.calls)
}

func TestAnalyzePriorityOrderPinsHighestFirst(t *testing.T) {
	google := &fakeProvider{name: ProviderGoogle, available: true, priority: PriorityLast, responses: []string{"google resp"}}
	openai := &fakeProvider{name: ProviderOpenAI, available: true, priority: PriorityPrimary, responses: []string{"openai resp"}}
	anthropic := &fakeProvider{name: ProviderAnthropic, available: true, priority: PriorityFallback, responses: []string{"anthropic resp"}}

	cfg := testConfig()
	cfg.ProviderOrder = ProviderOrderPriority

	o := newTestOrchestrator(cfg, []Provider{google, openai, anthropic}, &fakeParser{}, nil)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, "openai resp", res.Global)
	assert.Equal(t, 0, google.calls)
	assert.Equal(t, 0, anthropic.calls)
}

func TestAnalyzeSavesPromptBeforeCall(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"resp"}}
	sink := &recordingSink{}

	events := []domain.Event{{Title: "Border clash reported", Source: "Wire", Link: "https://example.com/a"}}

	o := newTestOrchestrator(testConfig(), []Provider{p}, &fakeParser{}, sink)
	o.Analyze(context.Background(), events)

	require.Len(t, sink.prompts, 1)
	assert.Contains(t, sink.prompts[0], "Border clash reported")
	assert.Contains(t, sink.prompts[0], "https://example.com/a")
}

func TestAnalyzeSinkFailureDoesNotAffectResult(t *testing.T) {
	p := &fakeProvider{name: ProviderOpenAI, available: true, responses: []string{"resp"}}
	sink := &recordingSink{err: errors.New("disk full")}

	o := newTestOrchestrator(testConfig(), []Provider{p}, &fakeParser{}, sink)
	res := o.Analyze(context.Background(), nil)

	assert.Equal(t, domain.StatusOK, res.Status)
}

func TestProviderOrderExcludesUnconfigured(t *testing.T) {
	available := &fakeProvider{name: ProviderOpenAI, available: true}
	unavailable := &fakeProvider{name: ProviderAnthropic}

	o := newTestOrchestrator(testConfig(), []Provider{available, unavailable}, &fakeParser{}, nil)
	order := o.providerOrder()

	require.Len(t, order, 1)
	assert.Equal(t, ProviderOpenAI, order[0].Name())
}

func TestBuildAnalysisPromptShape(t *testing.T) {
	events := []domain.Event{
		{
			Title:       "Strait transit disrupted",
			Description: "Naval exercises closed the strait to commercial traffic.",
			Link:        "https://example.com/strait",
			Source:      "Example Wire",
			PublishedAt: time.Date(2026, 8, 29, 6, 0, 0, 0, time.UTC),
		},
	}

	prompt := BuildAnalysisPrompt(events, 6)

	assert.Contains(t, prompt, "JSON only")
	assert.Contains(t, prompt, fmt.Sprintf("exactly %d risks", 6))
	assert.Contains(t, prompt, "[Example Wire] Strait transit disrupted")
	assert.Contains(t, prompt, "url: https://example.com/strait")
	assert.Contains(t, prompt, "2026-08-29T06:00:00Z")
}
