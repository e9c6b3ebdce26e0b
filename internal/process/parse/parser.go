// Package parse turns raw AI responses into structured analysis results.
// Providers return anything from clean JSON to fenced markdown to prose, so
// extraction runs as a cascade of progressively more forgiving strategies.
package parse

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

// ErrUnparseable is returned when no strategy recovers a usable result.
var ErrUnparseable = errors.New("response not parseable by any strategy")

type Parser struct {
	now    func() time.Time
	logger *zerolog.Logger
}

type Option func(*Parser)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

func New(logger *zerolog.Logger, opts ...Option) *Parser {
	p := &Parser{now: time.Now, logger: logger}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse runs the strategy cascade over a raw response and normalizes the
// first usable payload into an AnalysisResult. The returned Strategy records
// which layer succeeded. Parse never panics on malformed input; when every
// strategy fails it returns ErrUnparseable.
func (p *Parser) Parse(raw string) (*domain.AnalysisResult, Strategy, error) {
	strategies := []struct {
		strategy Strategy
		decode   func(string) (*payload, bool)
	}{
		{StrategyDirectJSON, decodeDirect},
		{StrategyLabeledFence, func(s string) (*payload, bool) { return decodeFence(s, labeledFenceRegex) }},
		{StrategyAnyFence, func(s string) (*payload, bool) { return decodeFence(s, anyFenceRegex) }},
		{StrategyBraceScan, decodeBraceScan},
		{StrategyFieldRegex, decodeFields},
	}

	for _, s := range strategies {
		pl, ok := s.decode(raw)
		if !ok {
			continue
		}

		observability.ParseStrategyUsed.WithLabelValues(s.strategy.String()).Inc()
		p.logger.Debug().
			Stringer("strategy", s.strategy).
			Int("risks", len(pl.Risks)).
			Msg("response parsed")

		return p.normalize(pl), s.strategy, nil
	}

	p.logger.Warn().Int("response_len", len(raw)).Msg("response not parseable")

	return nil, 0, ErrUnparseable
}

// normalize converts a decoded payload into the canonical result shape:
// risks get IDs, clamped impacts and guarded names, and sort by impact.
func (p *Parser) normalize(pl *payload) *domain.AnalysisResult {
	res := &domain.AnalysisResult{
		Status:    domain.StatusOK,
		UpdatedAt: p.now().UTC(),
		RiskIndex: pl.resolvedIndex(),
		Global:    pl.Global,
		Executive: pl.resolvedExecutive(),
		Risks:     []domain.Risk{},
	}

	for i := range pl.Risks {
		r := p.normalizeRisk(&pl.Risks[i])
		if r == nil {
			continue
		}

		res.Risks = append(res.Risks, *r)
	}

	domain.SortRisks(res.Risks)

	return res
}

func (p *Parser) normalizeRisk(in *payloadRisk) *domain.Risk {
	name := in.resolvedName()
	if name == "" && in.Description == "" {
		return nil
	}

	if isOutletName(name) {
		p.logger.Debug().Str("name", name).Msg("outlet name rejected as risk name")
		name = placeholderName(in.Region)
	}

	if name == "" {
		name = placeholderName(in.Region)
	}

	r := &domain.Risk{
		ID:          uuid.NewString(),
		Name:        name,
		Description: in.Description,
		Region:      in.Region,
		Impact:      in.resolvedImpact(),
	}

	for _, s := range in.Sources {
		r.Sources = append(r.Sources, domain.RiskSource{
			Name:        s.Name,
			URL:         s.URL,
			PublishedAt: parseSourceTime(s.Timestamp),
		})
	}

	return r
}
