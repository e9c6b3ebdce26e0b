// Package assemble finalizes an analysis result and publishes it: sort,
// truncate to the target risk count, bound the summary fields and hand the
// artifact to the store. Publishing is the one stage whose failure is a
// hard error.
package assemble

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

// Publisher persists the final artifact.
type Publisher interface {
	Publish(res *domain.AnalysisResult) error
}

type Assembler struct {
	targetRisks    int
	globalMaxChars int
	store          Publisher
	now            func() time.Time
	logger         *zerolog.Logger
}

type Option func(*Assembler)

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) { a.now = now }
}

func New(targetRisks, globalMaxChars int, store Publisher, logger *zerolog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		targetRisks:    targetRisks,
		globalMaxChars: globalMaxChars,
		store:          store,
		now:            time.Now,
		logger:         logger,
	}

	if a.targetRisks <= 0 {
		a.targetRisks = 6
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Finalize normalizes the result in place and publishes it. Fewer risks
// than the target is tolerated; more are cut after the impact sort so the
// strongest survive. The candidate events the analysis ran over supply the
// retrieval channel stamped on each risk.
func (a *Assembler) Finalize(res *domain.AnalysisResult, events []domain.Event) error {
	if res.Risks == nil {
		res.Risks = []domain.Risk{}
	}

	domain.SortRisks(res.Risks)

	if len(res.Risks) > a.targetRisks {
		a.logger.Debug().
			Int("risks", len(res.Risks)).
			Int("target", a.targetRisks).
			Msg("truncating risk list")

		res.Risks = res.Risks[:a.targetRisks]
	}

	if res.RiskIndex < 0 {
		res.RiskIndex = 0
	}

	if res.RiskIndex > 100 {
		res.RiskIndex = 100
	}

	if a.globalMaxChars > 0 {
		res.Global = htmlutils.Truncate(res.Global, a.globalMaxChars)
	}

	res.UpdatedAt = a.now().UTC()

	channelByLink := make(map[string]domain.RetrievalChannel, len(events))
	for _, ev := range events {
		if ev.Link != "" {
			channelByLink[ev.Link] = ev.Channel
		}
	}

	for i := range res.Risks {
		res.Risks[i].UpdatedAt = res.UpdatedAt
		res.Risks[i].Channel = dominantChannel(res.Risks[i].Sources, channelByLink)
	}

	if err := a.store.Publish(res); err != nil {
		return err
	}

	observability.RiskIndex.Set(float64(res.RiskIndex))

	return nil
}

// dominantChannel returns the most frequent retrieval channel among the
// cited sources that match a collected event, first-cited winning ties.
// Sources the model invented or rewrote match nothing and the channel
// stays empty.
func dominantChannel(sources []domain.RiskSource, channelByLink map[string]domain.RetrievalChannel) domain.RetrievalChannel {
	counts := make(map[domain.RetrievalChannel]int, len(sources))

	var best domain.RetrievalChannel

	for _, s := range sources {
		ch, ok := channelByLink[s.URL]
		if !ok {
			continue
		}

		counts[ch]++
		if counts[ch] > counts[best] {
			best = ch
		}
	}

	return best
}
