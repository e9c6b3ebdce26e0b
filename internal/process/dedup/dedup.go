// Package dedup merges collector outputs into a single ranked candidate
// set, removing near-duplicate events across sources.
package dedup

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/core/textsim"
	"github.com/riskfeed/georisk/internal/platform/observability"
)

const (
	// DefaultSimilarityThreshold is the title-similarity level at or above
	// which two events are considered the same story.
	DefaultSimilarityThreshold = 0.65

	// DefaultGlobalCap bounds the candidate set handed to analysis.
	DefaultGlobalCap = 50
)

// premiumSources rank ahead of everything else when choosing which copy of
// a duplicated story survives. Matching is case-insensitive on substrings.
var premiumSources = []string{
	"reuters", "bloomberg", "associated press", "financial times",
	"wall street journal", "the economist", "bbc", "al jazeera",
}

// impactKeywords boost an event's rank when present in its title; they mark
// stories that usually move markets.
var impactKeywords = []string{
	"war", "invasion", "strike", "sanction", "tariff", "nuclear",
	"embargo", "blockade", "coup", "default", "missile",
}

// Deduplicator removes cross-source near-duplicates and ranks the survivors.
type Deduplicator struct {
	threshold float64
	cap       int
	logger    *zerolog.Logger
}

// New creates a Deduplicator. Non-positive arguments fall back to defaults.
func New(threshold float64, globalCap int, logger *zerolog.Logger) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSimilarityThreshold
	}

	if globalCap <= 0 {
		globalCap = DefaultGlobalCap
	}

	return &Deduplicator{
		threshold: threshold,
		cap:       globalCap,
		logger:    logger,
	}
}

// Merge concatenates collector outputs, drops near-duplicates and returns
// the ranked, capped candidate set. The output contains no two events whose
// pairwise title similarity reaches the threshold; this is the pipeline's
// identity definition for "the same event". Merge is idempotent: running it
// on its own output is a no-op.
func (d *Deduplicator) Merge(events []domain.Event) []domain.Event {
	candidates := make([]domain.Event, len(events))
	copy(candidates, events)

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := priorityKey(candidates[i]), priorityKey(candidates[j])
		if pi != pj {
			return pi > pj
		}

		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})

	accepted := make([]domain.Event, 0, len(candidates))
	seenLinks := make(map[string]struct{}, len(candidates))

	var dropped int

	for _, c := range candidates {
		if d.isDuplicate(c, accepted, seenLinks) {
			dropped++
			continue
		}

		accepted = append(accepted, c)
		if c.Link != "" {
			seenLinks[c.Link] = struct{}{}
		}
	}

	if dropped > 0 {
		observability.EventsDeduplicated.Add(float64(dropped))
		d.logger.Debug().
			Int("input", len(events)).
			Int("accepted", len(accepted)).
			Int("duplicates", dropped).
			Msg("cross-source dedup complete")
	}

	if len(accepted) > d.cap {
		accepted = accepted[:d.cap]
	}

	return accepted
}

// isDuplicate reports whether the candidate matches an accepted event by
// exact link or by title similarity at or above the threshold.
func (d *Deduplicator) isDuplicate(c domain.Event, accepted []domain.Event, seenLinks map[string]struct{}) bool {
	if c.Link != "" {
		if _, ok := seenLinks[c.Link]; ok {
			return true
		}
	}

	for _, a := range accepted {
		if textsim.Similarity(c.Title, a.Title) >= d.threshold {
			return true
		}
	}

	return false
}

// priorityKey scores an event for ranking: premium sources first, then
// impact-keyword matches. Recency breaks ties in the caller's sort.
func priorityKey(e domain.Event) int {
	score := 0

	source := strings.ToLower(e.Source)
	for _, p := range premiumSources {
		if strings.Contains(source, p) {
			score += 10
			break
		}
	}

	title := strings.ToLower(e.Title)
	for _, k := range impactKeywords {
		if strings.Contains(title, k) {
			score += 2
			break
		}
	}

	return score
}
