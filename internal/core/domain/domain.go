// Package domain defines the core data model shared across the pipeline:
// normalized events from collectors, AI-synthesized risks with citations,
// and the analysis result artifact published after each cycle.
package domain

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// RetrievalChannel tags an event or risk with the collector type it came from.
type RetrievalChannel string

// Retrieval channel constants.
const (
	ChannelFeed     RetrievalChannel = "feed"
	ChannelSearch   RetrievalChannel = "search"
	ChannelAPI      RetrievalChannel = "api"
	ChannelSocial   RetrievalChannel = "social"
	ChannelAnalysis RetrievalChannel = "analysis"
)

// Analysis result status values.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Event is a normalized news/signal item from one collector.
type Event struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Link        string           `json:"link,omitempty"`
	PublishedAt time.Time        `json:"publishedAt"`
	Source      string           `json:"source"`
	Channel     RetrievalChannel `json:"retrievalChannel"`
}

// HasValidLink reports whether the event link, when present, parses as an
// absolute http(s) URL. Events with an empty link pass; a malformed link
// disqualifies the event from the candidate set.
func (e Event) HasValidLink() bool {
	if e.Link == "" {
		return true
	}

	return IsHTTPURL(e.Link)
}

// IsHTTPURL reports whether s parses as an absolute URL with an http or
// https scheme and a non-empty host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// ImpactLevel is the canonical ordinal impact scale, 1 (negligible) to
// 10 (severe). Provider responses using the Low/Medium/High/Severe string
// scale are mapped onto this scale once, at the parser boundary.
type ImpactLevel int

// Impact scale bounds and the fixed string-scale mapping.
const (
	ImpactMin     ImpactLevel = 1
	ImpactDefault ImpactLevel = 5
	ImpactMax     ImpactLevel = 10

	impactLow    ImpactLevel = 2
	impactMedium ImpactLevel = 5
	impactHigh   ImpactLevel = 8
	impactSevere ImpactLevel = 10
)

// ClampImpact forces n into the canonical [1,10] range. Zero and negative
// values fall back to the default midpoint rather than the minimum, since
// they indicate a missing field rather than a low assessment.
func ClampImpact(n int) ImpactLevel {
	if n <= 0 {
		return ImpactDefault
	}

	if n < int(ImpactMin) {
		return ImpactMin
	}

	if n > int(ImpactMax) {
		return ImpactMax
	}

	return ImpactLevel(n)
}

// ImpactFromString maps the Low/Medium/High/Severe scale used by some
// providers onto the canonical ordinal scale. The second return value is
// false when the label is not recognized.
func ImpactFromString(s string) (ImpactLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "minor":
		return impactLow, true
	case "medium", "moderate":
		return impactMedium, true
	case "high", "major":
		return impactHigh, true
	case "severe", "critical", "extreme":
		return impactSevere, true
	default:
		return ImpactDefault, false
	}
}

// RiskSource is a single citation backing a risk.
type RiskSource struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"timestamp"`
}

// Risk is a thematic grouping of related events produced by AI analysis,
// with an impact score and citations.
type Risk struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Region      string           `json:"region,omitempty"`
	Impact      ImpactLevel      `json:"impactLevel"`
	Sources     []RiskSource     `json:"sources"`
	Channel     RetrievalChannel `json:"retrievalChannel,omitempty"`
	UpdatedAt   time.Time        `json:"lastUpdated"`
}

// NewestSourceTime returns the most recent source timestamp, or the zero
// time when the risk has no dated sources.
func (r Risk) NewestSourceTime() time.Time {
	var newest time.Time

	for _, s := range r.Sources {
		if s.PublishedAt.After(newest) {
			newest = s.PublishedAt
		}
	}

	return newest
}

// SortRisks orders risks by impact descending, breaking ties by the recency
// of each risk's most recent source. The sort is stable: risks with equal
// impact and equal recency keep their original relative order.
func SortRisks(risks []Risk) {
	sort.SliceStable(risks, func(i, j int) bool {
		if risks[i].Impact != risks[j].Impact {
			return risks[i].Impact > risks[j].Impact
		}

		return risks[i].NewestSourceTime().After(risks[j].NewestSourceTime())
	})
}

// AnalysisResult is the terminal artifact of an analysis cycle. It replaces
// the previously published artifact atomically and is never mutated after
// publication.
type AnalysisResult struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"lastUpdated"`
	RiskIndex int       `json:"geopoliticalRiskIndex"`
	Global    string    `json:"global"`
	Executive string    `json:"executive"`
	Risks     []Risk    `json:"risks"`
	Provider  string    `json:"provider,omitempty"`
}

// NeutralRiskIndex is the index reported by a degraded result.
const NeutralRiskIndex = 50

// DegradedResult returns the well-formed artifact emitted when every
// provider fails. Callers must treat it as a valid, renderable response.
func DegradedResult(now time.Time) *AnalysisResult {
	return &AnalysisResult{
		Status:    StatusUnavailable,
		UpdatedAt: now,
		RiskIndex: NeutralRiskIndex,
		Global:    "Geopolitical risk analysis is temporarily unavailable.",
		Executive: "All analysis providers failed for this cycle. The previous report remains the latest available assessment.",
		Risks:     []Risk{},
	}
}
