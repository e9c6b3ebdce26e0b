package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsCollected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_events_collected_total",
		Help: "The total number of events returned by collectors after filtering",
	}, []string{"collector"})

	CollectorFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_collector_failures_total",
		Help: "The total number of collector fetch or parse failures",
	}, []string{"collector"})

	EventsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georisk_events_deduplicated_total",
		Help: "The total number of events dropped as cross-source duplicates",
	})

	CandidateSetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "georisk_candidate_set_size",
		Help: "Number of candidate events sent to analysis in the last cycle",
	})

	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_provider_attempts_total",
		Help: "The total number of AI provider attempts by outcome",
	}, []string{"provider", "status"})

	ProviderFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_provider_fallbacks_total",
		Help: "The total number of fallbacks from one provider to another",
	}, []string{"from", "to"})

	DegradedCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georisk_degraded_cycles_total",
		Help: "The total number of cycles that produced a degraded result",
	})

	ParseStrategyUsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_parse_strategy_total",
		Help: "The total number of successful parses by strategy",
	}, []string{"strategy"})

	SourcesValidated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "georisk_sources_validated_total",
		Help: "The total number of citation URLs checked by outcome",
	}, []string{"outcome"})

	RisksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "georisk_risks_dropped_total",
		Help: "The total number of risks dropped after losing all sources",
	})

	CycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "georisk_cycle_duration_seconds",
		Help:    "Duration of full analysis cycles",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	RiskIndex = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "georisk_risk_index",
		Help: "Geopolitical risk index from the last published result",
	})
)
