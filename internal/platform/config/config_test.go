package config

import (
	"testing"
	"time"
)

const testErrLoad = "Load() error = %v"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != "local" {
		t.Errorf("AppEnv = %q, want local", cfg.AppEnv)
	}

	if cfg.MaxEventAge != 48*time.Hour {
		t.Errorf("MaxEventAge = %v, want 48h", cfg.MaxEventAge)
	}

	if cfg.AnalystMaxAge != 168*time.Hour {
		t.Errorf("AnalystMaxAge = %v, want 168h", cfg.AnalystMaxAge)
	}

	if cfg.SimilarityThreshold != 0.65 {
		t.Errorf("SimilarityThreshold = %v, want 0.65", cfg.SimilarityThreshold)
	}

	if cfg.GlobalCandidateCap != 50 {
		t.Errorf("GlobalCandidateCap = %d, want 50", cfg.GlobalCandidateCap)
	}

	if cfg.TargetRiskCount != 6 {
		t.Errorf("TargetRiskCount = %d, want 6", cfg.TargetRiskCount)
	}

	if cfg.ProviderAttempts != 2 {
		t.Errorf("ProviderAttempts = %d, want 2", cfg.ProviderAttempts)
	}

	if cfg.ValidationConcurrency != 10 {
		t.Errorf("ValidationConcurrency = %d, want 10", cfg.ValidationConcurrency)
	}

	if len(cfg.Keywords) == 0 {
		t.Error("expected a default keyword vocabulary")
	}
}

func TestLoad_KeywordOverride(t *testing.T) {
	t.Setenv("RELEVANCE_KEYWORDS", "Tariff, SANCTION , ,embargo")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	want := []string{"tariff", "sanction", "embargo"}
	if len(cfg.Keywords) != len(want) {
		t.Fatalf("Keywords = %v, want %v", cfg.Keywords, want)
	}

	for i, k := range want {
		if cfg.Keywords[i] != k {
			t.Errorf("Keywords[%d] = %q, want %q", i, cfg.Keywords[i], k)
		}
	}
}

func TestLoad_FeedURLList(t *testing.T) {
	t.Setenv("FEED_URLS", "https://a.example/rss,https://b.example/atom.xml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if len(cfg.FeedURLs) != 2 {
		t.Fatalf("FeedURLs = %v, want 2 entries", cfg.FeedURLs)
	}
}

func TestHasAnyProviderKey(t *testing.T) {
	cfg := &Config{}
	if cfg.HasAnyProviderKey() {
		t.Error("empty config should report no provider keys")
	}

	cfg.AnthropicAPIKey = "k"
	if !cfg.HasAnyProviderKey() {
		t.Error("expected provider key to be detected")
	}
}
