package domain

import (
	"testing"
	"time"
)

func TestImpactFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ImpactLevel
		known bool
	}{
		{name: "low", input: "Low", want: 2, known: true},
		{name: "medium", input: "medium", want: 5, known: true},
		{name: "moderate_alias", input: "Moderate", want: 5, known: true},
		{name: "high", input: "HIGH", want: 8, known: true},
		{name: "severe", input: "Severe", want: 10, known: true},
		{name: "critical_alias", input: "critical", want: 10, known: true},
		{name: "padded", input: "  high  ", want: 8, known: true},
		{name: "unknown", input: "catastrophic-ish", want: 5, known: false},
		{name: "empty", input: "", want: 5, known: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := ImpactFromString(tt.input)
			if got != tt.want || known != tt.known {
				t.Errorf("ImpactFromString(%q) = (%d, %v), want (%d, %v)", tt.input, got, known, tt.want, tt.known)
			}
		})
	}
}

func TestClampImpact(t *testing.T) {
	tests := []struct {
		in   int
		want ImpactLevel
	}{
		{0, 5},
		{-3, 5},
		{1, 1},
		{7, 7},
		{10, 10},
		{11, 10},
		{100, 10},
	}

	for _, tt := range tests {
		if got := ClampImpact(tt.in); got != tt.want {
			t.Errorf("ClampImpact(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSortRisksStable(t *testing.T) {
	risks := []Risk{
		{Name: "a", Impact: 3},
		{Name: "b", Impact: 9},
		{Name: "c", Impact: 9},
		{Name: "d", Impact: 1},
	}

	SortRisks(risks)

	wantOrder := []string{"b", "c", "a", "d"}
	for i, want := range wantOrder {
		if risks[i].Name != want {
			t.Fatalf("position %d: got %q, want %q (full order: %v)", i, risks[i].Name, want, riskNames(risks))
		}
	}
}

func TestSortRisksRecencyTieBreak(t *testing.T) {
	older := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	risks := []Risk{
		{Name: "stale", Impact: 8, Sources: []RiskSource{{URL: "https://a.example", PublishedAt: older}}},
		{Name: "fresh", Impact: 8, Sources: []RiskSource{{URL: "https://b.example", PublishedAt: newer}}},
	}

	SortRisks(risks)

	if risks[0].Name != "fresh" {
		t.Errorf("expected most recently sourced risk first, got %v", riskNames(risks))
	}
}

func TestHasValidLink(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"", true},
		{"https://example.com/story", true},
		{"http://example.com", true},
		{"ftp://example.com/file", false},
		{"not a url", false},
		{"javascript:alert(1)", false},
		{"https://", false},
	}

	for _, tt := range tests {
		e := Event{Title: "t", Link: tt.link}
		if got := e.HasValidLink(); got != tt.want {
			t.Errorf("HasValidLink(%q) = %v, want %v", tt.link, got, tt.want)
		}
	}
}

func TestDegradedResultShape(t *testing.T) {
	now := time.Now()
	res := DegradedResult(now)

	if res.Status != StatusUnavailable {
		t.Errorf("status = %q, want %q", res.Status, StatusUnavailable)
	}

	if res.RiskIndex != NeutralRiskIndex {
		t.Errorf("risk index = %d, want %d", res.RiskIndex, NeutralRiskIndex)
	}

	if res.Risks == nil || len(res.Risks) != 0 {
		t.Errorf("risks = %v, want empty non-nil slice", res.Risks)
	}
}

func riskNames(risks []Risk) []string {
	names := make([]string, len(risks))
	for i, r := range risks {
		names[i] = r.Name
	}

	return names
}
