package filter

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/riskfeed/georisk/internal/core/domain"
)

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestFilter(keywords ...string) *Filter {
	if len(keywords) == 0 {
		keywords = []string{"sanction", "tariff", "conflict"}
	}

	logger := zerolog.Nop()

	return New(keywords, &logger, WithClock(func() time.Time { return testNow }))
}

func event(title string, age time.Duration) domain.Event {
	return domain.Event{
		Title:       title,
		PublishedAt: testNow.Add(-age),
		Source:      "test",
	}
}

func TestApply_AgeWindow(t *testing.T) {
	f := newTestFilter()
	window := 48 * time.Hour

	events := []domain.Event{
		event("new tariff announced", 47*time.Hour),
		event("old sanction story", 49*time.Hour),
	}

	kept := f.Apply(events, window, false)

	if len(kept) != 1 {
		t.Fatalf("kept %d events, want 1", len(kept))
	}

	if kept[0].Title != "new tariff announced" {
		t.Errorf("kept %q, want the 47h-old event", kept[0].Title)
	}
}

func TestApply_UnparsableDateFailsClosed(t *testing.T) {
	f := newTestFilter()

	e := domain.Event{Title: "tariff news with no date", Source: "test"}
	if kept := f.Apply([]domain.Event{e}, 48*time.Hour, false); len(kept) != 0 {
		t.Errorf("zero-date event should be rejected, kept %v", kept)
	}
}

func TestApply_FutureDatedRejected(t *testing.T) {
	f := newTestFilter()

	e := event("tariff from the future", -2*time.Hour)
	if kept := f.Apply([]domain.Event{e}, 48*time.Hour, false); len(kept) != 0 {
		t.Errorf("future-dated event should be rejected, kept %v", kept)
	}
}

func TestApply_KeywordMatch(t *testing.T) {
	f := newTestFilter()

	tests := []struct {
		name  string
		event domain.Event
		want  bool
	}{
		{
			name:  "title_match",
			event: event("EU imposes sanction package", time.Hour),
			want:  true,
		},
		{
			name: "description_match",
			event: domain.Event{
				Title:       "Markets wobble",
				Description: "Traders cite the new tariff schedule",
				PublishedAt: testNow.Add(-time.Hour),
			},
			want: true,
		},
		{
			name:  "case_insensitive",
			event: event("SANCTION list expanded", time.Hour),
			want:  true,
		},
		{
			name:  "no_match",
			event: event("Local sports roundup", time.Hour),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept := f.Apply([]domain.Event{tt.event}, 48*time.Hour, false)
			if (len(kept) == 1) != tt.want {
				t.Errorf("Apply kept=%v, want match=%v", kept, tt.want)
			}
		})
	}
}

func TestApply_TrustedBypassesKeywords(t *testing.T) {
	f := newTestFilter()

	e := event("Weekly outlook", time.Hour)
	if kept := f.Apply([]domain.Event{e}, 7*24*time.Hour, true); len(kept) != 1 {
		t.Errorf("trusted channel should bypass keyword filter, kept %v", kept)
	}

	// Trust does not bypass the age check.
	stale := event("Quarterly outlook", 8*24*time.Hour)
	if kept := f.Apply([]domain.Event{stale}, 7*24*time.Hour, true); len(kept) != 0 {
		t.Errorf("trusted channel must still honor the age window, kept %v", kept)
	}
}

func TestApply_InvalidLinkRejected(t *testing.T) {
	f := newTestFilter()

	e := event("tariff story", time.Hour)
	e.Link = "not-a-url"

	if kept := f.Apply([]domain.Event{e}, 48*time.Hour, false); len(kept) != 0 {
		t.Errorf("event with malformed link should be rejected, kept %v", kept)
	}

	e.Link = "https://example.com/story"
	if kept := f.Apply([]domain.Event{e}, 48*time.Hour, false); len(kept) != 1 {
		t.Errorf("event with valid link should pass, kept %v", kept)
	}
}
