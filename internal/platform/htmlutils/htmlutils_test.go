package htmlutils

import "testing"

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain_text",
			input: "no markup here",
			want:  "no markup here",
		},
		{
			name:  "simple_tags",
			input: "<p>Escalation in the <b>Strait of Hormuz</b></p>",
			want:  "Escalation in the Strait of Hormuz",
		},
		{
			name:  "entities",
			input: "Supply &amp; demand &mdash; a primer",
			want:  "Supply & demand — a primer",
		},
		{
			name:  "nested_and_attrs",
			input: `<div class="x"><a href="https://e.com">link</a> text</div>`,
			want:  "link text",
		},
		{
			name:  "whitespace_collapse",
			input: "<p>a</p>\n\n<p>b</p>",
			want:  "a b",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 4); got != "abcd…" {
		t.Errorf("Truncate = %q, want %q", got, "abcd…")
	}

	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate should not modify short input, got %q", got)
	}

	if got := Truncate("anything", 0); got != "" {
		t.Errorf("Truncate with zero budget = %q, want empty", got)
	}
}
