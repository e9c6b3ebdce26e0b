// Package htmlutils provides small HTML cleanup helpers used when
// normalizing feed descriptions and AI response text.
package htmlutils

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRegex        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripTags removes all HTML tags from text, decodes entities and collapses
// runs of whitespace into single spaces.
func StripTags(text string) string {
	stripped := tagRegex.ReplaceAllString(text, " ")
	decoded := html.UnescapeString(stripped)

	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(decoded, " "))
}

// Truncate cuts s to at most maxRunes runes, appending an ellipsis when the
// input was shortened.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}

	return strings.TrimSpace(string(runes[:maxRunes])) + "…"
}
