package parse

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/riskfeed/georisk/internal/platform/htmlutils"
)

// Strategy identifies which extraction layer produced a usable payload.
type Strategy int

const (
	StrategyDirectJSON Strategy = iota
	StrategyLabeledFence
	StrategyAnyFence
	StrategyBraceScan
	StrategyFieldRegex
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirectJSON:
		return "direct_json"
	case StrategyLabeledFence:
		return "labeled_fence"
	case StrategyAnyFence:
		return "any_fence"
	case StrategyBraceScan:
		return "brace_scan"
	case StrategyFieldRegex:
		return "field_regex"
	default:
		return "unknown"
	}
}

var (
	labeledFenceRegex = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n?(.*?)```")
	anyFenceRegex     = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	trailingCommaRe   = regexp.MustCompile(`,\s*([}\]])`)

	indexFieldRe     = regexp.MustCompile(`(?i)"?(?:geopolitical)?riskindex"?\s*[:=]\s*"?(-?\d{1,3})`)
	globalFieldRe    = regexp.MustCompile(`(?s)"global"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	executiveFieldRe = regexp.MustCompile(`(?s)"executive"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	summaryFieldRe   = regexp.MustCompile(`(?s)"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	riskLineRe       = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]|[-*•])\s+\**([^:\n*]{3,100})\**\s*[:\-]\s*(.+)$`)
	impactHintRe     = regexp.MustCompile(`(?i)impact[^\d]{0,12}(\d{1,2})`)
	impactLabelRe    = regexp.MustCompile(`(?i)\b(low|minor|medium|moderate|high|major|severe|critical|extreme)\s+impact\b`)
)

// decodeDirect attempts a plain decode of the response after HTML tags and
// surrounding whitespace are removed.
func decodeDirect(raw string) (*payload, bool) {
	clean := strings.TrimSpace(raw)
	if strings.Contains(clean, "<") && strings.Contains(clean, ">") {
		clean = htmlutils.StripTags(clean)
	}

	return decodeObject(clean, false)
}

// decodeFence extracts fenced blocks with the given pattern and decodes the
// first one that yields a usable payload.
func decodeFence(raw string, re *regexp.Regexp) (*payload, bool) {
	for _, m := range re.FindAllStringSubmatch(raw, -1) {
		if p, ok := decodeObject(m[1], false); ok {
			return p, true
		}
	}

	return nil, false
}

// decodeBraceScan locates balanced top-level objects anywhere in the text,
// keeps those anchored on an expected field, and decodes the smallest
// candidate, repairing trailing commas before the attempt.
func decodeBraceScan(raw string) (*payload, bool) {
	var best string

	scanned := 0
	for i := 0; i < len(raw) && scanned < 64; i++ {
		if raw[i] != '{' {
			continue
		}

		scanned++

		obj, ok := balancedObject(raw[i:])
		if !ok {
			continue
		}

		if !strings.Contains(obj, `"risks"`) &&
			!strings.Contains(obj, `"riskIndex"`) &&
			!strings.Contains(obj, `"global"`) {
			continue
		}

		if best == "" || len(obj) < len(best) {
			best = obj
		}
	}

	if best == "" {
		return nil, false
	}

	return decodeObject(best, true)
}

// balancedObject returns the shortest balanced {...} prefix of s, honoring
// string literals and escapes.
func balancedObject(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}

// decodeFields reconstructs a payload from field-level patterns when no
// structurally valid object survives anywhere in the response.
func decodeFields(raw string) (*payload, bool) {
	p := &payload{}

	if m := indexFieldRe.FindStringSubmatch(raw); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			p.RiskIndex = flexNumber{value: f, set: true}
		}
	}

	if m := globalFieldRe.FindStringSubmatch(raw); m != nil {
		p.Global = unescapeField(m[1])
	}

	if m := executiveFieldRe.FindStringSubmatch(raw); m != nil {
		p.Executive = unescapeField(m[1])
	} else if m := summaryFieldRe.FindStringSubmatch(raw); m != nil {
		p.Summary = unescapeField(m[1])
	}

	for _, m := range riskLineRe.FindAllStringSubmatch(raw, -1) {
		r := payloadRisk{
			Name:        strings.TrimSpace(m[1]),
			Description: strings.TrimSpace(m[2]),
		}

		if imp := impactFromText(m[2]); imp != nil {
			r.Impact = imp
		}

		p.Risks = append(p.Risks, r)
	}

	if !p.hasAnyField() {
		return nil, false
	}

	return p, true
}

// impactFromText recovers an impact rating embedded in free text, either as
// a number near the word "impact" or as a severity label.
func impactFromText(s string) *flexImpact {
	if m := impactHintRe.FindStringSubmatch(s); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &flexImpact{numeric: f, set: true}
		}
	}

	if m := impactLabelRe.FindStringSubmatch(s); m != nil {
		return &flexImpact{label: m[1], set: true}
	}

	return nil
}

// decodeObject decodes a candidate JSON object, optionally repairing
// trailing commas first. A decode only counts when it produces at least one
// usable field.
func decodeObject(s string, repair bool) (*payload, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s[0] != '{' {
		return nil, false
	}

	if repair {
		s = trailingCommaRe.ReplaceAllString(s, "$1")
	}

	var p payload
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, false
	}

	if !p.hasAnyField() {
		return nil, false
	}

	return &p, true
}

// unescapeField resolves JSON string escapes captured by a field regex.
func unescapeField(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return s
	}

	return out
}
