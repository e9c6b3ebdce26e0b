package parse

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/riskfeed/georisk/internal/core/domain"
)

// payload is the optional-field schema AI responses are decoded into.
// Providers disagree on field names and value types; every alternative is
// accepted here and defaulting happens once, at this boundary, so downstream
// consumers never see the raw shape.
type payload struct {
	RiskIndex    flexNumber    `json:"riskIndex"`
	RiskIndexAlt flexNumber    `json:"geopoliticalRiskIndex"`
	Global       string        `json:"global"`
	Executive    string        `json:"executive"`
	Summary      string        `json:"summary"`
	Risks        []payloadRisk `json:"risks"`
}

type payloadRisk struct {
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Region      string          `json:"region"`
	Impact      *flexImpact     `json:"impactLevel"`
	ImpactAlt   *flexImpact     `json:"impact"`
	Sources     []payloadSource `json:"sources"`
}

type payloadSource struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
}

// hasAnyField reports whether the payload carries at least one usable
// field; a decode that produces nothing usable does not count as success.
func (p *payload) hasAnyField() bool {
	return p.RiskIndex.set || p.RiskIndexAlt.set ||
		p.Global != "" || p.Executive != "" || p.Summary != "" ||
		len(p.Risks) > 0
}

// resolvedIndex returns the risk index clamped into [0,100], preferring the
// riskIndex spelling, defaulting to the neutral midpoint when absent.
func (p *payload) resolvedIndex() int {
	n := p.RiskIndex
	if !n.set {
		n = p.RiskIndexAlt
	}

	if !n.set {
		return domain.NeutralRiskIndex
	}

	idx := int(n.value)
	if idx < 0 {
		return 0
	}

	if idx > 100 {
		return 100
	}

	return idx
}

// resolvedExecutive prefers the executive field, falling back to summary.
func (p *payload) resolvedExecutive() string {
	if p.Executive != "" {
		return p.Executive
	}

	return p.Summary
}

// resolvedName prefers name over title.
func (r *payloadRisk) resolvedName() string {
	if strings.TrimSpace(r.Name) != "" {
		return strings.TrimSpace(r.Name)
	}

	return strings.TrimSpace(r.Title)
}

// resolvedImpact normalizes whichever impact field is present onto the
// canonical ordinal scale.
func (r *payloadRisk) resolvedImpact() domain.ImpactLevel {
	v := r.Impact
	if v == nil {
		v = r.ImpactAlt
	}

	if v == nil {
		return domain.ImpactDefault
	}

	return v.level()
}

// flexNumber decodes a JSON number or a numeric string, remembering whether
// a usable value actually arrived so junk strings never count as zero.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			// Tolerate junk: leave the value unset rather than failing
			// the whole object.
			return nil
		}

		n.value = f
		n.set = true

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	n.value = f
	n.set = true

	return nil
}

// flexImpact decodes either the 1-10 numeric scale or the
// Low/Medium/High/Severe string scale.
type flexImpact struct {
	numeric float64
	label   string
	set     bool
}

func (v *flexImpact) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			v.numeric = f
			v.set = true

			return nil
		}

		v.label = s
		v.set = true

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	v.numeric = f
	v.set = true

	return nil
}

// level maps the decoded value onto the canonical ordinal scale.
func (v *flexImpact) level() domain.ImpactLevel {
	if !v.set {
		return domain.ImpactDefault
	}

	if v.label != "" {
		lvl, _ := domain.ImpactFromString(v.label)
		return lvl
	}

	return domain.ClampImpact(int(v.numeric + 0.5))
}

// parseSourceTime leniently parses a citation timestamp; a blank or
// unparsable value yields the zero time.
func parseSourceTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}

	return t
}
