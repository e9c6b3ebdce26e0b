package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskfeed/georisk/internal/core/domain"
	"github.com/riskfeed/georisk/internal/platform/htmlutils"
)

const (
	// promptDescriptionLimit bounds how much of each event description is
	// included, to keep the prompt within model context limits.
	promptDescriptionLimit = 400

	analysisPromptHeader = `You are a geopolitical risk analyst. Analyze the news events below and produce a risk assessment.

Respond with JSON only. No markdown, no code fences, no commentary before or after the JSON object.

The JSON object must have exactly this shape:
{
  "riskIndex": <integer 0-100, overall geopolitical risk level>,
  "global": "<2-4 sentence overview of the current global situation>",
  "executive": "<1-2 sentence executive brief>",
  "risks": [
    {
      "name": "<short descriptive name of the risk, never the name of a news outlet>",
      "description": "<2-3 sentence description>",
      "region": "<affected region>",
      "impactLevel": <integer 1-10>,
      "sources": [
        {"name": "<publication name>", "url": "<exact URL from the events below>", "timestamp": "<ISO 8601 publication time>"}
      ]
    }
  ]
}

Rules:
- Produce exactly %d risks, ordered from highest to lowest impact.
- Group related events into a single risk.
- Every source URL must be copied verbatim from the event list. Never invent URLs.
- impactLevel is 1-10 where 1 is negligible and 10 is severe.

Events:
`
)

// BuildAnalysisPrompt renders the analysis prompt for a candidate event set.
func BuildAnalysisPrompt(events []domain.Event, targetRisks int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(analysisPromptHeader, targetRisks))

	for i, ev := range events {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, ev.Source, ev.Title))

		if !ev.PublishedAt.IsZero() {
			sb.WriteString("   published: " + ev.PublishedAt.UTC().Format(time.RFC3339) + "\n")
		}

		sb.WriteString("   url: " + ev.Link + "\n")

		if desc := strings.TrimSpace(ev.Description); desc != "" {
			sb.WriteString("   " + htmlutils.Truncate(desc, promptDescriptionLimit) + "\n")
		}

		sb.WriteString("\n")
	}

	return sb.String()
}
