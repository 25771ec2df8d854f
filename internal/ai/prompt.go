package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
)

// ─── PROMPT ───────────────────────────────────────────────────────────────────

const systemPrompt = `You are an operations advisor for small and medium businesses.
You will receive the scorecard of an operational diagnostic: six dimensions
(Control, Clarity, Leverage, Friction, Change Readiness, AI Investment), each
with a percentage and an interpretation (critical, needs-work, stable, strong),
plus an overall score out of 100 and a band.

Produce:
1. executive_summary: 2-3 sentences on the overall operational posture. Be direct and specific to the scores.
2. insights: 3-5 findings, weakest areas first. Each has a title, an observation grounded in the scores,
   a concrete recommendation with a rough timeline, a priority (high, medium or low) and a category
   (the dimension key, e.g. "control").
3. dimension_notes: one sentence per dimension, keyed by dimension key.

Respond ONLY with valid JSON matching this exact schema, no markdown fences, no preamble:
{
  "executive_summary": "...",
  "insights": [
    {"title": "...", "observation": "...", "recommendation": "...", "priority": "high", "category": "control"}
  ],
  "dimension_notes": {"control": "...", "clarity": "..."}
}`

// buildPrompt serialises the scorecard into a compact prompt string.
func buildPrompt(req NarrativeRequest) string {
	sc := req.Scorecard
	var sb strings.Builder
	if req.Company != "" {
		fmt.Fprintf(&sb, "company: %s\n", req.Company)
	}
	fmt.Fprintf(&sb, "overall: %d/%d, band: %s (%s)\n", sc.TotalScore, sc.MaxScore, sc.Band, sc.BandLabel)
	sb.WriteString("dimensions:\n")
	for _, ds := range sc.Dimensions {
		fmt.Fprintf(&sb, "- %s (%s): %d%%, %s, %d questions answered\n",
			ds.Label, ds.Dimension, ds.Percentage, ds.Interpretation, ds.Answered)
	}
	if len(sc.TopPriorities) > 0 {
		fmt.Fprintf(&sb, "top priorities: %s\n", strings.Join(sc.TopPriorities, ", "))
	}
	if len(sc.Strengths) > 0 {
		fmt.Fprintf(&sb, "strengths: %s\n", strings.Join(sc.Strengths, ", "))
	}
	return sb.String()
}

// ─── RESPONSE ─────────────────────────────────────────────────────────────────

// ErrEmptyNarrative is returned when the model answers with valid JSON that
// carries no summary.
var ErrEmptyNarrative = errors.New("ai: empty narrative")

type narrativeJSON struct {
	ExecutiveSummary string            `json:"executive_summary"`
	Insights         []report.Insight  `json:"insights"`
	DimensionNotes   map[string]string `json:"dimension_notes"`
}

// parseNarrative strips accidental markdown fences and decodes the model
// output. Insights missing a title or observation are dropped and unknown
// priorities become medium.
func parseNarrative(raw, provider string) (report.Narrative, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed narrativeJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return report.Narrative{}, fmt.Errorf("%s: parse response JSON: %w (raw: %.200s)", provider, err, raw)
	}
	if strings.TrimSpace(parsed.ExecutiveSummary) == "" {
		return report.Narrative{}, fmt.Errorf("%s: %w", provider, ErrEmptyNarrative)
	}

	insights := make([]report.Insight, 0, len(parsed.Insights))
	for _, in := range parsed.Insights {
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Observation) == "" {
			continue
		}
		in.Priority = report.Priority(strings.ToLower(string(in.Priority)))
		if !in.Priority.Valid() {
			in.Priority = report.PriorityMedium
		}
		insights = append(insights, in)
	}

	return report.Narrative{
		ExecutiveSummary: strings.TrimSpace(parsed.ExecutiveSummary),
		Insights:         insights,
		DimensionNotes:   parsed.DimensionNotes,
		Source:           report.SourceAI,
		Provider:         provider,
	}, nil
}
