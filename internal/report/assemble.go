package report

import (
	"strings"
	"time"

	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

// PreparingMessage is shown in place of the report until it is released.
const PreparingMessage = "Your report is being prepared. We will email you as soon as it is ready."

// Input is everything Assemble needs about one assessment.
type Input struct {
	Company           string
	Status            lifecycle.Status
	Scores            *scoring.Scorecard
	Narrative         *Narrative
	ManualInsights    []Insight
	ExecutiveOverride string
	ReleasedAt        *time.Time
}

// View is the assembled report. When Ready is false only Status and Message
// are populated.
type View struct {
	Ready            bool               `json:"ready"`
	Status           lifecycle.Status   `json:"status"`
	Message          string             `json:"message,omitempty"`
	Company          string             `json:"company,omitempty"`
	Scores           *scoring.Scorecard `json:"scores,omitempty"`
	ExecutiveSummary string             `json:"executive_summary,omitempty"`
	Insights         []Insight          `json:"insights,omitempty"`
	DimensionNotes   map[string]string  `json:"dimension_notes,omitempty"`
	NarrativeSource  Source             `json:"narrative_source,omitempty"`
	ReleasedAt       *time.Time         `json:"released_at,omitempty"`
}

// Placeholder is the "being prepared" view for status.
func Placeholder(status lifecycle.Status) View {
	return View{Status: status, Message: PreparingMessage}
}

// Assemble builds the respondent view. Visibility is decided by status
// alone: an unreleased assessment yields the placeholder even when scores
// and a narrative already exist.
func Assemble(in Input) View {
	if !lifecycle.CanViewReport(in.Status) {
		return Placeholder(in.Status)
	}
	return build(in)
}

// AssembleForAdmin builds the full view regardless of status, for review
// before release. Without scores it still returns the placeholder.
func AssembleForAdmin(in Input) View {
	return build(in)
}

func build(in Input) View {
	if in.Scores == nil {
		return Placeholder(in.Status)
	}

	n := in.Narrative
	if n == nil {
		fb := FallbackNarrative(*in.Scores, in.Company)
		n = &fb
	}

	insights := make([]Insight, 0, len(in.ManualInsights)+len(n.Insights))
	insights = append(insights, in.ManualInsights...)
	insights = append(insights, n.Insights...)

	summary := n.ExecutiveSummary
	if o := strings.TrimSpace(in.ExecutiveOverride); o != "" {
		summary = o
	}

	return View{
		Ready:            true,
		Status:           in.Status,
		Company:          in.Company,
		Scores:           in.Scores,
		ExecutiveSummary: summary,
		Insights:         insights,
		DimensionNotes:   n.DimensionNotes,
		NarrativeSource:  n.Source,
		ReleasedAt:       in.ReleasedAt,
	}
}
