package report

import (
	"fmt"
	"strings"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

// recommendations holds one stock next step per dimension for the template
// narrative.
var recommendations = map[catalog.Dimension]string{
	catalog.DimensionControl:         "Set up a weekly dashboard of the five numbers that matter most and review it with the leadership team every Monday.",
	catalog.DimensionClarity:         "Document the three processes that would hurt most if the person running them left, and give each a named owner.",
	catalog.DimensionLeverage:        "List the tasks the team repeats every week and automate or template the most time-consuming one first.",
	catalog.DimensionFriction:        "Map one customer journey end to end and remove the handoff that causes the most waiting.",
	catalog.DimensionChangeReadiness: "Pick one small improvement, ship it within 30 days and use the result to build momentum for the next.",
	catalog.DimensionAIInvestment:    "Name an owner for AI adoption and run a single four-week pilot on a well-understood workflow.",
}

func priorityFor(in scoring.Interpretation) Priority {
	switch in {
	case scoring.InterpretationCritical:
		return PriorityHigh
	case scoring.InterpretationNeedsWork:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// FallbackNarrative builds a deterministic narrative from the scorecard
// alone. It is used whenever the generator is unavailable and is never empty.
// GeneratedAt is left zero; callers stamp it when persisting.
func FallbackNarrative(sc scoring.Scorecard, company string) Narrative {
	name := strings.TrimSpace(company)
	if name == "" {
		name = "Your business"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s scored %d out of %d, placing it in the %s band.", name, sc.TotalScore, sc.MaxScore, sc.BandLabel)
	switch len(sc.Strengths) {
	case 0:
	case 1:
		fmt.Fprintf(&sb, " The strongest area is %s.", sc.Strengths[0])
	default:
		fmt.Fprintf(&sb, " The strongest areas are %s.", joinLabels(sc.Strengths))
	}
	if len(sc.TopPriorities) > 0 {
		fmt.Fprintf(&sb, " The first place to focus is %s.", joinLabels(sc.TopPriorities))
	} else {
		sb.WriteString(" Every dimension is performing strongly; the focus now is keeping it that way as you grow.")
	}

	notes := make(map[string]string, len(sc.Dimensions))
	for _, ds := range sc.Dimensions {
		notes[string(ds.Dimension)] = fmt.Sprintf("%s scored %d%% (%s).", ds.Label, ds.Percentage, ds.Interpretation)
	}

	insights := []Insight{}
	for _, label := range sc.TopPriorities {
		ds, ok := dimensionByLabel(sc, label)
		if !ok {
			continue
		}
		insights = append(insights, Insight{
			Title:          fmt.Sprintf("Strengthen %s", ds.Label),
			Observation:    fmt.Sprintf("%s is at %d%%, one of the lowest scores in this assessment.", ds.Label, ds.Percentage),
			Recommendation: recommendations[ds.Dimension],
			Priority:       priorityFor(ds.Interpretation),
			Category:       string(ds.Dimension),
		})
	}
	if len(insights) == 0 {
		insights = append(insights, Insight{
			Title:          "Protect what is working",
			Observation:    fmt.Sprintf("All six dimensions are at or above %d%%.", minPercentage(sc)),
			Recommendation: "Revisit this assessment every six months to catch drift early.",
			Priority:       PriorityLow,
			Category:       "general",
		})
	}

	return Narrative{
		ExecutiveSummary: sb.String(),
		Insights:         insights,
		DimensionNotes:   notes,
		Source:           SourceTemplate,
	}
}

func joinLabels(labels []string) string {
	return strings.Join(labels, " and ")
}

func dimensionByLabel(sc scoring.Scorecard, label string) (scoring.DimensionScore, bool) {
	for _, ds := range sc.Dimensions {
		if ds.Label == label {
			return ds, true
		}
	}
	return scoring.DimensionScore{}, false
}

func minPercentage(sc scoring.Scorecard) int {
	if len(sc.Dimensions) == 0 {
		return 0
	}
	m := sc.Dimensions[0].Percentage
	for _, ds := range sc.Dimensions[1:] {
		m = min(m, ds.Percentage)
	}
	return m
}
