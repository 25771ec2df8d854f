// Package report assembles the respondent-facing report from the scorecard,
// the generated narrative and the admin's edits. It has no I/O.
package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ─── NARRATIVE ────────────────────────────────────────────────────────────────

// Source records where a narrative came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// Priority ranks an insight.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Insight is one finding shown in the report, authored either by the
// narrative generator or by an admin.
type Insight struct {
	Title          string   `json:"title"`
	Observation    string   `json:"observation"`
	Recommendation string   `json:"recommendation"`
	Priority       Priority `json:"priority"`
	Category       string   `json:"category"`
}

// Narrative is the free-text layer on top of the scorecard.
type Narrative struct {
	ExecutiveSummary string            `json:"executive_summary"`
	Insights         []Insight         `json:"insights"`
	DimensionNotes   map[string]string `json:"dimension_notes,omitempty"`
	Source           Source            `json:"source"`
	Provider         string            `json:"provider,omitempty"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// ErrInvalidInsight is wrapped by ValidateInsights.
var ErrInvalidInsight = errors.New("report: invalid insight")

// ValidateInsights checks admin-authored insights before they are stored.
func ValidateInsights(list []Insight) error {
	var errs []error
	for i, in := range list {
		if strings.TrimSpace(in.Title) == "" {
			errs = append(errs, fmt.Errorf("insight %d: title is required: %w", i, ErrInvalidInsight))
		}
		if strings.TrimSpace(in.Observation) == "" {
			errs = append(errs, fmt.Errorf("insight %d: observation is required: %w", i, ErrInvalidInsight))
		}
		if !in.Priority.Valid() {
			errs = append(errs, fmt.Errorf("insight %d: unknown priority %q: %w", i, in.Priority, ErrInvalidInsight))
		}
	}
	return errors.Join(errs...)
}
