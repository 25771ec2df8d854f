// Package ai defines the Narrator interface used to generate report
// narratives and provides Anthropic and DeepSeek implementations, a
// provider fallback chain and a deterministic template narrator.
package ai

import (
	"context"

	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

// NarrativeRequest is everything a narrator may see about an assessment.
type NarrativeRequest struct {
	Company   string
	Scorecard scoring.Scorecard
}

// Narrator is the interface the worker uses to generate narratives.
// Tests inject a stub that returns canned responses.
type Narrator interface {
	// GenerateNarrative returns a narrative for the scorecard.
	//
	// Implementations must be safe to call concurrently.
	// A non-nil error means the call failed as a whole; the caller
	// substitutes report.FallbackNarrative.
	GenerateNarrative(ctx context.Context, req NarrativeRequest) (report.Narrative, error)
}

// templateNarrator never calls out and never fails.
type templateNarrator struct{}

// NewTemplateNarrator returns a Narrator backed by report.FallbackNarrative.
// It is used when no AI provider is configured.
func NewTemplateNarrator() Narrator { return templateNarrator{} }

func (templateNarrator) GenerateNarrative(_ context.Context, req NarrativeRequest) (report.Narrative, error) {
	return report.FallbackNarrative(req.Scorecard, req.Company), nil
}
