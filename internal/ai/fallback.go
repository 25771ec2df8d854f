package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
)

// fallbackNarrator wraps two Narrator implementations. It calls the primary
// first; if that returns an error it logs the failure and tries the secondary.
type fallbackNarrator struct {
	primary   Narrator
	secondary Narrator
	logger    *slog.Logger
}

// NewFallbackNarrator returns a Narrator that calls primary and, on failure,
// falls back to secondary. If primary is nil it goes straight to secondary;
// if secondary is nil and primary fails, the primary error is returned.
func NewFallbackNarrator(primary, secondary Narrator, logger *slog.Logger) Narrator {
	return &fallbackNarrator{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (f *fallbackNarrator) GenerateNarrative(ctx context.Context, req NarrativeRequest) (report.Narrative, error) {
	if f.primary != nil {
		n, err := f.primary.GenerateNarrative(ctx, req)
		if err == nil {
			return n, nil
		}
		f.logger.Warn("ai: primary narrator failed, trying secondary",
			"error", err,
			"band", req.Scorecard.Band,
		)
		if f.secondary == nil {
			return report.Narrative{}, fmt.Errorf("ai: primary failed and no secondary configured: %w", err)
		}
	}
	if f.secondary == nil {
		return report.Narrative{}, fmt.Errorf("ai: no narrator configured")
	}

	return f.secondary.GenerateNarrative(ctx, req)
}
