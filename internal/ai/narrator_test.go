package ai_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/nyashahama/ops-diagnostic-backend/internal/ai"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

// ─── STUBS ────────────────────────────────────────────────────────────────────

type stubNarrator struct {
	result report.Narrative
	err    error
	calls  int
}

func (s *stubNarrator) GenerateNarrative(_ context.Context, _ ai.NarrativeRequest) (report.Narrative, error) {
	s.calls++
	return s.result, s.err
}

// discardLogger returns a *slog.Logger that silently drops all log output.
// fallback.go calls f.logger.Warn(), which panics on nil.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func request() ai.NarrativeRequest {
	return ai.NarrativeRequest{Company: "Acme", Scorecard: scoring.CalculateScores(nil)}
}

// ─── FallbackNarrator ─────────────────────────────────────────────────────────

func TestFallbackNarrator_PrimarySucceeds_SecondaryNotCalled(t *testing.T) {
	primary := &stubNarrator{result: report.Narrative{ExecutiveSummary: "Primary summary"}}
	secondary := &stubNarrator{result: report.Narrative{ExecutiveSummary: "Secondary summary"}}

	n, err := ai.NewFallbackNarrator(primary, secondary, discardLogger()).GenerateNarrative(context.Background(), request())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ExecutiveSummary != "Primary summary" {
		t.Errorf("expected primary result, got: %q", n.ExecutiveSummary)
	}
	if primary.calls != 1 || secondary.calls != 0 {
		t.Errorf("calls: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestFallbackNarrator_PrimaryFails_SecondaryUsed(t *testing.T) {
	primary := &stubNarrator{err: errors.New("anthropic timeout")}
	secondary := &stubNarrator{result: report.Narrative{ExecutiveSummary: "Secondary summary"}}

	n, err := ai.NewFallbackNarrator(primary, secondary, discardLogger()).GenerateNarrative(context.Background(), request())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ExecutiveSummary != "Secondary summary" {
		t.Errorf("expected secondary result, got: %q", n.ExecutiveSummary)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("calls: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestFallbackNarrator_BothFail_ReturnsError(t *testing.T) {
	primary := &stubNarrator{err: errors.New("primary error")}
	secondary := &stubNarrator{err: errors.New("secondary error")}

	_, err := ai.NewFallbackNarrator(primary, secondary, discardLogger()).GenerateNarrative(context.Background(), request())
	if err == nil {
		t.Fatal("expected error when both narrators fail")
	}
}

func TestFallbackNarrator_NilPrimary_UsesSecondaryDirectly(t *testing.T) {
	secondary := &stubNarrator{result: report.Narrative{ExecutiveSummary: "Only secondary"}}

	n, err := ai.NewFallbackNarrator(nil, secondary, discardLogger()).GenerateNarrative(context.Background(), request())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.ExecutiveSummary != "Only secondary" || secondary.calls != 1 {
		t.Errorf("got %q with %d calls", n.ExecutiveSummary, secondary.calls)
	}
}

func TestFallbackNarrator_NilSecondary_PrimaryErrorBubbles(t *testing.T) {
	primaryErr := errors.New("primary blew up")

	_, err := ai.NewFallbackNarrator(&stubNarrator{err: primaryErr}, nil, discardLogger()).GenerateNarrative(context.Background(), request())
	if !errors.Is(err, primaryErr) {
		t.Errorf("expected to find primaryErr in chain, got: %v", err)
	}
}

func TestFallbackNarrator_NothingConfigured(t *testing.T) {
	_, err := ai.NewFallbackNarrator(nil, nil, discardLogger()).GenerateNarrative(context.Background(), request())
	if err == nil {
		t.Fatal("expected error with no narrators")
	}
}

// ─── TemplateNarrator ─────────────────────────────────────────────────────────

func TestTemplateNarrator_NeverFails(t *testing.T) {
	n, err := ai.NewTemplateNarrator().GenerateNarrative(context.Background(), request())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Source != report.SourceTemplate || n.ExecutiveSummary == "" {
		t.Errorf("unexpected narrative: %+v", n)
	}
}
