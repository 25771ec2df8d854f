package report_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

func weakScores() scoring.Scorecard {
	return scoring.CalculateScores(scoring.Responses{
		"control-1":  scoring.Number(5),
		"control-3":  scoring.Text("Less than 1 week"),
		"leverage-3": scoring.Number(4),
	})
}

// ─── FallbackNarrative ────────────────────────────────────────────────────────

func TestFallbackNarrative_NeverEmpty(t *testing.T) {
	inputs := map[string]scoring.Scorecard{
		"empty": scoring.CalculateScores(nil),
		"weak":  weakScores(),
		"zero":  {},
	}
	for name, sc := range inputs {
		t.Run(name, func(t *testing.T) {
			n := report.FallbackNarrative(sc, "")
			if strings.TrimSpace(n.ExecutiveSummary) == "" {
				t.Error("empty executive summary")
			}
			if len(n.Insights) == 0 {
				t.Error("no insights")
			}
			if n.Source != report.SourceTemplate {
				t.Errorf("source %q, want template", n.Source)
			}
			if err := report.ValidateInsights(n.Insights); err != nil {
				t.Errorf("template insights invalid: %v", err)
			}
		})
	}
}

func TestFallbackNarrative_MentionsBandAndWeakest(t *testing.T) {
	sc := weakScores()
	n := report.FallbackNarrative(sc, "Acme Ltd")

	if !strings.Contains(n.ExecutiveSummary, "Acme Ltd") {
		t.Errorf("summary missing company: %q", n.ExecutiveSummary)
	}
	if !strings.Contains(n.ExecutiveSummary, sc.BandLabel) {
		t.Errorf("summary missing band label: %q", n.ExecutiveSummary)
	}
	for _, p := range sc.TopPriorities {
		if !strings.Contains(n.ExecutiveSummary, p) {
			t.Errorf("summary missing priority %q", p)
		}
	}
	if len(n.Insights) != len(sc.TopPriorities) {
		t.Errorf("got %d insights for %d priorities", len(n.Insights), len(sc.TopPriorities))
	}
	if len(n.DimensionNotes) != 6 {
		t.Errorf("got %d dimension notes, want 6", len(n.DimensionNotes))
	}
}

func TestFallbackNarrative_Deterministic(t *testing.T) {
	sc := weakScores()
	a := report.FallbackNarrative(sc, "Acme")
	b := report.FallbackNarrative(sc, "Acme")
	if a.ExecutiveSummary != b.ExecutiveSummary || len(a.Insights) != len(b.Insights) {
		t.Error("fallback narrative is not deterministic")
	}
}

// ─── ValidateInsights ─────────────────────────────────────────────────────────

func TestValidateInsights(t *testing.T) {
	ok := report.Insight{Title: "T", Observation: "O", Priority: report.PriorityHigh}
	if err := report.ValidateInsights([]report.Insight{ok}); err != nil {
		t.Errorf("valid insight rejected: %v", err)
	}
	if err := report.ValidateInsights(nil); err != nil {
		t.Errorf("empty list rejected: %v", err)
	}

	bad := []report.Insight{
		{Observation: "O", Priority: report.PriorityLow},
		{Title: "T", Priority: report.PriorityLow},
		{Title: "T", Observation: "O", Priority: "urgent"},
	}
	for i, in := range bad {
		err := report.ValidateInsights([]report.Insight{in})
		if !errors.Is(err, report.ErrInvalidInsight) {
			t.Errorf("case %d: got %v, want ErrInvalidInsight", i, err)
		}
	}
}

// ─── Assemble ─────────────────────────────────────────────────────────────────

func TestAssemble_PlaceholderUntilReleased(t *testing.T) {
	sc := weakScores()
	n := report.FallbackNarrative(sc, "Acme")

	for _, s := range []lifecycle.Status{
		lifecycle.StatusNotStarted, lifecycle.StatusInProgress,
		lifecycle.StatusPendingReview, lifecycle.StatusSubmitted,
	} {
		v := report.Assemble(report.Input{Status: s, Scores: &sc, Narrative: &n})
		if v.Ready || v.Scores != nil || v.ExecutiveSummary != "" || len(v.Insights) != 0 {
			t.Errorf("%s: leaked report content: %+v", s, v)
		}
		if v.Message != report.PreparingMessage {
			t.Errorf("%s: message %q", s, v.Message)
		}
	}
}

func TestAssemble_ReleasedMergesEdits(t *testing.T) {
	sc := weakScores()
	n := report.Narrative{
		ExecutiveSummary: "AI summary",
		Insights:         []report.Insight{{Title: "AI insight", Observation: "o", Priority: report.PriorityMedium}},
		Source:           report.SourceAI,
	}
	manual := []report.Insight{{Title: "Admin insight", Observation: "o", Priority: report.PriorityHigh}}

	for _, s := range []lifecycle.Status{lifecycle.StatusReleased, lifecycle.StatusReportReady} {
		v := report.Assemble(report.Input{
			Status:            s,
			Scores:            &sc,
			Narrative:         &n,
			ManualInsights:    manual,
			ExecutiveOverride: "  Admin summary  ",
		})
		if !v.Ready || v.Scores == nil {
			t.Fatalf("%s: expected ready view", s)
		}
		if v.ExecutiveSummary != "Admin summary" {
			t.Errorf("%s: summary %q, want override", s, v.ExecutiveSummary)
		}
		if len(v.Insights) != 2 || v.Insights[0].Title != "Admin insight" || v.Insights[1].Title != "AI insight" {
			t.Errorf("%s: insights out of order: %+v", s, v.Insights)
		}
		if v.NarrativeSource != report.SourceAI {
			t.Errorf("%s: source %q", s, v.NarrativeSource)
		}
	}
}

func TestAssemble_ReleasedWithoutNarrativeUsesTemplate(t *testing.T) {
	sc := weakScores()
	v := report.Assemble(report.Input{Status: lifecycle.StatusReleased, Scores: &sc, Company: "Acme"})
	if !v.Ready || v.NarrativeSource != report.SourceTemplate || v.ExecutiveSummary == "" {
		t.Errorf("expected template narrative, got %+v", v)
	}
}

func TestAssembleForAdmin_IgnoresStatusGate(t *testing.T) {
	sc := weakScores()
	v := report.AssembleForAdmin(report.Input{Status: lifecycle.StatusPendingReview, Scores: &sc})
	if !v.Ready {
		t.Error("admin preview should be ready for a scored assessment")
	}

	v = report.AssembleForAdmin(report.Input{Status: lifecycle.StatusInProgress})
	if v.Ready {
		t.Error("admin preview without scores should be the placeholder")
	}
}
