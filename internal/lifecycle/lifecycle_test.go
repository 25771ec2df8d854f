package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

func TestSaveResponses_StartsAndMerges(t *testing.T) {
	st := lifecycle.State{Status: lifecycle.StatusNotStarted}

	st, err := lifecycle.SaveResponses(st, scoring.Responses{"control-1": scoring.Number(4)}, 1)
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	if st.Status != lifecycle.StatusInProgress || st.CurrentStep != 1 {
		t.Errorf("got status=%q step=%d", st.Status, st.CurrentStep)
	}

	st, err = lifecycle.SaveResponses(st, scoring.Responses{"control-2": scoring.Number(2)}, 0)
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(st.Responses) != 2 || st.CurrentStep != 0 {
		t.Errorf("got %d responses step=%d, want 2 and 0", len(st.Responses), st.CurrentStep)
	}
}

func TestSaveResponses_RejectsNegativeStep(t *testing.T) {
	_, err := lifecycle.SaveResponses(lifecycle.State{Status: lifecycle.StatusInProgress}, nil, -1)
	if !errors.Is(err, lifecycle.ErrInvalidStep) {
		t.Errorf("got %v, want ErrInvalidStep", err)
	}
}

func TestSaveResponses_ClosedAfterSubmit(t *testing.T) {
	for _, s := range []lifecycle.Status{
		lifecycle.StatusPendingReview, lifecycle.StatusSubmitted,
		lifecycle.StatusReleased, lifecycle.StatusReportReady,
	} {
		_, err := lifecycle.SaveResponses(lifecycle.State{Status: s}, nil, 0)
		if !errors.Is(err, lifecycle.ErrInvalidTransition) {
			t.Errorf("%s: got %v, want ErrInvalidTransition", s, err)
		}
	}
}

func TestSubmit_ScoresAndMovesToReview(t *testing.T) {
	st := lifecycle.State{
		Status:    lifecycle.StatusInProgress,
		Responses: scoring.Responses{"control-3": scoring.Text("Less than 1 week")},
	}
	next, err := lifecycle.Submit(st)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if next.Status != lifecycle.StatusPendingReview {
		t.Errorf("status %q, want pending_review", next.Status)
	}
	if next.Scores == nil {
		t.Fatal("submit must produce a scorecard")
	}
	if len(next.Scores.Dimensions) != 6 {
		t.Errorf("got %d dimensions", len(next.Scores.Dimensions))
	}
}

func TestSubmit_OnlyFromInProgress(t *testing.T) {
	for _, s := range []lifecycle.Status{
		lifecycle.StatusNotStarted, lifecycle.StatusPendingReview, lifecycle.StatusReleased,
	} {
		if _, err := lifecycle.Submit(lifecycle.State{Status: s}); !errors.Is(err, lifecycle.ErrInvalidTransition) {
			t.Errorf("%s: got %v, want ErrInvalidTransition", s, err)
		}
	}
}

func TestRelease_RequiresScores(t *testing.T) {
	st := lifecycle.State{Status: lifecycle.StatusPendingReview}
	_, err := lifecycle.Release(st, time.Now())
	if !errors.Is(err, lifecycle.ErrScoresMissing) {
		t.Errorf("got %v, want ErrScoresMissing", err)
	}
}

func TestRelease_FromReviewKeepsResponses(t *testing.T) {
	sc := scoring.CalculateScores(nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, s := range []lifecycle.Status{lifecycle.StatusPendingReview, lifecycle.StatusSubmitted} {
		st := lifecycle.State{
			Status:    s,
			Responses: scoring.Responses{"control-1": scoring.Number(2)},
			Scores:    &sc,
		}
		next, err := lifecycle.Release(st, now)
		if err != nil {
			t.Fatalf("%s: release: %v", s, err)
		}
		if next.Status != lifecycle.StatusReleased {
			t.Errorf("%s: status %q", s, next.Status)
		}
		if next.ReleasedAt == nil || !next.ReleasedAt.Equal(now) {
			t.Errorf("%s: released_at %v", s, next.ReleasedAt)
		}
		if len(next.Responses) != 1 || next.Scores != &sc {
			t.Errorf("%s: release must not touch responses or scores", s)
		}
	}
}

func TestRelease_NotReachableFromQuestionnaire(t *testing.T) {
	sc := scoring.CalculateScores(nil)
	for _, s := range []lifecycle.Status{lifecycle.StatusNotStarted, lifecycle.StatusInProgress} {
		_, err := lifecycle.Release(lifecycle.State{Status: s, Scores: &sc}, time.Now())
		if !errors.Is(err, lifecycle.ErrInvalidTransition) {
			t.Errorf("%s: got %v, want ErrInvalidTransition", s, err)
		}
	}
}

func TestRelease_NoUnrelease(t *testing.T) {
	sc := scoring.CalculateScores(nil)
	for _, s := range []lifecycle.Status{lifecycle.StatusReleased, lifecycle.StatusReportReady} {
		_, err := lifecycle.Release(lifecycle.State{Status: s, Scores: &sc}, time.Now())
		if !errors.Is(err, lifecycle.ErrAlreadyReleased) {
			t.Errorf("%s: got %v, want ErrAlreadyReleased", s, err)
		}
	}
}

func TestGates(t *testing.T) {
	sc := scoring.CalculateScores(nil)

	if err := lifecycle.CanGenerateNarrative(lifecycle.State{}); !errors.Is(err, lifecycle.ErrScoresMissing) {
		t.Errorf("CanGenerateNarrative without scores: %v", err)
	}
	if err := lifecycle.CanGenerateNarrative(lifecycle.State{Scores: &sc}); err != nil {
		t.Errorf("CanGenerateNarrative with scores: %v", err)
	}
	if err := lifecycle.CanEdit(lifecycle.State{}); !errors.Is(err, lifecycle.ErrScoresMissing) {
		t.Errorf("CanEdit without scores: %v", err)
	}
	if err := lifecycle.RequireNarrativeForRelease(lifecycle.State{}); !errors.Is(err, lifecycle.ErrNarrativeRequired) {
		t.Errorf("RequireNarrativeForRelease: %v", err)
	}

	views := map[lifecycle.Status]bool{
		lifecycle.StatusNotStarted:    false,
		lifecycle.StatusInProgress:    false,
		lifecycle.StatusPendingReview: false,
		lifecycle.StatusSubmitted:     false,
		lifecycle.StatusReportReady:   true,
		lifecycle.StatusReleased:      true,
	}
	for s, want := range views {
		if got := lifecycle.CanViewReport(s); got != want {
			t.Errorf("CanViewReport(%s) = %v, want %v", s, got, want)
		}
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if lifecycle.Status("archived").Valid() {
		t.Error("unknown status should be invalid")
	}
}
