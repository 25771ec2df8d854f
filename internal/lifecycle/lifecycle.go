// Package lifecycle is the assessment state machine. Transitions are pure
// functions over State; persisting the result atomically is the caller's job.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

var (
	ErrInvalidTransition = errors.New("lifecycle: invalid transition")
	ErrScoresMissing     = errors.New("lifecycle: scores missing")
	ErrAlreadyReleased   = errors.New("lifecycle: already released")
	ErrNarrativeRequired = errors.New("lifecycle: narrative required before release")
	ErrInvalidStep       = errors.New("lifecycle: step must be >= 0")
)

// ─── STATUS ───────────────────────────────────────────────────────────────────

type Status string

const (
	StatusNotStarted    Status = "not_started"
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	// StatusSubmitted is a legacy value gated like StatusPendingReview.
	StatusSubmitted Status = "submitted"
	// StatusReportReady is a legacy value gated like StatusReleased.
	StatusReportReady Status = "report_ready"
	StatusReleased    Status = "released"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusPendingReview,
		StatusSubmitted, StatusReportReady, StatusReleased:
		return true
	}
	return false
}

// IsScored reports whether a scorecard must exist in this status.
func (s Status) IsScored() bool { return s.InReview() || s.IsReleased() }

// InReview reports whether the assessment awaits admin release.
func (s Status) InReview() bool { return s == StatusPendingReview || s == StatusSubmitted }

// IsReleased reports whether the report is visible to the respondent.
func (s Status) IsReleased() bool { return s == StatusReleased || s == StatusReportReady }

// ─── STATE ────────────────────────────────────────────────────────────────────

// State is the lifecycle-relevant slice of an assessment.
type State struct {
	Status       Status
	CurrentStep  int
	Responses    scoring.Responses
	Scores       *scoring.Scorecard
	HasNarrative bool
	ReleasedAt   *time.Time
}

func invalid(op string, from Status) error {
	return fmt.Errorf("%s from %q: %w", op, from, ErrInvalidTransition)
}

// SaveResponses merges patch into the stored answers and moves the cursor
// to step. Allowed only while the questionnaire is open.
func SaveResponses(st State, patch scoring.Responses, step int) (State, error) {
	if st.Status != StatusNotStarted && st.Status != StatusInProgress {
		return st, invalid("save responses", st.Status)
	}
	if step < 0 {
		return st, ErrInvalidStep
	}
	next := st
	next.Responses = st.Responses.Merge(patch)
	next.CurrentStep = step
	next.Status = StatusInProgress
	return next, nil
}

// Submit freezes the responses and scores them. It is the only transition
// that computes a scorecard.
func Submit(st State) (State, error) {
	if st.Status != StatusInProgress {
		return st, invalid("submit", st.Status)
	}
	sc := scoring.CalculateScores(st.Responses)
	next := st
	next.Scores = &sc
	next.Status = StatusPendingReview
	return next, nil
}

// Release makes the report visible. Responses and scores are carried over
// untouched.
func Release(st State, now time.Time) (State, error) {
	if st.Status.IsReleased() {
		return st, ErrAlreadyReleased
	}
	if !st.Status.InReview() {
		return st, invalid("release", st.Status)
	}
	if st.Scores == nil {
		return st, ErrScoresMissing
	}
	at := now.UTC()
	next := st
	next.Status = StatusReleased
	next.ReleasedAt = &at
	return next, nil
}

// CanGenerateNarrative reports whether a narrative may be requested.
func CanGenerateNarrative(st State) error {
	if st.Scores == nil {
		return ErrScoresMissing
	}
	return nil
}

// CanEdit reports whether admin edits (manual insights, executive override)
// are allowed.
func CanEdit(st State) error {
	if st.Scores == nil {
		return ErrScoresMissing
	}
	return nil
}

// RequireNarrativeForRelease is the admin-side release policy.
func RequireNarrativeForRelease(st State) error {
	if !st.HasNarrative {
		return ErrNarrativeRequired
	}
	return nil
}

// CanViewReport gates the respondent's report view on status alone.
func CanViewReport(s Status) bool { return s.IsReleased() }
