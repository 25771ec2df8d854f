package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
)

// ─── ROW DECODING ─────────────────────────────────────────────────────────────

// Responses decodes the stored answers. An empty column decodes to an empty
// mapping.
func Responses(a db.Assessment) (scoring.Responses, error) {
	r := scoring.Responses{}
	if len(a.Responses) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(a.Responses, &r); err != nil {
		return nil, fmt.Errorf("store: decode responses for %s: %w", a.ID, err)
	}
	return r, nil
}

// Scores decodes the stored scorecard, or nil if none has been computed.
func Scores(a db.Assessment) (*scoring.Scorecard, error) {
	if !a.Scores.Valid || len(a.Scores.RawMessage) == 0 {
		return nil, nil
	}
	var sc scoring.Scorecard
	if err := json.Unmarshal(a.Scores.RawMessage, &sc); err != nil {
		return nil, fmt.Errorf("store: decode scores for %s: %w", a.ID, err)
	}
	return &sc, nil
}

// Narrative decodes the stored narrative, or nil if none has been generated.
func Narrative(a db.Assessment) (*report.Narrative, error) {
	if !a.Narrative.Valid || len(a.Narrative.RawMessage) == 0 {
		return nil, nil
	}
	var n report.Narrative
	if err := json.Unmarshal(a.Narrative.RawMessage, &n); err != nil {
		return nil, fmt.Errorf("store: decode narrative for %s: %w", a.ID, err)
	}
	return &n, nil
}

// ManualInsights decodes the admin-authored insights.
func ManualInsights(a db.Assessment) ([]report.Insight, error) {
	list := []report.Insight{}
	if len(a.ManualInsights) == 0 {
		return list, nil
	}
	if err := json.Unmarshal(a.ManualInsights, &list); err != nil {
		return nil, fmt.Errorf("store: decode manual insights for %s: %w", a.ID, err)
	}
	return list, nil
}

// StateOf projects a row onto the lifecycle state machine.
func StateOf(a db.Assessment) (lifecycle.State, error) {
	responses, err := Responses(a)
	if err != nil {
		return lifecycle.State{}, err
	}
	scores, err := Scores(a)
	if err != nil {
		return lifecycle.State{}, err
	}

	var releasedAt *time.Time
	if a.ReleasedAt.Valid {
		t := a.ReleasedAt.Time
		releasedAt = &t
	}

	return lifecycle.State{
		Status:       lifecycle.Status(a.Status),
		CurrentStep:  int(a.CurrentStep),
		Responses:    responses,
		Scores:       scores,
		HasNarrative: a.Narrative.Valid && len(a.Narrative.RawMessage) > 0,
		ReleasedAt:   releasedAt,
	}, nil
}

// ReportInput gathers what report.Assemble needs from a row.
func ReportInput(a db.Assessment) (report.Input, error) {
	scores, err := Scores(a)
	if err != nil {
		return report.Input{}, err
	}
	narrative, err := Narrative(a)
	if err != nil {
		return report.Input{}, err
	}
	insights, err := ManualInsights(a)
	if err != nil {
		return report.Input{}, err
	}

	in := report.Input{
		Company:           a.Company,
		Status:            lifecycle.Status(a.Status),
		Scores:            scores,
		Narrative:         narrative,
		ManualInsights:    insights,
		ExecutiveOverride: a.ExecutiveOverride.String,
	}
	if a.ReleasedAt.Valid {
		t := a.ReleasedAt.Time
		in.ReleasedAt = &t
	}
	return in, nil
}
