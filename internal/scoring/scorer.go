// Package scoring turns raw questionnaire responses into a Scorecard. It is
// pure: no I/O, no clock, no shared state. The only input besides the
// responses is the question catalog, which carries every rule the scorer
// needs (dimension tag, scale inversion, select tables, multiselect signals).
package scoring

import (
	"math"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

const (
	scaleMin = 1
	scaleMax = 5

	// multiselectBaseline is the starting point of the multiselect heuristic
	// and the flat score of multiselect questions that define no signals.
	multiselectBaseline = 3.0
	multiselectMin      = 1.0
	multiselectMax      = 5.0

	// pointsPerQuestion is the maximum points a single answer can earn.
	pointsPerQuestion = 5
)

// ─── PER-QUESTION SCORING ─────────────────────────────────────────────────────

// ScoreResponse converts one raw answer into 0–5 points. The second return
// value is false when the answer is unscoreable: such answers are left out of
// the dimension's denominator rather than counted as zero.
//
//   - scale: an integer 1–5; inverted questions score 6 − v.
//   - select: exact, case-sensitive match against the option table.
//   - multiselect: baseline 3 adjusted by the question's signals, clamped to
//     [1,5] and rounded; 3 when the question has no signals.
//   - text: never scored.
func ScoreResponse(q catalog.Question, v Value) (int, bool) {
	switch q.Type {
	case catalog.TypeScale:
		n, ok := v.AsNumber()
		if !ok || n != math.Trunc(n) || n < scaleMin || n > scaleMax {
			return 0, false
		}
		score := int(n)
		if q.Invert {
			score = scaleMax + 1 - score
		}
		return score, true

	case catalog.TypeSelect:
		s, ok := v.AsText()
		if !ok {
			return 0, false
		}
		return q.OptionScore(s)

	case catalog.TypeMultiselect:
		items, ok := v.AsSet()
		if !ok {
			return 0, false
		}
		return scoreMultiselect(q, items), true

	default:
		return 0, false
	}
}

func scoreMultiselect(q catalog.Question, items []string) int {
	if len(q.Signals) == 0 {
		return int(multiselectBaseline)
	}

	selected := make(map[string]struct{}, len(items))
	for _, it := range items {
		selected[it] = struct{}{}
	}

	score := multiselectBaseline
	for _, sig := range q.Signals {
		for _, opt := range sig.Any {
			if _, ok := selected[opt]; ok {
				score += sig.Delta
				break
			}
		}
	}

	score = math.Max(multiselectMin, math.Min(multiselectMax, score))
	return roundHalfUp(score)
}

// roundHalfUp rounds .5 towards +∞. All inputs here are non-negative, where
// this matches math.Round, but the intent is spelled out.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
