package scoring

import (
	"sort"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
)

// ─── OUTPUT TYPES ─────────────────────────────────────────────────────────────

const (
	// DimensionMax is the normalized ceiling of one dimension. Six dimensions
	// at 17 land at roughly 100.
	DimensionMax = 17
	// TotalMax is the fixed ceiling of the overall score.
	TotalMax = 100
)

// Interpretation is the per-dimension qualitative label.
type Interpretation string

const (
	InterpretationCritical  Interpretation = "critical"
	InterpretationNeedsWork Interpretation = "needs-work"
	InterpretationStable    Interpretation = "stable"
	InterpretationStrong    Interpretation = "strong"
)

// Band is the overall qualitative label. It shares thresholds with
// Interpretation but is an independent enumeration.
type Band string

const (
	BandCritical  Band = "critical"
	BandAtRisk    Band = "at-risk"
	BandStable    Band = "stable"
	BandOptimized Band = "optimized"
)

var bandLabels = map[Band]string{
	BandOptimized: "Optimized - Ready to scale with confidence",
	BandStable:    "Stable - Solid foundation with room to strengthen",
	BandAtRisk:    "At Risk - Significant gaps are limiting growth",
	BandCritical:  "Critical - Foundational work needed first",
}

// Label returns the human-readable band text.
func (b Band) Label() string { return bandLabels[b] }

// DimensionScore is the derived result for one dimension.
type DimensionScore struct {
	Dimension      catalog.Dimension `json:"dimension"`
	Label          string            `json:"label"`
	Score          int               `json:"score"`
	MaxScore       int               `json:"max_score"`
	Percentage     int               `json:"percentage"`
	Interpretation Interpretation    `json:"interpretation"`
	Answered       int               `json:"answered"`
	RawPoints      int               `json:"raw_points"`
}

// Scorecard is the full scoring result. It is always fully populated.
type Scorecard struct {
	TotalScore    int              `json:"total_score"`
	MaxScore      int              `json:"max_score"`
	Percentage    int              `json:"percentage"`
	Band          Band             `json:"band"`
	BandLabel     string           `json:"band_label"`
	Dimensions    []DimensionScore `json:"dimensions"`
	TopPriorities []string         `json:"top_priorities"`
	Strengths     []string         `json:"strengths"`
}

// Dimension returns the score for d, or false if the scorecard does not
// carry it.
func (s Scorecard) Dimension(d catalog.Dimension) (DimensionScore, bool) {
	for _, ds := range s.Dimensions {
		if ds.Dimension == d {
			return ds, true
		}
	}
	return DimensionScore{}, false
}

// ─── AGGREGATION ──────────────────────────────────────────────────────────────

// CalculateScores scores r against the default catalog.
func CalculateScores(r Responses) Scorecard {
	return Calculate(catalog.Default(), r)
}

// Calculate reduces a response mapping into a Scorecard. Responses keyed by
// ids the catalog does not know are ignored. An unanswered dimension scores
// 0%.
//
// The total is the sum of the six rounded dimension scores. That sum can
// reach 102 (6 x 17), so it is clamped to 100: TotalScore never exceeds
// MaxScore. The raw sum is not reported.
func Calculate(c *catalog.Catalog, r Responses) Scorecard {
	type bucket struct{ sum, count int }
	buckets := make(map[catalog.Dimension]*bucket, len(catalog.Dimensions))
	for _, d := range catalog.Dimensions {
		buckets[d] = &bucket{}
	}

	for id, v := range r {
		q, ok := c.Question(id)
		if !ok {
			continue
		}
		b, ok := buckets[q.Dimension]
		if !ok {
			continue
		}
		if pts, ok := ScoreResponse(q, v); ok {
			b.sum += pts
			b.count++
		}
	}

	dims := make([]DimensionScore, 0, len(catalog.Dimensions))
	total := 0
	for _, d := range catalog.Dimensions {
		b := buckets[d]
		pct := 0
		if b.count > 0 {
			pct = roundHalfUp(float64(b.sum) / float64(b.count*pointsPerQuestion) * 100)
		}
		score := roundHalfUp(float64(pct) / 100 * DimensionMax)
		total += score

		dims = append(dims, DimensionScore{
			Dimension:      d,
			Label:          d.Label(),
			Score:          score,
			MaxScore:       DimensionMax,
			Percentage:     pct,
			Interpretation: interpret(pct),
			Answered:       b.count,
			RawPoints:      b.sum,
		})
	}

	// Six dimensions at 17 can reach 102; the overall score is pinned to
	// [0,100].
	if total > TotalMax {
		total = TotalMax
	}

	band := bandFor(total)
	return Scorecard{
		TotalScore:    total,
		MaxScore:      TotalMax,
		Percentage:    total,
		Band:          band,
		BandLabel:     band.Label(),
		Dimensions:    dims,
		TopPriorities: topPriorities(dims),
		Strengths:     strengths(dims),
	}
}

func interpret(pct int) Interpretation {
	switch {
	case pct >= 80:
		return InterpretationStrong
	case pct >= 60:
		return InterpretationStable
	case pct >= 40:
		return InterpretationNeedsWork
	default:
		return InterpretationCritical
	}
}

func bandFor(pct int) Band {
	switch {
	case pct >= 80:
		return BandOptimized
	case pct >= 60:
		return BandStable
	case pct >= 40:
		return BandAtRisk
	default:
		return BandCritical
	}
}

// ─── PRIORITIES & STRENGTHS ───────────────────────────────────────────────────

// Ties keep catalog dimension order; both sorts must be stable.

func topPriorities(dims []DimensionScore) []string {
	sorted := make([]DimensionScore, len(dims))
	copy(sorted, dims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage < sorted[j].Percentage
	})

	out := []string{}
	for _, ds := range sorted[:min(2, len(sorted))] {
		if ds.Interpretation != InterpretationStrong {
			out = append(out, ds.Label)
		}
	}
	return out
}

func strengths(dims []DimensionScore) []string {
	sorted := make([]DimensionScore, len(dims))
	copy(sorted, dims)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage > sorted[j].Percentage
	})

	out := []string{}
	for _, ds := range sorted[:min(2, len(sorted))] {
		if ds.Interpretation == InterpretationStrong || ds.Interpretation == InterpretationStable {
			out = append(out, ds.Label)
		}
	}
	return out
}
