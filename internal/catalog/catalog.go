// Package catalog holds the static questionnaire definition: six dimension
// sections, their questions, option sets and per-option scores. It is pure
// data. Scoring rules live in the scoring package and read everything they
// need (dimension, inversion, option scores, multiselect signals) from the
// Question itself, so there is no side table keyed by question id.
package catalog

import (
	"errors"
	"fmt"
)

// ─── DIMENSIONS ───────────────────────────────────────────────────────────────

// Dimension is one of the six fixed operational categories.
type Dimension string

const (
	DimensionControl         Dimension = "control"
	DimensionClarity         Dimension = "clarity"
	DimensionLeverage        Dimension = "leverage"
	DimensionFriction        Dimension = "friction"
	DimensionChangeReadiness Dimension = "change-readiness"
	DimensionAIInvestment    Dimension = "ai-investment"
)

// Dimensions is the canonical iteration order. Scorecards, tie-breaks and
// sections all follow it.
var Dimensions = []Dimension{
	DimensionControl,
	DimensionClarity,
	DimensionLeverage,
	DimensionFriction,
	DimensionChangeReadiness,
	DimensionAIInvestment,
}

var dimensionLabels = map[Dimension]string{
	DimensionControl:         "Control",
	DimensionClarity:         "Clarity",
	DimensionLeverage:        "Leverage",
	DimensionFriction:        "Friction",
	DimensionChangeReadiness: "Change Readiness",
	DimensionAIInvestment:    "AI Investment",
}

// Label returns the human-readable dimension name.
func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// Valid reports whether d is one of the six known dimensions.
func (d Dimension) Valid() bool {
	_, ok := dimensionLabels[d]
	return ok
}

// ─── QUESTIONS ────────────────────────────────────────────────────────────────

// QuestionType selects the scoring rule for a question.
type QuestionType string

const (
	TypeScale       QuestionType = "scale"
	TypeText        QuestionType = "text"
	TypeSelect      QuestionType = "select"
	TypeMultiselect QuestionType = "multiselect"
)

// Option is one selectable answer. Score is only meaningful for select
// questions (0–5).
type Option struct {
	Text  string `json:"text"`
	Score int    `json:"-"`
}

// ScaleLabels names the two ends of a 1–5 scale.
type ScaleLabels struct {
	Low  string `json:"low"`
	High string `json:"high"`
}

// Signal is one rule of the multiselect heuristic. It fires once if any of
// the Any options is selected, adding Delta to the baseline.
type Signal struct {
	Any   []string
	Delta float64
}

// Question is an immutable catalog entry.
type Question struct {
	ID          string       `json:"id"`
	Dimension   Dimension    `json:"dimension"`
	Type        QuestionType `json:"type"`
	Prompt      string       `json:"prompt"`
	Help        string       `json:"help,omitempty"`
	Options     []Option     `json:"options,omitempty"`
	ScaleLabels *ScaleLabels `json:"scale_labels,omitempty"`

	// Invert flips a scale answer (6 − v) for questions phrased so that a
	// higher raw answer means a worse state.
	Invert bool `json:"-"`

	// Signals drive the multiselect heuristic. Multiselect questions without
	// signals score a flat neutral 3.
	Signals []Signal `json:"-"`
}

// OptionScore returns the score mapped to the exact option text.
func (q Question) OptionScore(text string) (int, bool) {
	for _, o := range q.Options {
		if o.Text == text {
			return o.Score, true
		}
	}
	return 0, false
}

// Section groups the questions of one questionnaire step.
type Section struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Dimension   Dimension  `json:"dimension"`
	Questions   []Question `json:"questions"`
}

// ─── CATALOG ──────────────────────────────────────────────────────────────────

// Catalog is an ordered set of sections with an id index.
type Catalog struct {
	Sections []Section
	byID     map[string]Question
}

// New builds a Catalog from sections and indexes its questions. It does not
// validate; call Validate at startup.
func New(sections []Section) *Catalog {
	c := &Catalog{Sections: sections, byID: make(map[string]Question)}
	for _, s := range sections {
		for _, q := range s.Questions {
			c.byID[q.ID] = q
		}
	}
	return c
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Questions returns every question in section order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, 0, len(c.byID))
	for _, s := range c.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// StepCount is the number of questionnaire steps (one per section).
func (c *Catalog) StepCount() int { return len(c.Sections) }

// Validate checks the structural rules every catalog must satisfy.
func (c *Catalog) Validate() error {
	var errs []error
	seen := make(map[string]struct{})

	for _, s := range c.Sections {
		for _, q := range s.Questions {
			if q.ID == "" {
				errs = append(errs, fmt.Errorf("section %q: question with empty id", s.ID))
				continue
			}
			if _, dup := seen[q.ID]; dup {
				errs = append(errs, fmt.Errorf("question %q: duplicate id", q.ID))
			}
			seen[q.ID] = struct{}{}

			if !q.Dimension.Valid() {
				errs = append(errs, fmt.Errorf("question %q: unknown dimension %q", q.ID, q.Dimension))
			}
			errs = append(errs, validateQuestion(q)...)
		}
	}
	return errors.Join(errs...)
}

func validateQuestion(q Question) []error {
	var errs []error
	switch q.Type {
	case TypeScale, TypeText:
	case TypeSelect:
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Errorf("question %q: select without options", q.ID))
		}
		for _, o := range q.Options {
			if o.Score < 0 || o.Score > 5 {
				errs = append(errs, fmt.Errorf("question %q: option %q score %d out of range [0,5]", q.ID, o.Text, o.Score))
			}
		}
	case TypeMultiselect:
		if len(q.Options) == 0 {
			errs = append(errs, fmt.Errorf("question %q: multiselect without options", q.ID))
		}
		for _, sig := range q.Signals {
			for _, name := range sig.Any {
				if _, ok := q.OptionScore(name); !ok {
					errs = append(errs, fmt.Errorf("question %q: signal references unknown option %q", q.ID, name))
				}
			}
		}
	default:
		errs = append(errs, fmt.Errorf("question %q: unknown type %q", q.ID, q.Type))
	}
	return errs
}
