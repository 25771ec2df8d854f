package catalog_test

import (
	"testing"

	"github.com/nyashahama/ops-diagnostic-backend/internal/catalog"
)

func TestDefault_Validates(t *testing.T) {
	if err := catalog.Default().Validate(); err != nil {
		t.Fatalf("default catalog invalid: %v", err)
	}
}

func TestDefault_OneSectionPerDimensionInOrder(t *testing.T) {
	c := catalog.Default()
	if c.StepCount() != len(catalog.Dimensions) {
		t.Fatalf("expected %d sections, got %d", len(catalog.Dimensions), c.StepCount())
	}
	for i, s := range c.Sections {
		if s.Dimension != catalog.Dimensions[i] {
			t.Errorf("section %d: got dimension %q, want %q", i, s.Dimension, catalog.Dimensions[i])
		}
		for _, q := range s.Questions {
			if q.Dimension != s.Dimension {
				t.Errorf("question %q tagged %q inside section %q", q.ID, q.Dimension, s.Dimension)
			}
		}
	}
}

func TestDefault_RequiredEntries(t *testing.T) {
	c := catalog.Default()

	q, ok := c.Question("control-3")
	if !ok || q.Type != catalog.TypeSelect {
		t.Fatalf("control-3 missing or not a select: %+v", q)
	}
	if score, ok := q.OptionScore("Less than 1 week"); !ok || score != 5 {
		t.Errorf("control-3 'Less than 1 week': got %d ok=%v, want 5", score, ok)
	}

	q, ok = c.Question("control-4")
	if !ok || q.Type != catalog.TypeScale || !q.Invert {
		t.Errorf("control-4 should be an inverted scale question: %+v", q)
	}

	q, ok = c.Question("clarity-5")
	if !ok || q.Type != catalog.TypeMultiselect || len(q.Signals) == 0 {
		t.Errorf("clarity-5 should be a multiselect with signals: %+v", q)
	}
}

func TestDefault_EverySelectHasMidTierAndUnsureOption(t *testing.T) {
	for _, q := range catalog.Default().Questions() {
		if q.Type != catalog.TypeSelect {
			continue
		}
		var mid, unsure bool
		for _, o := range q.Options {
			if o.Score == 3 {
				mid = true
			}
			if (o.Text == "Not sure" || o.Text == "I don't know") && o.Score > 0 && o.Score < 3 {
				unsure = true
			}
		}
		if !mid {
			t.Errorf("%s: no mid-tier option scoring 3", q.ID)
		}
		if !unsure {
			t.Errorf("%s: no low-but-nonzero unsure option", q.ID)
		}
	}
}

func TestDimension_Label(t *testing.T) {
	tests := map[catalog.Dimension]string{
		catalog.DimensionControl:         "Control",
		catalog.DimensionChangeReadiness: "Change Readiness",
		catalog.DimensionAIInvestment:    "AI Investment",
		catalog.Dimension("bogus"):       "bogus",
	}
	for d, want := range tests {
		if got := d.Label(); got != want {
			t.Errorf("%q.Label() = %q, want %q", d, got, want)
		}
	}
}

func TestValidate_RejectsBrokenCatalog(t *testing.T) {
	c := catalog.New([]catalog.Section{{
		ID: "x",
		Questions: []catalog.Question{
			{ID: "a", Dimension: catalog.DimensionControl, Type: catalog.TypeSelect},
			{ID: "a", Dimension: "nowhere", Type: "slider"},
			{ID: "b", Dimension: catalog.DimensionClarity, Type: catalog.TypeSelect,
				Options: []catalog.Option{{Text: "Too high", Score: 9}}},
			{ID: "c", Dimension: catalog.DimensionClarity, Type: catalog.TypeMultiselect,
				Options: []catalog.Option{{Text: "One"}},
				Signals: []catalog.Signal{{Any: []string{"Two"}, Delta: 1}}},
		},
	}})
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
