package store_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

// openTestDB returns a migrated *sql.DB from DATABASE_URL. Skips if the env
// var is not set so the suite still passes without a Postgres instance.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping store integration tests")
	}
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	ctx := context.Background()
	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping: %v", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

func newStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()
	pool := openTestDB(t)
	return store.New(pool, db.New(pool)), pool
}

func contact(t *testing.T) store.Contact {
	return store.Contact{Name: "Ada", Email: "ada@example.com", Company: "Acme " + t.Name()}
}

func cleanup(t *testing.T, pool *sql.DB, id uuid.UUID) {
	t.Cleanup(func() {
		_, _ = pool.ExecContext(context.Background(), "DELETE FROM assessments WHERE id=$1", id)
	})
}

// ─── Contact ──────────────────────────────────────────────────────────────────

func TestContact_Validate(t *testing.T) {
	tests := []struct {
		name string
		c    store.Contact
		ok   bool
	}{
		{"complete", store.Contact{Name: "Ada", Email: "ada@example.com", Company: "Acme"}, true},
		{"trimmed", store.Contact{Name: " Ada ", Email: " ada@example.com ", Company: " Acme "}, true},
		{"missing name", store.Contact{Email: "ada@example.com", Company: "Acme"}, false},
		{"missing company", store.Contact{Name: "Ada", Email: "ada@example.com"}, false},
		{"missing email", store.Contact{Name: "Ada", Company: "Acme"}, false},
		{"bad email", store.Contact{Name: "Ada", Email: "not-an-email", Company: "Acme"}, false},
		{"display name form", store.Contact{Name: "Ada", Email: "Ada <ada@example.com>", Company: "Acme"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, store.ErrInvalidContact) {
				t.Errorf("expected ErrInvalidContact, got %v", err)
			}
		})
	}
}

// ─── Row decoding ─────────────────────────────────────────────────────────────

func TestStateOf_FreshRow(t *testing.T) {
	st, err := store.StateOf(db.Assessment{Status: db.AssessmentStatusNotStarted})
	if err != nil {
		t.Fatalf("StateOf: %v", err)
	}
	if st.Status != lifecycle.StatusNotStarted || st.Scores != nil || st.HasNarrative {
		t.Errorf("unexpected state: %+v", st)
	}
	if st.Responses == nil {
		t.Error("responses should decode to an empty mapping")
	}
}

func TestStateOf_ScoredRow(t *testing.T) {
	sc := scoring.CalculateScores(scoring.Responses{"control-1": scoring.Number(4)})
	scRaw, _ := json.Marshal(sc)
	nRaw, _ := json.Marshal(report.Narrative{ExecutiveSummary: "x", Source: report.SourceAI})

	row := db.Assessment{
		Status:      db.AssessmentStatusPendingReview,
		CurrentStep: 5,
		Responses:   json.RawMessage(`{"control-1":4,"clarity-5":["CRM system"]}`),
		Scores:      pqtype.NullRawMessage{RawMessage: scRaw, Valid: true},
		Narrative:   pqtype.NullRawMessage{RawMessage: nRaw, Valid: true},
	}
	st, err := store.StateOf(row)
	if err != nil {
		t.Fatalf("StateOf: %v", err)
	}
	if st.Scores == nil || st.Scores.TotalScore != sc.TotalScore {
		t.Errorf("scores not decoded: %+v", st.Scores)
	}
	if !st.HasNarrative || st.CurrentStep != 5 || len(st.Responses) != 2 {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestStateOf_CorruptColumn(t *testing.T) {
	_, err := store.StateOf(db.Assessment{Responses: json.RawMessage(`{bad`)})
	if err == nil {
		t.Error("expected decode error")
	}
}

func TestReportInput(t *testing.T) {
	row := db.Assessment{
		Company:           "Acme",
		Status:            db.AssessmentStatusReleased,
		ManualInsights:    json.RawMessage(`[{"title":"T","observation":"O","priority":"high"}]`),
		ExecutiveOverride: sql.NullString{String: "Override", Valid: true},
	}
	in, err := store.ReportInput(row)
	if err != nil {
		t.Fatalf("ReportInput: %v", err)
	}
	if len(in.ManualInsights) != 1 || in.ExecutiveOverride != "Override" || in.Company != "Acme" {
		t.Errorf("unexpected input: %+v", in)
	}
	if in.Narrative != nil || in.Scores != nil {
		t.Error("missing columns should decode to nil")
	}
}

// ─── CreateAssessment / Resolve ───────────────────────────────────────────────

func TestCreateAssessment_RejectsInvalidContact(t *testing.T) {
	st, _ := newStore(t)
	_, err := st.CreateAssessment(context.Background(), store.Contact{Name: "Ada"}, db.AssessmentSourceDemo, "")
	if !errors.Is(err, store.ErrInvalidContact) {
		t.Errorf("expected ErrInvalidContact, got %v", err)
	}
}

func TestCreateAssessment_ResolvableByCodeAndToken(t *testing.T) {
	st, pool := newStore(t)
	ctx := context.Background()

	a, err := st.CreateAssessment(ctx, contact(t), db.AssessmentSourceDemo, "")
	if err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}
	cleanup(t, pool, a.ID)

	if a.Status != db.AssessmentStatusNotStarted {
		t.Errorf("status %q, want not_started", a.Status)
	}
	if len(a.Token) != 64 || len(a.ShortCode) != 6 {
		t.Errorf("token %q short code %q", a.Token, a.ShortCode)
	}

	for _, ref := range []string{a.ShortCode, a.Token} {
		got, err := st.Resolve(ctx, ref)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", ref, err)
		}
		if got.ID != a.ID {
			t.Errorf("Resolve(%q) returned %s, want %s", ref, got.ID, a.ID)
		}
	}

	if _, err := st.Resolve(ctx, "ZZZZZZ"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown ref: got %v, want ErrNotFound", err)
	}
}

func TestCreatePaidAssessment_Idempotent(t *testing.T) {
	st, pool := newStore(t)
	ctx := context.Background()
	pi := "pi_idem_" + uuid.NewString()

	first, err := st.CreatePaidAssessment(ctx, pi, contact(t))
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	cleanup(t, pool, first.ID)

	second, err := st.CreatePaidAssessment(ctx, pi, contact(t))
	if !errors.Is(err, store.ErrAssessmentAlreadyExists) {
		t.Errorf("expected ErrAssessmentAlreadyExists, got %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("duplicate delivery returned %s, want %s", second.ID, first.ID)
	}
	if first.Source != db.AssessmentSourcePaid {
		t.Errorf("source %q, want paid", first.Source)
	}
}

// ─── Lifecycle ────────────────────────────────────────────────────────────────

func TestLifecycle_FullPath(t *testing.T) {
	st, pool := newStore(t)
	ctx := context.Background()

	a, err := st.CreateAssessment(ctx, contact(t), db.AssessmentSourceDemo, "")
	if err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}
	cleanup(t, pool, a.ID)

	a, err = st.SaveResponses(ctx, a.ID, scoring.Responses{"control-3": scoring.Text("Less than 1 week")}, 1)
	if err != nil {
		t.Fatalf("SaveResponses: %v", err)
	}
	if a.Status != db.AssessmentStatusInProgress || a.CurrentStep != 1 {
		t.Errorf("after save: status=%q step=%d", a.Status, a.CurrentStep)
	}

	// Release before submit is rejected.
	if _, err := st.ReleaseAssessment(ctx, a.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("early release: got %v, want ErrInvalidTransition", err)
	}

	a, err = st.SubmitAssessment(ctx, a.ID)
	if err != nil {
		t.Fatalf("SubmitAssessment: %v", err)
	}
	if a.Status != db.AssessmentStatusPendingReview || !a.Scores.Valid || !a.SubmittedAt.Valid {
		t.Fatalf("after submit: status=%q scores=%v", a.Status, a.Scores.Valid)
	}

	// Questionnaire is frozen after submit.
	if _, err := st.SaveResponses(ctx, a.ID, scoring.Responses{"control-1": scoring.Number(1)}, 0); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Errorf("save after submit: got %v, want ErrInvalidTransition", err)
	}

	// Release requires a narrative.
	if _, err := st.ReleaseAssessment(ctx, a.ID); !errors.Is(err, lifecycle.ErrNarrativeRequired) {
		t.Errorf("release without narrative: got %v, want ErrNarrativeRequired", err)
	}

	sc, err := store.Scores(a)
	if err != nil || sc == nil {
		t.Fatalf("decode scores: %v", err)
	}
	if _, err := st.SetNarrative(ctx, a.ID, report.FallbackNarrative(*sc, a.Company)); err != nil {
		t.Fatalf("SetNarrative: %v", err)
	}
	if _, err := st.SetManualInsights(ctx, a.ID, []report.Insight{{Title: "T", Observation: "O", Priority: report.PriorityHigh}}); err != nil {
		t.Fatalf("SetManualInsights: %v", err)
	}
	if _, err := st.SetExecutiveOverride(ctx, a.ID, "Admin summary"); err != nil {
		t.Fatalf("SetExecutiveOverride: %v", err)
	}

	a, err = st.ReleaseAssessment(ctx, a.ID)
	if err != nil {
		t.Fatalf("ReleaseAssessment: %v", err)
	}
	if a.Status != db.AssessmentStatusReleased || !a.ReleasedAt.Valid {
		t.Errorf("after release: status=%q released_at=%v", a.Status, a.ReleasedAt)
	}
	responses, _ := store.Responses(a)
	if len(responses) != 1 {
		t.Errorf("release must keep responses, got %d", len(responses))
	}

	if _, err := st.ReleaseAssessment(ctx, a.ID); !errors.Is(err, lifecycle.ErrAlreadyReleased) {
		t.Errorf("second release: got %v, want ErrAlreadyReleased", err)
	}
}

func TestAdminEdits_RequireScores(t *testing.T) {
	st, pool := newStore(t)
	ctx := context.Background()

	a, err := st.CreateAssessment(ctx, contact(t), db.AssessmentSourceDemo, "")
	if err != nil {
		t.Fatalf("CreateAssessment: %v", err)
	}
	cleanup(t, pool, a.ID)

	if _, err := st.SetNarrative(ctx, a.ID, report.Narrative{ExecutiveSummary: "x"}); !errors.Is(err, lifecycle.ErrScoresMissing) {
		t.Errorf("SetNarrative: got %v, want ErrScoresMissing", err)
	}
	if _, err := st.SetExecutiveOverride(ctx, a.ID, "x"); !errors.Is(err, lifecycle.ErrScoresMissing) {
		t.Errorf("SetExecutiveOverride: got %v, want ErrScoresMissing", err)
	}
}

func TestTransition_UnknownID(t *testing.T) {
	st, _ := newStore(t)
	if _, err := st.SubmitAssessment(context.Background(), uuid.New()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
