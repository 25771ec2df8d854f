package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
	"github.com/nyashahama/ops-diagnostic-backend/internal/shortcode"
)

// ─── INPUT TYPES ─────────────────────────────────────────────────────────────

// Contact is the intake form shared by the demo and paid paths.
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// Normalize trims every field.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Company: strings.TrimSpace(c.Company),
	}
}

// Validate rejects an incomplete intake form before anything is persisted.
func (c Contact) Validate() error {
	c = c.Normalize()
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if c.Company == "" {
		errs = append(errs, errors.New("company is required"))
	}
	if c.Email == "" {
		errs = append(errs, errors.New("email is required"))
	} else if addr, err := mail.ParseAddress(c.Email); err != nil || addr.Address != c.Email {
		errs = append(errs, errors.New("email is not a valid address"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContact, errors.Join(errs...))
	}
	return nil
}

// ─── ERRORS ──────────────────────────────────────────────────────────────────

var (
	// ErrNotFound is returned when neither a short code nor a token matches.
	ErrNotFound = errors.New("store: assessment not found")

	// ErrInvalidContact wraps intake validation failures.
	ErrInvalidContact = errors.New("store: invalid contact")

	// ErrAssessmentAlreadyExists is returned by CreatePaidAssessment when the
	// PaymentIntent already has an assessment. The webhook handler treats it
	// as idempotent success.
	ErrAssessmentAlreadyExists = errors.New("store: assessment already exists for payment intent")
)

const (
	maxShortCodeAttempts = 5
	tokenBytes           = 32

	pqUniqueViolation       = "23505"
	shortCodeConstraint     = "assessments_short_code_key"
	paymentIntentConstraint = "assessments_stripe_payment_intent_key"
)

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("store: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == constraint
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ─── INTAKE ──────────────────────────────────────────────────────────────────

// CreateAssessment validates the intake form and inserts a not_started
// assessment with a fresh token and short code. A short code collision is
// retried with a new code; nothing is persisted on failure.
func (s *Store) CreateAssessment(ctx context.Context, c Contact, source db.AssessmentSource, paymentIntent string) (db.Assessment, error) {
	if err := c.Validate(); err != nil {
		return db.Assessment{}, err
	}
	return s.insertAssessment(ctx, s.q, c.Normalize(), source, paymentIntent)
}

func (s *Store) insertAssessment(ctx context.Context, q db.Querier, c Contact, source db.AssessmentSource, paymentIntent string) (db.Assessment, error) {
	token, err := newToken()
	if err != nil {
		return db.Assessment{}, err
	}

	for attempt := 0; attempt < maxShortCodeAttempts; attempt++ {
		code, err := shortcode.Generate()
		if err != nil {
			return db.Assessment{}, err
		}

		a, err := q.CreateAssessment(ctx, db.CreateAssessmentParams{
			Token:     token,
			ShortCode: code,
			Name:      c.Name,
			Email:     c.Email,
			Company:   c.Company,
			Source:    source,
			StripePaymentIntent: sql.NullString{
				String: paymentIntent,
				Valid:  paymentIntent != "",
			},
		})
		if uniqueViolation(err, shortCodeConstraint) {
			continue
		}
		if err != nil {
			return db.Assessment{}, fmt.Errorf("CreateAssessment: insert: %w", err)
		}
		return a, nil
	}
	return db.Assessment{}, fmt.Errorf("CreateAssessment: no free short code after %d attempts", maxShortCodeAttempts)
}

// CreatePaidAssessment is called from the payment_intent.succeeded webhook.
// If the PaymentIntent already has an assessment (duplicate delivery), the
// existing row is returned with ErrAssessmentAlreadyExists.
func (s *Store) CreatePaidAssessment(ctx context.Context, paymentIntent string, c Contact) (db.Assessment, error) {
	if err := c.Validate(); err != nil {
		return db.Assessment{}, err
	}
	pi := sql.NullString{String: paymentIntent, Valid: true}

	existing, err := s.q.GetAssessmentByPaymentIntent(ctx, pi)
	if err == nil {
		return existing, ErrAssessmentAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return db.Assessment{}, fmt.Errorf("CreatePaidAssessment: check existing: %w", err)
	}

	a, err := s.insertAssessment(ctx, s.q, c.Normalize(), db.AssessmentSourcePaid, paymentIntent)
	if uniqueViolation(err, paymentIntentConstraint) {
		// Lost a race with a concurrent delivery of the same event.
		existing, getErr := s.q.GetAssessmentByPaymentIntent(ctx, pi)
		if getErr != nil {
			return db.Assessment{}, fmt.Errorf("CreatePaidAssessment: reload after conflict: %w", getErr)
		}
		return existing, ErrAssessmentAlreadyExists
	}
	return a, err
}

// ─── LOOKUP ──────────────────────────────────────────────────────────────────

// Resolve finds an assessment by short code, falling back to treating ref as
// a raw token so links issued before short codes keep working.
func (s *Store) Resolve(ctx context.Context, ref string) (db.Assessment, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return db.Assessment{}, ErrNotFound
	}

	if code, ok := shortcode.Normalize(ref); ok {
		a, err := s.q.GetAssessmentByShortCode(ctx, code)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return db.Assessment{}, fmt.Errorf("Resolve: by short code: %w", err)
		}
	}

	a, err := s.q.GetAssessmentByToken(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Assessment{}, ErrNotFound
		}
		return db.Assessment{}, fmt.Errorf("Resolve: by token: %w", err)
	}
	return a, nil
}

// ─── LIFECYCLE TRANSITIONS ───────────────────────────────────────────────────

// transition locks the row, projects it onto the state machine and hands the
// state to fn inside one serializable transaction.
func (s *Store) transition(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error)) (db.Assessment, error) {
	var out db.Assessment
	err := s.withTx(ctx, func(ctx context.Context, q db.Querier) error {
		row, err := q.GetAssessmentForUpdate(ctx, id)
		if err != nil {
			return notFound(err)
		}
		st, err := StateOf(row)
		if err != nil {
			return err
		}
		out, err = fn(ctx, q, st)
		return err
	})
	if err != nil {
		return db.Assessment{}, err
	}
	return out, nil
}

// SaveResponses merges patch into the stored answers and records the step.
func (s *Store) SaveResponses(ctx context.Context, id uuid.UUID, patch scoring.Responses, step int) (db.Assessment, error) {
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		next, err := lifecycle.SaveResponses(st, patch, step)
		if err != nil {
			return db.Assessment{}, err
		}
		raw, err := json.Marshal(next.Responses)
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SaveResponses: encode responses: %w", err)
		}
		a, err := q.UpdateAssessmentProgress(ctx, db.UpdateAssessmentProgressParams{
			ID:          id,
			Status:      db.AssessmentStatus(next.Status),
			CurrentStep: int32(next.CurrentStep),
			Responses:   raw,
		})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SaveResponses: update: %w", err)
		}
		return a, nil
	})
}

// SubmitAssessment scores the responses and moves the assessment to
// pending_review. Status and scorecard are written in one statement.
func (s *Store) SubmitAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error) {
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		next, err := lifecycle.Submit(st)
		if err != nil {
			return db.Assessment{}, err
		}
		raw, err := json.Marshal(next.Scores)
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SubmitAssessment: encode scores: %w", err)
		}
		a, err := q.SubmitAssessment(ctx, db.SubmitAssessmentParams{
			ID:          id,
			Scores:      raw,
			SubmittedAt: s.now().UTC(),
		})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SubmitAssessment: update: %w", err)
		}
		return a, nil
	})
}

// ReleaseAssessment makes the report visible to the respondent. A narrative
// must already exist.
func (s *Store) ReleaseAssessment(ctx context.Context, id uuid.UUID) (db.Assessment, error) {
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		next, err := lifecycle.Release(st, s.now())
		if err != nil {
			return db.Assessment{}, err
		}
		if err := lifecycle.RequireNarrativeForRelease(st); err != nil {
			return db.Assessment{}, err
		}
		a, err := q.ReleaseAssessment(ctx, db.ReleaseAssessmentParams{
			ID:         id,
			ReleasedAt: *next.ReleasedAt,
		})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("ReleaseAssessment: update: %w", err)
		}
		return a, nil
	})
}

// ─── ADMIN EDITS ─────────────────────────────────────────────────────────────

// SetNarrative stores a generated narrative. It does not change status.
func (s *Store) SetNarrative(ctx context.Context, id uuid.UUID, n report.Narrative) (db.Assessment, error) {
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		if err := lifecycle.CanGenerateNarrative(st); err != nil {
			return db.Assessment{}, err
		}
		if n.GeneratedAt.IsZero() {
			n.GeneratedAt = s.now().UTC()
		}
		raw, err := json.Marshal(n)
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SetNarrative: encode: %w", err)
		}
		a, err := q.SetAssessmentNarrative(ctx, db.SetAssessmentNarrativeParams{
			ID:          id,
			Narrative:   pqtype.NullRawMessage{RawMessage: raw, Valid: true},
			GeneratedAt: n.GeneratedAt,
		})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SetNarrative: update: %w", err)
		}
		return a, nil
	})
}

// SetManualInsights replaces the admin-authored insight list.
func (s *Store) SetManualInsights(ctx context.Context, id uuid.UUID, list []report.Insight) (db.Assessment, error) {
	if err := report.ValidateInsights(list); err != nil {
		return db.Assessment{}, err
	}
	if list == nil {
		list = []report.Insight{}
	}
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		if err := lifecycle.CanEdit(st); err != nil {
			return db.Assessment{}, err
		}
		raw, err := json.Marshal(list)
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SetManualInsights: encode: %w", err)
		}
		a, err := q.SetManualInsights(ctx, db.SetManualInsightsParams{ID: id, ManualInsights: raw})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SetManualInsights: update: %w", err)
		}
		return a, nil
	})
}

// SetExecutiveOverride stores the admin summary shown atop the report. An
// empty text clears it.
func (s *Store) SetExecutiveOverride(ctx context.Context, id uuid.UUID, text string) (db.Assessment, error) {
	text = strings.TrimSpace(text)
	return s.transition(ctx, id, func(ctx context.Context, q db.Querier, st lifecycle.State) (db.Assessment, error) {
		if err := lifecycle.CanEdit(st); err != nil {
			return db.Assessment{}, err
		}
		a, err := q.SetExecutiveOverride(ctx, db.SetExecutiveOverrideParams{
			ID:                id,
			ExecutiveOverride: sql.NullString{String: text, Valid: text != ""},
		})
		if err != nil {
			return db.Assessment{}, fmt.Errorf("SetExecutiveOverride: update: %w", err)
		}
		return a, nil
	})
}
