package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const assessmentColumns = `id, token, short_code, name, email, company, source, stripe_payment_intent,
       status, current_step, responses, scores, narrative, manual_insights, executive_override,
       submitted_at, narrative_generated_at, released_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAssessment(row rowScanner) (Assessment, error) {
	var i Assessment
	err := row.Scan(
		&i.ID,
		&i.Token,
		&i.ShortCode,
		&i.Name,
		&i.Email,
		&i.Company,
		&i.Source,
		&i.StripePaymentIntent,
		&i.Status,
		&i.CurrentStep,
		&i.Responses,
		&i.Scores,
		&i.Narrative,
		&i.ManualInsights,
		&i.ExecutiveOverride,
		&i.SubmittedAt,
		&i.NarrativeGeneratedAt,
		&i.ReleasedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanAssessments(rows *sql.Rows) ([]Assessment, error) {
	defer rows.Close()
	items := []Assessment{}
	for rows.Next() {
		i, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countAssessments = `-- name: CountAssessments :one
SELECT count(*) FROM assessments
WHERE ($1::text IS NULL OR status::text = $1::text)
`

func (q *Queries) CountAssessments(ctx context.Context, status sql.NullString) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAssessments, status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createAssessment = `-- name: CreateAssessment :one
INSERT INTO assessments (token, short_code, name, email, company, source, stripe_payment_intent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + assessmentColumns

type CreateAssessmentParams struct {
	Token               string           `json:"token"`
	ShortCode           string           `json:"short_code"`
	Name                string           `json:"name"`
	Email               string           `json:"email"`
	Company             string           `json:"company"`
	Source              AssessmentSource `json:"source"`
	StripePaymentIntent sql.NullString   `json:"stripe_payment_intent"`
}

func (q *Queries) CreateAssessment(ctx context.Context, arg CreateAssessmentParams) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, createAssessment,
		arg.Token,
		arg.ShortCode,
		arg.Name,
		arg.Email,
		arg.Company,
		arg.Source,
		arg.StripePaymentIntent,
	)
	return scanAssessment(row)
}

const getAssessmentByID = `-- name: GetAssessmentByID :one
SELECT ` + assessmentColumns + `
FROM assessments WHERE id = $1
`

func (q *Queries) GetAssessmentByID(ctx context.Context, id uuid.UUID) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, getAssessmentByID, id))
}

const getAssessmentByPaymentIntent = `-- name: GetAssessmentByPaymentIntent :one
SELECT ` + assessmentColumns + `
FROM assessments WHERE stripe_payment_intent = $1
`

func (q *Queries) GetAssessmentByPaymentIntent(ctx context.Context, stripePaymentIntent sql.NullString) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, getAssessmentByPaymentIntent, stripePaymentIntent))
}

const getAssessmentByShortCode = `-- name: GetAssessmentByShortCode :one
SELECT ` + assessmentColumns + `
FROM assessments WHERE short_code = $1
`

func (q *Queries) GetAssessmentByShortCode(ctx context.Context, shortCode string) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, getAssessmentByShortCode, shortCode))
}

const getAssessmentByToken = `-- name: GetAssessmentByToken :one
SELECT ` + assessmentColumns + `
FROM assessments WHERE token = $1
`

func (q *Queries) GetAssessmentByToken(ctx context.Context, token string) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, getAssessmentByToken, token))
}

const getAssessmentForUpdate = `-- name: GetAssessmentForUpdate :one
SELECT ` + assessmentColumns + `
FROM assessments WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetAssessmentForUpdate(ctx context.Context, id uuid.UUID) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, getAssessmentForUpdate, id))
}

const listAssessments = `-- name: ListAssessments :many
SELECT ` + assessmentColumns + `
FROM assessments
WHERE ($1::text IS NULL OR status::text = $1::text)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

type ListAssessmentsParams struct {
	Status sql.NullString `json:"status"`
	Limit  int32          `json:"limit"`
	Offset int32          `json:"offset"`
}

func (q *Queries) ListAssessments(ctx context.Context, arg ListAssessmentsParams) ([]Assessment, error) {
	rows, err := q.db.QueryContext(ctx, listAssessments, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	return scanAssessments(rows)
}

const listAssessmentsAwaitingNarrative = `-- name: ListAssessmentsAwaitingNarrative :many
SELECT ` + assessmentColumns + `
FROM assessments
WHERE status IN ('pending_review', 'submitted')
  AND scores IS NOT NULL
  AND narrative IS NULL
ORDER BY submitted_at ASC
LIMIT $1
`

func (q *Queries) ListAssessmentsAwaitingNarrative(ctx context.Context, limit int32) ([]Assessment, error) {
	rows, err := q.db.QueryContext(ctx, listAssessmentsAwaitingNarrative, limit)
	if err != nil {
		return nil, err
	}
	return scanAssessments(rows)
}

const releaseAssessment = `-- name: ReleaseAssessment :one
UPDATE assessments
SET status = 'released', released_at = $2, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type ReleaseAssessmentParams struct {
	ID         uuid.UUID `json:"id"`
	ReleasedAt time.Time `json:"released_at"`
}

func (q *Queries) ReleaseAssessment(ctx context.Context, arg ReleaseAssessmentParams) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, releaseAssessment, arg.ID, arg.ReleasedAt))
}

const setAssessmentNarrative = `-- name: SetAssessmentNarrative :one
UPDATE assessments
SET narrative = $2::jsonb, narrative_generated_at = $3, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type SetAssessmentNarrativeParams struct {
	ID          uuid.UUID             `json:"id"`
	Narrative   pqtype.NullRawMessage `json:"narrative"`
	GeneratedAt time.Time             `json:"generated_at"`
}

func (q *Queries) SetAssessmentNarrative(ctx context.Context, arg SetAssessmentNarrativeParams) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, setAssessmentNarrative, arg.ID, arg.Narrative, arg.GeneratedAt))
}

const setExecutiveOverride = `-- name: SetExecutiveOverride :one
UPDATE assessments
SET executive_override = $2, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type SetExecutiveOverrideParams struct {
	ID                uuid.UUID      `json:"id"`
	ExecutiveOverride sql.NullString `json:"executive_override"`
}

func (q *Queries) SetExecutiveOverride(ctx context.Context, arg SetExecutiveOverrideParams) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, setExecutiveOverride, arg.ID, arg.ExecutiveOverride))
}

const setManualInsights = `-- name: SetManualInsights :one
UPDATE assessments
SET manual_insights = $2::jsonb, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type SetManualInsightsParams struct {
	ID             uuid.UUID       `json:"id"`
	ManualInsights json.RawMessage `json:"manual_insights"`
}

func (q *Queries) SetManualInsights(ctx context.Context, arg SetManualInsightsParams) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, setManualInsights, arg.ID, arg.ManualInsights))
}

const submitAssessment = `-- name: SubmitAssessment :one
UPDATE assessments
SET status = 'pending_review', scores = $2::jsonb, submitted_at = $3, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type SubmitAssessmentParams struct {
	ID          uuid.UUID       `json:"id"`
	Scores      json.RawMessage `json:"scores"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

func (q *Queries) SubmitAssessment(ctx context.Context, arg SubmitAssessmentParams) (Assessment, error) {
	return scanAssessment(q.db.QueryRowContext(ctx, submitAssessment, arg.ID, arg.Scores, arg.SubmittedAt))
}

const updateAssessmentProgress = `-- name: UpdateAssessmentProgress :one
UPDATE assessments
SET status = $2, current_step = $3, responses = $4::jsonb, updated_at = now()
WHERE id = $1
RETURNING ` + assessmentColumns

type UpdateAssessmentProgressParams struct {
	ID          uuid.UUID        `json:"id"`
	Status      AssessmentStatus `json:"status"`
	CurrentStep int32            `json:"current_step"`
	Responses   json.RawMessage  `json:"responses"`
}

func (q *Queries) UpdateAssessmentProgress(ctx context.Context, arg UpdateAssessmentProgressParams) (Assessment, error) {
	row := q.db.QueryRowContext(ctx, updateAssessmentProgress,
		arg.ID,
		arg.Status,
		arg.CurrentStep,
		arg.Responses,
	)
	return scanAssessment(row)
}
