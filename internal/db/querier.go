package db

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

type Querier interface {
	CountAssessments(ctx context.Context, status sql.NullString) (int64, error)
	CreateAssessment(ctx context.Context, arg CreateAssessmentParams) (Assessment, error)
	GetAssessmentByID(ctx context.Context, id uuid.UUID) (Assessment, error)
	GetAssessmentByPaymentIntent(ctx context.Context, stripePaymentIntent sql.NullString) (Assessment, error)
	GetAssessmentByShortCode(ctx context.Context, shortCode string) (Assessment, error)
	GetAssessmentByToken(ctx context.Context, token string) (Assessment, error)
	// Row-locks the assessment for the rest of the transaction.
	GetAssessmentForUpdate(ctx context.Context, id uuid.UUID) (Assessment, error)
	ListAssessments(ctx context.Context, arg ListAssessmentsParams) ([]Assessment, error)
	// Scored assessments still under review with no narrative yet.
	ListAssessmentsAwaitingNarrative(ctx context.Context, limit int32) ([]Assessment, error)
	MarkStripeEventFailed(ctx context.Context, arg MarkStripeEventFailedParams) (StripeEvent, error)
	MarkStripeEventProcessed(ctx context.Context, stripeEventID string) (StripeEvent, error)
	ReleaseAssessment(ctx context.Context, arg ReleaseAssessmentParams) (Assessment, error)
	SetAssessmentNarrative(ctx context.Context, arg SetAssessmentNarrativeParams) (Assessment, error)
	SetExecutiveOverride(ctx context.Context, arg SetExecutiveOverrideParams) (Assessment, error)
	SetManualInsights(ctx context.Context, arg SetManualInsightsParams) (Assessment, error)
	// Status and scores are written in the same statement.
	SubmitAssessment(ctx context.Context, arg SubmitAssessmentParams) (Assessment, error)
	UpdateAssessmentProgress(ctx context.Context, arg UpdateAssessmentProgressParams) (Assessment, error)
	// A duplicate of an already handled event yields sql.ErrNoRows.
	UpsertStripeEvent(ctx context.Context, arg UpsertStripeEventParams) (StripeEvent, error)
}

var _ Querier = (*Queries)(nil)
