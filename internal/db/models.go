package db

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type AssessmentStatus string

const (
	AssessmentStatusNotStarted    AssessmentStatus = "not_started"
	AssessmentStatusInProgress    AssessmentStatus = "in_progress"
	AssessmentStatusPendingReview AssessmentStatus = "pending_review"
	AssessmentStatusSubmitted     AssessmentStatus = "submitted"
	AssessmentStatusReportReady   AssessmentStatus = "report_ready"
	AssessmentStatusReleased      AssessmentStatus = "released"
)

func (e *AssessmentStatus) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = AssessmentStatus(s)
	case string:
		*e = AssessmentStatus(s)
	default:
		return fmt.Errorf("unsupported scan type for AssessmentStatus: %T", src)
	}
	return nil
}

func (e AssessmentStatus) Value() (driver.Value, error) {
	return string(e), nil
}

type AssessmentSource string

const (
	AssessmentSourceDemo AssessmentSource = "demo"
	AssessmentSourcePaid AssessmentSource = "paid"
)

func (e *AssessmentSource) Scan(src interface{}) error {
	switch s := src.(type) {
	case []byte:
		*e = AssessmentSource(s)
	case string:
		*e = AssessmentSource(s)
	default:
		return fmt.Errorf("unsupported scan type for AssessmentSource: %T", src)
	}
	return nil
}

func (e AssessmentSource) Value() (driver.Value, error) {
	return string(e), nil
}

type Assessment struct {
	ID                   uuid.UUID             `json:"id"`
	Token                string                `json:"token"`
	ShortCode            string                `json:"short_code"`
	Name                 string                `json:"name"`
	Email                string                `json:"email"`
	Company              string                `json:"company"`
	Source               AssessmentSource      `json:"source"`
	StripePaymentIntent  sql.NullString        `json:"stripe_payment_intent"`
	Status               AssessmentStatus      `json:"status"`
	CurrentStep          int32                 `json:"current_step"`
	Responses            json.RawMessage       `json:"responses"`
	Scores               pqtype.NullRawMessage `json:"scores"`
	Narrative            pqtype.NullRawMessage `json:"narrative"`
	ManualInsights       json.RawMessage       `json:"manual_insights"`
	ExecutiveOverride    sql.NullString        `json:"executive_override"`
	SubmittedAt          sql.NullTime          `json:"submitted_at"`
	NarrativeGeneratedAt sql.NullTime          `json:"narrative_generated_at"`
	ReleasedAt           sql.NullTime          `json:"released_at"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`
}

type StripeEvent struct {
	StripeEventID string          `json:"stripe_event_id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
	ProcessedAt   sql.NullTime    `json:"processed_at"`
	Error         sql.NullString  `json:"error"`
	ReceivedAt    time.Time       `json:"received_at"`
}
