package db

import (
	"context"
	"database/sql"
	"encoding/json"
)

const stripeEventColumns = `stripe_event_id, type, payload, processed_at, error, received_at`

func scanStripeEvent(row rowScanner) (StripeEvent, error) {
	var i StripeEvent
	err := row.Scan(
		&i.StripeEventID,
		&i.Type,
		&i.Payload,
		&i.ProcessedAt,
		&i.Error,
		&i.ReceivedAt,
	)
	return i, err
}

const markStripeEventFailed = `-- name: MarkStripeEventFailed :one
UPDATE stripe_events SET error = $2
WHERE stripe_event_id = $1
RETURNING ` + stripeEventColumns

type MarkStripeEventFailedParams struct {
	StripeEventID string         `json:"stripe_event_id"`
	Error         sql.NullString `json:"error"`
}

func (q *Queries) MarkStripeEventFailed(ctx context.Context, arg MarkStripeEventFailedParams) (StripeEvent, error) {
	return scanStripeEvent(q.db.QueryRowContext(ctx, markStripeEventFailed, arg.StripeEventID, arg.Error))
}

const markStripeEventProcessed = `-- name: MarkStripeEventProcessed :one
UPDATE stripe_events SET processed_at = now(), error = NULL
WHERE stripe_event_id = $1
RETURNING ` + stripeEventColumns

func (q *Queries) MarkStripeEventProcessed(ctx context.Context, stripeEventID string) (StripeEvent, error) {
	return scanStripeEvent(q.db.QueryRowContext(ctx, markStripeEventProcessed, stripeEventID))
}

// A failed event (error set, processed_at null) is re-admitted so a Stripe
// retry can run the handler again.
const upsertStripeEvent = `-- name: UpsertStripeEvent :one
INSERT INTO stripe_events (stripe_event_id, type, payload)
VALUES ($1, $2, $3::jsonb)
ON CONFLICT (stripe_event_id) DO UPDATE
  SET error = NULL
  WHERE stripe_events.processed_at IS NULL AND stripe_events.error IS NOT NULL
RETURNING ` + stripeEventColumns

type UpsertStripeEventParams struct {
	StripeEventID string          `json:"stripe_event_id"`
	Type          string          `json:"type"`
	Payload       json.RawMessage `json:"payload"`
}

func (q *Queries) UpsertStripeEvent(ctx context.Context, arg UpsertStripeEventParams) (StripeEvent, error) {
	return scanStripeEvent(q.db.QueryRowContext(ctx, upsertStripeEvent, arg.StripeEventID, arg.Type, arg.Payload))
}
