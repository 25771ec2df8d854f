// Package stripe defines the interface for Stripe API calls and webhook
// verification, and provides helpers used by the api package.
package stripe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
)

// Metadata keys carrying the intake contact on the PaymentIntent. The webhook
// reads them back to create the paid assessment.
const (
	MetaName    = "name"
	MetaEmail   = "email"
	MetaCompany = "company"
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// Contact is the respondent identity sent through checkout.
type Contact struct {
	Name    string
	Email   string
	Company string
}

// CreatePaymentIntentParams holds the inputs for creating a Stripe PI.
type CreatePaymentIntentParams struct {
	AmountCents int64
	Currency    string
	Contact     Contact
}

// PaymentIntent is the subset of a Stripe PaymentIntent that callers need.
type PaymentIntent struct {
	ID           string
	ClientSecret string
}

// Event is a parsed Stripe webhook event. DataRaw contains the raw JSON of the
// event's data.object so handlers can unmarshal only what they need.
type Event struct {
	ID      string
	Type    string
	DataRaw json.RawMessage
}

// Webhook event types the api package handles.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ─── CLIENT INTERFACE ─────────────────────────────────────────────────────────

// Client is the interface the api package uses for all Stripe calls.
// The concrete implementation wraps the official stripe-go SDK.
// Tests inject a stub.
type Client interface {
	// CreatePaymentIntent creates a new PI carrying the contact as metadata
	// and returns its client_secret.
	CreatePaymentIntent(ctx context.Context, p CreatePaymentIntentParams) (PaymentIntent, error)

	// VerifyWebhook validates the Stripe-Signature header and returns the
	// parsed event. Returns an error if the signature is invalid or expired.
	VerifyWebhook(payload []byte, sigHeader string, secret string) (Event, error)
}

// ─── HELPERS USED BY api/ ────────────────────────────────────────────────────

// ToUpsertParams converts a parsed Event and its raw payload into the params
// needed by db.Querier.UpsertStripeEvent.
func ToUpsertParams(event Event, rawPayload []byte) db.UpsertStripeEventParams {
	return db.UpsertStripeEventParams{
		StripeEventID: event.ID,
		Type:          event.Type,
		Payload:       json.RawMessage(rawPayload),
	}
}

// ToMarkFailedParams builds the params for db.Querier.MarkStripeEventFailed.
func ToMarkFailedParams(eventID string, err error) db.MarkStripeEventFailedParams {
	return db.MarkStripeEventFailedParams{
		StripeEventID: eventID,
		Error:         sql.NullString{String: err.Error(), Valid: true},
	}
}

// PaymentDetails is what a payment_intent.* event tells us about the buyer.
type PaymentDetails struct {
	PaymentIntentID string
	AmountCents     int64
	Currency        string
	Contact         Contact
	FailureMessage  string
}

// ExtractPaymentIntentID pulls the PaymentIntent id field from the event's
// data.object. Works for payment_intent.* events.
func ExtractPaymentIntentID(event Event) (string, error) {
	d, err := ExtractPaymentDetails(event)
	if err != nil {
		return "", err
	}
	return d.PaymentIntentID, nil
}

// ExtractPaymentDetails decodes the PaymentIntent in the event's data.object.
// The contact comes from metadata; the receipt email is used when the email
// metadata is missing.
func ExtractPaymentDetails(event Event) (PaymentDetails, error) {
	var obj struct {
		ID               string            `json:"id"`
		Amount           int64             `json:"amount"`
		Currency         string            `json:"currency"`
		ReceiptEmail     string            `json:"receipt_email"`
		Metadata         map[string]string `json:"metadata"`
		LastPaymentError *struct {
			Message string `json:"message"`
		} `json:"last_payment_error"`
	}
	if err := json.Unmarshal(event.DataRaw, &obj); err != nil {
		return PaymentDetails{}, fmt.Errorf("stripe: unmarshal payment intent: %w", err)
	}
	if obj.ID == "" {
		return PaymentDetails{}, fmt.Errorf("stripe: payment intent id is empty in event %s", event.ID)
	}

	d := PaymentDetails{
		PaymentIntentID: obj.ID,
		AmountCents:     obj.Amount,
		Currency:        obj.Currency,
		Contact: Contact{
			Name:    obj.Metadata[MetaName],
			Email:   obj.Metadata[MetaEmail],
			Company: obj.Metadata[MetaCompany],
		},
	}
	if d.Contact.Email == "" {
		d.Contact.Email = obj.ReceiptEmail
	}
	if obj.LastPaymentError != nil {
		d.FailureMessage = obj.LastPaymentError.Message
	}
	return d, nil
}
