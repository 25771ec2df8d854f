package stripe_test

import (
	"encoding/json"
	"testing"

	stripeinternal "github.com/nyashahama/ops-diagnostic-backend/internal/stripe"
)

// ─── ExtractPaymentIntentID ───────────────────────────────────────────────────

func TestExtractPaymentIntentID_Success(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"id":     "pi_abc123",
		"object": "payment_intent",
		"status": "succeeded",
	})

	event := stripeinternal.Event{
		ID:      "evt_test",
		Type:    stripeinternal.EventPaymentSucceeded,
		DataRaw: json.RawMessage(raw),
	}

	piID, err := stripeinternal.ExtractPaymentIntentID(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if piID != "pi_abc123" {
		t.Errorf("expected pi_abc123, got %q", piID)
	}
}

func TestExtractPaymentIntentID_EmptyIDReturnsError(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{"id": "", "object": "payment_intent"})
	event := stripeinternal.Event{DataRaw: json.RawMessage(raw)}

	_, err := stripeinternal.ExtractPaymentIntentID(event)
	if err == nil {
		t.Error("expected error for empty id, got nil")
	}
}

func TestExtractPaymentIntentID_MalformedJSONReturnsError(t *testing.T) {
	event := stripeinternal.Event{DataRaw: json.RawMessage(`{bad json`)}

	_, err := stripeinternal.ExtractPaymentIntentID(event)
	if err == nil {
		t.Error("expected error for malformed JSON")
	}
}

// ─── ExtractPaymentDetails ────────────────────────────────────────────────────

func TestExtractPaymentDetails_ReadsMetadata(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"id":       "pi_meta",
		"amount":   4900,
		"currency": "usd",
		"metadata": map[string]string{
			stripeinternal.MetaName:    "Ada",
			stripeinternal.MetaEmail:   "ada@example.com",
			stripeinternal.MetaCompany: "Acme",
		},
	})

	d, err := stripeinternal.ExtractPaymentDetails(stripeinternal.Event{DataRaw: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.PaymentIntentID != "pi_meta" || d.AmountCents != 4900 || d.Currency != "usd" {
		t.Errorf("unexpected details: %+v", d)
	}
	want := stripeinternal.Contact{Name: "Ada", Email: "ada@example.com", Company: "Acme"}
	if d.Contact != want {
		t.Errorf("contact: got %+v, want %+v", d.Contact, want)
	}
}

func TestExtractPaymentDetails_ReceiptEmailFallback(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"id":                 "pi_fail",
		"receipt_email":      "buyer@example.com",
		"last_payment_error": map[string]string{"message": "card declined"},
	})

	d, err := stripeinternal.ExtractPaymentDetails(stripeinternal.Event{DataRaw: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Contact.Email != "buyer@example.com" {
		t.Errorf("email: got %q", d.Contact.Email)
	}
	if d.FailureMessage != "card declined" {
		t.Errorf("failure message: got %q", d.FailureMessage)
	}
}

// ─── ToUpsertParams ───────────────────────────────────────────────────────────

func TestToUpsertParams_SetsAllFields(t *testing.T) {
	payload := []byte(`{"id":"evt_123","type":"payment_intent.succeeded"}`)
	event := stripeinternal.Event{
		ID:   "evt_123",
		Type: stripeinternal.EventPaymentSucceeded,
	}

	params := stripeinternal.ToUpsertParams(event, payload)

	if params.StripeEventID != "evt_123" {
		t.Errorf("StripeEventID: got %q", params.StripeEventID)
	}
	if params.Type != "payment_intent.succeeded" {
		t.Errorf("Type: got %q", params.Type)
	}
	if string(params.Payload) != string(payload) {
		t.Errorf("Payload mismatch")
	}
}

// ─── ToMarkFailedParams ───────────────────────────────────────────────────────

func TestToMarkFailedParams_SetsErrorMessage(t *testing.T) {
	testErr := &testError{"something went wrong"}
	params := stripeinternal.ToMarkFailedParams("evt_456", testErr)

	if params.StripeEventID != "evt_456" {
		t.Errorf("StripeEventID: got %q", params.StripeEventID)
	}
	if !params.Error.Valid {
		t.Error("expected Error.Valid=true")
	}
	if params.Error.String != "something went wrong" {
		t.Errorf("error message: got %q", params.Error.String)
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
