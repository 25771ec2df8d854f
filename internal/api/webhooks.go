package api

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nyashahama/ops-diagnostic-backend/internal/email"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
	stripeinternal "github.com/nyashahama/ops-diagnostic-backend/internal/stripe"
)

// errUnprocessable marks a handler failure that a redelivery cannot fix. The
// event is recorded as failed and acked.
var errUnprocessable = errors.New("webhook: event cannot be processed")

// ─── POST /api/webhooks/stripe ────────────────────────────────────────────────

// handleStripeWebhook is the entry point for all Stripe webhook deliveries.
//
// Stripe delivers events at-least-once and may retry on non-2xx responses.
// The handler must be idempotent: every operation it performs uses
// upsert/insert-or-ignore patterns so replays are safe.
//
// The only events we act on are:
//   - payment_intent.succeeded      → create the paid assessment + email link
//   - payment_intent.payment_failed → logged
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.stripe == nil {
		respondErr(w, http.StatusServiceUnavailable, "paid checkout is not enabled")
		return
	}

	// ── 1. Read and size-limit the body ───────────────────────────────────────
	// The signature check runs against the exact bytes Stripe signed.
	r.Body = http.MaxBytesReader(w, r.Body, 65536) // 64 KB
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondErr(w, http.StatusBadRequest, "could not read request body")
		return
	}

	// ── 2. Verify the Stripe-Signature header ─────────────────────────────────
	sig := r.Header.Get("Stripe-Signature")
	event, err := s.stripe.VerifyWebhook(payload, sig, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.logger.Warn("webhook: invalid signature", "error", err, logField(r))
		respondErr(w, http.StatusBadRequest, "invalid webhook signature")
		return
	}

	// ── 3. Idempotency: record the event, skip if already processed ───────────
	// A duplicate of an already processed event returns zero rows, which
	// surfaces as sql.ErrNoRows. Ack immediately so Stripe stops retrying.
	_, err = s.q.UpsertStripeEvent(r.Context(), stripeinternal.ToUpsertParams(event, payload))
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("webhook: duplicate event, skipping", "event_id", event.ID, logField(r))
		w.WriteHeader(http.StatusOK)
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("upsert stripe event: %w", err))
		return
	}

	// ── 4. Dispatch by event type ─────────────────────────────────────────────
	var handlerErr error

	switch event.Type {
	case stripeinternal.EventPaymentSucceeded:
		handlerErr = s.onPaymentSucceeded(r, event)

	case stripeinternal.EventPaymentFailed:
		handlerErr = s.onPaymentFailed(r, event)

	default:
		s.logger.Debug("webhook: unhandled event type", "type", event.Type, logField(r))
	}

	// ── 5. Mark event processed (or failed) ───────────────────────────────────
	if handlerErr != nil {
		s.logger.Error("webhook: handler error",
			"event_id", event.ID,
			"type", event.Type,
			"error", handlerErr,
			logField(r),
		)
		if _, err := s.q.MarkStripeEventFailed(r.Context(), stripeinternal.ToMarkFailedParams(event.ID, handlerErr)); err != nil {
			s.logger.Warn("webhook: mark event failed", "event_id", event.ID, "error", err, logField(r))
		}
		if errors.Is(handlerErr, errUnprocessable) {
			w.WriteHeader(http.StatusOK)
			return
		}
		// Return 500 so Stripe retries delivery.
		respondErr(w, http.StatusInternalServerError, "webhook handler failed")
		return
	}

	if _, err := s.q.MarkStripeEventProcessed(r.Context(), event.ID); err != nil {
		s.logger.Warn("webhook: mark event processed", "event_id", event.ID, "error", err, logField(r))
	}
	w.WriteHeader(http.StatusOK)
}

// ─── EVENT HANDLERS ───────────────────────────────────────────────────────────

func (s *Server) onPaymentSucceeded(r *http.Request, event stripeinternal.Event) error {
	d, err := stripeinternal.ExtractPaymentDetails(event)
	if err != nil {
		return fmt.Errorf("onPaymentSucceeded: extract payment: %w", err)
	}

	a, err := s.store.CreatePaidAssessment(r.Context(), d.PaymentIntentID, store.Contact{
		Name:    d.Contact.Name,
		Email:   d.Contact.Email,
		Company: d.Contact.Company,
	})
	if errors.Is(err, store.ErrAssessmentAlreadyExists) {
		s.logger.Debug("webhook: assessment already exists",
			"assessment_id", a.ID,
			"pi", d.PaymentIntentID,
			logField(r),
		)
		return nil
	}
	if errors.Is(err, store.ErrInvalidContact) {
		return fmt.Errorf("onPaymentSucceeded: pi %s: %w: %w", d.PaymentIntentID, errUnprocessable, err)
	}
	if err != nil {
		return fmt.Errorf("onPaymentSucceeded: create assessment: %w", err)
	}

	s.logger.Info("webhook: paid assessment created",
		"assessment_id", a.ID,
		"pi", d.PaymentIntentID,
		logField(r),
	)

	receiptErr := s.mailer.SendReceipt(r.Context(), email.ReceiptParams{
		To:          a.Email,
		Company:     a.Company,
		AmountCents: d.AmountCents,
		Currency:    d.Currency,
	})
	s.logAndIgnoreEmailErr(r, receiptErr, "send receipt")
	s.sendLink(r, a)

	return nil
}

func (s *Server) onPaymentFailed(r *http.Request, event stripeinternal.Event) error {
	d, err := stripeinternal.ExtractPaymentDetails(event)
	if err != nil {
		return fmt.Errorf("onPaymentFailed: extract payment: %w", err)
	}

	s.logger.Info("webhook: payment failed",
		"pi", d.PaymentIntentID,
		"reason", d.FailureMessage,
		logField(r),
	)
	return nil
}
