package api

import (
	"fmt"
	"net/http"

	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
	stripeinternal "github.com/nyashahama/ops-diagnostic-backend/internal/stripe"
)

// ─── POST /api/checkout ───────────────────────────────────────────────────────

type createCheckoutRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

type createCheckoutResponse struct {
	// ClientSecret is the Stripe PaymentIntent client_secret. The browser
	// passes this to Stripe.js to render the payment UI and confirm the charge.
	ClientSecret string `json:"client_secret"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
}

// handleCreateCheckout validates the intake form and creates a Stripe
// PaymentIntent carrying it as metadata. No assessment exists yet: the
// payment_intent.succeeded webhook creates it, so an abandoned checkout
// leaves nothing behind.
func (s *Server) handleCreateCheckout(w http.ResponseWriter, r *http.Request) {
	if s.stripe == nil {
		respondErr(w, http.StatusServiceUnavailable, "paid checkout is not enabled")
		return
	}

	var req createCheckoutRequest
	if !decode(w, r, &req) {
		return
	}

	contact := store.Contact{Name: req.Name, Email: req.Email, Company: req.Company}
	if err := contact.Validate(); err != nil {
		s.respondDomainErr(w, r, err)
		return
	}
	contact = contact.Normalize()

	pi, err := s.stripe.CreatePaymentIntent(r.Context(), stripeinternal.CreatePaymentIntentParams{
		AmountCents: s.cfg.PriceCents,
		Currency:    s.cfg.Currency,
		Contact: stripeinternal.Contact{
			Name:    contact.Name,
			Email:   contact.Email,
			Company: contact.Company,
		},
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create payment intent: %w", err))
		return
	}

	s.logger.Info("checkout: payment intent created", "pi", pi.ID, logField(r))
	respond(w, http.StatusOK, createCheckoutResponse{
		ClientSecret: pi.ClientSecret,
		AmountCents:  s.cfg.PriceCents,
		Currency:     s.cfg.Currency,
	})
}
