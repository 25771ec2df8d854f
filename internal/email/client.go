// Package email defines the interface for transactional email delivery and
// provides a Resend-backed implementation.
package email

import (
	"context"
	"log/slog"
)

// LinkParams holds the data for the "start your assessment" email.
type LinkParams struct {
	To       string // recipient email address
	Name     string // respondent name; may be empty
	Company  string // used in the subject line; may be empty
	ShareURL string // short link, e.g. https://app.example.com/r/ABC234
}

// ReceiptParams holds the data for the post-payment receipt email.
type ReceiptParams struct {
	To          string
	Company     string
	AmountCents int64  // e.g. 4900 for $49.00
	Currency    string // e.g. "usd"
}

// ReleasedParams holds the data for the "your report is ready" email sent
// when an admin releases the report.
type ReleasedParams struct {
	To        string
	Name      string
	Company   string
	ReportURL string
}

// Sender is the interface the api package uses to send email.
// Tests inject a stub that records calls without hitting the network.
//
// Callers log failures and never fail the request because of them.
type Sender interface {
	// SendAssessmentLink sends the questionnaire link after intake or payment.
	SendAssessmentLink(ctx context.Context, p LinkParams) error

	// SendReceipt sends the payment receipt. Called by the webhook handler
	// immediately after payment confirmation.
	SendReceipt(ctx context.Context, p ReceiptParams) error

	// SendReportReleased tells the respondent their report can be viewed.
	SendReportReleased(ctx context.Context, p ReleasedParams) error
}

// ─── LOG SENDER ───────────────────────────────────────────────────────────────

// logSender writes emails to the log instead of sending them. Used in
// development when RESEND_API_KEY is unset.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(logger *slog.Logger) Sender {
	return logSender{logger: logger}
}

func (s logSender) SendAssessmentLink(_ context.Context, p LinkParams) error {
	s.logger.Info("email: assessment link", "to", p.To, "url", p.ShareURL)
	return nil
}

func (s logSender) SendReceipt(_ context.Context, p ReceiptParams) error {
	s.logger.Info("email: receipt", "to", p.To, "amount_cents", p.AmountCents, "currency", p.Currency)
	return nil
}

func (s logSender) SendReportReleased(_ context.Context, p ReleasedParams) error {
	s.logger.Info("email: report released", "to", p.To, "url", p.ReportURL)
	return nil
}
