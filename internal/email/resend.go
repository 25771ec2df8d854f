package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	apiKey     string
	fromAddr   string // e.g. "diagnostic@example.com"
	fromName   string // e.g. "Ops Diagnostic"
	endpoint   string
	httpClient *http.Client
}

// NewResendClient returns a Sender that delivers email via Resend.
func NewResendClient(apiKey, fromAddr, fromName string) Sender {
	return &resendClient{
		apiKey:   apiKey,
		fromAddr: fromAddr,
		fromName: fromName,
		endpoint: resendEndpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Name       string `json:"name"`
		Message    string `json:"message"`
		StatusCode int    `json:"statusCode"`
	} `json:"error"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendAssessmentLink sends the questionnaire link.
func (c *resendClient) SendAssessmentLink(ctx context.Context, p LinkParams) error {
	subject := "Your Operations Diagnostic"
	if p.Company != "" {
		subject = fmt.Sprintf("%s: your Operations Diagnostic", p.Company)
	}
	body := fmt.Sprintf(`<p>%s,</p>
  <p>Your operations diagnostic is ready to start. It takes about fifteen
  minutes and your answers save as you go, so you can come back at any time.</p>
  %s
  <p style="color: #6b7280; font-size: 14px;">
    Keep this link. It is your access to the questionnaire and, later, your report.<br>
    <a href="%s" style="color: #6b7280;">%s</a>
  </p>`,
		greeting(p.Name), button(p.ShareURL, "Start the diagnostic"),
		html.EscapeString(p.ShareURL), html.EscapeString(p.ShareURL))

	return c.send(ctx, p.To, subject, page("Your diagnostic is ready", body))
}

// SendReceipt sends the post-payment receipt email.
func (c *resendClient) SendReceipt(ctx context.Context, p ReceiptParams) error {
	subject := "Your payment was received"
	if p.Company != "" {
		subject = fmt.Sprintf("%s: payment confirmed", p.Company)
	}
	body := fmt.Sprintf(`<p>%s,</p>
  <p>We have received your payment of <strong>%s</strong> for the
  Operations Diagnostic. A separate email carries your questionnaire link.</p>
  <p style="color: #6b7280; font-size: 14px;">
    If you have any questions, reply to this email.
  </p>`, greeting(p.Company), formatAmount(p.AmountCents, p.Currency))

	return c.send(ctx, p.To, subject, page("Payment Confirmed", body))
}

// SendReportReleased sends the "your report is ready" email.
func (c *resendClient) SendReportReleased(ctx context.Context, p ReleasedParams) error {
	subject := "Your Operations Report is Ready"
	if p.Company != "" {
		subject = fmt.Sprintf("%s: your Operations Report is ready", p.Company)
	}
	body := fmt.Sprintf(`<p>%s,</p>
  <p>Your diagnostic has been reviewed. The report covers your scores across
  all six dimensions and the priorities we recommend you tackle first.</p>
  %s`, greeting(p.Name), button(p.ReportURL, "View your report"))

	return c.send(ctx, p.To, subject, page("Your report is ready", body))
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, htmlBody string) error {
	from := fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr)

	reqBody := resendRequest{
		From:    from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("email: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint,
		bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return fmt.Errorf("email: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("email: read response: %w", err)
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return fmt.Errorf("email: unmarshal response (status %d): %w", resp.StatusCode, err)
	}

	if parsed.Error != nil {
		return fmt.Errorf("email: Resend error %s: %s", parsed.Error.Name, parsed.Error.Message)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	return nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func greeting(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return "Hello"
	}
	return "Hello " + html.EscapeString(name)
}

func formatAmount(cents int64, currency string) string {
	amount := fmt.Sprintf("%.2f", float64(cents)/100)
	switch strings.ToLower(currency) {
	case "", "usd":
		return "$" + amount
	default:
		return amount + " " + strings.ToUpper(currency)
	}
}

func button(href, label string) string {
	return fmt.Sprintf(`<p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      %s
    </a>
  </p>`, html.EscapeString(href), label)
}

func page(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">%s</h2>
  %s
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 32px 0;">
  <p style="color: #9ca3af; font-size: 12px;">
    Operations Diagnostic · Six dimensions · No account required
  </p>
</body>
</html>`, title, body)
}
