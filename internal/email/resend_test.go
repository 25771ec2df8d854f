package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, status int, reply string, got *resendRequest) *resendClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer re_test" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	c := NewResendClient("re_test", "diag@example.com", "Ops Diagnostic").(*resendClient)
	c.endpoint = srv.URL
	return c
}

func TestSendAssessmentLink(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, http.StatusOK, `{"id":"em_1"}`, &got)

	err := c.SendAssessmentLink(context.Background(), LinkParams{
		To:       "ada@example.com",
		Name:     "Ada <script>",
		Company:  "Acme",
		ShareURL: "https://app.example.com/r/ABC234",
	})
	if err != nil {
		t.Fatalf("SendAssessmentLink: %v", err)
	}
	if got.From != "Ops Diagnostic <diag@example.com>" {
		t.Errorf("from: %q", got.From)
	}
	if len(got.To) != 1 || got.To[0] != "ada@example.com" {
		t.Errorf("to: %v", got.To)
	}
	if !strings.Contains(got.Subject, "Acme") {
		t.Errorf("subject missing company: %q", got.Subject)
	}
	if !strings.Contains(got.HTML, "https://app.example.com/r/ABC234") {
		t.Error("body missing share url")
	}
	if strings.Contains(got.HTML, "<script>") {
		t.Error("name not escaped")
	}
}

func TestSendReceipt_Amount(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, http.StatusOK, `{"id":"em_2"}`, &got)

	if err := c.SendReceipt(context.Background(), ReceiptParams{To: "a@b.co", AmountCents: 4900, Currency: "usd"}); err != nil {
		t.Fatalf("SendReceipt: %v", err)
	}
	if !strings.Contains(got.HTML, "$49.00") {
		t.Error("body missing formatted amount")
	}
}

func TestSend_ResendError(t *testing.T) {
	var got resendRequest
	c := newTestClient(t, http.StatusUnprocessableEntity,
		`{"error":{"name":"validation_error","message":"bad from","statusCode":422}}`, &got)

	err := c.SendReportReleased(context.Background(), ReleasedParams{To: "a@b.co", ReportURL: "https://x"})
	if err == nil || !strings.Contains(err.Error(), "validation_error") {
		t.Errorf("expected Resend error, got %v", err)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]struct {
		cents    int64
		currency string
		want     string
	}{
		"usd":   {4900, "usd", "$49.00"},
		"blank": {150, "", "$1.50"},
		"eur":   {1000, "eur", "10.00 EUR"},
	}
	for name, tc := range cases {
		if got := formatAmount(tc.cents, tc.currency); got != tc.want {
			t.Errorf("%s: got %q, want %q", name, got, tc.want)
		}
	}
}
