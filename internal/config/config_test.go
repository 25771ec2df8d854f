package config

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func baseEnv(t *testing.T) map[string]string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]string{
		"DATABASE_URL":         "postgres://localhost/ops?sslmode=disable",
		"ADMIN_PASSWORD_HASH":  string(hash),
		"ADMIN_SESSION_SECRET": strings.Repeat("s", 32),
	}
}

func TestLoadFrom_Defaults(t *testing.T) {
	c, err := LoadFrom(baseEnv(t))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.Port != "8080" || c.Env != "development" {
		t.Errorf("server defaults: port=%q env=%q", c.Port, c.Env)
	}
	if c.PriceCents != 4900 || c.Currency != "usd" {
		t.Errorf("price defaults: %d %q", c.PriceCents, c.Currency)
	}
	if c.PollInterval != 30*time.Second || c.NarrativeTimeout != 60*time.Second || c.AdminSessionTTL != 12*time.Hour {
		t.Errorf("duration defaults: poll=%v narrative=%v ttl=%v", c.PollInterval, c.NarrativeTimeout, c.AdminSessionTTL)
	}
	if c.StripeEnabled() {
		t.Error("stripe should be disabled without a secret key")
	}
}

func TestLoadFrom_TrimsBaseURL(t *testing.T) {
	e := baseEnv(t)
	e["BASE_URL"] = "https://app.example.com/"
	c, err := LoadFrom(e)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if c.BaseURL != "https://app.example.com" {
		t.Errorf("BaseURL: got %q", c.BaseURL)
	}
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	cases := map[string]struct {
		mutate func(map[string]string)
		want   string
	}{
		"missing database": {
			mutate: func(e map[string]string) { delete(e, "DATABASE_URL") },
			want:   "DATABASE_URL",
		},
		"bad hash": {
			mutate: func(e map[string]string) { e["ADMIN_PASSWORD_HASH"] = "plaintext" },
			want:   "bcrypt",
		},
		"short secret": {
			mutate: func(e map[string]string) { e["ADMIN_SESSION_SECRET"] = "short" },
			want:   "ADMIN_SESSION_SECRET",
		},
		"stripe without webhook secret": {
			mutate: func(e map[string]string) { e["STRIPE_SECRET_KEY"] = "sk_test_x" },
			want:   "STRIPE_WEBHOOK_SECRET",
		},
		"production needs resend": {
			mutate: func(e map[string]string) {
				e["ENV"] = "production"
				e["STRIPE_SECRET_KEY"] = "sk_live_x"
				e["STRIPE_WEBHOOK_SECRET"] = "whsec_x"
			},
			want: "RESEND_API_KEY",
		},
		"relative base url": {
			mutate: func(e map[string]string) { e["BASE_URL"] = "/app" },
			want:   "BASE_URL",
		},
		"timeouts": {
			mutate: func(e map[string]string) { e["JOB_TIMEOUT"] = "30s" },
			want:   "JOB_TIMEOUT",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			e := baseEnv(t)
			tc.mutate(e)
			_, err := LoadFrom(e)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("got %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestLoadFrom_UnparsableDuration(t *testing.T) {
	e := baseEnv(t)
	e["POLL_INTERVAL"] = "soon"
	if _, err := LoadFrom(e); err == nil {
		t.Error("expected parse error")
	}
}
