package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBytes caps what we read from a provider.
const maxResponseBytes = 1 << 20

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 90 * time.Second}
}

// apiError is the error envelope both providers return on failure.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// postJSON sends in as a JSON POST and decodes the reply into out. The reply
// is decoded before the status is checked so provider error bodies surface
// through out; errOf extracts them.
func postJSON(ctx context.Context, hc *http.Client, provider, endpoint string, headers http.Header, in, out any, errOf func() *apiError) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", provider, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header = headers.Clone()
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: http request: %w", provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", provider, err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s: unexpected status %d: %.200s", provider, resp.StatusCode, string(raw))
		}
		return fmt.Errorf("%s: unmarshal response: %w", provider, err)
	}
	if e := errOf(); e != nil {
		return fmt.Errorf("%s: API error %s: %s", provider, e.Type, e.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d: %.200s", provider, resp.StatusCode, string(raw))
	}
	return nil
}
