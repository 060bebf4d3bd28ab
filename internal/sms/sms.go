package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tracker/internal/config"
)

// Sender dispatches one SMS. Implementations perform no retries and no
// delivery tracking; any gateway-side failure is a hard error.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// ErrNotConfigured means the gateway credentials are missing from the
// environment; no network call is attempted in that case.
var ErrNotConfigured = errors.New("sms gateway not configured")

const vonageEndpoint = "https://rest.nexmo.com/sms/json"

// vonageResponse is the slice of the gateway's reply we care about.
type vonageResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

type vonageSender struct {
	cfg      config.VonageConfig
	client   *http.Client
	endpoint string
}

// NewVonageSender builds a Sender over the Vonage REST gateway. The
// HTTP client is bounded to 10 seconds so a slow gateway cannot stall
// the calling request indefinitely.
func NewVonageSender(cfg config.VonageConfig) Sender {
	return &vonageSender{
		cfg:      cfg,
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: vonageEndpoint,
	}
}

func (s *vonageSender) Send(ctx context.Context, to, body string) error {
	if s.cfg.APIKey == "" || s.cfg.APISecret == "" || s.cfg.FromNumber == "" {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("api_key", s.cfg.APIKey)
	form.Set("api_secret", s.cfg.APISecret)
	form.Set("from", strings.ReplaceAll(s.cfg.FromNumber, " ", ""))
	form.Set("to", to)
	form.Set("text", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vonage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("vonage returned HTTP %d", resp.StatusCode)
	}

	var parsed vonageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("vonage response unreadable: %w", err)
	}
	if len(parsed.Messages) == 0 {
		return errors.New("vonage send failed: unknown")
	}
	if parsed.Messages[0].Status != "0" {
		return fmt.Errorf("vonage send failed: %s", parsed.Messages[0].ErrorText)
	}
	return nil
}
