// Package notify delivers candidate events to the external analysis worker.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is the default webhook request timeout.
const DefaultTimeout = 10 * time.Second

// APIKeyHeader carries the shared webhook token.
const APIKeyHeader = "x-api-key"

// Error represents a failed webhook delivery.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("webhook error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Payload is the JSON body posted to the worker.
type Payload struct {
	CandidateID string `json:"candidateId"`
	CVFilePath  string `json:"cvFilePath"`
}

// Webhook posts new-resume events to a configured URL. Each event is sent
// once; failures are returned to the caller and never retried.
type Webhook struct {
	URL    string
	Token  string
	client *http.Client
}

// NewWebhook creates a Webhook. An empty URL yields a webhook that logs and
// skips every event.
func NewWebhook(rawURL, token string, timeout time.Duration) (*Webhook, error) {
	if rawURL != "" {
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return nil, &Error{URL: rawURL, Message: "invalid URL", Cause: err}
		}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Webhook{
		URL:    rawURL,
		Token:  token,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Notify announces a stored resume for candidateID.
func (w *Webhook) Notify(ctx context.Context, candidateID, cvFilePath string) error {
	if w.URL == "" {
		log.Printf("[notify] webhook URL is not configured; skipping candidate %s", candidateID)
		return nil
	}

	body, err := json.Marshal(Payload{CandidateID: candidateID, CVFilePath: cvFilePath})
	if err != nil {
		return &Error{URL: w.URL, Message: "failed to encode payload", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return &Error{URL: w.URL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, w.Token)

	resp, err := w.client.Do(req)
	if err != nil {
		return &Error{URL: w.URL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{URL: w.URL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	log.Printf("[notify] candidate %s delivered", candidateID)
	return nil
}
