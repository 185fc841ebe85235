// Package issuer is the verification service's client for the issuance
// service's /issue endpoint, used for best-effort reconciliation.
package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dErrors "vouch/pkg/domain-errors"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is the issuance service's answer for a document.
type Result struct {
	Status   string    `json:"status"`
	WorkerID string    `json:"workerId"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Status values reported by the issuance service.
const (
	StatusIssued        = "issued"
	StatusAlreadyIssued = "already_issued"
)

// Client asks the issuance service about a document by replaying it against
// POST /issue. The call carries the original document, not the canonical
// string: both sides canonicalize independently.
type Client struct {
	baseURL string
	client  HTTPDoer
	timeout time.Duration
}

// Config configures the issuer client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// New creates an issuer client. A zero timeout defaults to 5s; the timeout
// bounds every call so a stalled issuance service can never hang a verify
// response indefinitely.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  client,
		timeout: cfg.Timeout,
	}
}

// Issue submits the document to the issuance service and reports whether it
// was already issued there. Any transport failure or non-2xx answer comes
// back as an unavailable-coded error; callers treat it as advisory.
func (c *Client) Issue(ctx context.Context, doc map[string]json.RawMessage) (*Result, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to marshal credential document")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/issue", bytes.NewReader(body))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create issuance request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "issuance service timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "issuance service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, dErrors.New(dErrors.CodeUnavailable,
			fmt.Sprintf("issuance service answered %d", resp.StatusCode))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to parse issuance response")
	}
	return &result, nil
}
