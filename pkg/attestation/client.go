// Package attestation implements the client for Circle's attestation
// service (Iris). A burn message becomes mintable once the service returns
// a complete attestation for its hash.
package attestation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stablerail/cctp-orchestrator/pkg/config"
)

const defaultRequestTimeout = 30 * time.Second

// Status of an attestation request
type Status string

const (
	StatusPending  Status = "pending"
	StatusComplete Status = "complete"
)

// Response is the attestation service reply for a message hash
type Response struct {
	Attestation string `json:"attestation"`
	Status      Status `json:"status"`
}

// Complete reports whether the attestation is ready to use for minting.
// The service occasionally reports complete with an empty blob; that is
// treated as not ready.
func (r *Response) Complete() bool {
	return r.Status == StatusComplete && r.Attestation != ""
}

// Client polls the attestation service over HTTP
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an attestation client from configuration
func NewClient(cfg config.AttestationConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Get fetches the attestation for a message hash. Transport failures and
// non-2xx statuses are returned as errors; the caller treats them as
// transient.
func (c *Client) Get(ctx context.Context, messageHash string) (*Response, error) {
	url := fmt.Sprintf("%s/attestations/%s", c.baseURL, messageHash)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build attestation request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("attestation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("attestation service returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode attestation response: %w", err)
	}

	c.logger.Debug("Attestation poll",
		zap.String("message_hash", messageHash),
		zap.String("status", string(out.Status)))
	return &out, nil
}
