// Package engine is the HTTP client for the remote Monte Carlo
// simulation service.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/firedash/firedash/core"

	"github.com/goccy/go-json"
	"github.com/jpillora/backoff"
)

const simulatePath = "/api/simulate"

var ErrBadStatus = errors.New("simulation service returned a non-success status")

// Client submits simulation requests to the service and decodes results.
type Client struct {
	baseURL    string
	httpClient *http.Client
	attempts   int
	log        core.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithAttempts sets how many times a failed request is tried in total.
func WithAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// NewClient creates a simulation service client for the given base URL.
func NewClient(baseURL string, log core.Logger, options ...Option) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		attempts:   3,
		log:        log,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Simulate posts the request to the service and returns the validated
// result. Network failures and 5xx responses are retried with backoff;
// client errors and malformed payloads are not.
func (c *Client) Simulate(ctx context.Context, request core.SimulationRequest) (*core.SimulationResult, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode simulation request: %w", err)
	}

	retry := newBackoff()

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			c.log.WithField("attempt", attempt+1).Warn("retrying simulation request")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retry.Duration()):
			}
		}

		result, retryable, err := c.simulateOnce(ctx, body)
		if err == nil {
			return result, nil
		}

		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, lastErr
}

func (c *Client) simulateOnce(ctx context.Context, body []byte) (result *core.SimulationResult, retryable bool, err error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+simulatePath, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to build simulation request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, true, fmt.Errorf("simulation request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, 4096))
		return nil, response.StatusCode >= 500,
			fmt.Errorf("status %d: %w", response.StatusCode, ErrBadStatus)
	}

	decoded := new(core.SimulationResult)
	if err := json.NewDecoder(response.Body).Decode(decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode simulation result: %w", err)
	}

	if err := core.ValidateResult(decoded); err != nil {
		return nil, false, fmt.Errorf("simulation result failed validation: %w", err)
	}

	return decoded, false, nil
}

// newBackoff creates a backoff with sensible defaults
func newBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    100 * time.Millisecond,
		Max:    2 * time.Second,
		Jitter: true,
	}
}
