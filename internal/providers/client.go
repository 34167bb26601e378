// Package providers holds the HTTP plumbing shared by the factual data
// providers: rate limiting, JSON requests and status handling.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned for 404 responses. Providers turn it into an
// empty result.
var ErrNotFound = errors.New("not found")

const (
	DefaultTimeout = 15 * time.Second
	DefaultRPS     = 2.0
	userAgent      = "gamesage/1.0"
)

// RateLimiter wraps a token bucket rate limiter.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter that allows rps requests per second.
// A non-positive rps disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until the rate limiter allows another request.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Client is a rate-limited JSON HTTP client.
type Client struct {
	http    *http.Client
	limiter *RateLimiter
}

func NewClient(timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: NewRateLimiter(rps),
	}
}

// GetJSON fetches base with the query parameters and decodes the JSON body
// into dst.
func (c *Client) GetJSON(ctx context.Context, base string, params url.Values, dst interface{}) error {
	target := base
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, dst)
}

// PostJSON sends body as JSON and decodes the JSON response into dst.
func (c *Client) PostJSON(ctx context.Context, target string, body, dst interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst interface{}) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", req.URL.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("%s returned status %d: %s", req.URL.Host, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s response: %w", req.URL.Host, err)
	}
	return nil
}
