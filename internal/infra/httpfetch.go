package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/phuslu/log"
)

// ErrUnavailable is returned once the retry budget is exhausted on
// transient failures or rate limiting.
var ErrUnavailable = errors.New("infra: upstream unavailable after retries")

// UpstreamError is a non-200, non-429 upstream response. It is never
// retried; the affected resource degrades to absent data.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("infra: upstream returned HTTP %d", e.Status)
}

// logBodyLimit caps response bodies in log records.
const logBodyLimit = 500

// Client is a retrying HTTP GET client shared by all upstream fetchers.
// Policy: a fixed retry budget covering both transient transport errors
// and 429 responses, with linearly increasing backoff (attempt * base
// delay) or the server-supplied Retry-After on 429. Any other non-200
// status fails immediately.
type Client struct {
	http       *http.Client
	maxRetries int
	baseDelay  time.Duration
	sleep      func(context.Context, time.Duration) error
}

// ClientOption configures the fetch client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithSleepFunc replaces the backoff sleep, letting tests run without
// real delays.
func WithSleepFunc(f func(context.Context, time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = f }
}

// NewClient creates a fetch client with the given per-call timeout,
// retry budget, and base backoff delay.
func NewClient(timeout time.Duration, maxRetries int, baseDelay time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
	}
	c.sleep = c.timerSleep
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get issues a GET with the given headers and query parameters and
// returns the status code and body. Every attempt is logged with its
// status, headers, and a truncated body.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string, params url.Values) (int, []byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		status, hdr, body, err := c.do(ctx, rawURL, headers)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt).Str("url", rawURL).Msg("request failed")
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			if attempt < c.maxRetries {
				if serr := c.sleep(ctx, time.Duration(attempt)*c.baseDelay); serr != nil {
					return 0, nil, serr
				}
			}
			continue
		}

		log.Info().
			Int("status", status).
			Int("attempt", attempt).
			Str("url", rawURL).
			Str("headers", fmt.Sprint(hdr)).
			Str("body", truncate(body)).
			Msg("fetch attempt")

		switch status {
		case http.StatusOK:
			return status, body, nil

		case http.StatusTooManyRequests:
			delay := retryAfter(hdr, time.Duration(attempt)*c.baseDelay)
			lastErr = fmt.Errorf("rate limited (HTTP 429)")
			log.Warn().Int("attempt", attempt).Dur("delay", delay).Str("url", rawURL).Msg("rate limit hit, backing off")
			if attempt < c.maxRetries {
				if serr := c.sleep(ctx, delay); serr != nil {
					return 0, nil, serr
				}
			}

		default:
			log.Error().Int("status", status).Str("url", rawURL).Str("body", truncate(body)).Msg("upstream error")
			return status, body, &UpstreamError{Status: status, Body: truncate(body)}
		}
	}

	return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// GetJSON performs a Get and unmarshals the body into dest.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, params url.Values, dest any) error {
	_, body, err := c.Get(ctx, rawURL, headers, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string) (int, http.Header, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

func (c *Client) timerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// retryAfter reads an integer Retry-After header in seconds, falling
// back to the computed linear delay when absent or unparseable.
func retryAfter(hdr http.Header, fallback time.Duration) time.Duration {
	v := hdr.Get("Retry-After")
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func truncate(body []byte) string {
	if len(body) > logBodyLimit {
		return string(body[:logBodyLimit]) + "..."
	}
	return string(body)
}
