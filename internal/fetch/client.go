// Package fetch provides the outbound HTTP client used by the detection
// probes: GET/HEAD with timeout, redirect following, a configured
// User-Agent, a response body cap, and a jittered retry budget.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/probelabs/wpscope/internal/telemetry"
)

// Config controls client behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxRetries   int
	BackoffBase  time.Duration
	BackoffMax   time.Duration
	MaxBodyBytes int64
}

// Response is the outcome of a completed HTTP exchange. Any exchange that
// produced a status line yields a Response and a nil error: for the
// detection probes a 403 or 404 is evidence, not a failure.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Success reports whether the status code is 2xx.
func (r Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// StatusError marks an exchange that completed with a non-success status
// where success was required (the homepage fetch).
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Client issues probe requests. Safe for concurrent use.
type Client struct {
	http         *http.Client
	policy       *RetryPolicy
	userAgent    string
	maxBodyBytes int64
	logger       *zap.Logger
}

// New builds a Client from Config. A nil logger falls back to zap.NewNop.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = 2 << 20
	}
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: newTransport(),
		},
		policy:       NewRetryPolicy(cfg.MaxRetries, cfg.BackoffBase, cfg.BackoffMax),
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
		logger:       logger,
	}
}

// Get fetches a URL, following redirects, and returns the final response.
func (c *Client) Get(ctx context.Context, url string) (Response, error) {
	return c.do(ctx, http.MethodGet, url)
}

// Head probes a URL for existence without downloading the body.
func (c *Client) Head(ctx context.Context, url string) (Response, error) {
	return c.do(ctx, http.MethodHead, url)
}

func (c *Client) do(ctx context.Context, method, url string) (Response, error) {
	var (
		resp    Response
		lastErr error
	)
	for attempt := 1; attempt <= c.policy.MaxAttempts(); attempt++ {
		resp, lastErr = c.doOnce(ctx, method, url)
		if lastErr == nil && !retryableStatus(resp.StatusCode) {
			return resp, nil
		}
		if lastErr != nil && !c.policy.ShouldRetry(lastErr, attempt) {
			return Response{}, lastErr
		}
		if attempt == c.policy.MaxAttempts() {
			break
		}
		c.logger.Debug("retrying request",
			zap.String("method", method),
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if err := sleep(ctx, c.policy.Backoff(attempt)); err != nil {
			return Response{}, err
		}
	}
	if lastErr != nil {
		return Response{}, lastErr
	}
	// Retries exhausted on a retryable status; the status itself is still
	// evidence for the caller.
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, url string) (Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	httpResp, err := c.http.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodyBytes))
	if err != nil {
		return Response{}, fmt.Errorf("read body of %s: %w", url, err)
	}

	telemetry.ObserveProbe(method, httpResp.StatusCode)
	return Response{
		URL:        httpResp.Request.URL.String(),
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header.Clone(),
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// retryableStatus reports transient server-side statuses worth retrying.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("backoff wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
