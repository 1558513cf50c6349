package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// HTTPClientOptions holds options for creating a new HTTPClient.
type HTTPClientOptions struct {
	Timeout              time.Duration
	RequestsPerSec       int
	MaxRetryElapsed      time.Duration
	RetryInitialInterval time.Duration
	Proxy                string
}

// HTTPClient wraps http.Client with a proxy, rate limiting and retries.
type HTTPClient struct {
	client          *http.Client
	limiter         *rate.Limiter
	maxRetryElapsed time.Duration
	initialInterval time.Duration
	logger          zerolog.Logger
}

// StatusError represents a non-200 HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.StatusCode, e.Body)
}

// NewHTTPClient creates a new HTTP client. Zero options fall back to defaults.
func NewHTTPClient(opts HTTPClientOptions) *HTTPClient {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 2
	}
	if opts.MaxRetryElapsed == 0 {
		opts.MaxRetryElapsed = 30 * time.Second
	}
	if opts.RetryInitialInterval == 0 {
		opts.RetryInitialInterval = 500 * time.Millisecond
	}

	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:         rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetryElapsed: opts.MaxRetryElapsed,
		initialInterval: opts.RetryInitialInterval,
		logger:          log.With().Str("component", "http_client").Logger(),
	}
}

// Do sends the request built by newReq and returns the body of a 200 response. A fresh request
// is built for every attempt. Network errors, 429 and 5xx are retried with exponential backoff
// until MaxRetryElapsed or ctx ends; other statuses fail immediately.
func (c *HTTPClient) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var body []byte
	attempt := 0
	operation := func() error {
		attempt++
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
		}
		req, err := newReq(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("url", req.URL.Redacted()).Msg("request failed")
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 256)}
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return backoff.Permanent(serr)
			}
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("retryable status")
			return serr
		}
		body = data
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = c.initialInterval
	strategy.MaxElapsedTime = c.maxRetryElapsed

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
