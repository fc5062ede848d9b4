package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"EdgarWatcher/internal/domain"
)

const (
	defaultUserAgent = "EdgarWatcher/1.0 (contact: ops@example.org)"
	defaultTimeout   = 20 * time.Second
	maxBodyBytes     = 64 << 20
)

// Options configure the EDGAR HTTP client.
type Options struct {
	UserAgent string
	Timeout   time.Duration

	// RequestsPerSecond throttles every request made through the client; <= 0 disables throttling.
	RequestsPerSecond float64
}

// Client fetches EDGAR pages. EDGAR rejects requests without a descriptive
// User-Agent and throttles clients above ten requests per second.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewClient wraps httpClient (or a default one) with throttling.
func NewClient(httpClient *http.Client, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	return &Client{http: httpClient, limiter: limiter, userAgent: ua}
}

// Get returns the body of pageURL. Any transport failure or non-2xx status is domain.ErrFetch.
func (c *Client) Get(ctx context.Context, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: throttle %s: %w", domain.ErrFetch, pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request %s: %w", domain.ErrFetch, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetch, pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrFetch, pageURL, err)
	}
	return body, nil
}
