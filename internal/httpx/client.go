// Package httpx provides the shared HTTP client used by both the
// authenticated API backend and the scraping backend: rate limiting,
// user-agent rotation, retry/backoff, and Retry-After handling.
package httpx

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
)

// ScrapingError is returned for non-retryable or exhausted-retry HTTP
// failures, carrying the status code so callers can classify fallback.
type ScrapingError struct {
	Message    string
	StatusCode int
}

func (e *ScrapingError) Error() string {
	return fmt.Sprintf("scraping error (status %d): %s", e.StatusCode, e.Message)
}

// Config configures a Client.
type Config struct {
	BackendName          string
	UserAgent            string
	Timeout              time.Duration
	MaxRetries            int
	RetryBaseDelay        time.Duration
	RequestsPerMinute     int
	RequestLogging        bool
}

// Client wraps *http.Client with rate limiting, UA rotation, and retries.
type Client struct {
	backendName string
	userAgent   string
	http        *http.Client
	limiter     *rate.Limiter
	rotator     *uaRotator
	maxRetries  int
	retryBase   time.Duration
	logRetries  bool
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	rps := cfg.RequestsPerMinute
	if rps <= 0 {
		rps = 60
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	base := cfg.RetryBaseDelay
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	limit := rate.Limit(float64(rps) / 60.0)

	return &Client{
		backendName: cfg.BackendName,
		userAgent:   cfg.UserAgent,
		http:        &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, rps),
		rotator:     newUARotator(),
		maxRetries:  maxRetries,
		retryBase:   base,
		logRetries:  cfg.RequestLogging,
	}
}

func (c *Client) headers(req *http.Request, rotateUA bool) {
	ua := c.userAgent
	if rotateUA {
		ua = c.rotator.next()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "no-cache")
}

// Get performs a GET request with rate limiting and retry/backoff on
// transient failures. rotateUA controls whether the scraping UA pool is
// used, picking a user agent for every attempt (authenticated API calls
// pass false).
func (c *Client) Get(ctx context.Context, url string, rotateUA bool) ([]byte, error) {
	return c.get(ctx, url, rotateUA, "")
}

// GetAuthorized behaves like Get but attaches bearerToken as a Bearer
// Authorization header, for the authenticated API backend.
func (c *Client) GetAuthorized(ctx context.Context, url, bearerToken string) ([]byte, error) {
	return c.get(ctx, url, false, bearerToken)
}

// maxRateLimitRetries bounds 429 retries on their own budget, separate
// from c.maxRetries, so a string of rate-limit responses can't exhaust
// the retry allowance meant for network/server failures.
const maxRateLimitRetries = 10

func (c *Client) get(ctx context.Context, url string, rotateUA bool, bearerToken string) ([]byte, error) {
	var lastErr error
	rateLimitAttempt := 0

	for attempt := 0; attempt <= c.maxRetries; {
		if err := c.waitForRateLimit(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		c.headers(req, rotateUA)
		if bearerToken != "" {
			req.Header.Set("Authorization", "Bearer "+bearerToken)
		}

		start := time.Now()
		resp, err := c.http.Do(req)
		metrics.HTTPRequestDuration.WithLabelValues(c.backendName).Observe(time.Since(start).Seconds())

		if err != nil {
			lastErr = err
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "network_error").Inc()
			if attempt == c.maxRetries {
				return nil, lastErr
			}
			c.logRetry("network_error", attempt, 0)
			c.sleepBackoff(ctx, attempt)
			attempt++
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "read_error").Inc()
			if attempt == c.maxRetries {
				return nil, lastErr
			}
			c.sleepBackoff(ctx, attempt)
			attempt++
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "success").Inc()
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "rate_limited").Inc()
			lastErr = apierr.NewDataSourceRateLimited("backend returned 429")
			if rateLimitAttempt == maxRateLimitRetries {
				return nil, lastErr
			}
			c.logRetry("rate_limited", rateLimitAttempt, 0)
			c.sleepRetryAfter(ctx, resp, rateLimitAttempt)
			rateLimitAttempt++
			continue

		case resp.StatusCode >= 500:
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "server_error").Inc()
			lastErr = &ScrapingError{Message: "server error", StatusCode: resp.StatusCode}
			if attempt == c.maxRetries {
				return nil, lastErr
			}
			c.logRetry("server_error", attempt, resp.StatusCode)
			c.sleepBackoff(ctx, attempt)
			attempt++
			continue

		default:
			// 4xx other than 429 are not retryable.
			metrics.HTTPRequestsTotal.WithLabelValues(c.backendName, "client_error").Inc()
			return nil, &ScrapingError{Message: "non-retryable client error", StatusCode: resp.StatusCode}
		}
	}

	return nil, lastErr
}

func (c *Client) waitForRateLimit(ctx context.Context) error {
	r := c.limiter.Reserve()
	if !r.OK() {
		return apierr.NewInternal("rate limiter cannot satisfy request")
	}
	delay := r.Delay()
	if delay > 0 {
		metrics.RateLimitWaitsTotal.WithLabelValues(c.backendName).Inc()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			r.Cancel()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (c *Client) sleepBackoff(ctx context.Context, attempt int) {
	metrics.HTTPRetriesTotal.WithLabelValues(c.backendName, "backoff").Inc()
	delay := time.Duration(float64(c.retryBase) * math.Pow(2, float64(attempt)))
	sleep(ctx, delay)
}

func (c *Client) sleepRetryAfter(ctx context.Context, resp *http.Response, attempt int) {
	metrics.HTTPRetriesTotal.WithLabelValues(c.backendName, "retry_after").Inc()
	delay := 60 * time.Second
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			delay = time.Duration(secs) * time.Second
		} else if t, err := http.ParseTime(ra); err == nil {
			if d := time.Until(t); d > 0 {
				delay = d
			}
		}
	}
	sleep(ctx, delay)
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (c *Client) logRetry(reason string, attempt, status int) {
	if !c.logRetries {
		return
	}
	logger.Warn("http retry", "backend", c.backendName, "reason", reason, "attempt", attempt, "status", status)
}
