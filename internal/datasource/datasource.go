// Package datasource implements the unified data source that fronts the
// authenticated API backend and the scraping backend behind a single
// interface, with per-backend health tracking and strategy-driven
// fallback between them.
package datasource

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
	"github.com/onnwee/reddit-insight/internal/model"
)

// Strategy selects how the API and scraping backends are ordered.
type Strategy string

const (
	StrategyAPIOnly        Strategy = "API_ONLY"
	StrategyScrapingOnly   Strategy = "SCRAPING_ONLY"
	StrategyAPIFirst       Strategy = "API_FIRST"
	StrategyScrapingFirst  Strategy = "SCRAPING_FIRST"
)

// Backend is anything that can serve subreddit posts, comments, and info.
type Backend interface {
	Name() string
	FetchPosts(ctx context.Context, subreddit, sort string, limit int, after string) ([]model.Post, string, error)
	FetchComments(ctx context.Context, subreddit, postRedditID string) ([]model.Comment, error)
	FetchSubredditInfo(ctx context.Context, subreddit string) (model.Subreddit, error)
}

const maxConsecutiveFailures = 5

// backendHealth tracks one backend's consecutive-failure state machine:
// ready -> failing(n) -> disabled at n >= maxConsecutiveFailures, reset
// to ready on any success. There is no timed recovery from disabled.
type backendHealth struct {
	mu                  sync.Mutex
	consecutiveFailures int
	lastError           string
}

func (h *backendHealth) state() model.SourceState {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch {
	case h.consecutiveFailures >= maxConsecutiveFailures:
		return model.SourceDisabled
	case h.consecutiveFailures > 0:
		return model.SourceFailing
	default:
		return model.SourceReady
	}
}

func (h *backendHealth) recordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures = 0
	h.lastError = ""
}

func (h *backendHealth) recordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.consecutiveFailures++
	h.lastError = err.Error()
}

func (h *backendHealth) snapshot(name string) model.SourceStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := model.SourceReady
	if h.consecutiveFailures >= maxConsecutiveFailures {
		st = model.SourceDisabled
	} else if h.consecutiveFailures > 0 {
		st = model.SourceFailing
	}
	return model.SourceStatus{
		Backend:             name,
		State:                st,
		ConsecutiveFailures:  h.consecutiveFailures,
		LastError:            h.lastError,
	}
}

// UnifiedDataSource fronts an API backend and a scraping backend,
// selecting between them per Strategy and falling back on the errors
// that indicate the active backend is unhealthy.
type UnifiedDataSource struct {
	strategy Strategy
	api      Backend
	scraper  Backend
	apiHealth     *backendHealth
	scraperHealth *backendHealth
}

// New builds a UnifiedDataSource. Either backend may be nil if the
// strategy never selects it (e.g. SCRAPING_ONLY with api == nil).
func New(strategy Strategy, api, scraper Backend) *UnifiedDataSource {
	return &UnifiedDataSource{
		strategy:      strategy,
		api:           api,
		scraper:       scraper,
		apiHealth:     &backendHealth{},
		scraperHealth: &backendHealth{},
	}
}

// order returns the backends to try, in order, for the configured strategy.
func (u *UnifiedDataSource) order() []orderedBackend {
	switch u.strategy {
	case StrategyAPIOnly:
		return []orderedBackend{{u.api, u.apiHealth}}
	case StrategyScrapingOnly:
		return []orderedBackend{{u.scraper, u.scraperHealth}}
	case StrategyScrapingFirst:
		return []orderedBackend{{u.scraper, u.scraperHealth}, {u.api, u.apiHealth}}
	case StrategyAPIFirst:
		fallthrough
	default:
		return []orderedBackend{{u.api, u.apiHealth}, {u.scraper, u.scraperHealth}}
	}
}

type orderedBackend struct {
	backend Backend
	health  *backendHealth
}

// shouldFallback reports whether err indicates the backend is unhealthy
// and a fallback to the next backend (if any) should be attempted.
func shouldFallback(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case apierr.DataSourceRateLimited, apierr.DataSourceTimeout, apierr.DataSourceConnection,
			apierr.AuthUnauthorized, apierr.AuthForbidden:
			return true
		}
	}

	var scrapeErr *httpx.ScrapingError
	if errors.As(err, &scrapeErr) {
		switch scrapeErr.StatusCode {
		case 401, 403, 429:
			return true
		}
		if scrapeErr.StatusCode >= 500 {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"rate limit", "429", "401", "403", "auth", "connection", "timeout", "network"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// FetchPosts tries backends in strategy order, falling back on
// backend-health errors. A *_ONLY strategy never falls back (there is
// only one backend to try).
func (u *UnifiedDataSource) FetchPosts(ctx context.Context, subreddit, sort string, limit int, after string) ([]model.Post, string, error) {
	var lastErr error
	candidates := u.order()

	for i, c := range candidates {
		if c.backend == nil {
			lastErr = apierr.New(apierr.DataSourceBackendDown, 503, "backend not configured")
			continue
		}
		if c.health.state() == model.SourceDisabled {
			lastErr = apierr.New(apierr.DataSourceBackendDown, 503, c.backend.Name()+" backend disabled")
			continue
		}
		posts, after, err := c.backend.FetchPosts(ctx, subreddit, sort, limit, after)
		if err == nil {
			c.health.recordSuccess()
			return posts, after, nil
		}

		c.health.recordFailure(err)
		metrics.DataSourceBackendFailuresTotal.WithLabelValues(c.backend.Name()).Inc()
		lastErr = err

		isLast := i == len(candidates)-1
		if isLast || !shouldFallback(err) {
			break
		}
		next := candidates[i+1]
		if next.backend != nil {
			metrics.DataSourceFallbacksTotal.WithLabelValues(c.backend.Name(), next.backend.Name()).Inc()
			logger.Warn("datasource falling back", "from", c.backend.Name(), "to", next.backend.Name(), "error", err)
		}
	}

	if lastErr == nil {
		lastErr = apierr.New(apierr.DataSourceBackendDown, 503, "no backend configured for strategy")
	}
	return nil, "", apierr.NewDataSourceBothFailed("all configured backends failed").WithCause(lastErr)
}

// FetchComments behaves like FetchPosts for a single post's comment tree.
func (u *UnifiedDataSource) FetchComments(ctx context.Context, subreddit, postRedditID string) ([]model.Comment, error) {
	var lastErr error
	candidates := u.order()

	for i, c := range candidates {
		if c.backend == nil || c.health.state() == model.SourceDisabled {
			lastErr = apierr.New(apierr.DataSourceBackendDown, 503, "backend disabled")
			continue
		}
		comments, err := c.backend.FetchComments(ctx, subreddit, postRedditID)
		if err == nil {
			c.health.recordSuccess()
			return comments, nil
		}

		c.health.recordFailure(err)
		metrics.DataSourceBackendFailuresTotal.WithLabelValues(c.backend.Name()).Inc()
		lastErr = err

		isLast := i == len(candidates)-1
		if isLast || !shouldFallback(err) {
			break
		}
	}

	return nil, apierr.NewDataSourceBothFailed("all configured backends failed").WithCause(lastErr)
}

// FetchSubredditInfo behaves like FetchPosts for subreddit metadata.
func (u *UnifiedDataSource) FetchSubredditInfo(ctx context.Context, subreddit string) (model.Subreddit, error) {
	var lastErr error
	candidates := u.order()

	for i, c := range candidates {
		if c.backend == nil || c.health.state() == model.SourceDisabled {
			lastErr = apierr.New(apierr.DataSourceBackendDown, 503, "backend disabled")
			continue
		}
		info, err := c.backend.FetchSubredditInfo(ctx, subreddit)
		if err == nil {
			c.health.recordSuccess()
			return info, nil
		}

		c.health.recordFailure(err)
		metrics.DataSourceBackendFailuresTotal.WithLabelValues(c.backend.Name()).Inc()
		lastErr = err

		isLast := i == len(candidates)-1
		if isLast || !shouldFallback(err) {
			break
		}
	}

	return model.Subreddit{}, apierr.NewDataSourceBothFailed("all configured backends failed").WithCause(lastErr)
}

// Status reports the current health of both backends.
func (u *UnifiedDataSource) Status() []model.SourceStatus {
	out := make([]model.SourceStatus, 0, 2)
	if u.api != nil {
		out = append(out, u.apiHealth.snapshot(u.api.Name()))
	}
	if u.scraper != nil {
		out = append(out, u.scraperHealth.snapshot(u.scraper.Name()))
	}
	return out
}
