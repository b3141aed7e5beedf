package monitor

import (
	"context"
	"strings"
	"sync"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/datasource"
)

// Registry starts and tracks one SubredditMonitor per subreddit, created
// lazily on first subscription and torn down once no subscribers remain
// is left to the caller (registry keeps monitors running once started).
type Registry struct {
	source *datasource.UnifiedDataSource
	config Config

	mu       sync.Mutex
	monitors map[string]*SubredditMonitor
}

func NewRegistry(source *datasource.UnifiedDataSource, cfg Config) *Registry {
	return &Registry{source: source, config: cfg, monitors: make(map[string]*SubredditMonitor)}
}

// GetOrStart returns the monitor for subreddit, starting it if necessary.
func (r *Registry) GetOrStart(ctx context.Context, subreddit string) *SubredditMonitor {
	key := strings.ToLower(subreddit)

	r.mu.Lock()
	m, ok := r.monitors[key]
	if !ok {
		m = New(subreddit, r.source, r.config)
		r.monitors[key] = m
	}
	r.mu.Unlock()

	m.Start(context.WithoutCancel(ctx))
	return m
}

// Stop stops and removes the monitor for subreddit, if running.
func (r *Registry) Stop(subreddit string) error {
	key := strings.ToLower(subreddit)

	r.mu.Lock()
	m, ok := r.monitors[key]
	if ok {
		delete(r.monitors, key)
	}
	r.mu.Unlock()

	if !ok {
		return apierr.New(apierr.MonitorNotRunning, 404, "no monitor running for "+subreddit)
	}
	m.Stop()
	return nil
}

// List returns the subreddits currently being monitored.
func (r *Registry) List() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.monitors))
	for k := range r.monitors {
		out = append(out, k)
	}
	return out
}
