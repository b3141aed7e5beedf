// Package monitor polls a subreddit for new posts and activity spikes
// and fans updates out to live subscribers over bounded channels.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/onnwee/reddit-insight/internal/alertengine"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
)

// LiveUpdateType classifies a LiveUpdate.
type LiveUpdateType string

const (
	UpdateNewPost       LiveUpdateType = "new_post"
	UpdateActivitySpike LiveUpdateType = "activity_spike"
	UpdateKeywordSurge  LiveUpdateType = "keyword_surge"
	UpdateStatus        LiveUpdateType = "status"
)

// LiveUpdate is a single event pushed to subscribers of a monitored subreddit.
type LiveUpdate struct {
	Type      LiveUpdateType `json:"type"`
	Subreddit string         `json:"subreddit"`
	Message   string         `json:"message,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func newPostUpdate(subreddit string, redditID, title, author string, score, numComments int, url string, createdUTC time.Time) LiveUpdate {
	return LiveUpdate{
		Type:      UpdateNewPost,
		Subreddit: subreddit,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"id":           redditID,
			"title":        title,
			"author":       author,
			"score":        score,
			"num_comments": numComments,
			"url":          url,
			"created_utc":  createdUTC,
		},
	}
}

func activitySpikeUpdate(subreddit string, currentRate, baselineRate, spikeFactor float64) LiveUpdate {
	return LiveUpdate{
		Type:      UpdateActivitySpike,
		Subreddit: subreddit,
		Timestamp: time.Now().UTC(),
		Message:   fmt.Sprintf("Activity %.1fx higher than baseline", spikeFactor),
		Data: map[string]any{
			"current_rate":  round2(currentRate),
			"baseline_rate": round2(baselineRate),
			"spike_factor":  round2(spikeFactor),
		},
	}
}

func statusUpdate(subreddit, message string) LiveUpdate {
	return LiveUpdate{
		Type:      UpdateStatus,
		Subreddit: subreddit,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

const (
	defaultInterval         = 30 * time.Second
	defaultMaxPostsPerPoll  = 25
	subscriberQueueCapacity = 64
	seenIDTrimThreshold     = 1000
	seenIDTrimTo            = 500
	newPostBroadcastCap     = 10
)

// SubredditMonitor polls one subreddit and fans updates out to subscribers.
type SubredditMonitor struct {
	subreddit     string
	source        *datasource.UnifiedDataSource
	interval      time.Duration
	maxPosts      int
	tracker       *ActivityTracker
	alerts        *alertengine.Engine

	mu          sync.Mutex
	running     bool
	cancel      context.CancelFunc
	seenIDs     map[string]struct{}
	subscribers []chan LiveUpdate
}

// Config configures a SubredditMonitor. Alerts is optional: when set, the
// monitor feeds its per-poll metrics into the engine's rule evaluation and
// dispatches every fired alert (§4.9's "metrics → AlertEngine → Notifiers"
// flow); when nil, the monitor only fans out LiveUpdates.
type Config struct {
	Interval       time.Duration
	MaxPosts       int
	SpikeThreshold float64
	WindowSize     int
	Alerts         *alertengine.Engine
}

func New(subreddit string, source *datasource.UnifiedDataSource, cfg Config) *SubredditMonitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	maxPosts := cfg.MaxPosts
	if maxPosts <= 0 {
		maxPosts = defaultMaxPostsPerPoll
	}
	return &SubredditMonitor{
		subreddit: subreddit,
		source:    source,
		interval:  interval,
		maxPosts:  maxPosts,
		tracker:   NewActivityTracker(cfg.WindowSize, cfg.SpikeThreshold),
		alerts:    cfg.Alerts,
		seenIDs:   make(map[string]struct{}),
	}
}

// Start begins polling in a goroutine. Idempotent: calling Start on an
// already-running monitor is a no-op.
func (m *SubredditMonitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.running = true
	m.cancel = cancel
	m.mu.Unlock()

	m.broadcast(statusUpdate(m.subreddit, "Started monitoring r/"+m.subreddit))
	go m.loop(runCtx)
}

// Stop halts polling. Idempotent.
func (m *SubredditMonitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.broadcast(statusUpdate(m.subreddit, "Stopped monitoring r/"+m.subreddit))
}

func (m *SubredditMonitor) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkUpdatesSafely(ctx)
		}
	}
}

func (m *SubredditMonitor) checkUpdatesSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			m.broadcast(statusUpdate(m.subreddit, truncate(fmt.Sprintf("monitor error: %v", r), 100)))
		}
	}()

	if err := m.checkUpdates(ctx); err != nil {
		metrics.MonitorPollsTotal.WithLabelValues(m.subreddit, "error").Inc()
		m.broadcast(statusUpdate(m.subreddit, truncate("monitor error: "+err.Error(), 100)))
	}
}

func (m *SubredditMonitor) checkUpdates(ctx context.Context) error {
	posts, _, err := m.source.FetchPosts(ctx, m.subreddit, "new", m.maxPosts, "")
	if err != nil {
		return err
	}

	m.mu.Lock()
	var newPosts []int
	var fresh []struct {
		redditID, title, author, url string
		score, numComments           int
		createdUTC                   time.Time
	}
	for i, p := range posts {
		if _, seen := m.seenIDs[p.RedditID]; seen {
			continue
		}
		m.seenIDs[p.RedditID] = struct{}{}
		newPosts = append(newPosts, i)
		fresh = append(fresh, struct {
			redditID, title, author, url string
			score, numComments           int
			createdUTC                   time.Time
		}{p.RedditID, p.Title, p.Author, p.URL, p.Score, p.NumComments, p.CreatedUTC})
	}

	if len(m.seenIDs) > seenIDTrimThreshold {
		trimmed := make(map[string]struct{}, seenIDTrimTo)
		limit := seenIDTrimTo
		if len(posts) < limit {
			limit = len(posts)
		}
		for _, p := range posts[:limit] {
			trimmed[p.RedditID] = struct{}{}
		}
		m.seenIDs = trimmed
	}
	m.mu.Unlock()

	metrics.MonitorPollsTotal.WithLabelValues(m.subreddit, "success").Inc()

	for i, f := range fresh {
		if i >= newPostBroadcastCap {
			break
		}
		m.broadcast(newPostUpdate(m.subreddit, f.redditID, f.title, f.author, f.score, f.numComments, f.url, f.createdUTC))
	}

	baselineBefore := m.tracker.Baseline()
	isSpike, spikeFactor := m.tracker.Record(len(fresh))
	if isSpike {
		metrics.MonitorActivitySpikesTotal.WithLabelValues(m.subreddit).Inc()
		minutesPerPoll := m.interval.Minutes()
		currentRate := float64(len(fresh)) / minutesPerPoll
		baselineRate := baselineBefore / minutesPerPoll
		m.broadcast(activitySpikeUpdate(m.subreddit, currentRate, baselineRate, spikeFactor))

		m.dispatchAlerts(ctx, map[string]float64{
			"spike_factor":  spikeFactor,
			"current_rate":  currentRate,
			"baseline_rate": baselineRate,
		})
	}

	return nil
}

// dispatchAlerts feeds metricsValues through the alert engine, if one is
// configured, and asynchronously processes every rule that fires so a
// slow notifier can never stall the polling loop.
func (m *SubredditMonitor) dispatchAlerts(ctx context.Context, metricsValues map[string]float64) {
	if m.alerts == nil {
		return
	}
	spikeType := alertengine.AlertActivitySpike
	fired := m.alerts.CheckRules(m.subreddit, metricsValues, &spikeType)
	for _, alert := range fired {
		alert := alert
		go func() {
			result := m.alerts.ProcessAlert(ctx, alert)
			if result.Error != "" {
				logger.Warn("alert dispatch had failures", "alert_id", result.ID, "rule_id", result.RuleID, "error", result.Error)
			}
		}()
	}
}

// Subscribe registers a new bounded subscriber channel.
func (m *SubredditMonitor) Subscribe() <-chan LiveUpdate {
	ch := make(chan LiveUpdate, subscriberQueueCapacity)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	count := len(m.subscribers)
	m.mu.Unlock()
	metrics.MonitorSubscribersGauge.WithLabelValues(m.subreddit).Set(float64(count))
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (m *SubredditMonitor) Unsubscribe(ch <-chan LiveUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sub := range m.subscribers {
		if sub == ch {
			close(sub)
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			metrics.MonitorSubscribersGauge.WithLabelValues(m.subreddit).Set(float64(len(m.subscribers)))
			return
		}
	}
}

// broadcast sends update to every subscriber without blocking. A
// subscriber whose queue is full is dropped and unsubscribed, since a
// slow consumer falling behind live updates gains nothing from queuing
// stale ones.
func (m *SubredditMonitor) broadcast(update LiveUpdate) {
	m.mu.Lock()
	subs := append([]chan LiveUpdate(nil), m.subscribers...)
	m.mu.Unlock()

	var dead []chan LiveUpdate
	for _, sub := range subs {
		select {
		case sub <- update:
		default:
			logger.Warn("subscriber queue full, dropping", "subreddit", m.subreddit)
			dead = append(dead, sub)
		}
	}

	if len(dead) == 0 {
		return
	}
	m.mu.Lock()
	for _, d := range dead {
		for i, sub := range m.subscribers {
			if sub == d {
				close(sub)
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				break
			}
		}
	}
	count := len(m.subscribers)
	m.mu.Unlock()
	metrics.MonitorSubscribersGauge.WithLabelValues(m.subreddit).Set(float64(count))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
