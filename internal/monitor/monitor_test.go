package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/reddit-insight/internal/alertengine"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/model"
	"github.com/onnwee/reddit-insight/internal/notifier"
)

type capturingNotifier struct {
	mu   sync.Mutex
	name string
	sent int
}

func (n *capturingNotifier) Name() string { return n.name }

func (n *capturingNotifier) Send(ctx context.Context, payload notifier.AlertPayload, metadata map[string]any) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return true, nil
}

func (n *capturingNotifier) sentCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

type stubBackend struct {
	mu    sync.Mutex
	name  string
	posts []model.Post
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) FetchPosts(ctx context.Context, subreddit, sort string, limit int, after string) ([]model.Post, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Post(nil), s.posts...), "", nil
}

func (s *stubBackend) FetchComments(ctx context.Context, subreddit, postRedditID string) ([]model.Comment, error) {
	return nil, nil
}

func (s *stubBackend) FetchSubredditInfo(ctx context.Context, subreddit string) (model.Subreddit, error) {
	return model.Subreddit{}, nil
}

func (s *stubBackend) setPosts(posts []model.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
}

func newTestMonitor(backend *stubBackend) *SubredditMonitor {
	source := datasource.New(datasource.StrategyAPIOnly, backend, nil)
	return New("golang", source, Config{Interval: 10 * time.Millisecond, MaxPosts: 25})
}

func newTestMonitorWithAlerts(backend *stubBackend, engine *alertengine.Engine) *SubredditMonitor {
	source := datasource.New(datasource.StrategyAPIOnly, backend, nil)
	return New("golang", source, Config{
		Interval:       10 * time.Millisecond,
		MaxPosts:       25,
		SpikeThreshold: 2.0,
		WindowSize:     10,
		Alerts:         engine,
	})
}

func TestSubscribeUnsubscribe(t *testing.T) {
	m := newTestMonitor(&stubBackend{name: "api"})
	ch := m.Subscribe()
	if len(m.subscribers) != 1 {
		t.Fatalf("expected 1 subscriber, got %d", len(m.subscribers))
	}
	m.Unsubscribe(ch)
	if len(m.subscribers) != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe, got %d", len(m.subscribers))
	}
}

func TestCheckUpdatesBroadcastsNewPosts(t *testing.T) {
	backend := &stubBackend{name: "api", posts: []model.Post{{RedditID: "p1", Title: "first"}}}
	m := newTestMonitor(backend)
	ch := m.Subscribe()

	if err := m.checkUpdates(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case update := <-ch:
		if update.Type != UpdateNewPost {
			t.Errorf("expected a new_post update, got %q", update.Type)
		}
	default:
		t.Fatal("expected a broadcast update to be queued")
	}
}

func TestCheckUpdatesSkipsAlreadySeenPosts(t *testing.T) {
	backend := &stubBackend{name: "api", posts: []model.Post{{RedditID: "p1"}}}
	m := newTestMonitor(backend)
	ch := m.Subscribe()

	_ = m.checkUpdates(context.Background())
	<-ch // drain the first broadcast

	_ = m.checkUpdates(context.Background())
	select {
	case update := <-ch:
		t.Fatalf("expected no further broadcast for an already-seen post, got %+v", update)
	default:
	}
}

func TestBroadcastDropsFullSubscriber(t *testing.T) {
	backend := &stubBackend{name: "api"}
	m := newTestMonitor(backend)
	ch := m.Subscribe()

	for i := 0; i < subscriberQueueCapacity+5; i++ {
		m.broadcast(statusUpdate("golang", "filler"))
	}

	if len(m.subscribers) != 0 {
		t.Errorf("expected the overfull subscriber to be dropped, still have %d", len(m.subscribers))
	}

	// Draining the channel should not panic even though it was closed.
	for range ch {
	}
}

func TestCheckUpdatesDispatchesAlertOnSpike(t *testing.T) {
	engine := alertengine.New(alertengine.Config{})
	n := &capturingNotifier{name: "capture"}
	engine.RegisterNotifier(n)
	_ = engine.AddRule(alertengine.AlertRule{
		ID:        "spike-rule",
		Name:      "activity spike",
		Type:      alertengine.AlertActivitySpike,
		Condition: alertengine.AlertCondition{Field: "spike_factor", Operator: alertengine.OpGreaterOrEqual, Threshold: 2.0},
		Notifiers: []string{"capture"},
		Enabled:   true,
	})

	backend := &stubBackend{name: "api"}
	m := newTestMonitorWithAlerts(backend, engine)

	// Establish a low baseline over several polls, each with a single new post.
	for i := 0; i < 4; i++ {
		backend.setPosts([]model.Post{{RedditID: "baseline-" + string(rune('a'+i))}})
		if err := m.checkUpdates(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// A burst of many new posts in one poll should read as a spike and fire the rule.
	burst := make([]model.Post, 0, 10)
	for i := 0; i < 10; i++ {
		burst = append(burst, model.Post{RedditID: "burst-" + string(rune('a'+i))})
	}
	backend.setPosts(burst)
	if err := m.checkUpdates(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for n.sentCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n.sentCount() != 1 {
		t.Fatalf("expected the spike to dispatch exactly one alert, got %d", n.sentCount())
	}
}

func TestStartStopIdempotent(t *testing.T) {
	backend := &stubBackend{name: "api"}
	m := newTestMonitor(backend)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.Start(ctx)
	m.Start(ctx) // no-op, must not panic or double-start
	if !m.running {
		t.Fatal("expected monitor to be running")
	}

	m.Stop()
	m.Stop() // no-op
	if m.running {
		t.Fatal("expected monitor to be stopped")
	}
}
