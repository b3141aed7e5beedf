// Package scheduler runs the collector on a recurring interval, tracking
// run history and exposing idle/running/stopped state.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/reddit-insight/internal/collector"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
	"github.com/onnwee/reddit-insight/internal/model"
)

// State is the scheduler's run state.
type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
	StateStopped State = "STOPPED"
)

const maxHistory = 100

// Scheduler runs the collector across a fixed set of subreddits on a
// recurring interval until stopped.
type Scheduler struct {
	collector  *collector.Collector
	subreddits []string
	interval   time.Duration

	mu      sync.Mutex
	state   State
	history []model.ScheduledRun
	stop    chan struct{}
}

func New(c *collector.Collector, subreddits []string, interval time.Duration) *Scheduler {
	return &Scheduler{
		collector:  c,
		subreddits: subreddits,
		interval:   interval,
		state:      StateIdle,
	}
}

// RunOnce executes a single collection pass immediately, recording a
// ScheduledRun in history.
func (s *Scheduler) RunOnce(ctx context.Context) model.ScheduledRun {
	run := model.ScheduledRun{
		ID:         uuid.NewString(),
		StartedAt:  time.Now(),
		Subreddits: append([]string(nil), s.subreddits...),
	}

	results := s.collector.CollectMultiple(ctx, s.subreddits)
	run.FinishedAt = time.Now()
	run.Succeeded = true

	for _, r := range results {
		run.TotalNew += r.Posts.New + r.Comments.New
		run.TotalErrors += r.Posts.Errors + r.Comments.Errors
		if r.Posts.Errors > 0 || r.Comments.Errors > 0 {
			run.Succeeded = false
		}
	}

	outcome := "success"
	if !run.Succeeded {
		outcome = "partial_failure"
	}
	metrics.ScheduledRunsTotal.WithLabelValues(outcome).Inc()

	s.recordRun(run)
	return run
}

// Start begins the recurring loop in a goroutine. Cancel ctx or call
// Stop to end it.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = StateRunning
	s.stop = make(chan struct{})
	stopCh := s.stop
	s.mu.Unlock()

	go s.loop(ctx, stopCh)
}

func (s *Scheduler) loop(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		case <-stop:
			s.setState(StateStopped)
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("scheduler run panicked", "recover", r)
					}
				}()
				s.RunOnce(ctx)
			}()
		}
	}
}

// Stop halts the recurring loop, if running.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning || s.stop == nil {
		return
	}
	close(s.stop)
	s.state = StateStopped
}

// State returns the scheduler's current run state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns the most recent scheduled runs, newest first.
func (s *Scheduler) History() []model.ScheduledRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduledRun, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Scheduler) recordRun(run model.ScheduledRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append([]model.ScheduledRun{run}, s.history...)
	if len(s.history) > maxHistory {
		s.history = s.history[:maxHistory]
	}
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		s.state = st
	}
}
