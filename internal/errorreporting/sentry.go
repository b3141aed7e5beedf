// Package errorreporting wraps Sentry error reporting. It is a no-op
// when no DSN is configured so local and test runs never depend on
// network access.
package errorreporting

import (
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/onnwee/reddit-insight/internal/logger"
)

var (
	mu      sync.Mutex
	enabled bool
)

// Init configures Sentry if dsn is non-empty. Safe to call multiple times.
func Init(dsn, environment string) error {
	mu.Lock()
	defer mu.Unlock()

	if dsn == "" {
		enabled = false
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: 0.0,
	})
	if err != nil {
		logger.Error("sentry init failed", "error", err)
		return err
	}
	enabled = true
	return nil
}

// IsSentryEnabled reports whether error reporting is active.
func IsSentryEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// CaptureException reports err to Sentry, a no-op when disabled.
func CaptureException(err error) {
	if !IsSentryEnabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureMessage reports a message to Sentry, a no-op when disabled.
func CaptureMessage(message string) {
	if !IsSentryEnabled() {
		return
	}
	sentry.CaptureMessage(message)
}

// Flush waits up to timeout for queued events to be delivered.
func Flush(timeout time.Duration) bool {
	if !IsSentryEnabled() {
		return true
	}
	return sentry.Flush(timeout)
}
