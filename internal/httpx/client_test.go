package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(maxRetries int) *Client {
	return New(Config{
		BackendName:       "test",
		UserAgent:         "test-agent",
		Timeout:           2 * time.Second,
		MaxRetries:        maxRetries,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerMinute: 6000,
	})
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(2)
	body, err := c.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestGetRetriesOnServerErrorThenSucceeds(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(3)
	body, err := c.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body: %s", body)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGetNonRetryableClientError(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(3)
	_, err := c.Get(context.Background(), srv.URL, true)
	if err == nil {
		t.Fatal("expected an error for a 404 response")
	}
	scrapeErr, ok := err.(*ScrapingError)
	if !ok {
		t.Fatalf("expected a *ScrapingError, got %T", err)
	}
	if scrapeErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", scrapeErr.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("expected no retries for a non-retryable 4xx, got %d attempts", attempts)
	}
}

func TestGetAuthorizedAttachesBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(1)
	_, err := c.GetAuthorized(context.Background(), srv.URL, "tok123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("expected Authorization header 'Bearer tok123', got %q", gotAuth)
	}
}

func TestGetRateLimitedRespectsRetryAfterSeconds(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(2)
	_, err := c.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestGetRateLimitDoesNotConsumeRetryBudget(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// maxRetries of 1 would normally allow only a single retry for
	// network/server errors, but three 429s in a row must not exhaust it.
	c := newTestClient(1)
	body, err := c.Get(context.Background(), srv.URL, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("unexpected body: %s", body)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts (3 rate-limited + 1 success), got %d", attempts)
	}
}
