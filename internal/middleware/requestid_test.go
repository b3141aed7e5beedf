package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/onnwee/reddit-insight/internal/logger"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seenInContext string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenInContext, _ = r.Context().Value(logger.RequestIDKey).(string)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	headerID := rr.Header().Get(RequestIDHeader)
	if headerID == "" {
		t.Fatal("expected a generated request id header")
	}
	if seenInContext != headerID {
		t.Errorf("expected context id %q to match header id %q", seenInContext, headerID)
	}
}

func TestRequestIDPreservesIncoming(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied-id")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("expected incoming request id to be preserved, got %q", got)
	}
}
