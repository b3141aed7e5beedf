package middleware

import (
	"fmt"
	"net/http"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/errorreporting"
	"github.com/onnwee/reddit-insight/internal/logger"
)

// RecoverWithSentry recovers from a panic in the handler chain, logs it,
// reports it to Sentry when enabled, and returns a 500 to the client.
func RecoverWithSentry(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				logger.ErrorContext(r.Context(), "handler panicked", "error", err, "path", r.URL.Path)
				if errorreporting.IsSentryEnabled() {
					errorreporting.CaptureException(err)
				}
				apierr.WriteError(w, apierr.NewInternal("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
