package monitor

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/onnwee/reddit-insight/internal/logger"
)

// SSEHandler streams a subreddit's LiveUpdates as Server-Sent Events.
func SSEHandler(registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subreddit := mux.Vars(r)["subreddit"]
		if subreddit == "" {
			http.Error(w, "subreddit is required", http.StatusBadRequest)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		m := registry.GetOrStart(r.Context(), subreddit)
		updates := m.Subscribe()
		defer m.Unsubscribe(updates)

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				payload, err := json.Marshal(update)
				if err != nil {
					logger.Error("failed to marshal live update", "error", err)
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Type, payload); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
