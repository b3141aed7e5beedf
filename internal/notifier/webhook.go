package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/onnwee/reddit-insight/internal/apierr"
)

// WebhookNotifier POSTs a JSON payload to a configured or per-alert URL.
type WebhookNotifier struct {
	defaultURL string
	headers    map[string]string
	http       *http.Client
}

func NewWebhook(defaultURL string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		defaultURL: defaultURL,
		headers:    headers,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

func (w *WebhookNotifier) resolveURL(metadata map[string]any) (string, error) {
	if metadata != nil {
		if v, ok := metadata["url"].(string); ok && v != "" {
			return v, nil
		}
	}
	if w.defaultURL != "" {
		return w.defaultURL, nil
	}
	return "", apierr.NewValidationFailed("webhook notifier has no URL configured")
}

func (w *WebhookNotifier) payload(alert AlertPayload) map[string]any {
	return map[string]any{
		"id":           alert.ID,
		"type":         alert.Type,
		"message":      alert.Message,
		"data":         alert.Data,
		"subreddit":    alert.Subreddit,
		"triggered_at": alert.TriggeredAt,
	}
}

func (w *WebhookNotifier) Send(ctx context.Context, alert AlertPayload, metadata map[string]any) (bool, error) {
	return w.post(ctx, alert, metadata, w.payload(alert))
}

func (w *WebhookNotifier) post(ctx context.Context, alert AlertPayload, metadata map[string]any, body map[string]any) (bool, error) {
	url, err := w.resolveURL(metadata)
	if err != nil {
		return false, err
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return false, apierr.NewAlertNotifierFailed(fmt.Sprintf("webhook request failed: %v", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent:
		return true, nil
	default:
		return false, apierr.NewAlertNotifierFailed(fmt.Sprintf("webhook returned status %d", resp.StatusCode))
	}
}
