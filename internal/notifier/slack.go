package notifier

import "context"

var slackColorByType = map[string]string{
	"keyword_surge":   "#36a64f",
	"sentiment_shift": "#ff9500",
	"activity_spike":  "#007aff",
	"new_trending":    "#5856d6",
	"custom":          "#8e8e93",
}

// SlackNotifier posts a colored attachment to a Slack incoming webhook.
type SlackNotifier struct {
	*WebhookNotifier
	channel  string
	username string
}

func NewSlack(webhookURL, channel, username string) *SlackNotifier {
	return &SlackNotifier{
		WebhookNotifier: NewWebhook(webhookURL, nil),
		channel:         channel,
		username:        username,
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, alert AlertPayload, metadata map[string]any) (bool, error) {
	color, ok := slackColorByType[alert.Type]
	if !ok {
		color = slackColorByType["custom"]
	}

	fields := []map[string]any{
		{"title": "Subreddit", "value": "r/" + alert.Subreddit, "short": true},
	}
	if v, ok := alert.Data["value"]; ok {
		fields = append(fields, map[string]any{"title": "Value", "value": v, "short": true})
	}
	if v, ok := alert.Data["threshold"]; ok {
		fields = append(fields, map[string]any{"title": "Threshold", "value": v, "short": true})
	}

	attachment := map[string]any{
		"color":  color,
		"title":  alert.Type,
		"text":   alert.Message,
		"fields": fields,
		"ts":     alert.TriggeredAt,
	}

	body := map[string]any{
		"attachments": []map[string]any{attachment},
	}
	if s.username != "" {
		body["username"] = s.username
	}
	if s.channel != "" {
		body["channel"] = s.channel
	}

	return s.post(ctx, alert, metadata, body)
}
