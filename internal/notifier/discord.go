package notifier

import "context"

var discordColorByType = map[string]int{
	"keyword_surge":   0x36a64f,
	"sentiment_shift": 0xff9500,
	"activity_spike":  0x007aff,
	"new_trending":    0x5856d6,
	"custom":          0x8e8e93,
}

// DiscordNotifier posts an embed to a Discord incoming webhook.
type DiscordNotifier struct {
	*WebhookNotifier
	username string
}

func NewDiscord(webhookURL, username string) *DiscordNotifier {
	return &DiscordNotifier{
		WebhookNotifier: NewWebhook(webhookURL, nil),
		username:        username,
	}
}

func (d *DiscordNotifier) Name() string { return "discord" }

func (d *DiscordNotifier) Send(ctx context.Context, alert AlertPayload, metadata map[string]any) (bool, error) {
	color, ok := discordColorByType[alert.Type]
	if !ok {
		color = discordColorByType["custom"]
	}

	fields := []map[string]any{
		{"name": "Subreddit", "value": "r/" + alert.Subreddit, "inline": true},
	}
	if v, ok := alert.Data["value"]; ok {
		fields = append(fields, map[string]any{"name": "Value", "value": v, "inline": true})
	}
	if v, ok := alert.Data["threshold"]; ok {
		fields = append(fields, map[string]any{"name": "Threshold", "value": v, "inline": true})
	}

	embed := map[string]any{
		"title":       alert.Type,
		"description": alert.Message,
		"color":       color,
		"fields":      fields,
		"footer":      map[string]any{"text": "Reddit Insight"},
		"timestamp":   alert.TriggeredAt,
	}

	body := map[string]any{
		"embeds": []map[string]any{embed},
	}
	if d.username != "" {
		body["username"] = d.username
	}

	return d.post(ctx, alert, metadata, body)
}
