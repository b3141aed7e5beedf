package notifier

import (
	"context"
	"fmt"
)

// ConsoleNotifier prints alerts to stdout; useful for local development
// and as the always-succeeds fallback channel.
type ConsoleNotifier struct {
	Verbose bool
}

func NewConsole(verbose bool) *ConsoleNotifier {
	return &ConsoleNotifier{Verbose: verbose}
}

func (c *ConsoleNotifier) Name() string { return "console" }

func (c *ConsoleNotifier) Send(_ context.Context, alert AlertPayload, _ map[string]any) (bool, error) {
	fmt.Printf("[ALERT] r/%s %s: %s\n", alert.Subreddit, alert.Type, alert.Message)
	if c.Verbose {
		for k, v := range alert.Data {
			fmt.Printf("    %s: %v\n", k, v)
		}
	}
	return true, nil
}
