// Command monitor watches a single subreddit and prints live updates
// to stdout, for local inspection outside of the SSE/websocket server.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/reddit-insight/internal/config"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/monitor"
	"github.com/onnwee/reddit-insight/internal/redditapi"
	"github.com/onnwee/reddit-insight/internal/scraper"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("monitor-cmd")

	subreddit := os.Getenv("MONITOR_SUBREDDIT")
	if subreddit == "" {
		log.Error("MONITOR_SUBREDDIT is required")
		os.Exit(1)
	}

	httpCfg := httpx.Config{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.HTTPTimeout,
		MaxRetries:        cfg.HTTPMaxRetries,
		RetryBaseDelay:    cfg.HTTPRetryBase,
		RequestsPerMinute: cfg.RateLimitRequestsPerMinute,
		RequestLogging:    cfg.LogHTTPRetries,
	}
	apiClient := redditapi.New(redditapi.Config{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		BaseURL:      cfg.RedditAPIBaseURL,
		UserAgent:    cfg.UserAgent,
		HTTP:         httpCfg,
	})
	scraperClient := scraper.New(scraper.Config{BaseURL: cfg.ScraperBaseURL, HTTP: httpCfg})
	source := datasource.New(datasource.Strategy(cfg.DataSourceStrategy), apiClient, scraperClient)

	m := monitor.New(subreddit, source, monitor.Config{
		MaxPosts:       cfg.MonitorMaxPostsPerPoll,
		SpikeThreshold: cfg.MonitorSpikeThreshold,
		WindowSize:     cfg.MonitorActivityWindow,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates := m.Subscribe()
	m.Start(ctx)
	defer m.Stop()

	log.Info("watching subreddit", "subreddit", subreddit)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b, _ := json.Marshal(update)
			os.Stdout.Write(append(b, '\n'))
		}
	}
}
