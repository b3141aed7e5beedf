// Command collector runs a single collection pass over the configured
// subreddits and exits, for use from cron or a one-off invocation.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/onnwee/reddit-insight/internal/collector"
	"github.com/onnwee/reddit-insight/internal/config"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/db"
	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/pipeline"
	"github.com/onnwee/reddit-insight/internal/redditapi"
	"github.com/onnwee/reddit-insight/internal/repo"
	"github.com/onnwee/reddit-insight/internal/scraper"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("collector-cmd")

	subreddits := strings.Split(os.Getenv("WATCHED_SUBREDDITS"), ",")
	if len(subreddits) == 0 || subreddits[0] == "" {
		log.Error("WATCHED_SUBREDDITS is required")
		os.Exit(1)
	}
	for i := range subreddits {
		subreddits[i] = strings.TrimSpace(subreddits[i])
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

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

	pl := pipeline.New(source, repo.NewSubredditRepo(database), repo.NewPostRepo(database), repo.NewCommentRepo(database))
	coll := collector.New(pl, collector.Config{
		Sort:          cfg.SchedulerSort,
		Limit:         cfg.SchedulerLimit,
		FetchComments: true,
	})

	log.Info("starting collection run", "subreddits", subreddits)
	results := coll.CollectMultiple(ctx, subreddits)

	for _, result := range results {
		log.Info("collection finished", "subreddit", result.Subreddit,
			"new", result.Posts.New, "duplicates", result.Posts.Duplicates,
			"filtered", result.Posts.Filtered, "errors", result.Posts.Errors)
	}
}
