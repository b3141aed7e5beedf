// Command server runs the full ingestion substrate: the collector
// scheduler, live subreddit monitors, the alert engine, and the HTTP
// surface that fronts them all.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/reddit-insight/internal/alertengine"
	"github.com/onnwee/reddit-insight/internal/collector"
	"github.com/onnwee/reddit-insight/internal/config"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/db"
	"github.com/onnwee/reddit-insight/internal/errorreporting"
	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/middleware"
	"github.com/onnwee/reddit-insight/internal/monitor"
	"github.com/onnwee/reddit-insight/internal/notifier"
	"github.com/onnwee/reddit-insight/internal/pipeline"
	"github.com/onnwee/reddit-insight/internal/redditapi"
	"github.com/onnwee/reddit-insight/internal/repo"
	"github.com/onnwee/reddit-insight/internal/scheduler"
	"github.com/onnwee/reddit-insight/internal/scraper"
	"github.com/onnwee/reddit-insight/internal/server"
	"github.com/onnwee/reddit-insight/internal/tracing"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger.Init(cfg.LogLevel)
	log := logger.WithComponent("main")

	if err := errorreporting.Init(cfg.SentryDSN, os.Getenv("ENV")); err != nil {
		log.Warn("sentry init failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.OTLPEndpoint, "reddit-insight")
	if err != nil {
		log.Warn("tracing init failed", "error", err)
	} else {
		defer shutdownTracing(context.Background())
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	source := buildDataSource(cfg)

	subredditRepo := repo.NewSubredditRepo(database)
	postRepo := repo.NewPostRepo(database)
	commentRepo := repo.NewCommentRepo(database)

	pl := pipeline.New(source, subredditRepo, postRepo, commentRepo)
	coll := collector.New(pl, collector.Config{
		Sort:          cfg.SchedulerSort,
		Limit:         cfg.SchedulerLimit,
		FetchComments: true,
	})

	subreddits := watchedSubreddits(cfg, log)
	sched := scheduler.New(coll, subreddits, time.Duration(cfg.SchedulerIntervalMinutes)*time.Minute)
	sched.Start(ctx)
	defer sched.Stop()

	alerts := buildAlertEngine(cfg)

	monitorRegistry := monitor.NewRegistry(source, monitor.Config{
		Interval:       time.Duration(cfg.MonitorIntervalSeconds) * time.Second,
		MaxPosts:       cfg.MonitorMaxPostsPerPoll,
		SpikeThreshold: cfg.MonitorSpikeThreshold,
		WindowSize:     cfg.MonitorActivityWindow,
		Alerts:         alerts,
	})

	srv := server.New(server.Config{
		Address:     cfg.ServerAddress,
		CORSConfig:  middleware.DefaultCORSConfig(),
		GlobalRPS:   50,
		GlobalBurst: 100,
		PerIPRPS:    5,
		PerIPBurst:  20,
	}, source, monitorRegistry, sched, alerts)

	log.Info("starting server", "address", cfg.ServerAddress)
	if err := srv.Start(ctx); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}

	errorreporting.Flush(2 * time.Second)
}

func buildDataSource(cfg *config.Config) *datasource.UnifiedDataSource {
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
	scraperClient := scraper.New(scraper.Config{
		BaseURL: cfg.ScraperBaseURL,
		HTTP:    httpCfg,
	})

	return datasource.New(datasource.Strategy(cfg.DataSourceStrategy), apiClient, scraperClient)
}

func buildAlertEngine(cfg *config.Config) *alertengine.Engine {
	engine := alertengine.New(alertengine.Config{
		MaxHistory:      cfg.AlertMaxHistory,
		CooldownMinutes: cfg.AlertCooldownMinutes,
	})

	engine.RegisterNotifier(notifier.NewConsole(true))

	if cfg.WebhookURL != "" {
		engine.RegisterNotifier(notifier.NewWebhook(cfg.WebhookURL, nil))
	}
	if cfg.SlackURL != "" {
		engine.RegisterNotifier(notifier.NewSlack(cfg.SlackURL, cfg.SlackChannel, cfg.SlackUsername))
	}
	if cfg.DiscordURL != "" {
		engine.RegisterNotifier(notifier.NewDiscord(cfg.DiscordURL, cfg.DiscordUser))
	}
	if cfg.SMTPHost != "" {
		engine.RegisterNotifier(notifier.NewEmail(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPUseTLS))
	}

	return engine
}

// watchedSubreddits resolves the list of subreddits the collector should
// watch. A YAML schedule file (SCHEDULER_CONFIG_FILE) takes priority over
// the flat WATCHED_SUBREDDITS env var when both are present; per-entry
// sort/limit/interval overrides in the schedule file are accepted by the
// loader but not yet applied per-subreddit, since Scheduler runs a single
// collector config across its whole subreddit list.
func watchedSubreddits(cfg *config.Config, log *slog.Logger) []string {
	if cfg.SchedulerConfigFile != "" {
		schedules, err := config.LoadScheduleFile(cfg.SchedulerConfigFile, cfg.SchedulerSort, cfg.SchedulerLimit, cfg.SchedulerIntervalMinutes)
		if err != nil {
			log.Warn("failed to load scheduler config file, falling back to WATCHED_SUBREDDITS", "path", cfg.SchedulerConfigFile, "error", err)
		} else {
			out := make([]string, 0, len(schedules))
			for _, s := range schedules {
				out = append(out, s.Subreddit)
			}
			if len(out) > 0 {
				return out
			}
		}
	}

	raw := os.Getenv("WATCHED_SUBREDDITS")
	if raw == "" {
		return []string{"golang"}
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
