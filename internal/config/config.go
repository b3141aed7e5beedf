// Package config loads application configuration from the environment,
// following the same cached-singleton shape the rest of the ingestion
// stack uses for its own state.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// HTTP / rate limiter (§4.1, §6)
	UserAgent      string
	HTTPMaxRetries int
	HTTPRetryBase  time.Duration
	HTTPTimeout    time.Duration
	LogHTTPRetries bool

	RateLimitRequestsPerMinute int
	RateLimitTokensPerMinute   int

	// Reddit backend credentials / endpoints (§6)
	RedditClientID     string
	RedditClientSecret string
	RedditAPIBaseURL   string
	ScraperBaseURL     string

	// Scheduler (§4.7, §6)
	SchedulerIntervalMinutes int
	SchedulerSort            string
	SchedulerLimit           int
	SchedulerTimeFilter      string
	SchedulerConfigFile      string

	// Monitor (§4.8, §6)
	MonitorIntervalSeconds int
	MonitorMaxPostsPerPoll int
	MonitorSpikeThreshold  float64
	MonitorActivityWindow  int
	MonitorQueueCapacity   int

	// Alert engine (§4.9, §6)
	AlertMaxHistory       int
	AlertCooldownMinutes  int
	DataSourceStrategy    string
	DataSourceMaxFailures int

	// Notifiers (§4.10, §6)
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	SMTPUseTLS    bool
	WebhookURL    string
	SlackURL      string
	SlackChannel  string
	SlackUsername string
	DiscordURL    string
	DiscordUser   string

	// Database / observability
	DatabaseURL   string
	SentryDSN     string
	OTLPEndpoint  string
	LogLevel      string
	ServerAddress string
}

var (
	cached *Config
	once   sync.Once
)

// Load reads env vars once and caches them.
func Load() *Config {
	once.Do(func() {
		cached = build()
	})
	return cached
}

func build() *Config {
	ua := os.Getenv("REDDIT_USER_AGENT")
	if strings.TrimSpace(ua) == "" {
		ua = "reddit-insight/0.1 (by /u/reddit-insight-bot)"
	}

	cfg := &Config{
		UserAgent:      ua,
		HTTPMaxRetries: getEnvInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:  time.Duration(getEnvInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_MS", 15000)) * time.Millisecond,
		LogHTTPRetries: getEnvBool("LOG_HTTP_RETRIES", false),

		RateLimitRequestsPerMinute: getEnvInt("RATE_LIMIT_REQUESTS_PER_MINUTE", 60),
		RateLimitTokensPerMinute:   getEnvInt("RATE_LIMIT_TOKENS_PER_MINUTE", 600000),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditAPIBaseURL:   getEnvStr("REDDIT_API_BASE_URL", "https://oauth.reddit.com"),
		ScraperBaseURL:     getEnvStr("SCRAPER_BASE_URL", "https://old.reddit.com"),

		SchedulerIntervalMinutes: getEnvInt("SCHEDULER_INTERVAL_MINUTES", 15),
		SchedulerSort:            strings.ToLower(getEnvStr("SCHEDULER_SORT", "hot")),
		SchedulerLimit:           getEnvInt("SCHEDULER_LIMIT", 25),
		SchedulerTimeFilter:      strings.ToLower(getEnvStr("SCHEDULER_TIME_FILTER", "day")),
		SchedulerConfigFile:      os.Getenv("SCHEDULER_CONFIG_FILE"),

		MonitorIntervalSeconds: getEnvInt("MONITOR_INTERVAL_SECONDS", 30),
		MonitorMaxPostsPerPoll: getEnvInt("MONITOR_MAX_POSTS_PER_POLL", 25),
		MonitorSpikeThreshold:  getEnvFloat("MONITOR_SPIKE_THRESHOLD", 2.0),
		MonitorActivityWindow:  getEnvInt("MONITOR_ACTIVITY_WINDOW", 10),
		MonitorQueueCapacity:   getEnvInt("MONITOR_QUEUE_CAPACITY", 64),

		AlertMaxHistory:       getEnvInt("ALERT_MAX_HISTORY", 1000),
		AlertCooldownMinutes:  getEnvInt("ALERT_COOLDOWN_MINUTES", 5),
		DataSourceStrategy:    strings.ToUpper(getEnvStr("DATASOURCE_STRATEGY", "API_FIRST")),
		DataSourceMaxFailures: getEnvInt("DATASOURCE_FAILURE_THRESHOLD", 5),

		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		SMTPFrom:      os.Getenv("SMTP_FROM"),
		SMTPUseTLS:    getEnvBool("SMTP_USE_TLS", true),
		WebhookURL:    os.Getenv("WEBHOOK_URL"),
		SlackURL:      os.Getenv("SLACK_WEBHOOK_URL"),
		SlackChannel:  os.Getenv("SLACK_CHANNEL"),
		SlackUsername: getEnvStr("SLACK_USERNAME", "Reddit Insight Bot"),
		DiscordURL:    os.Getenv("DISCORD_WEBHOOK_URL"),
		DiscordUser:   getEnvStr("DISCORD_USERNAME", "Reddit Insight"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		OTLPEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:      getEnvStr("LOG_LEVEL", "info"),
		ServerAddress: getEnvStr("SERVER_ADDRESS", ":8080"),
	}

	if cfg.SchedulerSort == "" {
		cfg.SchedulerSort = "hot"
	}
	if cfg.SchedulerTimeFilter == "" {
		cfg.SchedulerTimeFilter = "day"
	}
	return cfg
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() {
	cached = nil
	once = sync.Once{}
}

func getEnvStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
