// Package metrics registers the Prometheus series exposed by the
// ingestion substrate and its live-monitoring/alerting components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP / data source layer
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_http_requests_total",
		Help: "Total HTTP requests issued by the data source backends.",
	}, []string{"backend", "outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reddit_insight_http_request_duration_seconds",
		Help:    "Latency of outbound HTTP requests by backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	HTTPRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_http_retries_total",
		Help: "Total retry attempts by backend and reason.",
	}, []string{"backend", "reason"})

	RateLimitWaitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_rate_limit_waits_total",
		Help: "Total times a backend call blocked on the rate limiter.",
	}, []string{"backend"})

	// Data source state machine
	DataSourceBackendState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reddit_insight_datasource_backend_state",
		Help: "Backend state: 0=ready, 1=failing, 2=disabled.",
	}, []string{"backend"})

	DataSourceBackendFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_datasource_backend_failures_total",
		Help: "Total consecutive-failure events recorded per backend.",
	}, []string{"backend"})

	DataSourceFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_datasource_fallbacks_total",
		Help: "Total fallbacks from the primary to the secondary backend.",
	}, []string{"from_backend", "to_backend"})

	// Pipeline
	PipelineItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_pipeline_items_total",
		Help: "Items processed by the ingestion pipeline.",
	}, []string{"entity", "outcome"})

	PipelineBatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reddit_insight_pipeline_batch_duration_seconds",
		Help:    "Duration of a pipeline collect-and-store batch.",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity"})

	// Collector / scheduler
	ScheduledRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_scheduled_runs_total",
		Help: "Scheduled collector runs by outcome.",
	}, []string{"outcome"})

	// Monitor
	MonitorPollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_monitor_polls_total",
		Help: "Monitor poll iterations by subreddit and outcome.",
	}, []string{"subreddit", "outcome"})

	MonitorActivitySpikesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_monitor_activity_spikes_total",
		Help: "Activity spikes detected by subreddit.",
	}, []string{"subreddit"})

	MonitorSubscribersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "reddit_insight_monitor_subscribers",
		Help: "Current live-stream subscriber count by subreddit.",
	}, []string{"subreddit"})

	// Alert engine
	AlertRuleFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_alert_rule_fires_total",
		Help: "Alert rule evaluations that produced an alert.",
	}, []string{"rule_id"})

	AlertNotifierDeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_insight_alert_notifier_deliveries_total",
		Help: "Notifier delivery attempts by notifier and outcome.",
	}, []string{"notifier", "outcome"})
)
