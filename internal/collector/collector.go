// Package collector drives one-shot and batch subreddit collection
// through the pipeline, sequentially per subreddit.
package collector

import (
	"context"

	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/model"
	"github.com/onnwee/reddit-insight/internal/pipeline"
)

// Collector sequences collect-and-store calls across subreddits.
type Collector struct {
	pipeline      *pipeline.Pipeline
	sort          string
	limit         int
	fetchComments bool
}

// Config configures a Collector.
type Config struct {
	Sort          string
	Limit         int
	FetchComments bool
}

func New(p *pipeline.Pipeline, cfg Config) *Collector {
	sort := cfg.Sort
	if sort == "" {
		sort = "hot"
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = 25
	}
	return &Collector{pipeline: p, sort: sort, limit: limit, fetchComments: cfg.FetchComments}
}

// CollectSubreddit collects one subreddit's posts (and optionally comments).
func (c *Collector) CollectSubreddit(ctx context.Context, subreddit string) (model.CollectionResult, error) {
	return c.pipeline.CollectAndStore(ctx, subreddit, c.sort, c.limit, c.fetchComments)
}

// CollectMultiple collects each subreddit in turn, continuing past
// per-subreddit errors so one bad community doesn't block the batch.
func (c *Collector) CollectMultiple(ctx context.Context, subreddits []string) []model.CollectionResult {
	results := make([]model.CollectionResult, 0, len(subreddits))
	for _, subreddit := range subreddits {
		result, err := c.CollectSubreddit(ctx, subreddit)
		if err != nil {
			logger.Warn("subreddit collection failed", "subreddit", subreddit, "error", err)
		}
		results = append(results, result)
	}
	return results
}
