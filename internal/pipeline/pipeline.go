// Package pipeline filters, deduplicates, and persists posts and
// comments fetched from a data source, tracking outcome counts per batch.
package pipeline

import (
	"context"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/datasource"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
	"github.com/onnwee/reddit-insight/internal/model"
	"github.com/onnwee/reddit-insight/internal/preprocessor"
	"github.com/onnwee/reddit-insight/internal/repo"
)

// Pipeline filters deleted content, deduplicates against storage, and
// upserts valid posts/comments, reporting a ProcessingResult per batch.
type Pipeline struct {
	source     *datasource.UnifiedDataSource
	subreddits *repo.SubredditRepo
	posts      *repo.PostRepo
	comments   *repo.CommentRepo
}

func New(source *datasource.UnifiedDataSource, subreddits *repo.SubredditRepo, posts *repo.PostRepo, comments *repo.CommentRepo) *Pipeline {
	return &Pipeline{source: source, subreddits: subreddits, posts: posts, comments: comments}
}

// ProcessPosts filters deleted posts, deduplicates against existing
// reddit_ids, and upserts the rest. On a store failure every valid post
// is attributed to result.Errors and the error is returned.
func (p *Pipeline) ProcessPosts(ctx context.Context, subredditName string, candidates []model.Post) (model.ProcessingResult, error) {
	result := model.ProcessingResult{Total: len(candidates)}

	valid := make([]model.Post, 0, len(candidates))
	for _, post := range candidates {
		if preprocessor.IsDeletedContent(post.Title) || preprocessor.IsDeletedContent(post.Selftext) {
			result.Filtered++
			continue
		}
		valid = append(valid, post)
	}

	if len(valid) == 0 {
		return result, nil
	}

	if _, err := p.subreddits.GetOrCreateStub(ctx, subredditName); err != nil {
		logger.Warn("failed to ensure subreddit stub", "subreddit", subredditName, "error", err)
	}

	ids := make([]string, len(valid))
	for i, post := range valid {
		ids[i] = post.RedditID
	}
	existing, err := p.posts.ExistingRedditIDs(ctx, ids)
	if err != nil {
		result.Errors = len(valid)
		metrics.PipelineItemsTotal.WithLabelValues("post", "error").Add(float64(len(valid)))
		return result, err
	}

	var newPosts []model.Post
	for _, post := range valid {
		if _, ok := existing[post.RedditID]; ok {
			result.Duplicates++
			continue
		}
		newPosts = append(newPosts, post)
	}

	if err := p.posts.UpsertMany(ctx, newPosts); err != nil {
		result.Errors = len(valid)
		metrics.PipelineItemsTotal.WithLabelValues("post", "error").Add(float64(len(valid)))
		return result, err
	}

	result.New = len(newPosts)
	metrics.PipelineItemsTotal.WithLabelValues("post", "new").Add(float64(result.New))
	metrics.PipelineItemsTotal.WithLabelValues("post", "duplicate").Add(float64(result.Duplicates))
	metrics.PipelineItemsTotal.WithLabelValues("post", "filtered").Add(float64(result.Filtered))
	return result, nil
}

// ProcessComments filters deleted/author-stripped-and-empty comments,
// deduplicates, and upserts the rest. Like ProcessPosts, this is
// all-or-nothing: if any valid comment's parent post hasn't been
// resolved to an internal ID, none of the batch is upserted and every
// valid comment is attributed to result.Errors.
func (p *Pipeline) ProcessComments(ctx context.Context, candidates []model.Comment, postIDByRedditID map[string]string) (model.ProcessingResult, error) {
	result := model.ProcessingResult{Total: len(candidates)}

	valid := make([]model.Comment, 0, len(candidates))
	for _, c := range candidates {
		if preprocessor.IsDeletedContent(c.Body) {
			result.Filtered++
			continue
		}
		normalizedAuthor := preprocessor.NormalizeAuthor(c.Author)
		if normalizedAuthor == "" && c.Body == "" {
			result.Filtered++
			continue
		}
		valid = append(valid, c)
	}

	if len(valid) == 0 {
		return result, nil
	}

	for _, c := range valid {
		if _, ok := postIDByRedditID[c.PostID]; !ok {
			result.Errors = len(valid)
			metrics.PipelineItemsTotal.WithLabelValues("comment", "error").Add(float64(len(valid)))
			return result, apierr.New(apierr.RepositoryUpsertFailed, 500, "comment "+c.RedditID+" references an unresolved parent post "+c.PostID)
		}
	}

	ids := make([]string, len(valid))
	for i, c := range valid {
		ids[i] = c.RedditID
	}
	existing, err := p.comments.ExistingRedditIDs(ctx, ids)
	if err != nil {
		result.Errors = len(valid)
		metrics.PipelineItemsTotal.WithLabelValues("comment", "error").Add(float64(len(valid)))
		return result, err
	}

	var newComments []model.Comment
	for _, c := range valid {
		if _, ok := existing[c.RedditID]; ok {
			result.Duplicates++
			continue
		}
		newComments = append(newComments, c)
	}

	if err := p.comments.UpsertMany(ctx, newComments, postIDByRedditID); err != nil {
		result.Errors = len(valid)
		metrics.PipelineItemsTotal.WithLabelValues("comment", "error").Add(float64(len(valid)))
		return result, err
	}

	result.New = len(newComments)
	metrics.PipelineItemsTotal.WithLabelValues("comment", "new").Add(float64(result.New))
	metrics.PipelineItemsTotal.WithLabelValues("comment", "duplicate").Add(float64(result.Duplicates))
	metrics.PipelineItemsTotal.WithLabelValues("comment", "filtered").Add(float64(result.Filtered))
	return result, nil
}

// CollectAndStore fetches posts for subredditName (defaulting to hot
// sort with a warning on an unrecognized sort), persists them, and then
// fetches+persists comments for every fetched post, never aborting the loop
// on a single post's comment-fetch failure.
func (p *Pipeline) CollectAndStore(ctx context.Context, subredditName, sort string, limit int, fetchComments bool) (model.CollectionResult, error) {
	switch sort {
	case "hot", "new", "top":
	default:
		logger.Warn("unrecognized sort, defaulting to hot", "subreddit", subredditName, "sort", sort)
		sort = "hot"
	}

	result := model.CollectionResult{Subreddit: subredditName}

	posts, _, err := p.source.FetchPosts(ctx, subredditName, sort, limit, "")
	if err != nil {
		return result, err
	}

	postResult, err := p.ProcessPosts(ctx, subredditName, posts)
	result.Posts = postResult
	if err != nil {
		return result, err
	}

	if !fetchComments {
		return result, nil
	}

	postIDByRedditID := make(map[string]string, len(posts))
	for _, post := range posts {
		stored, err := p.posts.GetByRedditID(ctx, post.RedditID)
		if err != nil || stored == nil {
			continue
		}
		postIDByRedditID[post.RedditID] = stored.ID
	}

	for _, post := range posts {
		comments, err := p.source.FetchComments(ctx, subredditName, post.RedditID)
		if err != nil {
			logger.Warn("failed to fetch comments for post", "post", post.RedditID, "error", err)
			result.Comments.Errors++
			continue
		}
		commentResult, err := p.ProcessComments(ctx, comments, postIDByRedditID)
		result.Comments = result.Comments.Add(commentResult)
		if err != nil {
			logger.Warn("failed to store comments for post", "post", post.RedditID, "error", err)
		}
	}

	return result, nil
}
