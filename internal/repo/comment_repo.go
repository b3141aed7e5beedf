package repo

import (
	"context"
	"database/sql"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/model"
)

// CommentRepo persists model.Comment records.
type CommentRepo struct {
	db *sql.DB
}

func NewCommentRepo(db *sql.DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// ExistingRedditIDs returns the subset of redditIDs already present.
func (r *CommentRepo) ExistingRedditIDs(ctx context.Context, redditIDs []string) (map[string]struct{}, error) {
	if len(redditIDs) == 0 {
		return map[string]struct{}{}, nil
	}
	const q = `SELECT reddit_id FROM comments WHERE reddit_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, pqStringArray(redditIDs))
	if err != nil {
		return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to query existing comment ids").WithCause(err)
	}
	defer rows.Close()

	out := make(map[string]struct{}, len(redditIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to scan comment id").WithCause(err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// UpsertMany inserts comments, updating score on conflict. Every comment
// must resolve to a known post_id via postIDByRedditID; the caller
// (Pipeline.ProcessComments) is responsible for rejecting the whole
// batch before calling this when a parent post hasn't been persisted.
func (r *CommentRepo) UpsertMany(ctx context.Context, comments []model.Comment, postIDByRedditID map[string]string) error {
	if len(comments) == 0 {
		return nil
	}

	const q = `
		INSERT INTO comments
			(reddit_id, post_id, parent_fullname, subreddit, body, author,
			 score, created_utc, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (reddit_id) DO UPDATE SET
			score = EXCLUDED.score,
			fetched_at = now()`

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to begin transaction").WithCause(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to prepare upsert").WithCause(err)
	}
	defer stmt.Close()

	for _, c := range comments {
		internalID, ok := postIDByRedditID[c.PostID]
		if !ok || internalID == "" {
			return apierr.New(apierr.RepositoryUpsertFailed, 500, "comment "+c.RedditID+" has no resolved post_id")
		}

		if _, err := stmt.ExecContext(ctx,
			c.RedditID, internalID, c.ParentID, c.Subreddit, c.Body, c.Author,
			c.Score, c.CreatedUTC,
		); err != nil {
			return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to upsert comment "+c.RedditID).WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to commit comment batch").WithCause(err)
	}
	return nil
}
