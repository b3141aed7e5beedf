package repo

import (
	"context"
	"database/sql"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/model"
)

// PostRepo persists model.Post records.
type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

// GetByRedditID looks up a post by its bare Reddit id (without the t3_ prefix).
func (r *PostRepo) GetByRedditID(ctx context.Context, redditID string) (*model.Post, error) {
	const q = `
		SELECT id, reddit_id, subreddit, title, selftext, author, score,
		       num_comments, url, permalink, created_utc, over_18, is_self, fetched_at
		FROM posts WHERE reddit_id = $1`

	var p model.Post
	err := r.db.QueryRowContext(ctx, q, redditID).Scan(
		&p.ID, &p.RedditID, &p.Subreddit, &p.Title, &p.Selftext, &p.Author,
		&p.Score, &p.NumComments, &p.URL, &p.Permalink, &p.CreatedUTC,
		&p.Over18, &p.IsSelf, &p.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to query post").WithCause(err)
	}
	return &p, nil
}

// ExistingRedditIDs returns the subset of redditIDs already present.
func (r *PostRepo) ExistingRedditIDs(ctx context.Context, redditIDs []string) (map[string]struct{}, error) {
	if len(redditIDs) == 0 {
		return map[string]struct{}{}, nil
	}
	const q = `SELECT reddit_id FROM posts WHERE reddit_id = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, pqStringArray(redditIDs))
	if err != nil {
		return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to query existing post ids").WithCause(err)
	}
	defer rows.Close()

	out := make(map[string]struct{}, len(redditIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to scan post id").WithCause(err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// UpsertMany inserts posts, updating volatile fields (score, num_comments,
// fetched_at) on conflict. Title/selftext/author are treated as immutable
// once set.
func (r *PostRepo) UpsertMany(ctx context.Context, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	const q = `
		INSERT INTO posts
			(reddit_id, subreddit, title, selftext, author, score,
			 num_comments, url, permalink, created_utc, over_18, is_self, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (reddit_id) DO UPDATE SET
			score = EXCLUDED.score,
			num_comments = EXCLUDED.num_comments,
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

	for _, p := range posts {
		if _, err := stmt.ExecContext(ctx,
			p.RedditID, p.Subreddit, p.Title, p.Selftext, p.Author, p.Score,
			p.NumComments, p.URL, p.Permalink, p.CreatedUTC, p.Over18, p.IsSelf,
		); err != nil {
			return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to upsert post "+p.RedditID).WithCause(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to commit post batch").WithCause(err)
	}
	return nil
}
