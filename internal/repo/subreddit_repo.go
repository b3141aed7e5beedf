// Package repo implements Postgres-backed persistence for subreddits,
// posts, and comments, upserting on conflict and touching only the
// volatile fields of records that already exist.
package repo

import (
	"context"
	"database/sql"
	"strings"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/model"
)

// SubredditRepo persists model.Subreddit records.
type SubredditRepo struct {
	db *sql.DB
}

func NewSubredditRepo(db *sql.DB) *SubredditRepo {
	return &SubredditRepo{db: db}
}

// GetByName looks up a subreddit by display name, case-insensitively.
func (r *SubredditRepo) GetByName(ctx context.Context, name string) (*model.Subreddit, error) {
	const q = `
		SELECT id, reddit_id, display_name, title, public_description,
		       subscribers, over_18, created_utc, fetched_at
		FROM subreddits
		WHERE lower(display_name) = lower($1)`

	var s model.Subreddit
	err := r.db.QueryRowContext(ctx, q, name).Scan(
		&s.ID, &s.RedditID, &s.DisplayName, &s.Title, &s.PublicDescription,
		&s.Subscribers, &s.Over18, &s.CreatedUTC, &s.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apierr.New(apierr.RepositoryQueryFailed, 500, "failed to query subreddit").WithCause(err)
	}
	return &s, nil
}

// Upsert inserts s or, if a row with the same reddit_id exists, updates
// its mutable fields (display_name, title, public_description,
// subscribers, over_18, fetched_at); reddit_id and created_utc are kept.
func (r *SubredditRepo) Upsert(ctx context.Context, s model.Subreddit) (*model.Subreddit, error) {
	const q = `
		INSERT INTO subreddits
			(reddit_id, display_name, title, public_description, subscribers,
			 over_18, created_utc, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (reddit_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			title = EXCLUDED.title,
			public_description = EXCLUDED.public_description,
			subscribers = EXCLUDED.subscribers,
			over_18 = EXCLUDED.over_18,
			fetched_at = now()
		RETURNING id, reddit_id, display_name, title, public_description,
		          subscribers, over_18, created_utc, fetched_at`

	var out model.Subreddit
	err := r.db.QueryRowContext(ctx, q,
		s.RedditID, s.DisplayName, s.Title, s.PublicDescription, s.Subscribers,
		s.Over18, s.CreatedUTC,
	).Scan(
		&out.ID, &out.RedditID, &out.DisplayName, &out.Title, &out.PublicDescription,
		&out.Subscribers, &out.Over18, &out.CreatedUTC, &out.FetchedAt,
	)
	if err != nil {
		return nil, apierr.New(apierr.RepositoryUpsertFailed, 500, "failed to upsert subreddit").WithCause(err)
	}
	return &out, nil
}

// GetOrCreateStub ensures a subreddit row exists for displayName, even
// when full metadata hasn't been fetched yet, so posts/comments always
// have a parent to reference.
func (r *SubredditRepo) GetOrCreateStub(ctx context.Context, displayName string) (*model.Subreddit, error) {
	existing, err := r.GetByName(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return r.Upsert(ctx, model.Subreddit{
		RedditID:    strings.ToLower(displayName),
		DisplayName: displayName,
	})
}
