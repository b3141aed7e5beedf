package redditjson

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/model"
)

// ParseListing validates and unmarshals a raw Listing payload.
func ParseListing(raw []byte) (*Listing, error) {
	var l Listing
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, apierr.New(apierr.ParseInvalidListing, 502, "invalid listing JSON").WithCause(err)
	}
	if l.Kind != KindListing {
		return nil, apierr.New(apierr.ParseInvalidListing, 502, "expected Listing kind, got "+l.Kind)
	}
	return &l, nil
}

// GetAfterToken returns the pagination cursor of a listing, "" if none.
func GetAfterToken(l *Listing) string {
	return l.Data.After
}

// ParsePost converts a t3 Thing into a model.Post. A missing or empty
// author becomes "[deleted]".
func ParsePost(t Thing) (model.Post, error) {
	var d postData
	if err := json.Unmarshal(t.Data, &d); err != nil {
		return model.Post{}, apierr.New(apierr.ParseInvalidShape, 502, "invalid post data").WithCause(err)
	}

	author := "[deleted]"
	if d.Author != nil && *d.Author != "" {
		author = *d.Author
	}

	permalink := d.Permalink
	if permalink != "" && !strings.HasPrefix(permalink, "http") {
		permalink = "https://www.reddit.com" + permalink
	}

	return model.Post{
		RedditID:    d.ID,
		Subreddit:   d.Subreddit,
		Title:       d.Title,
		Selftext:    d.Selftext,
		Author:      author,
		Score:       d.Score,
		NumComments: d.NumComments,
		URL:         d.URL,
		Permalink:   permalink,
		CreatedUTC:  time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Over18:      d.Over18,
		IsSelf:      d.IsSelf,
	}, nil
}

// ParseComment converts a t1 Thing into a model.Comment. It returns
// (zero, false, nil) when the comment body is a deletion marker, matching
// the original pipeline's drop-at-parse-time behavior.
func ParseComment(t Thing) (model.Comment, bool, error) {
	var d commentData
	if err := json.Unmarshal(t.Data, &d); err != nil {
		return model.Comment{}, false, apierr.New(apierr.ParseInvalidShape, 502, "invalid comment data").WithCause(err)
	}

	if d.Body == "[deleted]" || d.Body == "[removed]" {
		return model.Comment{}, false, nil
	}

	author := "[deleted]"
	if d.Author != nil && *d.Author != "" {
		author = *d.Author
	}

	postID := strings.TrimPrefix(d.LinkID, "t3_")

	return model.Comment{
		RedditID:   d.ID,
		PostID:     postID,
		ParentID:   d.ParentID,
		Subreddit:  d.Subreddit,
		Body:       d.Body,
		Author:     author,
		Score:      d.Score,
		CreatedUTC: time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}, true, nil
}

// ParseSubreddit converts a t5 Thing (or bare about-response object) into
// a model.Subreddit.
func ParseSubreddit(raw []byte) (model.Subreddit, error) {
	var t Thing
	if err := json.Unmarshal(raw, &t); err == nil && t.Kind == KindSubreddit {
		return parseSubredditData(t.Data)
	}
	// Bare object (no kind wrapper), or already unwrapped about response.
	return parseSubredditData(raw)
}

func parseSubredditData(raw []byte) (model.Subreddit, error) {
	var d subredditData
	if err := json.Unmarshal(raw, &d); err != nil {
		return model.Subreddit{}, apierr.New(apierr.ParseInvalidShape, 502, "invalid subreddit data").WithCause(err)
	}
	return model.Subreddit{
		RedditID:          d.ID,
		DisplayName:       d.DisplayName,
		Title:             d.Title,
		PublicDescription: d.PublicDescription,
		Subscribers:       d.Subscribers,
		Over18:            d.Over18,
		CreatedUTC:        time.Unix(int64(d.CreatedUTC), 0).UTC(),
	}, nil
}

// ExtractPostsFromResponse parses a subreddit listing response's Things
// into Posts, skipping any non-t3 children (e.g. stickied announcements
// of other kinds, which do not occur in practice but are tolerated).
func ExtractPostsFromResponse(raw []byte) ([]model.Post, string, error) {
	listing, err := ParseListing(raw)
	if err != nil {
		return nil, "", err
	}
	posts := make([]model.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != KindPost {
			continue
		}
		p, err := ParsePost(child)
		if err != nil {
			return nil, "", err
		}
		posts = append(posts, p)
	}
	return posts, GetAfterToken(listing), nil
}

// ExtractCommentsFromResponse parses Reddit's two-element comments-page
// response `[post_listing, comments_listing]` into a flat, depth-first
// ordered comment slice.
func ExtractCommentsFromResponse(raw []byte) ([]model.Comment, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
		return nil, apierr.New(apierr.ParseInvalidShape, 502, "expected [post_listing, comments_listing] response shape")
	}

	commentsListing, err := ParseListing(pair[1])
	if err != nil {
		return nil, err
	}

	return flattenCommentTree(commentsListing.Data.Children), nil
}

// flattenCommentTree walks a comment forest depth-first, dropping "more"
// continuation markers and deleted bodies, and recursing into replies.
func flattenCommentTree(things []Thing) []model.Comment {
	var out []model.Comment

	for _, t := range things {
		if t.Kind == KindMore {
			continue
		}
		if t.Kind != KindComment {
			continue
		}

		comment, ok, err := ParseComment(t)
		if err != nil || !ok {
			continue
		}
		out = append(out, comment)

		var d commentData
		if err := json.Unmarshal(t.Data, &d); err != nil || len(d.Replies) == 0 {
			continue
		}

		var repliesListing Listing
		if err := json.Unmarshal(d.Replies, &repliesListing); err != nil {
			continue // "" (empty string) or malformed replies field: no children
		}
		if repliesListing.Kind != KindListing {
			continue
		}
		out = append(out, flattenCommentTree(repliesListing.Data.Children)...)
	}

	return out
}
