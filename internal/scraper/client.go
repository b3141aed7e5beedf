// Package scraper implements the unauthenticated scraping backend,
// fetching Reddit's public .json endpoints with a rotating user agent.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/model"
	"github.com/onnwee/reddit-insight/internal/redditjson"
)

const backendName = "scraper"

// hard caps mirror what Reddit's public JSON endpoints accept.
const (
	maxPostLimit = 100
	maxCommentDepth = 500
)

// Client is the unauthenticated scraping backend.
type Client struct {
	baseURL    string
	httpClient *httpx.Client
}

// Config configures a Client.
type Config struct {
	BaseURL string
	HTTP    httpx.Config
}

// New builds a Client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://old.reddit.com"
	}
	httpCfg := cfg.HTTP
	httpCfg.BackendName = backendName

	return &Client{
		baseURL:    baseURL,
		httpClient: httpx.New(httpCfg),
	}
}

func (c *Client) Name() string { return backendName }

// FetchPosts retrieves a page of posts for subreddit via the public JSON
// listing endpoint, rotating user agents per request.
func (c *Client) FetchPosts(ctx context.Context, subreddit, sort string, limit int, after string) ([]model.Post, string, error) {
	if limit <= 0 || limit > maxPostLimit {
		limit = 25
	}
	if sort == "" {
		sort = "hot"
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	reqURL := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, subreddit, sort, q.Encode())

	body, err := c.httpClient.Get(ctx, reqURL, true)
	if err != nil {
		return nil, "", err
	}
	return redditjson.ExtractPostsFromResponse(body)
}

// FetchComments retrieves a post's comment tree, flattened depth-first.
// Reddit's scraping endpoint returns the full tree in one response; the
// whole tree is flattened and the result is truncated to the first
// maxCommentDepth (500) comments in depth-first order.
func (c *Client) FetchComments(ctx context.Context, subreddit, postRedditID string) ([]model.Comment, error) {
	reqURL := fmt.Sprintf("%s/r/%s/comments/%s.json", c.baseURL, subreddit, postRedditID)
	body, err := c.httpClient.Get(ctx, reqURL, true)
	if err != nil {
		return nil, err
	}
	comments, err := redditjson.ExtractCommentsFromResponse(body)
	if err != nil {
		return nil, err
	}
	if len(comments) > maxCommentDepth {
		comments = comments[:maxCommentDepth]
	}
	return comments, nil
}

// FetchSubredditInfo retrieves subreddit metadata via the public about endpoint.
func (c *Client) FetchSubredditInfo(ctx context.Context, subreddit string) (model.Subreddit, error) {
	reqURL := fmt.Sprintf("%s/r/%s/about.json", c.baseURL, subreddit)
	body, err := c.httpClient.Get(ctx, reqURL, true)
	if err != nil {
		return model.Subreddit{}, err
	}
	return redditjson.ParseSubreddit(body)
}
