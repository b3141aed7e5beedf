// Package redditapi implements the authenticated Reddit API backend,
// using OAuth2 client-credentials for app-only auth.
package redditapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/httpx"
	"github.com/onnwee/reddit-insight/internal/model"
	"github.com/onnwee/reddit-insight/internal/redditjson"
)

const backendName = "api"

// Client is the authenticated Reddit API backend.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *httpx.Client
	tokenSrc   oauth2.TokenSource
}

// Config configures a Client.
type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	UserAgent    string
	HTTP         httpx.Config
}

// New builds a Client. When ClientID/ClientSecret are empty, requests
// will fail with AuthMissingCredentials rather than attempting auth.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://oauth.reddit.com"
	}

	httpCfg := cfg.HTTP
	httpCfg.BackendName = backendName
	if httpCfg.UserAgent == "" {
		httpCfg.UserAgent = cfg.UserAgent
	}

	c := &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpx.New(httpCfg),
	}

	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		ccCfg := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     "https://www.reddit.com/api/v1/access_token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		c.tokenSrc = ccCfg.TokenSource(context.Background())
	}

	return c
}

func (c *Client) Name() string { return backendName }

func (c *Client) accessToken() (string, error) {
	if c.tokenSrc == nil {
		return "", apierr.New(apierr.AuthMissingCredentials, 401, "reddit API credentials not configured")
	}
	tok, err := c.tokenSrc.Token()
	if err != nil {
		return "", apierr.New(apierr.AuthTokenRequestFailed, 502, "failed to obtain access token").WithCause(err)
	}
	return tok.AccessToken, nil
}

// FetchPosts retrieves a page of posts for subreddit, sorted by sort
// ("hot", "new", "top"), up to limit (Reddit caps at 100 per page).
func (c *Client) FetchPosts(ctx context.Context, subreddit, sort string, limit int, after string) ([]model.Post, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if sort == "" {
		sort = "hot"
	}
	token, err := c.accessToken()
	if err != nil {
		return nil, "", err
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	reqURL := fmt.Sprintf("%s/r/%s/%s.json?%s", c.baseURL, subreddit, sort, q.Encode())

	body, err := c.httpClient.GetAuthorized(ctx, reqURL, token)
	if err != nil {
		return nil, "", err
	}
	return redditjson.ExtractPostsFromResponse(body)
}

// FetchComments retrieves the full comment tree for a post, flattened.
func (c *Client) FetchComments(ctx context.Context, subreddit, postRedditID string) ([]model.Comment, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}
	reqURL := fmt.Sprintf("%s/r/%s/comments/%s.json", c.baseURL, subreddit, postRedditID)
	body, err := c.httpClient.GetAuthorized(ctx, reqURL, token)
	if err != nil {
		return nil, err
	}
	return redditjson.ExtractCommentsFromResponse(body)
}

// FetchSubredditInfo retrieves subreddit metadata via the /about endpoint.
func (c *Client) FetchSubredditInfo(ctx context.Context, subreddit string) (model.Subreddit, error) {
	token, err := c.accessToken()
	if err != nil {
		return model.Subreddit{}, err
	}
	reqURL := fmt.Sprintf("%s/r/%s/about.json", c.baseURL, subreddit)
	body, err := c.httpClient.GetAuthorized(ctx, reqURL, token)
	if err != nil {
		return model.Subreddit{}, err
	}
	return redditjson.ParseSubreddit(body)
}
