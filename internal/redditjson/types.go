// Package redditjson parses the Reddit "Listing" JSON envelope shared by
// both the authenticated API and the old-Reddit scraping endpoints.
package redditjson

import "encoding/json"

const (
	KindPost      = "t3"
	KindComment   = "t1"
	KindSubreddit = "t5"
	KindMore      = "more"
	KindListing   = "Listing"
)

// Thing is the generic {kind, data} envelope Reddit wraps every object in.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Listing is the paginated container Reddit returns for listing endpoints.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Before   string  `json:"before"`
		Children []Thing `json:"children"`
	} `json:"data"`
}

// postData mirrors the fields of a t3 (post) object that this system uses.
type postData struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      *string `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Over18      bool    `json:"over_18"`
	IsSelf      bool    `json:"is_self"`
}

// commentData mirrors the fields of a t1 (comment) object this system uses.
type commentData struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Body       string          `json:"body"`
	Author     *string         `json:"author"`
	LinkID     string          `json:"link_id"`
	ParentID   string          `json:"parent_id"`
	Subreddit  string          `json:"subreddit"`
	Score      int             `json:"score"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"`
}

// subredditData mirrors the fields of a t5 (subreddit) object this system uses.
type subredditData struct {
	ID                string  `json:"id"`
	DisplayName       string  `json:"display_name"`
	Title             string  `json:"title"`
	PublicDescription string  `json:"public_description"`
	Subscribers       int     `json:"subscribers"`
	Over18            bool    `json:"over18"`
	CreatedUTC        float64 `json:"created_utc"`
}
