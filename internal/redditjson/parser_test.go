package redditjson

import "testing"

const postListingFixture = `{
  "kind": "Listing",
  "data": {
    "after": "t3_abc2",
    "before": null,
    "children": [
      {
        "kind": "t3",
        "data": {
          "id": "abc1",
          "title": "Hello world",
          "selftext": "",
          "author": "alice",
          "subreddit": "golang",
          "score": 42,
          "num_comments": 3,
          "url": "https://example.com/abc1",
          "permalink": "/r/golang/comments/abc1/hello_world/",
          "created_utc": 1700000000,
          "over_18": false,
          "is_self": false
        }
      },
      {
        "kind": "t3",
        "data": {
          "id": "abc2",
          "title": "Deleted author post",
          "selftext": "",
          "author": null,
          "subreddit": "golang",
          "score": 1,
          "num_comments": 0,
          "url": "",
          "permalink": "/r/golang/comments/abc2/",
          "created_utc": 1700000100,
          "over_18": false,
          "is_self": true
        }
      }
    ]
  }
}`

func TestExtractPostsFromResponse(t *testing.T) {
	posts, after, err := ExtractPostsFromResponse([]byte(postListingFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after != "t3_abc2" {
		t.Errorf("expected after cursor t3_abc2, got %q", after)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Author != "alice" {
		t.Errorf("expected author alice, got %q", posts[0].Author)
	}
	if posts[1].Author != "[deleted]" {
		t.Errorf("expected deleted author placeholder, got %q", posts[1].Author)
	}
	if posts[0].Permalink != "https://www.reddit.com/r/golang/comments/abc1/hello_world/" {
		t.Errorf("expected absolutized permalink, got %q", posts[0].Permalink)
	}
}

func TestExtractPostsFromResponseInvalidKind(t *testing.T) {
	_, _, err := ExtractPostsFromResponse([]byte(`{"kind":"t3","data":{}}`))
	if err == nil {
		t.Fatal("expected an error for a non-Listing root")
	}
}

const commentsResponseFixture = `[
  {"kind":"Listing","data":{"after":null,"before":null,"children":[]}},
  {
    "kind": "Listing",
    "data": {
      "after": null,
      "before": null,
      "children": [
        {
          "kind": "t1",
          "data": {
            "id": "c1",
            "body": "top level comment",
            "author": "bob",
            "link_id": "t3_abc1",
            "parent_id": "t3_abc1",
            "subreddit": "golang",
            "score": 5,
            "created_utc": 1700000200,
            "replies": {
              "kind": "Listing",
              "data": {
                "after": null,
                "before": null,
                "children": [
                  {
                    "kind": "t1",
                    "data": {
                      "id": "c2",
                      "body": "a reply",
                      "author": "carol",
                      "link_id": "t3_abc1",
                      "parent_id": "t1_c1",
                      "subreddit": "golang",
                      "score": 2,
                      "created_utc": 1700000300,
                      "replies": ""
                    }
                  }
                ]
              }
            }
          }
        },
        {
          "kind": "t1",
          "data": {
            "id": "c3",
            "body": "[deleted]",
            "author": "dave",
            "link_id": "t3_abc1",
            "parent_id": "t3_abc1",
            "subreddit": "golang",
            "score": 0,
            "created_utc": 1700000400,
            "replies": ""
          }
        },
        {
          "kind": "more",
          "data": {"children": ["c4", "c5"]}
        }
      ]
    }
  }
]`

func TestExtractCommentsFromResponseFlattensDepthFirst(t *testing.T) {
	comments, err := ExtractCommentsFromResponse([]byte(commentsResponseFixture))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments (deleted body and 'more' marker dropped), got %d: %+v", len(comments), comments)
	}
	if comments[0].RedditID != "c1" {
		t.Errorf("expected depth-first order to put c1 first, got %q", comments[0].RedditID)
	}
	if comments[1].RedditID != "c2" {
		t.Errorf("expected reply c2 to follow its parent c1, got %q", comments[1].RedditID)
	}
	if comments[1].PostID != "abc1" {
		t.Errorf("expected link_id t3_ prefix stripped, got %q", comments[1].PostID)
	}
}

func TestExtractCommentsFromResponseRejectsWrongShape(t *testing.T) {
	_, err := ExtractCommentsFromResponse([]byte(`{"kind":"Listing"}`))
	if err == nil {
		t.Fatal("expected an error for a non-array response")
	}
}

func TestParseSubreddit(t *testing.T) {
	raw := []byte(`{
		"kind": "t5",
		"data": {
			"id": "2qh16",
			"display_name": "golang",
			"title": "The Go Programming Language",
			"public_description": "Ask questions about Go",
			"subscribers": 300000,
			"over18": false,
			"created_utc": 1270000000
		}
	}`)
	sub, err := ParseSubreddit(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.DisplayName != "golang" {
		t.Errorf("expected display_name golang, got %q", sub.DisplayName)
	}
	if sub.Subscribers != 300000 {
		t.Errorf("expected 300000 subscribers, got %d", sub.Subscribers)
	}
}
