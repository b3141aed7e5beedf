// Package model defines the domain types shared across the ingestion,
// persistence, monitoring, and alerting layers.
package model

import "time"

// Subreddit is a community as tracked by the substrate.
type Subreddit struct {
	ID                string
	RedditID          string
	DisplayName       string
	Title             string
	PublicDescription string
	Subscribers       int
	Over18            bool
	CreatedUTC        time.Time
	FetchedAt         time.Time
}

// Post is a single Reddit submission.
type Post struct {
	ID          string
	RedditID    string
	Subreddit   string
	Title       string
	Selftext    string
	Author      string
	Score       int
	NumComments int
	URL         string
	Permalink   string
	CreatedUTC  time.Time
	Over18      bool
	IsSelf      bool
	FetchedAt   time.Time
}

// Comment is a single Reddit comment, flattened from its reply tree.
type Comment struct {
	ID         string
	RedditID   string
	PostID     string // parent Post.RedditID, "" if unresolved
	ParentID   string // raw fullname of immediate parent (t1_ or t3_ prefixed)
	Subreddit  string
	Body       string
	Author     string
	Score      int
	CreatedUTC time.Time
	FetchedAt  time.Time
}

// ProcessingResult accumulates outcomes from a pipeline batch. Addition is
// elementwise so partial batches can be combined across multiple fetches.
type ProcessingResult struct {
	Total      int
	New        int
	Duplicates int
	Filtered   int
	Errors     int
}

// Add returns the elementwise sum of r and other.
func (r ProcessingResult) Add(other ProcessingResult) ProcessingResult {
	return ProcessingResult{
		Total:      r.Total + other.Total,
		New:        r.New + other.New,
		Duplicates: r.Duplicates + other.Duplicates,
		Filtered:   r.Filtered + other.Filtered,
		Errors:     r.Errors + other.Errors,
	}
}

// CollectionResult is the outcome of collecting one subreddit's posts and
// their comments in a single pass.
type CollectionResult struct {
	Subreddit string
	Posts     ProcessingResult
	Comments  ProcessingResult
}

// ScheduledRun records one execution of the recurring collector job.
type ScheduledRun struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	Succeeded   bool
	Error       string
	Subreddits  []string
	TotalNew    int
	TotalErrors int
}

// SourceState is the health state of a single data source backend.
type SourceState int

const (
	SourceReady SourceState = iota
	SourceFailing
	SourceDisabled
)

func (s SourceState) String() string {
	switch s {
	case SourceReady:
		return "ready"
	case SourceFailing:
		return "failing"
	case SourceDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// SourceStatus is a point-in-time snapshot of a backend's health.
type SourceStatus struct {
	Backend            string
	State              SourceState
	ConsecutiveFailures int
	LastError          string
	LastSuccessAt       time.Time
}
