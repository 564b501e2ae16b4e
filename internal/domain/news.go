package domain

import (
	"errors"
	"fmt"
	"time"
)

// Status tracks where a raw news item sits in the pipeline.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSelected  Status = "selected"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

// transitions is the forward-only state machine for RawNews. The single
// backward edge (failed -> pending) exists for manual retry.
var transitions = map[Status][]Status{
	StatusPending:  {StatusSelected},
	StatusSelected: {StatusProcessed, StatusFailed},
	StatusFailed:   {StatusPending},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// ErrNoSelection is returned when a transformation run is requested with an
// empty id set; it maps to a client error, not a processing failure.
var ErrNoSelection = errors.New("no news ids selected")

// ErrInvalidTransition wraps illegal status moves.
type ErrInvalidTransition struct {
	From, To Status
}

func (e ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// Candidate is one harvested tuple as produced by a source fetcher, before
// deduplication and persistence.
type Candidate struct {
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
	Category    string
	Country     string
}

// RawNews is a harvested, not-yet-transformed news record.
type RawNews struct {
	ID          string
	Fingerprint string
	Title       string
	Source      string
	URL         string
	PublishedAt time.Time
	Category    string
	Country     string
	Status      Status
	ArticleID   string
	CreatedAt   time.Time
	ProcessedAt time.Time
}

// ArticleStatus marks visibility of a published article.
type ArticleStatus string

const (
	ArticleDraft     ArticleStatus = "draft"
	ArticlePublished ArticleStatus = "published"
)

// Article is the rewritten output persisted for readers. Exactly one exists
// per RawNews that reached the processed status.
type Article struct {
	ID            string
	RawNewsID     string
	Title         string
	Summary       string
	Body          string
	Difficulty    int
	Category      string
	Source        string
	OriginalTitle string
	OriginalURL   string
	Country       string
	PublishedAt   time.Time
	ProcessedAt   time.Time
	Views         int64
	Status        ArticleStatus
}

// Rewrite is the payload returned by a rewriting provider.
type Rewrite struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`
	Body       string `json:"body"`
	Difficulty int    `json:"difficulty"`
}

// SourceBatch carries one source's fetch outcome; Err is set when the whole
// source was unreachable and Items is then empty.
type SourceBatch struct {
	Source string
	Items  []Candidate
	Err    error
}

// CrawlResult summarizes one ingestion run. Never persisted.
type CrawlResult struct {
	TotalFetched int
	NewNews      int
	Duplicates   int
	Errors       []string
}

// Success is true only when no source failed entirely.
func (r CrawlResult) Success() bool {
	return len(r.Errors) == 0
}

// ProcessResult summarizes one transformation run. Never persisted.
type ProcessResult struct {
	Processed int
	Failed    int
	Errors    []string
}

// Success is true when every attempted item was published.
func (r ProcessResult) Success() bool {
	return r.Failed == 0
}
