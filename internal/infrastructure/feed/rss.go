package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/fetcher"
)

const defaultMaxItems = 50

// RSSFetcher harvests candidates from RSS/Atom feeds.
type RSSFetcher struct {
	parser *gofeed.Parser
}

var _ fetcher.Fetcher = (*RSSFetcher)(nil)

// NewRSSFetcher wires an HTTP client into the feed parser.
func NewRSSFetcher(client *http.Client) *RSSFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}

	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "NewsRefinery/1.0"
	return &RSSFetcher{parser: parser}
}

// Name identifies the strategy inside the registry.
func (f *RSSFetcher) Name() string {
	return "rss"
}

// Fetch downloads and parses the configured feed URL.
func (f *RSSFetcher) Fetch(ctx context.Context, req fetcher.Request) ([]domain.Candidate, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("no feed url provided for source %s", req.SourceName)
	}

	parsed, err := f.parser.ParseURLWithContext(req.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	limit := req.MaxItems
	if limit <= 0 {
		limit = defaultMaxItems
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(candidates) >= limit {
			break
		}
		if item.Link == "" {
			continue
		}

		publishedAt := time.Now().UTC()
		if item.PublishedParsed != nil {
			publishedAt = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			publishedAt = item.UpdatedParsed.UTC()
		}

		candidates = append(candidates, domain.Candidate{
			Title:       strings.TrimSpace(item.Title),
			Source:      req.SourceName,
			URL:         item.Link,
			PublishedAt: publishedAt,
			Category:    req.Category,
			Country:     req.Country,
		})
	}

	return candidates, nil
}
