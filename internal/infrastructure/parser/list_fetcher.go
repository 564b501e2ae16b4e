package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/fetcher"
)

// Option keys accepted by the HTML list fetcher. Selectors are standard CSS;
// dateFormat is a Go reference-time layout.
const (
	optItemSelector  = "itemSelector"
	optTitleSelector = "titleSelector"
	optLinkSelector  = "linkSelector"
	optDateSelector  = "dateSelector"
	optDateFormat    = "dateFormat"
)

const listFetcherMaxItems = 50

// ListFetcher crawls an HTML listing page and extracts article candidates
// using per-source CSS selectors from the source options.
type ListFetcher struct {
	client *http.Client
}

var _ fetcher.Fetcher = (*ListFetcher)(nil)

// NewListFetcher wires an HTTP client; a default with timeout is used when nil.
func NewListFetcher(client *http.Client) *ListFetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ListFetcher{client: client}
}

// Name identifies the strategy inside the registry.
func (f *ListFetcher) Name() string {
	return "html"
}

// Fetch downloads the listing page and extracts one candidate per matched item.
func (f *ListFetcher) Fetch(ctx context.Context, req fetcher.Request) ([]domain.Candidate, error) {
	itemSel := req.Options[optItemSelector]
	if itemSel == "" {
		return nil, fmt.Errorf("source %s: option %s is required", req.SourceName, optItemSelector)
	}

	doc, base, err := f.fetchDocument(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	limit := req.MaxItems
	if limit <= 0 {
		limit = listFetcherMaxItems
	}

	var candidates []domain.Candidate
	doc.Find(itemSel).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(candidates) >= limit {
			return false
		}

		candidate, ok := extractCandidate(sel, base, req)
		if !ok {
			return true
		}
		candidates = append(candidates, candidate)
		return true
	})

	return candidates, nil
}

func (f *ListFetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsRefinery/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, base, nil
}

func extractCandidate(sel *goquery.Selection, base *url.URL, req fetcher.Request) (domain.Candidate, bool) {
	link := sel
	if linkSel := req.Options[optLinkSelector]; linkSel != "" {
		link = sel.Find(linkSel).First()
	} else if !sel.Is("a") {
		link = sel.Find("a").First()
	}

	href, _ := link.Attr("href")
	href = strings.TrimSpace(href)
	if href == "" {
		return domain.Candidate{}, false
	}
	href = absoluteURL(base, href)

	title := strings.TrimSpace(link.Text())
	if titleSel := req.Options[optTitleSelector]; titleSel != "" {
		title = strings.TrimSpace(sel.Find(titleSel).First().Text())
	}
	if title == "" {
		return domain.Candidate{}, false
	}

	publishedAt := time.Now().UTC()
	if dateSel := req.Options[optDateSelector]; dateSel != "" {
		layout := req.Options[optDateFormat]
		if layout == "" {
			layout = "2006-01-02"
		}
		raw := strings.TrimSpace(sel.Find(dateSel).First().Text())
		if parsed, err := time.Parse(layout, raw); err == nil {
			publishedAt = parsed.UTC()
		}
	}

	return domain.Candidate{
		Title:       title,
		Source:      req.SourceName,
		URL:         href,
		PublishedAt: publishedAt,
		Category:    req.Category,
		Country:     req.Country,
	}, true
}

func absoluteURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
