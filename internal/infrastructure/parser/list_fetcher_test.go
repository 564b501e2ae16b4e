package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NewsRefinery/internal/fetcher"
)

const listPage = `
<html><body>
  <ul class="headlines">
    <li class="item">
      <a href="/news/apples">Apples are back</a>
      <span class="when">2026-03-02</span>
    </li>
    <li class="item">
      <a href="https://other.example.org/news/pears">Pears surge</a>
      <span class="when">2026-03-01</span>
    </li>
    <li class="item">
      <span>No link here</span>
    </li>
  </ul>
</body></html>`

func newListRequest(url string) fetcher.Request {
	return fetcher.Request{
		SourceName: "fruit-news",
		URL:        url,
		Category:   "food",
		Country:    "kr",
		Options: map[string]string{
			"itemSelector": "li.item",
			"dateSelector": "span.when",
		},
	}
}

func TestListFetcherFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listPage))
	}))
	defer server.Close()

	f := NewListFetcher(server.Client())
	candidates, err := f.Fetch(context.Background(), newListRequest(server.URL+"/headlines"))
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	if candidates[0].Title != "Apples are back" {
		t.Fatalf("unexpected title: %s", candidates[0].Title)
	}
	if candidates[0].URL != server.URL+"/news/apples" {
		t.Fatalf("relative link not resolved: %s", candidates[0].URL)
	}

	wantDay := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	if !candidates[0].PublishedAt.Equal(wantDay) {
		t.Fatalf("unexpected published time: %v", candidates[0].PublishedAt)
	}

	if candidates[1].URL != "https://other.example.org/news/pears" {
		t.Fatalf("absolute link rewritten: %s", candidates[1].URL)
	}
	if candidates[1].Source != "fruit-news" {
		t.Fatalf("unexpected source: %s", candidates[1].Source)
	}
}

func TestListFetcherRequiresItemSelector(t *testing.T) {
	t.Parallel()

	f := NewListFetcher(nil)
	req := fetcher.Request{SourceName: "fruit-news", URL: "https://example.com"}

	if _, err := f.Fetch(context.Background(), req); err == nil {
		t.Fatal("expected error for missing itemSelector")
	}
}

func TestListFetcherHonorsMaxItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(listPage))
	}))
	defer server.Close()

	f := NewListFetcher(server.Client())
	req := newListRequest(server.URL)
	req.MaxItems = 1

	candidates, err := f.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
}

func TestListFetcherServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	f := NewListFetcher(server.Client())
	if _, err := f.Fetch(context.Background(), newListRequest(server.URL)); err == nil {
		t.Fatal("expected error for bad gateway")
	}
}
