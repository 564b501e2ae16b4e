package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRefinery/internal/domain"
)

func seedPending(repo *memRawRepo, n int) []string {
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		item := repo.seed(domain.RawNews{
			Fingerprint: fmt.Sprintf("https://news.example.com/p-%d", i),
			Title:       fmt.Sprintf("story %d", i),
			URL:         fmt.Sprintf("https://news.example.com/p-%d", i),
			Source:      "test-source",
			Category:    "tech",
			PublishedAt: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC),
		})
		ids = append(ids, item.ID)
	}
	return ids
}

func newTestProcessor(repo *memRawRepo, articles *memArticles, rewriter *fakeRewriter, delay time.Duration) *Processor {
	return NewProcessor(ProcessorDeps{
		RawNews:  repo,
		Articles: articles,
		Rewriter: rewriter,
		Delay:    delay,
	})
}

func TestProcessorRejectsEmptySelection(t *testing.T) {
	repo := newMemRawRepo()
	processor := newTestProcessor(repo, newMemArticles(repo), &fakeRewriter{}, 0)

	_, err := processor.Run(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrNoSelection)

	// Fails fast: no store access at all.
	assert.Equal(t, 0, repo.getCalls)
}

func TestProcessorPublishesSelection(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	rewriter := &fakeRewriter{}
	ids := seedPending(repo, 2)

	publisher := &fakePublisher{}
	processor := NewProcessor(ProcessorDeps{
		RawNews:   repo,
		Articles:  articles,
		Rewriter:  rewriter,
		Publisher: publisher,
	})

	result, err := processor.Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, result.Success())

	// Cross-references hold both ways.
	require.Len(t, articles.published, 2)
	for _, id := range ids {
		assert.Equal(t, domain.StatusProcessed, repo.status(id))
		assert.Equal(t, 1, articles.countFor(id))
		assert.NotEmpty(t, repo.articleID(id))
	}

	// Fanout saw every committed article.
	assert.Len(t, publisher.articles, 2)
}

func TestProcessorContinuesPastFailedItem(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	ids := seedPending(repo, 5)

	rewriter := &fakeRewriter{failFor: map[string]error{
		ids[2]: errors.New("provider unavailable"),
	}}
	processor := newTestProcessor(repo, articles, rewriter, 0)

	result, err := processor.Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "story 3: provider unavailable", result.Errors[0])

	// The failed item is retryable and owns no article.
	assert.Equal(t, domain.StatusFailed, repo.status(ids[2]))
	assert.Equal(t, 0, articles.countFor(ids[2]))
}

func TestProcessorSkipsUnknownAndProcessedIDs(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	ids := seedPending(repo, 1)
	done := repo.seed(domain.RawNews{
		Fingerprint: "https://news.example.com/done",
		Title:       "already done",
		Status:      domain.StatusProcessed,
		ArticleID:   "article-old",
	})

	processor := newTestProcessor(repo, articles, &fakeRewriter{}, 0)

	selection := append([]string{"missing-id", done.ID}, ids...)
	result, err := processor.Run(context.Background(), selection)
	require.NoError(t, err)

	// Neither counts as processed nor failed.
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)

	// Reprocessing never produces a second article.
	assert.Equal(t, 0, articles.countFor(done.ID))
	assert.Equal(t, "article-old", repo.articleID(done.ID))
}

func TestProcessorRetriesFailedItems(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	item := repo.seed(domain.RawNews{
		Fingerprint: "https://news.example.com/retry",
		Title:       "flaky story",
		Status:      domain.StatusFailed,
	})

	processor := newTestProcessor(repo, articles, &fakeRewriter{}, 0)

	result, err := processor.Run(context.Background(), []string{item.ID})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, domain.StatusProcessed, repo.status(item.ID))
	assert.Equal(t, 1, articles.countFor(item.ID))
}

func TestProcessorKeepsStatesConsistentOnPublishFailure(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	ids := seedPending(repo, 2)
	articles.publishErr = map[string]error{ids[0]: errors.New("disk full")}

	processor := newTestProcessor(repo, articles, &fakeRewriter{}, 0)

	result, err := processor.Run(context.Background(), ids)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)

	// The half-written item ends failed with no article, never processed.
	assert.Equal(t, domain.StatusFailed, repo.status(ids[0]))
	assert.Equal(t, 0, articles.countFor(ids[0]))
	assert.Equal(t, domain.StatusProcessed, repo.status(ids[1]))
}

func TestProcessorPacesProviderCalls(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	rewriter := &fakeRewriter{}
	ids := seedPending(repo, 2)

	const delay = 60 * time.Millisecond
	processor := newTestProcessor(repo, articles, rewriter, delay)

	start := time.Now()
	result, err := processor.Run(context.Background(), ids)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)

	require.Len(t, rewriter.calls, 2)
	gap := rewriter.calls[1].Sub(rewriter.calls[0])
	assert.GreaterOrEqual(t, gap, delay, "inter-call gap %v below configured delay", gap)

	// The first call is not delayed.
	assert.Less(t, rewriter.calls[0].Sub(start), delay)
}

func TestProcessorNormalizesPublishedAt(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	item := repo.seed(domain.RawNews{
		Fingerprint: "https://news.example.com/nodate",
		Title:       "undated story",
	})

	processor := newTestProcessor(repo, articles, &fakeRewriter{}, 0)

	_, err := processor.Run(context.Background(), []string{item.ID})
	require.NoError(t, err)

	require.Len(t, articles.published, 1)
	published := articles.published[0]
	assert.False(t, published.PublishedAt.IsZero())
	assert.Equal(t, time.UTC, published.PublishedAt.Location())
}

func TestProcessorStopsBetweenItemsOnCancel(t *testing.T) {
	repo := newMemRawRepo()
	articles := newMemArticles(repo)
	ids := seedPending(repo, 3)

	ctx, cancel := context.WithCancel(context.Background())
	rewriter := &fakeRewriter{}
	processor := newTestProcessor(repo, articles, rewriter, 0)

	cancel()
	result, err := processor.Run(ctx, ids)
	require.Error(t, err)

	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, rewriter.calls)
	for _, id := range ids {
		assert.Equal(t, domain.StatusPending, repo.status(id))
	}
}
