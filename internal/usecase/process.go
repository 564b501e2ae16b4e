package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// ProcessorDeps wires the driven adapters into the transformation pipeline.
type ProcessorDeps struct {
	RawNews  ports.RawNewsRepository
	Articles ports.ArticleRepository
	Rewriter ports.Rewriter
	// Publisher and Notifier are optional fanout targets.
	Publisher ports.Publisher
	Notifier  ports.Notifier
	// Delay is the fixed pause between consecutive rewriter calls; zero
	// disables pacing.
	Delay  time.Duration
	Logger *slog.Logger
}

// Processor turns selected raw items into published articles, one at a time.
// Sequential processing is deliberate: the rewriting providers enforce a
// rate limit, and attributing throttling errors to a single item is only
// possible when at most one call is in flight.
type Processor struct {
	rawNews   ports.RawNewsRepository
	articles  ports.ArticleRepository
	rewriter  ports.Rewriter
	publisher ports.Publisher
	notifier  ports.Notifier
	delay     time.Duration
	logger    *slog.Logger
}

// NewProcessor constructs the transformation pipeline.
func NewProcessor(deps ProcessorDeps) *Processor {
	return &Processor{
		rawNews:   deps.RawNews,
		articles:  deps.Articles,
		rewriter:  deps.Rewriter,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		delay:     deps.Delay,
		logger:    deps.Logger,
	}
}

// Run processes the given selection. An empty id set fails fast before any
// store access. Unknown ids and already-processed ids are skipped silently;
// every other failure is recorded per item and the batch continues.
func (p *Processor) Run(ctx context.Context, ids []string) (domain.ProcessResult, error) {
	var result domain.ProcessResult

	if len(ids) == 0 {
		return result, domain.ErrNoSelection
	}
	if p.rawNews == nil || p.articles == nil || p.rewriter == nil {
		return result, fmt.Errorf("processor is not fully wired")
	}

	items, err := p.rawNews.GetByIDs(ctx, ids)
	if err != nil {
		return result, fmt.Errorf("load selection: %w", err)
	}

	var published []domain.Article
	var paced bool
	for _, item := range items {
		// Cancellation is honored between items only; an in-flight item
		// always runs to completion to keep its transition atomic.
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if item.Status == domain.StatusProcessed {
			p.debug("skipping processed item", "id", item.ID)
			continue
		}

		// Fixed pause between provider calls keeps us inside the provider
		// rate limit; the first call and the tail go out unpaced.
		if paced {
			if err := p.pause(ctx); err != nil {
				return result, err
			}
		}

		article, called, err := p.processOne(ctx, item)
		paced = paced || called
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", item.Title, err))
			p.warn("item failed", "id", item.ID, "title", item.Title, "error", err)
			continue
		}

		result.Processed++
		published = append(published, article)
		p.info("item published", "id", item.ID, "article", article.ID)

		if p.publisher != nil {
			if err := p.publisher.PublishArticle(ctx, article); err != nil {
				// The article is committed; fanout retries belong downstream.
				p.warn("fanout failed", "article", article.ID, "error", err)
			}
		}
	}

	p.sendDigest(ctx, result, published)

	return result, nil
}

func (p *Processor) processOne(ctx context.Context, item domain.RawNews) (domain.Article, bool, error) {
	if err := p.markSelected(ctx, item); err != nil {
		return domain.Article{}, false, err
	}

	item.PublishedAt = normalizeTimestamp(item.PublishedAt)

	rewrite, err := p.rewriter.Rewrite(ctx, item)
	if err != nil {
		p.markFailed(ctx, item.ID)
		return domain.Article{}, true, err
	}

	article := domain.Article{
		RawNewsID:     item.ID,
		Title:         rewrite.Title,
		Summary:       rewrite.Summary,
		Body:          rewrite.Body,
		Difficulty:    rewrite.Difficulty,
		Category:      item.Category,
		Source:        item.Source,
		OriginalTitle: item.Title,
		OriginalURL:   item.URL,
		Country:       item.Country,
		PublishedAt:   item.PublishedAt,
		ProcessedAt:   time.Now().UTC(),
		Status:        domain.ArticlePublished,
	}

	articleID, err := p.articles.Publish(ctx, article)
	if err != nil {
		p.markFailed(ctx, item.ID)
		return domain.Article{}, true, err
	}
	article.ID = articleID

	return article, true, nil
}

// pause waits out the configured inter-call delay, aborting on cancellation.
func (p *Processor) pause(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// markSelected advances the item into the selected status. Items already
// selected pass through; failed items are re-queued first (the manual
// retry edge of the state machine).
func (p *Processor) markSelected(ctx context.Context, item domain.RawNews) error {
	switch item.Status {
	case domain.StatusSelected:
		return nil
	case domain.StatusFailed:
		if err := p.rawNews.UpdateStatus(ctx, item.ID, domain.StatusFailed, domain.StatusPending); err != nil {
			return err
		}
		fallthrough
	case domain.StatusPending:
		return p.rawNews.UpdateStatus(ctx, item.ID, domain.StatusPending, domain.StatusSelected)
	default:
		return domain.ErrInvalidTransition{From: item.Status, To: domain.StatusSelected}
	}
}

func (p *Processor) markFailed(ctx context.Context, id string) {
	if err := p.rawNews.UpdateStatus(ctx, id, domain.StatusSelected, domain.StatusFailed); err != nil {
		p.warn("cannot mark item failed", "id", id, "error", err)
	}
}

func (p *Processor) sendDigest(ctx context.Context, result domain.ProcessResult, published []domain.Article) {
	if p.notifier == nil || len(published) == 0 {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Published %d article(s), %d failed\n", result.Processed, result.Failed)
	for _, article := range published {
		fmt.Fprintf(&b, "- %s (%s)\n", article.Title, article.Category)
	}

	if err := p.notifier.PublishDigest(ctx, b.String()); err != nil {
		p.warn("digest failed", "error", err)
	}
}

// normalizeTimestamp pins the published time to UTC, defaulting to now when
// the source never provided one.
func normalizeTimestamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func (p *Processor) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Processor) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Processor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
