package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// IngestorDeps wires the driven adapters into the ingestion engine.
type IngestorDeps struct {
	Source     ports.NewsSource
	Repository ports.RawNewsRepository
	Logger     *slog.Logger
}

// Ingestor pulls candidates from all configured sources, drops duplicates
// via the fingerprint store and persists the remainder as pending items.
type Ingestor struct {
	source     ports.NewsSource
	repository ports.RawNewsRepository
	logger     *slog.Logger
}

// NewIngestor constructs the ingestion engine.
func NewIngestor(deps IngestorDeps) *Ingestor {
	return &Ingestor{
		source:     deps.Source,
		repository: deps.Repository,
		logger:     deps.Logger,
	}
}

// Run executes one ingestion pass. It is idempotent per fingerprint: running
// it twice against unchanged sources inserts nothing on the second pass.
// Per-source and per-item failures are collected, never fatal; only missing
// wiring aborts the run.
func (i *Ingestor) Run(ctx context.Context) (domain.CrawlResult, error) {
	var result domain.CrawlResult

	if i.source == nil || i.repository == nil {
		return result, fmt.Errorf("ingestor is not fully wired")
	}

	for _, batch := range i.source.FetchAll(ctx) {
		if batch.Err != nil {
			result.Errors = append(result.Errors, batch.Err.Error())
			i.warn("source failed", "source", batch.Source, "error", batch.Err)
			continue
		}

		result.TotalFetched += len(batch.Items)

		for _, candidate := range batch.Items {
			item := domain.RawNews{
				Fingerprint: domain.Fingerprint(candidate.URL),
				Title:       candidate.Title,
				Source:      candidate.Source,
				URL:         candidate.URL,
				PublishedAt: candidate.PublishedAt,
				Category:    candidate.Category,
				Country:     candidate.Country,
				Status:      domain.StatusPending,
			}

			inserted, err := i.repository.Insert(ctx, item)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", candidate.Title, err))
				i.warn("insert failed", "source", batch.Source, "url", candidate.URL, "error", err)
				continue
			}

			if inserted {
				result.NewNews++
			} else {
				result.Duplicates++
			}
		}
	}

	i.info("ingestion done",
		"fetched", result.TotalFetched,
		"new", result.NewNews,
		"duplicates", result.Duplicates,
		"errors", len(result.Errors))

	return result, nil
}

func (i *Ingestor) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Ingestor) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
