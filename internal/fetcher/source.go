package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"NewsRefinery/internal/config"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// MultiSource implements ports.NewsSource over config-defined sources and
// registered fetcher strategies. Each source fails independently: its error
// lands in the corresponding batch and the remaining sources still run.
type MultiSource struct {
	registry *Registry
	sources  []config.SourceConfig
	logger   *slog.Logger
}

var _ ports.NewsSource = (*MultiSource)(nil)

// NewMultiSource wires the fetcher registry with config-defined sources.
func NewMultiSource(reg *Registry, sources []config.SourceConfig, log *slog.Logger) *MultiSource {
	return &MultiSource{
		registry: reg,
		sources:  sources,
		logger:   log,
	}
}

// FetchAll runs every configured source and returns one batch per source.
func (s *MultiSource) FetchAll(ctx context.Context) []domain.SourceBatch {
	s.debug("fetch all", "sources", len(s.sources))

	batches := make([]domain.SourceBatch, 0, len(s.sources))
	for _, src := range s.sources {
		batch := domain.SourceBatch{Source: src.Name}

		strategy, err := s.registry.Resolve(src.Fetcher)
		if err != nil {
			batch.Err = fmt.Errorf("source %s: %w", src.Name, err)
			batches = append(batches, batch)
			continue
		}

		req := Request{
			SourceName: src.Name,
			URL:        src.URL,
			Category:   src.Category,
			Country:    src.Country,
			MaxItems:   src.MaxItems,
			Options:    src.Options,
		}

		items, err := strategy.Fetch(ctx, req)
		if err != nil {
			batch.Err = fmt.Errorf("source %s: %w", src.Name, err)
			batches = append(batches, batch)
			continue
		}

		for i := range items {
			if items[i].Source == "" {
				items[i].Source = src.Name
			}
		}

		s.debug("source produced items", "source", src.Name, "count", len(items))
		batch.Items = items
		batches = append(batches, batch)
	}

	return batches
}

func (s *MultiSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
