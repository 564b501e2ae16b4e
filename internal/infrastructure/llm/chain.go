package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// Chain tries each rewriter in order until one succeeds. The caller sees no
// difference between primary and fallback beyond latency.
type Chain struct {
	rewriters []ports.Rewriter
	logger    *slog.Logger
}

var _ ports.Rewriter = (*Chain)(nil)

// NewChain builds an ordered fallback chain; nil entries are skipped.
func NewChain(logger *slog.Logger, rewriters ...ports.Rewriter) *Chain {
	kept := make([]ports.Rewriter, 0, len(rewriters))
	for _, r := range rewriters {
		if r != nil {
			kept = append(kept, r)
		}
	}
	return &Chain{rewriters: kept, logger: logger}
}

// Rewrite attempts each provider in order, joining errors when all fail.
func (c *Chain) Rewrite(ctx context.Context, item domain.RawNews) (domain.Rewrite, error) {
	if len(c.rewriters) == 0 {
		return domain.Rewrite{}, fmt.Errorf("no rewriting providers configured")
	}

	var errs []error
	for i, rewriter := range c.rewriters {
		rewrite, err := rewriter.Rewrite(ctx, item)
		if err == nil {
			return rewrite, nil
		}
		errs = append(errs, err)

		if c.logger != nil && i < len(c.rewriters)-1 {
			c.logger.Warn("rewriter failed, trying fallback", "error", err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	return domain.Rewrite{}, errors.Join(errs...)
}
