package client

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"heimdahl/internal/filter"
)

type pageFetcher func(ctx context.Context, page PageRequest) ([]json.RawMessage, error)

// SearchSwapsByTokenPair pages through swaps matching f until limit items are
// collected or the server runs out. A limit of 0 means DefaultLimit.
func (c *Client) SearchSwapsByTokenPair(ctx context.Context, f filter.Swap, limit int) ([]json.RawMessage, error) {
	return c.collect(ctx, "swaps", limit, func(ctx context.Context, page PageRequest) ([]json.RawMessage, error) {
		return c.GetSwaps(ctx, f, page)
	})
}

// GetTokenTransfers pages through transfers matching f until limit items are
// collected or the server runs out. A limit of 0 means DefaultLimit.
func (c *Client) GetTokenTransfers(ctx context.Context, f filter.Transfer, limit int) ([]json.RawMessage, error) {
	return c.collect(ctx, "transfers", limit, func(ctx context.Context, page PageRequest) ([]json.RawMessage, error) {
		return c.GetTransfers(ctx, f, page)
	})
}

// collect fetches pages 0, 1, 2, ... one at a time. It stops on an empty or
// short page or once limit items are held, and returns nothing on error.
func (c *Client) collect(ctx context.Context, kind string, limit int, fetch pageFetcher) ([]json.RawMessage, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	pageSize := min(MaxPageSize, limit)

	var results []json.RawMessage
	for page := 0; len(results) < limit; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch, err := fetch(ctx, PageRequest{Page: page, PageSize: pageSize})
		if err != nil {
			c.logger.Warn("page fetch failed", zap.String("kind", kind), zap.Int("page", page), zap.Error(err))
			return nil, fmt.Errorf("fetch %s page %d: %w", kind, page, err)
		}

		results = append(results, batch...)
		c.logger.Debug("page fetched",
			zap.String("kind", kind),
			zap.Int("page", page),
			zap.Int("batch", len(batch)),
			zap.Int("total", len(results)),
		)
		if c.cfg.OnPage != nil {
			c.cfg.OnPage(page, len(batch), len(results))
		}

		if len(batch) < pageSize {
			break
		}
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
