// Package evalcache memoizes evaluation lookups per query identifier.
package evalcache

import (
	"context"
	"log/slog"
	"sync"

	"HRCareChat/internal/api"
)

// Fetcher performs one evaluation fetch against the remote service
type Fetcher func(ctx context.Context, queryID string) (*api.EvaluationResponse, error)

type call struct {
	done   chan struct{}
	result *api.EvaluationResponse
	err    error
}

// Cache deduplicates in-flight lookups per query id and caches successful
// results for the life of the process. A failed lookup is not cached, so a
// later request for the same id fetches again.
type Cache struct {
	fetch  Fetcher
	logger *slog.Logger

	mu       sync.Mutex
	results  map[string]*api.EvaluationResponse
	inflight map[string]*call
}

// New creates an empty cache over fetch
func New(fetch Fetcher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		fetch:    fetch,
		logger:   logger,
		results:  make(map[string]*api.EvaluationResponse),
		inflight: make(map[string]*call),
	}
}

// Lookup returns the evaluation for queryID, fetching it at most once while
// any number of callers wait on the same identifier. Lookups for different
// identifiers proceed independently.
func (c *Cache) Lookup(ctx context.Context, queryID string) (*api.EvaluationResponse, error) {
	c.mu.Lock()
	if result, ok := c.results[queryID]; ok {
		c.mu.Unlock()
		return result, nil
	}
	if pending, ok := c.inflight[queryID]; ok {
		c.mu.Unlock()
		select {
		case <-pending.done:
			return pending.result, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	pending := &call{done: make(chan struct{})}
	c.inflight[queryID] = pending
	c.mu.Unlock()

	result, err := c.fetch(ctx, queryID)

	c.mu.Lock()
	if err == nil {
		c.results[queryID] = result
	} else {
		c.logger.Warn("evaluation lookup failed", "query_id", queryID, "error", err)
	}
	delete(c.inflight, queryID)
	c.mu.Unlock()

	pending.result = result
	pending.err = err
	close(pending.done)

	return result, err
}

// Cached returns the memoized evaluation for queryID without fetching
func (c *Cache) Cached(queryID string) (*api.EvaluationResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.results[queryID]
	return result, ok
}
