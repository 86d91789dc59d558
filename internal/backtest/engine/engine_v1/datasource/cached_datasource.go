package datasource

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// CachedDataSource wraps a DataSource and caches bar reads, so repeated runs
// over the same instruments hit the underlying source only once.
type CachedDataSource struct {
	underlying  DataSource
	barsCache   map[string][]types.Bar
	errCache    map[string]error
	instruments []string
	mu          sync.RWMutex
}

// NewCachedDataSource creates a new CachedDataSource wrapping the given DataSource.
func NewCachedDataSource(underlying DataSource) *CachedDataSource {
	return &CachedDataSource{
		underlying:  underlying,
		barsCache:   make(map[string][]types.Bar),
		errCache:    make(map[string]error),
		instruments: nil,
		mu:          sync.RWMutex{},
	}
}

// ClearCache drops every cached result.
func (c *CachedDataSource) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.barsCache = make(map[string][]types.Bar)
	c.errCache = make(map[string]error)
	c.instruments = nil
}

// Initialize implements DataSource. Loading a new file clears the cache.
func (c *CachedDataSource) Initialize(path string) error {
	c.ClearCache()

	return c.underlying.Initialize(path)
}

// Instruments implements DataSource.
func (c *CachedDataSource) Instruments() ([]string, error) {
	c.mu.RLock()
	if c.instruments != nil {
		defer c.mu.RUnlock()

		return slices.Clone(c.instruments), nil
	}
	c.mu.RUnlock()

	instruments, err := c.underlying.Instruments()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.instruments = slices.Clone(instruments)
	c.mu.Unlock()

	return instruments, nil
}

// ReadBars implements DataSource. Errors are cached too.
func (c *CachedDataSource) ReadBars(instrumentID string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	key := cacheKey(instrumentID, start, end)

	c.mu.RLock()
	if err, ok := c.errCache[key]; ok {
		c.mu.RUnlock()

		return nil, err
	}

	if bars, ok := c.barsCache[key]; ok {
		c.mu.RUnlock()

		return slices.Clone(bars), nil
	}
	c.mu.RUnlock()

	bars, err := c.underlying.ReadBars(instrumentID, start, end)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.errCache[key] = err

		return nil, err
	}

	c.barsCache[key] = slices.Clone(bars)

	return bars, nil
}

// Count implements DataSource. Counts are not cached.
func (c *CachedDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return c.underlying.Count(start, end)
}

// Close implements DataSource.
func (c *CachedDataSource) Close() error {
	c.ClearCache()

	return c.underlying.Close()
}

func cacheKey(instrumentID string, start optional.Option[time.Time], end optional.Option[time.Time]) string {
	return fmt.Sprintf("%s|%s|%s", instrumentID, boundKey(start), boundKey(end))
}

func boundKey(bound optional.Option[time.Time]) string {
	if bound.IsNone() {
		return "-"
	}

	return bound.Unwrap().UTC().Format(time.RFC3339Nano)
}
