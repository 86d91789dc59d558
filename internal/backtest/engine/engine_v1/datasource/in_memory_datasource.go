package datasource

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// InMemoryDataSource serves bars that are already held in memory, grouped by instrument.
// It is used for programmatic runs and tests.
type InMemoryDataSource struct {
	bars map[string][]types.Bar
	mu   sync.RWMutex
}

// NewInMemoryDataSource creates a data source over the given bars. Bars are grouped
// by their InstrumentID; order within an instrument is preserved and validated on read.
func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	grouped := make(map[string][]types.Bar)
	for _, bar := range bars {
		grouped[bar.InstrumentID] = append(grouped[bar.InstrumentID], bar)
	}

	return &InMemoryDataSource{
		bars: grouped,
		mu:   sync.RWMutex{},
	}
}

// Initialize implements DataSource. The bars are supplied at construction, so
// any path other than the empty string is rejected.
func (ds *InMemoryDataSource) Initialize(path string) error {
	if path != "" {
		return errors.Newf(errors.ErrCodeUnsupportedFormat, "in-memory data source cannot load %s", path)
	}

	return nil
}

// Instruments implements DataSource.
func (ds *InMemoryDataSource) Instruments() ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return slices.Sorted(maps.Keys(ds.bars)), nil
}

// ReadBars implements DataSource.
func (ds *InMemoryDataSource) ReadBars(instrumentID string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	all, ok := ds.bars[instrumentID]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars for instrument %s", instrumentID)
	}

	if err := ValidateBarOrder(instrumentID, all); err != nil {
		return nil, err
	}

	result := make([]types.Bar, 0, len(all))
	for _, bar := range all {
		if withinBounds(bar.Time, start, end) {
			result = append(result, bar)
		}
	}

	if len(result) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "no bars for instrument %s in range", instrumentID)
	}

	return result, nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	count := 0
	for _, bars := range ds.bars {
		for _, bar := range bars {
			if withinBounds(bar.Time, start, end) {
				count++
			}
		}
	}

	return count, nil
}

// Close implements DataSource.
func (ds *InMemoryDataSource) Close() error {
	return nil
}
