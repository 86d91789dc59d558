package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// DataSource supplies already-normalized bar histories to the backtest driver.
type DataSource interface {
	// Initialize loads the bars at path. Parquet and CSV files are supported.
	// A missing required column is a fatal configuration error.
	Initialize(path string) error
	// Instruments returns every instrument id in lexical order
	Instruments() ([]string, error)
	// ReadBars returns the bars of one instrument in ascending timestamp order,
	// optionally bounded by start and end (both inclusive). No bar in range is
	// ErrCodeDataNotFound
	ReadBars(instrumentID string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars across all instruments within the bounds
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close closes the data source and releases any resources
	Close() error
}
