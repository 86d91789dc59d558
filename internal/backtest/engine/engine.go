package engine

import (
	"context"

	"github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-contraction/internal/journal"
	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once the run id is known and the instruments are listed.
type OnBacktestStartCallback func(runID string, totalStrategies int, totalInstruments int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnInstrumentStartCallback is called before the bars of an instrument are evaluated.
// Instruments run on a worker pool, so it may be called concurrently.
type OnInstrumentStartCallback func(runID string, instrumentIndex int, instrumentID string, totalBars int) error

// OnInstrumentEndCallback is called after an instrument finished, successfully or not.
type OnInstrumentEndCallback func(instrumentIndex int, instrumentID string, signals int)

// OnSignalCallback is called for each emitted signal, in bar order within an instrument.
type OnSignalCallback func(event types.SignalEvent) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart   *OnBacktestStartCallback
	OnBacktestEnd     *OnBacktestEndCallback
	OnInstrumentStart *OnInstrumentStartCallback
	OnInstrumentEnd   *OnInstrumentEndCallback
	OnSignal          *OnSignalCallback
}

//nolint:interfacebloat // Engine is a core interface that naturally requires multiple methods
type Engine interface {
	// Initialize the engine with the given YAML configuration. Strategies listed in the
	// configuration are built and loaded.
	Initialize(config string) error
	// LoadStrategy adds a strategy. Could be called multiple times to load multiple strategies.
	LoadStrategy(strategy strategy.Strategy) error
	// SetDataSource sets the bar source for the engine.
	SetDataSource(dataSource datasource.DataSource) error
	// SetResultsFolder sets the output directory for the journal export.
	// Results are written to <folder>/<run_id>. An empty folder disables the export.
	SetResultsFolder(folder string) error
	// SetJournal replaces the default in-memory DuckDB journal.
	SetJournal(journal journal.Journal) error
	// Run evaluates every loaded strategy over every instrument of the data source.
	// The context can be used to cancel the backtest operation.
	// Use LifecycleCallbacks to receive notifications at different phases of the backtest.
	Run(ctx context.Context, callbacks LifecycleCallbacks) error
	// Events returns the signals of the last run, merged in instrument order.
	Events() []types.SignalEvent
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
