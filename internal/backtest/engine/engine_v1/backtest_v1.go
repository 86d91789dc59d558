package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-contraction/internal/backtest/engine"
	"github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-contraction/internal/journal"
	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BacktestEngineV1 runs every registered strategy over every instrument of a data source.
type BacktestEngineV1 struct {
	config        BacktestEngineV1Config
	registry      strategy.StrategyRegistry
	resultsFolder string
	log           *logger.Logger
	metrics       *Metrics
	datasource    *datasource.CachedDataSource
	ownsSource    bool
	journal       journal.Journal
	ownsJournal   bool
	events        []types.SignalEvent
	lastRunID     string
	mu            sync.Mutex
}

// NewBacktestEngineV1 creates an engine with unregistered metrics.
func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithRegisterer(nil)
}

// NewBacktestEngineV1WithRegisterer creates an engine whose metrics are registered on reg.
func NewBacktestEngineV1WithRegisterer(reg prometheus.Registerer) *BacktestEngineV1 {
	return &BacktestEngineV1{
		config:        EmptyConfig(),
		registry:      strategy.NewStrategyRegistry(),
		resultsFolder: "",
		log:           nil,
		metrics:       NewMetrics(reg),
		datasource:    nil,
		ownsSource:    false,
		journal:       nil,
		ownsJournal:   false,
		events:        nil,
		lastRunID:     "",
		mu:            sync.Mutex{},
	}
}

// SetLogger replaces the production logger created by Initialize.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) {
	b.log = log
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	b.config = parsed

	if b.log == nil {
		b.log, err = logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}
	}

	b.log.Debug("Backtest engine initialized",
		zap.Int("workers", b.config.WorkerCount()),
		zap.Int("strategies", len(b.config.Strategies)),
	)

	if b.config.ResultsFolder != "" {
		b.resultsFolder = b.config.ResultsFolder
	}

	for _, entry := range b.config.Strategies {
		content, err := entry.ConfigBytes()
		if err != nil {
			return errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to encode config of strategy %s", entry.Name)
		}

		s, err := strategy.NewStrategyFromConfig(entry.Name, content)
		if err != nil {
			return err
		}

		if err := b.LoadStrategy(s); err != nil {
			return err
		}
	}

	return nil
}

// LoadStrategy implements engine.Engine.
func (b *BacktestEngineV1) LoadStrategy(s strategy.Strategy) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "strategy is nil")
	}

	if err := b.registry.RegisterStrategy(s); err != nil {
		return err
	}

	b.logger().Debug("Strategy loaded",
		zap.String("strategy", s.Name()),
		zap.Int("total_strategies", len(b.registry.ListStrategies())),
	)

	return nil
}

// SetDataSource implements engine.Engine. Reads are cached for the lifetime of the engine.
func (b *BacktestEngineV1) SetDataSource(source datasource.DataSource) error {
	if source == nil {
		return errors.New(errors.ErrCodeBacktestNoDatasource, "datasource is nil")
	}

	b.datasource = datasource.NewCachedDataSource(source)
	b.ownsSource = false

	return nil
}

// SetResultsFolder implements engine.Engine.
func (b *BacktestEngineV1) SetResultsFolder(folder string) error {
	b.resultsFolder = folder
	b.logger().Debug("Results folder set",
		zap.String("folder", folder),
	)

	return nil
}

// SetWorkers overrides the configured worker count. Values ≤ 0 fall back to
// one worker per CPU.
func (b *BacktestEngineV1) SetWorkers(workers int) {
	b.config.Workers = workers
}

// SetDataPath overrides the configured data path. It only takes effect when no
// data source was set explicitly.
func (b *BacktestEngineV1) SetDataPath(path string) {
	b.config.DataPath = path
}

// SetJournal implements engine.Engine.
func (b *BacktestEngineV1) SetJournal(j journal.Journal) error {
	if j == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "journal is nil")
	}

	b.journal = j
	b.ownsJournal = false

	return nil
}

// Events implements engine.Engine.
func (b *BacktestEngineV1) Events() []types.SignalEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	events := make([]types.SignalEvent, len(b.events))
	for i, event := range b.events {
		events[i] = event.Clone()
	}

	return events
}

// LastRunID returns the run id of the last Run call.
func (b *BacktestEngineV1) LastRunID() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.lastRunID
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, callbacks engine.LifecycleCallbacks) (err error) {
	defer func() {
		if callbacks.OnBacktestEnd != nil {
			(*callbacks.OnBacktestEnd)(err)
		}
	}()

	if err := b.preRunCheck(); err != nil {
		return err
	}

	strategies, err := b.activeStrategies()
	if err != nil {
		return err
	}

	runID := b.config.RunID
	if runID == "" {
		runID = uuid.New().String()
	}

	log := b.logger().With(zap.String("run_id", runID))

	instruments, err := b.datasource.Instruments()
	if err != nil {
		return err
	}

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(runID, len(strategies), len(instruments)); err != nil {
			return err
		}
	}

	if b.ownsJournal {
		if err := b.journal.Cleanup(); err != nil {
			return err
		}
	}

	log.Info("Backtest started",
		zap.Int("instruments", len(instruments)),
		zap.Int("strategies", len(strategies)),
		zap.Int("workers", b.config.WorkerCount()),
	)

	results := make([]InstrumentResult, len(instruments))
	runner := InstrumentRunner{
		RunID:      runID,
		Strategies: strategies,
		Metrics:    b.metrics,
		Logger:     b.logger(),
		OnSignal: func(event types.SignalEvent) error {
			if err := b.journal.Record(event); err != nil {
				return err
			}

			if callbacks.OnSignal != nil {
				return (*callbacks.OnSignal)(event)
			}

			return nil
		},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.config.WorkerCount())

	for index, instrumentID := range instruments {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			result, err := b.runInstrument(groupCtx, runner, callbacks, index, instrumentID)
			results[index] = result

			return err
		})
	}

	if err := group.Wait(); err != nil {
		log.Error("Backtest aborted", zap.Error(err))

		return err
	}

	if err := ctx.Err(); err != nil {
		log.Error("Backtest cancelled", zap.Error(err))

		return err
	}

	events := make([]types.SignalEvent, 0)
	for _, result := range results {
		events = append(events, result.Events...)
	}

	b.mu.Lock()
	b.events = events
	b.lastRunID = runID
	b.mu.Unlock()

	if b.resultsFolder != "" {
		if err := b.journal.WriteRun(filepath.Join(b.resultsFolder, runID), runID); err != nil {
			return err
		}
	}

	log.Info("Backtest finished",
		zap.Int("signals", len(events)),
	)

	return nil
}

func (b *BacktestEngineV1) runInstrument(
	ctx context.Context,
	runner InstrumentRunner,
	callbacks engine.LifecycleCallbacks,
	index int,
	instrumentID string,
) (InstrumentResult, error) {
	empty := InstrumentResult{InstrumentID: instrumentID, Bars: 0, Events: nil, States: nil}

	bars, err := b.datasource.ReadBars(instrumentID, b.config.StartTime, b.config.EndTime)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeDataNotFound) {
			b.logger().Warn("No bars in range, skipping instrument",
				zap.String("run_id", runner.RunID),
				zap.String("instrument", instrumentID),
			)

			return empty, nil
		}

		return empty, err
	}

	if callbacks.OnInstrumentStart != nil {
		if err := (*callbacks.OnInstrumentStart)(runner.RunID, index, instrumentID, len(bars)); err != nil {
			return empty, err
		}
	}

	result, err := runner.Run(ctx, instrumentID, bars)

	if callbacks.OnInstrumentEnd != nil {
		(*callbacks.OnInstrumentEnd)(index, instrumentID, len(result.Events))
	}

	if err != nil {
		return result, fmt.Errorf("instrument %s: %w", instrumentID, err)
	}

	return result, nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.config

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}

	return schema, nil
}

// Close releases the journal and data source the engine created itself.
func (b *BacktestEngineV1) Close() error {
	var closeErr error

	if b.ownsJournal && b.journal != nil {
		closeErr = b.journal.Close()
		b.journal = nil
		b.ownsJournal = false
	}

	if b.ownsSource && b.datasource != nil {
		if err := b.datasource.Close(); err != nil && closeErr == nil {
			closeErr = err
		}

		b.datasource = nil
		b.ownsSource = false
	}

	return closeErr
}

// activeStrategies resolves the registered strategies in registry order.
func (b *BacktestEngineV1) activeStrategies() ([]strategy.Strategy, error) {
	names := b.registry.ListStrategies()
	strategies := make([]strategy.Strategy, 0, len(names))

	for _, name := range names {
		s, err := b.registry.GetStrategy(name)
		if err != nil {
			return nil, err
		}

		strategies = append(strategies, s)
	}

	return strategies, nil
}

func (b *BacktestEngineV1) preRunCheck() error {
	log := b.logger()

	if len(b.registry.ListStrategies()) == 0 {
		log.Error("No strategies loaded")

		return errors.New(errors.ErrCodeBacktestNoStrategies, "no strategies loaded")
	}

	if b.datasource == nil && b.config.DataPath != "" {
		source, err := datasource.NewDataSource("", log)
		if err != nil {
			return err
		}

		if err := source.Initialize(b.config.DataPath); err != nil {
			_ = source.Close()

			return err
		}

		b.datasource = datasource.NewCachedDataSource(source)
		b.ownsSource = true
	}

	if b.datasource == nil {
		log.Error("No datasource set")

		return errors.New(errors.ErrCodeBacktestNoDatasource, "no datasource set")
	}

	if b.journal == nil {
		j, err := journal.NewDuckDBJournal(log)
		if err != nil {
			return err
		}

		b.journal = j
		b.ownsJournal = true
	}

	return nil
}

func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}
