package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-contraction/internal/logger"
	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"go.uber.org/zap"
)

// InstrumentResult is the outcome of evaluating every strategy over one instrument.
type InstrumentResult struct {
	InstrumentID string
	Bars         int
	Events       []types.SignalEvent
	// States holds the final state of each strategy, keyed by strategy name
	States map[string]strategy.State
}

// InstrumentRunner evaluates strategies bar by bar over the history of one instrument.
// A runner holds no per-instrument state, so one value can serve every worker.
type InstrumentRunner struct {
	RunID      string
	Strategies []strategy.Strategy
	Metrics    *Metrics
	Logger     *logger.Logger
	// OnSignal, when set, is called for each event in bar order. Returning an error aborts the instrument.
	OnSignal func(event types.SignalEvent) error
}

// RunInstrument evaluates the strategies over bars of a single instrument and
// returns the emitted events stamped with runID.
func RunInstrument(runID string, bars []types.Bar, strategies ...strategy.Strategy) ([]types.SignalEvent, error) {
	runner := InstrumentRunner{
		RunID:      runID,
		Strategies: strategies,
		Metrics:    nil,
		Logger:     nil,
		OnSignal:   nil,
	}

	instrumentID := ""
	if len(bars) > 0 {
		instrumentID = bars[0].InstrumentID
	}

	result, err := runner.Run(context.Background(), instrumentID, bars)
	if err != nil {
		return nil, err
	}

	return result.Events, nil
}

// Run feeds the causal prefix ending at each bar to every strategy, once per bar.
// The context is checked between bars.
func (r InstrumentRunner) Run(ctx context.Context, instrumentID string, bars []types.Bar) (result InstrumentResult, err error) {
	log := r.Logger.ForInstrument(r.RunID, instrumentID)
	started := time.Now()

	defer func() {
		r.Metrics.observeInstrument(started, err)
	}()

	result = InstrumentResult{
		InstrumentID: instrumentID,
		Bars:         len(bars),
		Events:       make([]types.SignalEvent, 0),
		States:       make(map[string]strategy.State, len(r.Strategies)),
	}

	if err := validateInstrumentBars(instrumentID, bars); err != nil {
		return result, err
	}

	states := make([]strategy.State, len(r.Strategies))
	last := make([]types.SignalType, len(r.Strategies))

	for i := range r.Strategies {
		states[i] = strategy.NewState(instrumentID)
	}

	history := types.NewBarWindow(bars)

	for index := range bars {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		window := history.Prefix(index + 1)

		for i, s := range r.Strategies {
			signal, next, err := s.Evaluate(window, states[i])
			if err != nil {
				log.Error("Strategy evaluation failed",
					zap.String("strategy", s.Name()),
					zap.Int("bar_index", index),
					zap.Error(err),
				)

				return result, err
			}

			r.Metrics.observeBar(s.Name())

			if next.BarIndex != index {
				return result, errors.NewInvariantViolationError(instrumentID, index, "strategy "+s.Name()+" did not advance the bar index")
			}

			states[i] = next

			if signal.IsNone() {
				continue
			}

			event := signal.Unwrap()
			if err := checkAlternation(instrumentID, index, last[i], event.Type); err != nil {
				return result, err
			}

			last[i] = event.Type
			event.RunID = r.RunID

			r.Metrics.observeSignal(event)
			log.Debug("Signal emitted",
				zap.String("strategy", event.StrategyName),
				zap.String("signal_type", string(event.Type)),
				zap.Int("bar_index", index),
				zap.Float64("price", event.Price),
				zap.Strings("conditions", event.TriggerConditions),
			)

			if r.OnSignal != nil {
				if err := r.OnSignal(event); err != nil {
					return result, err
				}
			}

			result.Events = append(result.Events, event)
		}
	}

	for i, s := range r.Strategies {
		result.States[s.Name()] = states[i]
	}

	return result, nil
}

func validateInstrumentBars(instrumentID string, bars []types.Bar) error {
	for i, bar := range bars {
		if bar.InstrumentID != instrumentID {
			return errors.Newf(errors.ErrCodeInvalidParameter,
				"bar %d belongs to instrument %s, expected %s", i, bar.InstrumentID, instrumentID)
		}
	}

	return datasource.ValidateBarOrder(instrumentID, bars)
}

// checkAlternation enforces buy, sell, buy, ... per strategy and instrument.
func checkAlternation(instrumentID string, index int, previous types.SignalType, current types.SignalType) error {
	switch current {
	case types.SignalTypeBuy:
		if previous == types.SignalTypeBuy {
			return errors.NewInvariantViolationError(instrumentID, index, "buy emitted while a position is open")
		}
	case types.SignalTypeSell:
		if previous != types.SignalTypeBuy {
			return errors.NewInvariantViolationError(instrumentID, index, "sell emitted without an open position")
		}
	default:
		return errors.NewInvariantViolationError(instrumentID, index, "unknown signal type "+string(current))
	}

	return nil
}
