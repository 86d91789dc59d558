package types

import (
	"maps"
	"slices"
	"time"
)

// SignalType is the direction of a signal.
type SignalType string

const (
	// SignalTypeBuy opens a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell closes the open long position
	SignalTypeSell SignalType = "sell"
)

// SignalEvent is an emitted trading signal together with the numeric evidence
// that justified it. Events are immutable once appended to the output.
type SignalEvent struct {
	// Time is the timestamp of the bar that produced the signal
	Time         time.Time
	InstrumentID string
	Type         SignalType
	StrategyName string
	// Price is the close of the bar that produced the signal
	Price float64
	// IndicatorValues maps every quantity used at emission time to its value
	IndicatorValues map[string]float64
	// TriggerConditions lists the true conditions, in evaluation order
	TriggerConditions []string
	// RunID groups events of one backtest execution, stamped by the driver
	RunID string
}

// Clone returns a deep copy so callers never share the snapshot maps.
func (e SignalEvent) Clone() SignalEvent {
	clone := e
	clone.IndicatorValues = maps.Clone(e.IndicatorValues)
	clone.TriggerConditions = slices.Clone(e.TriggerConditions)

	return clone
}
