// Package strategy holds the pluggable per-bar evaluation contract shared by
// every pattern strategy, the position state machine, and the builtin strategies.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// Strategy evaluates one bar at a time. Implementations must be pure: everything
// carried between bars lives in State, which the driver owns and threads through.
type Strategy interface {
	// Name returns the name the strategy is registered under and stamps on its events.
	Name() string
	// Evaluate is called once per bar with the causal window ending at the current bar.
	// It returns at most one signal and the state to pass to the next call.
	Evaluate(window types.BarWindow, state State) (optional.Option[types.SignalEvent], State, error)
}

// State is the persistent per-instrument, per-strategy state.
type State struct {
	InstrumentID string
	// BarIndex is the absolute index of the last evaluated bar, -1 before the first bar
	BarIndex int
	Pattern  types.PatternState
	Position types.Position
	// BarsHeld counts the bars evaluated since the open position was entered
	BarsHeld int
}

// NewState returns the initial FLAT state for an instrument.
func NewState(instrumentID string) State {
	return State{
		InstrumentID: instrumentID,
		BarIndex:     -1,
		Pattern:      types.PatternState{},
		Position:     types.Position{InstrumentID: instrumentID},
		BarsHeld:     0,
	}
}
