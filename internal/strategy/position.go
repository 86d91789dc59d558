package strategy

import (
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// OpenPosition moves the state from FLAT to LONG at the given bar.
// Opening a second position is a driver bug and returns an invariant violation.
func OpenPosition(state State, bar types.Bar, index int) (State, error) {
	if state.Position.Open {
		return state, errors.NewInvariantViolationError(state.InstrumentID, index, "open position while one is already open")
	}

	state.Position = types.Position{
		InstrumentID: state.InstrumentID,
		EntryPrice:   bar.Close,
		EntryTime:    bar.Time,
		EntryIndex:   index,
		Open:         true,
	}
	state.BarsHeld = 0

	return state, nil
}

// ClosePosition moves the state from LONG back to FLAT.
func ClosePosition(state State, index int) (State, error) {
	if !state.Position.Open {
		return state, errors.NewInvariantViolationError(state.InstrumentID, index, "close position while none is open")
	}

	state.Position = types.Position{InstrumentID: state.InstrumentID}
	state.BarsHeld = 0

	return state, nil
}
