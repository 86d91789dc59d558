package types

import "time"

// PositionStatus is the state of the per-instrument position machine.
type PositionStatus string

const (
	// PositionStatusFlat means no position is open
	PositionStatusFlat PositionStatus = "FLAT"
	// PositionStatusLong means exactly one long position is open
	PositionStatusLong PositionStatus = "LONG"
)

// Position is the single long position a strategy may hold for an instrument.
type Position struct {
	InstrumentID string
	EntryPrice   float64
	EntryTime    time.Time
	EntryIndex   int
	Open         bool
}

// Status returns FLAT or LONG.
func (p Position) Status() PositionStatus {
	if p.Open {
		return PositionStatusLong
	}

	return PositionStatusFlat
}
