package types

import "time"

// Bar is one trading-period record for an instrument. Bars are produced by an
// upstream normalizer and are never mutated by the evaluation core.
type Bar struct {
	Time         time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
	Open         float64   `yaml:"open" json:"open" csv:"open"`
	High         float64   `yaml:"high" json:"high" csv:"high"`
	Low          float64   `yaml:"low" json:"low" csv:"low"`
	Close        float64   `yaml:"close" json:"close" csv:"close"`
	Volume       float64   `yaml:"volume" json:"volume" csv:"volume"`
	Amount       float64   `yaml:"amount" json:"amount" csv:"amount"`
	InstrumentID string    `yaml:"instrument_id" json:"instrument_id" csv:"instrument_id"`
}

// BarColumns lists the columns every bar source must provide.
var BarColumns = []string{
	"timestamp", "open", "high", "low", "close", "volume", "amount", "instrument_id",
}
