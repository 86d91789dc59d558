package indicator

import (
	"slices"

	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// TrendConfig configures the trend-qualification gate.
type TrendConfig struct {
	// MAPeriods are the moving average periods; the longest one is the long-horizon MA
	MAPeriods []int
	// ProximityPct is how far below the trailing high the close may be, as a fraction
	ProximityPct float64
	// HighLookback is the number of bars used for the trailing high and low
	HighLookback int
	// SlopePeriod, when positive, requires the long MA to be higher than SlopePeriod bars ago
	SlopePeriod int
	// AboveLowPct, when positive, requires the close to be this fraction above the trailing low
	AboveLowPct float64
}

// TrendCriteria records each individual check of the gate.
type TrendCriteria struct {
	EnoughHistory bool
	AboveLongMA   bool
	MAsOrdered    bool
	NearHigh      bool
	LongMARising  bool
	AboveLow      bool
}

// TrendResult is the gate outcome together with the values it was computed from.
type TrendResult struct {
	Qualified bool
	// MovingAverages maps period to its close SMA on the last bar
	MovingAverages map[int]float64
	Close          float64
	MaxHigh        float64
	MinLow         float64
	Criteria       TrendCriteria
}

// LongestPeriod returns the largest configured MA period.
func (c TrendConfig) LongestPeriod() int {
	if len(c.MAPeriods) == 0 {
		return 0
	}

	return slices.Max(c.MAPeriods)
}

// MinHistory is the number of bars the gate needs before it can qualify.
func (c TrendConfig) MinHistory() int {
	required := c.LongestPeriod()
	if c.SlopePeriod > 0 {
		required += c.SlopePeriod
	}

	return max(required, 1)
}

// EvaluateTrend checks that the last bar sits in an established uptrend. It never
// fails: insufficient history simply leaves the gate closed.
func EvaluateTrend(window types.BarWindow, config TrendConfig) TrendResult {
	result := TrendResult{
		Qualified:      false,
		MovingAverages: make(map[int]float64, len(config.MAPeriods)),
	}

	last, ok := window.Last()
	if !ok || len(config.MAPeriods) == 0 {
		return result
	}

	result.Close = last.Close
	result.MaxHigh = window.MaxHigh(config.HighLookback)
	result.MinLow = window.MinLow(config.HighLookback)

	if window.Len() < config.MinHistory() {
		return result
	}

	result.Criteria.EnoughHistory = true

	periods := slices.Clone(config.MAPeriods)
	slices.Sort(periods)

	averages := make([]float64, len(periods))
	for i, period := range periods {
		value, ok := SimpleMovingAverage(window, period)
		if !ok {
			return result
		}

		averages[i] = value
		result.MovingAverages[period] = value
	}

	longMA := averages[len(averages)-1]
	result.Criteria.AboveLongMA = last.Close > longMA

	result.Criteria.MAsOrdered = true
	for i := 1; i < len(averages); i++ {
		if averages[i-1] <= averages[i] {
			result.Criteria.MAsOrdered = false

			break
		}
	}

	result.Criteria.NearHigh = last.Close >= (1-config.ProximityPct)*result.MaxHigh

	result.Criteria.LongMARising = true
	if config.SlopePeriod > 0 {
		previous, ok := SimpleMovingAverageAt(window, periods[len(periods)-1], config.SlopePeriod)
		result.Criteria.LongMARising = ok && longMA > previous
	}

	result.Criteria.AboveLow = true
	if config.AboveLowPct > 0 {
		result.Criteria.AboveLow = last.Close >= (1+config.AboveLowPct)*result.MinLow
	}

	c := result.Criteria
	result.Qualified = c.EnoughHistory && c.AboveLongMA && c.MAsOrdered && c.NearHigh && c.LongMARising && c.AboveLow

	return result
}
