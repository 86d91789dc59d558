package mocks

import (
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// Vertex pins the close of one bar; closes between vertices are interpolated linearly.
type Vertex struct {
	Index int
	Close float64
}

// contractionVertices draw an uptrend into a first peak at bar 40 followed by four
// pullbacks of 12%, 8%, 5% and 3% on the close, then a slow drift up to bar 79.
var contractionVertices = []Vertex{
	{Index: 0, Close: 50},
	{Index: 40, Close: 100},
	{Index: 44, Close: 88},
	{Index: 48, Close: 104},
	{Index: 51, Close: 95.68},
	{Index: 54, Close: 107},
	{Index: 57, Close: 101.65},
	{Index: 60, Close: 109},
	{Index: 62, Close: 105.73},
	{Index: 66, Close: 111},
	{Index: 79, Close: 113},
}

const (
	// ContractionScenarioBreakdownClose closes below the last pullback low of 105.53
	ContractionScenarioBreakdownClose = 104.0
	contractionScenarioBars           = 80
	contractionDryBar                 = 50
)

// ScenarioStart is the first bar time of the engineered scenarios.
var ScenarioStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// BarsFromVertices builds daily bars through the given vertices. Highs and lows are
// the close +/- spread and the open is the previous close.
func BarsFromVertices(instrumentID string, vertices []Vertex, spread float64, volume func(i int) float64) []types.Bar {
	if len(vertices) == 0 {
		return nil
	}

	count := vertices[len(vertices)-1].Index + 1
	bars := make([]types.Bar, count)
	prevClose := vertices[0].Close

	segment := 0
	for i := 0; i < count; i++ {
		for segment < len(vertices)-2 && i > vertices[segment+1].Index {
			segment++
		}

		close := vertices[segment].Close
		if len(vertices) > 1 {
			from, to := vertices[segment], vertices[segment+1]
			close = from.Close + (to.Close-from.Close)*float64(i-from.Index)/float64(to.Index-from.Index)
		}

		v := volume(i)
		bars[i] = types.Bar{
			InstrumentID: instrumentID,
			Time:         ScenarioStart.AddDate(0, 0, i),
			Open:         prevClose,
			High:         close + spread,
			Low:          close - spread,
			Close:        close,
			Volume:       v,
			Amount:       v * close,
		}
		prevClose = close
	}

	return bars
}

// ContractionScenario returns the 80-bar contraction pattern. Volume is 1000 per
// bar until bar 50 and 210 afterwards, so the final 10-bar ratio against the
// 50-bar baseline is about 0.4.
func ContractionScenario(instrumentID string) []types.Bar {
	return BarsFromVertices(instrumentID, contractionVertices, 0.2, scenarioVolume)
}

// ContractionBreakdownScenario is ContractionScenario continued by one bar that
// closes below the last pullback low.
func ContractionBreakdownScenario(instrumentID string) []types.Bar {
	bars := ContractionScenario(instrumentID)
	last := bars[len(bars)-1]
	close := ContractionScenarioBreakdownClose
	volume := scenarioVolume(contractionScenarioBars)

	return append(bars, types.Bar{
		InstrumentID: instrumentID,
		Time:         last.Time.AddDate(0, 0, 1),
		Open:         last.Close,
		High:         last.Close,
		Low:          close - 0.2,
		Close:        close,
		Volume:       volume,
		Amount:       volume * close,
	})
}

func scenarioVolume(i int) float64 {
	if i < contractionDryBar {
		return 1000
	}

	return 210
}

// ContractionScenarioConfig is calibrated for the short engineered scenarios: the
// score first crosses 0.8 at bar 64 and the breakdown bar closes the position.
func ContractionScenarioConfig() strategy.ContractionConfig {
	config := strategy.DefaultContractionConfig()
	config.ExtremaRadius = 2
	config.LookbackBars = 120
	config.MAPeriods = []int{10, 40}
	config.ProximityPct = 0.15
	config.HighLookback = 60
	config.SlopePeriod = 0
	config.AboveLowPct = 0
	config.VolumeShortWindow = 10
	config.VolumeBaselineWindow = 50
	config.TargetCount = 4
	config.CountWeight = 0.85
	config.TighteningWeight = 0.05
	config.VolumeWeight = 0.1
	config.MaxHoldingBars = 30

	return config
}

// ContractionScenarioYAML is ContractionScenarioConfig as a strategy config document.
const ContractionScenarioYAML = `
extrema_radius: 2
lookback_bars: 120
ma_periods: [10, 40]
proximity_pct: 0.15
high_lookback: 60
slope_period: 0
above_low_pct: 0
volume_short_window: 10
volume_baseline_window: 50
target_count: 4
count_weight: 0.85
tightening_weight: 0.05
volume_weight: 0.1
max_holding_bars: 30
`
