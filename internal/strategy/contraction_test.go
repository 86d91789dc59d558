package strategy_test

import (
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-contraction/internal/strategy"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/mocks"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ContractionStrategyTestSuite struct {
	suite.Suite
}

func TestContractionStrategySuite(t *testing.T) {
	suite.Run(t, new(ContractionStrategyTestSuite))
}

type emitted struct {
	index int
	event types.SignalEvent
}

// evaluateAll feeds every causal prefix of bars to s, like the backtest driver does.
func evaluateAll(s strategy.Strategy, bars []types.Bar) ([]emitted, strategy.State, error) {
	history := types.NewBarWindow(bars)
	state := strategy.NewState(bars[0].InstrumentID)
	events := make([]emitted, 0)

	for i := range bars {
		signal, next, err := s.Evaluate(history.Prefix(i+1), state)
		if err != nil {
			return events, state, err
		}

		state = next

		if signal.IsSome() {
			events = append(events, emitted{index: i, event: signal.Unwrap()})
		}
	}

	return events, state, nil
}

func (suite *ContractionStrategyTestSuite) newStrategy(config strategy.ContractionConfig) *strategy.ContractionStrategy {
	s, err := strategy.NewContractionStrategy(config)
	suite.Require().NoError(err)

	return s
}

func (suite *ContractionStrategyTestSuite) TestBuyOnContractionPattern() {
	bars := mocks.ContractionScenario("AAPL")

	events, state, err := evaluateAll(suite.newStrategy(mocks.ContractionScenarioConfig()), bars)
	suite.Require().NoError(err)
	suite.Require().Len(events, 1)

	buy := events[0]
	suite.Equal(64, buy.index)
	suite.Equal(types.SignalTypeBuy, buy.event.Type)
	suite.Equal("AAPL", buy.event.InstrumentID)
	suite.Equal(strategy.ContractionStrategyName, buy.event.StrategyName)
	suite.Equal(bars[64].Time, buy.event.Time)
	suite.Equal(bars[64].Close, buy.event.Price)
	suite.Empty(buy.event.RunID)

	conditions := buy.event.TriggerConditions
	suite.Require().Len(conditions, 5)
	suite.Equal("trend qualification: true", conditions[0])
	suite.Equal("contractions: 4 ≥ 2", conditions[1])
	suite.Equal("tightening: depths non-increasing", conditions[2])
	suite.Equal("volume ratio: 0.28 < 0.50", conditions[3])
	suite.True(strings.HasPrefix(conditions[4], "score: 1.00 crossed above 0.80"))

	values := buy.event.IndicatorValues
	suite.InDelta(1.0, values[types.IndicatorKeyScore], 1e-9)
	suite.InDelta(0.7875, values[types.IndicatorKeyPrevScore], 1e-3)
	suite.Equal(4.0, values[types.IndicatorKeySegmentCount])
	suite.Equal(1.0, values[types.IndicatorKeyTightening])
	suite.Equal(1.0, values[types.IndicatorKeyTrendQualified])
	suite.InDelta(0.2752, values[types.IndicatorKeyVolumeRatio], 1e-3)
	suite.InDelta(0.1238, values[types.SegmentDepthKey(0)], 1e-3)
	suite.InDelta(0.0837, values[types.SegmentDepthKey(1)], 1e-3)
	suite.InDelta(0.0536, values[types.SegmentDepthKey(2)], 1e-3)
	suite.InDelta(0.0336, values[types.SegmentDepthKey(3)], 1e-3)
	suite.Contains(values, types.MovingAverageKey(10))
	suite.Contains(values, types.MovingAverageKey(40))
	suite.Contains(values, types.IndicatorKeyLastTrough)
	suite.Equal(0.8, values[types.IndicatorKeyBuyThreshold])

	suite.True(state.Position.Open)
	suite.Equal(64, state.Position.EntryIndex)
	suite.Equal(len(bars)-1, state.BarIndex)
	suite.Equal(len(bars)-1-64, state.BarsHeld)
}

func (suite *ContractionStrategyTestSuite) TestSellOnBreakdown() {
	bars := mocks.ContractionBreakdownScenario("AAPL")

	events, state, err := evaluateAll(suite.newStrategy(mocks.ContractionScenarioConfig()), bars)
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	sell := events[1]
	suite.Equal(80, sell.index)
	suite.Equal(types.SignalTypeSell, sell.event.Type)
	suite.Equal(mocks.ContractionScenarioBreakdownClose, sell.event.Price)

	conditions := sell.event.TriggerConditions
	suite.Require().Len(conditions, 2)
	suite.Equal("score: 0.00 < 0.30", conditions[0])
	suite.Equal("close 104.00 < last trough 105.53", conditions[1])

	values := sell.event.IndicatorValues
	entry := bars[64].Close
	suite.Equal(16.0, values[types.IndicatorKeyBarsHeld])
	suite.Equal(entry, values[types.IndicatorKeyEntryPrice])
	suite.Equal(strategy.ReturnPct(entry, mocks.ContractionScenarioBreakdownClose), values[types.IndicatorKeyReturnPct])
	suite.Less(values[types.IndicatorKeyReturnPct], 0.0)
	suite.Equal(0.0, values[types.IndicatorKeyTrendQualified])

	suite.False(state.Position.Open)
	suite.Equal(types.PositionStatusFlat, state.Position.Status())
	suite.Equal(0, state.BarsHeld)
}

func (suite *ContractionStrategyTestSuite) TestSellOnHoldingPeriod() {
	config := mocks.ContractionScenarioConfig()
	config.MaxHoldingBars = 5

	events, state, err := evaluateAll(suite.newStrategy(config), mocks.ContractionScenario("AAPL"))
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	sell := events[1]
	suite.Equal(69, sell.index)
	suite.Equal([]string{"holding period: 5 ≥ 5 bars"}, sell.event.TriggerConditions)
	suite.Equal(5.0, sell.event.IndicatorValues[types.IndicatorKeyBarsHeld])

	// the score never falls back below the buy threshold, so there is no second entry
	suite.False(state.Position.Open)
}

func (suite *ContractionStrategyTestSuite) TestNoSignalWithoutHistory() {
	bars := mocks.ContractionScenario("AAPL")[:30]

	events, state, err := evaluateAll(suite.newStrategy(mocks.ContractionScenarioConfig()), bars)
	suite.NoError(err)
	suite.Empty(events)
	suite.False(state.Position.Open)
	suite.Equal(0.0, state.Pattern.Score)
}

func (suite *ContractionStrategyTestSuite) TestDefaultConfigIsQuietOnShortScenario() {
	// the 200-bar moving average cannot be computed on 81 bars
	events, _, err := evaluateAll(suite.newStrategy(strategy.DefaultContractionConfig()), mocks.ContractionBreakdownScenario("AAPL"))

	suite.NoError(err)
	suite.Empty(events)
}

func (suite *ContractionStrategyTestSuite) TestEmptyWindow() {
	s := suite.newStrategy(mocks.ContractionScenarioConfig())
	state := strategy.NewState("AAPL")

	signal, next, err := s.Evaluate(types.NewBarWindow(nil), state)

	suite.NoError(err)
	suite.True(signal.IsNone())
	suite.Equal(state, next)
}

func (suite *ContractionStrategyTestSuite) TestReevaluatingABarIsInvariantViolation() {
	s := suite.newStrategy(mocks.ContractionScenarioConfig())
	history := types.NewBarWindow(mocks.ContractionScenario("AAPL"))

	_, state, err := s.Evaluate(history.Prefix(10), strategy.NewState("AAPL"))
	suite.Require().NoError(err)
	suite.Equal(9, state.BarIndex)

	_, _, err = s.Evaluate(history.Prefix(10), state)
	suite.True(errors.IsInvariantViolation(err))

	_, _, err = s.Evaluate(history.Prefix(5), state)
	suite.True(errors.IsInvariantViolation(err))
}

func (suite *ContractionStrategyTestSuite) TestDeterministic() {
	bars := mocks.ContractionBreakdownScenario("AAPL")
	s := suite.newStrategy(mocks.ContractionScenarioConfig())

	first, _, err := evaluateAll(s, bars)
	suite.Require().NoError(err)

	second, _, err := evaluateAll(s, bars)
	suite.Require().NoError(err)

	suite.Equal(first, second)
}

func (suite *ContractionStrategyTestSuite) TestPrefixDoesNotChangePastSignals() {
	bars := mocks.ContractionBreakdownScenario("AAPL")
	s := suite.newStrategy(mocks.ContractionScenarioConfig())

	full, _, err := evaluateAll(s, bars)
	suite.Require().NoError(err)

	truncated, _, err := evaluateAll(s, bars[:70])
	suite.Require().NoError(err)

	suite.Require().Len(truncated, 1)
	suite.Equal(full[0], truncated[0])
}

func (suite *ContractionStrategyTestSuite) TestSignalsAlternateOnRandomWalks() {
	configs := map[string]strategy.ContractionConfig{
		"default":  strategy.DefaultContractionConfig(),
		"scenario": mocks.ContractionScenarioConfig(),
	}

	for name, config := range configs {
		s := suite.newStrategy(config)

		for seed := int64(1); seed <= 12; seed++ {
			walk := mocks.DefaultRandomWalk("TEST")
			walk.Bars = 400
			walk.Drift = 0.4

			bars := walk.Generate(seed)

			events, state, err := evaluateAll(s, bars)
			suite.Require().NoError(err, "%s seed %d", name, seed)

			last := -1
			for i, e := range events {
				expected := types.SignalTypeBuy
				if i%2 == 1 {
					expected = types.SignalTypeSell
				}

				suite.Equal(expected, e.event.Type, "%s seed %d event %d", name, seed, i)
				suite.Greater(e.index, last)
				suite.Equal(bars[e.index].Close, e.event.Price)
				suite.NotEmpty(e.event.TriggerConditions)

				last = e.index
			}

			suite.Equal(len(events)%2 == 1, state.Position.Open, "%s seed %d", name, seed)
		}
	}
}

func (suite *ContractionStrategyTestSuite) TestReturnPct() {
	tests := []struct {
		name     string
		entry    float64
		exit     float64
		expected float64
	}{
		{name: "gain", entry: 100, exit: 110, expected: 10},
		{name: "loss", entry: 102, exit: 95, expected: -6.862745},
		{name: "flat", entry: 50, exit: 50, expected: 0},
		{name: "zero entry", entry: 0, exit: 10, expected: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, strategy.ReturnPct(tc.entry, tc.exit))
		})
	}
}

func (suite *ContractionStrategyTestSuite) TestBaseLimits() {
	// at bar 64 the first retained pullback is 12.38% deep, the last 3.36% and the
	// base runs 25 bars from the peak at bar 40
	tests := []struct {
		name      string
		modify    func(c *strategy.ContractionConfig)
		buys      bool
		condition string
	}{
		{name: "first depth within limit", modify: func(c *strategy.ContractionConfig) { c.MaxFirstDepth = 0.13 }, buys: true, condition: "first contraction: 0.12 ≤ 0.13"},
		{name: "first depth too deep", modify: func(c *strategy.ContractionConfig) { c.MaxFirstDepth = 0.10 }, buys: false},
		{name: "last depth within limit", modify: func(c *strategy.ContractionConfig) { c.MaxLastDepth = 0.04 }, buys: true, condition: "last contraction: 0.03 ≤ 0.04"},
		{name: "last depth too deep", modify: func(c *strategy.ContractionConfig) { c.MaxLastDepth = 0.03 }, buys: false},
		{name: "base long enough", modify: func(c *strategy.ContractionConfig) { c.MinWeeks = 5 }, buys: true, condition: "base duration: 25 ≥ 25 bars"},
		{name: "base too short", modify: func(c *strategy.ContractionConfig) { c.MinWeeks = 6 }, buys: false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := mocks.ContractionScenarioConfig()
			tc.modify(&config)

			events, state, err := evaluateAll(suite.newStrategy(config), mocks.ContractionScenario("AAPL"))
			suite.Require().NoError(err)

			if !tc.buys {
				suite.Empty(events)
				suite.False(state.Position.Open)

				return
			}

			suite.Require().Len(events, 1)
			suite.Equal(64, events[0].index)

			conditions := events[0].event.TriggerConditions
			suite.Require().Len(conditions, 6)
			suite.Equal("tightening: depths non-increasing", conditions[2])
			suite.Equal(tc.condition, conditions[3])
			suite.Equal(25.0, events[0].event.IndicatorValues[types.IndicatorKeyBaseBars])
		})
	}
}

func (suite *ContractionStrategyTestSuite) TestSellOnEMABreak() {
	config := mocks.ContractionScenarioConfig()
	config.EMASellPeriod = 5

	events, _, err := evaluateAll(suite.newStrategy(config), mocks.ContractionBreakdownScenario("AAPL"))
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)

	// the close keeps rising after the entry, so the EMA is only broken by the breakdown bar
	sell := events[1]
	suite.Equal(80, sell.index)

	conditions := sell.event.TriggerConditions
	suite.Require().Len(conditions, 3)
	suite.Equal("close 104.00 < last trough 105.53", conditions[1])
	suite.True(strings.HasPrefix(conditions[2], "close 104.00 crossed below ema_5 "), conditions[2])

	ema := sell.event.IndicatorValues[types.ExponentialMovingAverageKey(5)]
	suite.Greater(ema, mocks.ContractionScenarioBreakdownClose)
	suite.Contains(events[0].event.IndicatorValues, types.ExponentialMovingAverageKey(5))
}

func (suite *ContractionStrategyTestSuite) TestEMAExitDisabledByDefault() {
	events, _, err := evaluateAll(suite.newStrategy(mocks.ContractionScenarioConfig()), mocks.ContractionBreakdownScenario("AAPL"))
	suite.Require().NoError(err)
	suite.Require().Len(events, 2)
	suite.Len(events[1].event.TriggerConditions, 2)
	suite.NotContains(events[1].event.IndicatorValues, types.ExponentialMovingAverageKey(5))
}
