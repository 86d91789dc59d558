package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/stretchr/testify/suite"
)

type TrendTestSuite struct {
	suite.Suite
	config TrendConfig
}

func TestTrendSuite(t *testing.T) {
	suite.Run(t, new(TrendTestSuite))
}

func (suite *TrendTestSuite) SetupTest() {
	suite.config = TrendConfig{
		MAPeriods:    []int{20, 5, 10},
		ProximityPct: 0.1,
		HighLookback: 50,
		SlopePeriod:  5,
		AboveLowPct:  0.3,
	}
}

func (suite *TrendTestSuite) TestQualifiedUptrend() {
	window := types.NewBarWindow(barsFromCloses(linearCloses(100, 1, 60), 0.2))

	result := EvaluateTrend(window, suite.config)

	suite.True(result.Qualified)
	suite.Equal(TrendCriteria{
		EnoughHistory: true,
		AboveLongMA:   true,
		MAsOrdered:    true,
		NearHigh:      true,
		LongMARising:  true,
		AboveLow:      true,
	}, result.Criteria)
	suite.InDelta(157.0, result.MovingAverages[5], 1e-9)
	suite.InDelta(154.5, result.MovingAverages[10], 1e-9)
	suite.InDelta(149.5, result.MovingAverages[20], 1e-9)
	suite.InDelta(159.2, result.MaxHigh, 1e-9)
	suite.InDelta(109.8, result.MinLow, 1e-9)
	suite.Equal(159.0, result.Close)
}

func (suite *TrendTestSuite) TestInsufficientHistoryIsNotAnError() {
	bars := barsFromCloses(linearCloses(100, 1, 60), 0.2)
	window := types.NewBarWindow(bars)

	suite.Equal(25, suite.config.MinHistory())

	for n := 0; n < suite.config.MinHistory(); n++ {
		result := EvaluateTrend(window.Prefix(n), suite.config)
		suite.False(result.Qualified, "prefix %d", n)
		suite.False(result.Criteria.EnoughHistory, "prefix %d", n)
	}

	suite.True(EvaluateTrend(window.Prefix(25), suite.config).Criteria.EnoughHistory)
}

func (suite *TrendTestSuite) TestDowntrendFails() {
	window := types.NewBarWindow(barsFromCloses(linearCloses(200, -1, 60), 0.2))

	result := EvaluateTrend(window, suite.config)

	suite.False(result.Qualified)
	suite.False(result.Criteria.AboveLongMA)
	suite.False(result.Criteria.MAsOrdered)
	suite.False(result.Criteria.LongMARising)
}

func (suite *TrendTestSuite) TestFarBelowHighFails() {
	closes := append(linearCloses(100, 1, 60), 120)
	window := types.NewBarWindow(barsFromCloses(closes, 0.2))

	result := EvaluateTrend(window, suite.config)

	suite.False(result.Qualified)
	suite.False(result.Criteria.NearHigh)
}

func (suite *TrendTestSuite) TestOptionalChecksDisabled() {
	suite.config.SlopePeriod = 0
	suite.config.AboveLowPct = 0

	suite.Equal(20, suite.config.MinHistory())

	// a shallow rise that is nowhere near 30% above its low
	window := types.NewBarWindow(barsFromCloses(linearCloses(100, 0.1, 20), 0.01))
	result := EvaluateTrend(window, suite.config)

	suite.True(result.Qualified)
	suite.True(result.Criteria.LongMARising)
	suite.True(result.Criteria.AboveLow)
}

func (suite *TrendTestSuite) TestNoPeriodsNeverQualifies() {
	suite.config.MAPeriods = nil
	window := types.NewBarWindow(barsFromCloses(linearCloses(100, 1, 60), 0.2))

	suite.False(EvaluateTrend(window, suite.config).Qualified)
}
