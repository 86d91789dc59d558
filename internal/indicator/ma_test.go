package indicator

import (
	"testing"

	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/stretchr/testify/suite"
)

type MovingAverageTestSuite struct {
	suite.Suite
}

func TestMovingAverageSuite(t *testing.T) {
	suite.Run(t, new(MovingAverageTestSuite))
}

func (suite *MovingAverageTestSuite) TestSimpleMovingAverage() {
	window := types.NewBarWindow(barsFromCloses([]float64{1, 2, 3, 4, 5, 6}, 0))

	value, ok := SimpleMovingAverage(window, 3)
	suite.True(ok)
	suite.InDelta(5.0, value, 1e-12)

	value, ok = SimpleMovingAverage(window, 1)
	suite.True(ok)
	suite.Equal(6.0, value)

	_, ok = SimpleMovingAverage(window, 7)
	suite.False(ok)

	_, ok = SimpleMovingAverage(window, 0)
	suite.False(ok)
}

func (suite *MovingAverageTestSuite) TestSimpleMovingAverageAt() {
	window := types.NewBarWindow(barsFromCloses([]float64{1, 2, 3, 4, 5, 6}, 0))

	value, ok := SimpleMovingAverageAt(window, 3, 2)
	suite.True(ok)
	suite.InDelta(3.0, value, 1e-12)

	_, ok = SimpleMovingAverageAt(window, 3, 4)
	suite.False(ok)
}

func (suite *MovingAverageTestSuite) TestMeanVolume() {
	bars := withVolumes(barsFromCloses([]float64{1, 2, 3, 4}, 0), []float64{10, 20, 30, 40})

	value, ok := MeanVolume(types.NewBarWindow(bars), 2)
	suite.True(ok)
	suite.InDelta(35.0, value, 1e-12)
}

func (suite *MovingAverageTestSuite) TestExponentialMovingAverage() {
	window := types.NewBarWindow(barsFromCloses([]float64{1, 2, 3}, 0))

	current, previous, ok := ExponentialMovingAverage(window, 2)
	suite.True(ok)
	suite.InDelta(2.5, current, 1e-12)
	suite.InDelta(1.5, previous, 1e-12)

	_, _, ok = ExponentialMovingAverage(window, 3)
	suite.False(ok, "needs a bar before the seed")

	_, _, ok = ExponentialMovingAverage(window, 1)
	suite.False(ok)
}

func (suite *MovingAverageTestSuite) TestCrossedBelow() {
	crossed, ema := CrossedBelow(types.NewBarWindow(barsFromCloses([]float64{10, 10, 10, 8}, 0)), 2)
	suite.True(crossed)
	suite.InDelta(26.0/3, ema, 1e-9)

	crossed, _ = CrossedBelow(types.NewBarWindow(barsFromCloses([]float64{10, 10, 10, 10}, 0)), 2)
	suite.False(crossed)

	// already below on the previous bar
	crossed, _ = CrossedBelow(types.NewBarWindow(barsFromCloses([]float64{10, 10, 9, 8}, 0)), 2)
	suite.False(crossed)

	crossed, _ = CrossedBelow(types.NewBarWindow(barsFromCloses([]float64{10, 8}, 0)), 2)
	suite.False(crossed)
}
