package indicator

import (
	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// SimpleMovingAverage returns the mean close of the last period bars of the window.
// ok is false when the window holds fewer than period bars.
func SimpleMovingAverage(window types.BarWindow, period int) (float64, bool) {
	if period <= 0 || window.Len() < period {
		return 0, false
	}

	return lastSMA(window.Tail(period).Closes(), period), true
}

// SimpleMovingAverageAt returns the close SMA ending lag bars before the last bar.
func SimpleMovingAverageAt(window types.BarWindow, period int, lag int) (float64, bool) {
	if lag < 0 || window.Len()-lag < period {
		return 0, false
	}

	return SimpleMovingAverage(window.Prefix(window.Len()-lag), period)
}

// ExponentialMovingAverage returns the close EMA at the last bar of the window and
// at the bar before it, seeded with the SMA of the first period closes. ok is
// false when the window does not hold more than period bars.
func ExponentialMovingAverage(window types.BarWindow, period int) (current float64, previous float64, ok bool) {
	if period < 2 || window.Len() <= period {
		return 0, 0, false
	}

	ema := talib.Ema(window.Closes(), period)

	return ema[len(ema)-1], ema[len(ema)-2], true
}

// CrossedBelow reports whether the close moved from at or above its EMA on the
// previous bar to below it on the last bar.
func CrossedBelow(window types.BarWindow, period int) (bool, float64) {
	current, previous, ok := ExponentialMovingAverage(window, period)
	if !ok {
		return false, 0
	}

	closes := window.Tail(2).Closes()

	return closes[0] >= previous && closes[1] < current, current
}

// MeanVolume returns the mean volume of the last period bars.
func MeanVolume(window types.BarWindow, period int) (float64, bool) {
	if period <= 0 || window.Len() < period {
		return 0, false
	}

	return lastSMA(window.Tail(period).Volumes(), period), true
}

func lastSMA(values []float64, period int) float64 {
	if period == 1 {
		return values[len(values)-1]
	}

	sma := talib.Sma(values, period)

	return sma[len(sma)-1]
}
