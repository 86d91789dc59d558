package types

import "strconv"

// IndicatorKey names one value in a SignalEvent indicator snapshot.
type IndicatorKey = string

const (
	IndicatorKeyClose           IndicatorKey = "close"
	IndicatorKeyScore           IndicatorKey = "score"
	IndicatorKeyPrevScore       IndicatorKey = "prev_score"
	IndicatorKeyCountScore      IndicatorKey = "count_score"
	IndicatorKeyTighteningScore IndicatorKey = "tightening_score"
	IndicatorKeyVolumeScore     IndicatorKey = "volume_score"
	IndicatorKeySegmentCount    IndicatorKey = "segment_count"
	IndicatorKeyTightening      IndicatorKey = "tightening"
	IndicatorKeyTrendQualified  IndicatorKey = "trend_qualified"
	IndicatorKeyVolumeRatio     IndicatorKey = "volume_ratio"
	IndicatorKeyVolumeShortMean IndicatorKey = "volume_short_mean"
	IndicatorKeyVolumeBaseline  IndicatorKey = "volume_baseline_mean"
	IndicatorKeyMaxHigh         IndicatorKey = "max_high"
	IndicatorKeyLastTrough      IndicatorKey = "last_trough"
	IndicatorKeyBuyThreshold    IndicatorKey = "buy_threshold"
	IndicatorKeySellThreshold   IndicatorKey = "sell_threshold"
	IndicatorKeyBarsHeld        IndicatorKey = "bars_held"
	IndicatorKeyEntryPrice      IndicatorKey = "entry_price"
	IndicatorKeyReturnPct       IndicatorKey = "return_pct"
	IndicatorKeyBreakoutLevel   IndicatorKey = "breakout_level"
	IndicatorKeyVolume          IndicatorKey = "volume"
	IndicatorKeyVolumeMean      IndicatorKey = "volume_mean"
	IndicatorKeyExitMA          IndicatorKey = "exit_ma"
	IndicatorKeyBaseBars        IndicatorKey = "base_bars"
)

// MovingAverageKey returns the snapshot key for a simple moving average of the given period.
func MovingAverageKey(period int) IndicatorKey {
	return "sma_" + strconv.Itoa(period)
}

// ExponentialMovingAverageKey returns the snapshot key for a close EMA of the given period.
func ExponentialMovingAverageKey(period int) IndicatorKey {
	return "ema_" + strconv.Itoa(period)
}

// SegmentDepthKey returns the snapshot key for the depth of the i-th retained segment (0-based).
func SegmentDepthKey(i int) IndicatorKey {
	return "segment_" + strconv.Itoa(i) + "_depth"
}

// BoolValue encodes a boolean as 1 or 0 for numeric snapshots.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
