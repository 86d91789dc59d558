package indicator

import "github.com/rxtech-lab/argo-contraction/internal/types"

// VolumeConfig configures the volume dry-up detector.
type VolumeConfig struct {
	ShortWindow    int
	BaselineWindow int
	DryUpThreshold float64
}

// VolumeResult is the volume dry-up reading for the last bar of a window.
type VolumeResult struct {
	// Ratio is ShortMean / BaselineMean, or 1 when the baseline is unavailable
	Ratio        float64
	ShortMean    float64
	BaselineMean float64
	Dry          bool
}

// EvaluateVolume compares recent volume with its longer baseline. With too little
// history, or a zero baseline, the ratio is neutral (1.0) and never dry.
func EvaluateVolume(window types.BarWindow, config VolumeConfig) VolumeResult {
	neutral := VolumeResult{Ratio: 1, ShortMean: 0, BaselineMean: 0, Dry: false}

	baseline, ok := MeanVolume(window, config.BaselineWindow)
	if !ok {
		return neutral
	}

	short, ok := MeanVolume(window, config.ShortWindow)
	if !ok {
		return neutral
	}

	neutral.ShortMean = short
	neutral.BaselineMean = baseline

	if baseline <= 0 {
		return neutral
	}

	ratio := short / baseline

	return VolumeResult{
		Ratio:        ratio,
		ShortMean:    short,
		BaselineMean: baseline,
		Dry:          ratio < config.DryUpThreshold,
	}
}
