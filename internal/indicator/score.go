package indicator

// ScoreConfig holds the composite score calibration.
type ScoreConfig struct {
	// TargetCount is the segment count at which the count sub-score saturates
	TargetCount      int
	CountWeight      float64
	TighteningWeight float64
	VolumeWeight     float64
	// DryUpThreshold is the volume ratio at which the volume sub-score reaches 1
	DryUpThreshold float64
}

// ScoreInputs are the pattern facts the composite score is built from.
type ScoreInputs struct {
	SegmentCount   int
	Tightening     bool
	VolumeRatio    float64
	TrendQualified bool
}

// ScoreBreakdown is the composite score and its normalized sub-scores.
type ScoreBreakdown struct {
	Score           float64
	CountScore      float64
	TighteningScore float64
	VolumeScore     float64
}

// CompositeScore combines the sub-scores into a progress value in [0, 1].
// The trend gate is multiplicative: when it is closed the score is 0 whatever
// the other inputs are, but the sub-scores are still reported.
func CompositeScore(inputs ScoreInputs, config ScoreConfig) ScoreBreakdown {
	breakdown := ScoreBreakdown{
		Score:           0,
		CountScore:      countScore(inputs.SegmentCount, config.TargetCount),
		TighteningScore: 0,
		VolumeScore:     volumeScore(inputs.VolumeRatio, config.DryUpThreshold),
	}

	if inputs.Tightening {
		breakdown.TighteningScore = 1
	}

	if !inputs.TrendQualified {
		return breakdown
	}

	total := config.CountWeight + config.TighteningWeight + config.VolumeWeight
	if total <= 0 {
		return breakdown
	}

	weighted := config.CountWeight*breakdown.CountScore +
		config.TighteningWeight*breakdown.TighteningScore +
		config.VolumeWeight*breakdown.VolumeScore

	breakdown.Score = clamp(weighted/total, 0, 1)

	return breakdown
}

func countScore(count int, target int) float64 {
	if target <= 0 {
		if count > 0 {
			return 1
		}

		return 0
	}

	return clamp(float64(count)/float64(target), 0, 1)
}

// volumeScore grows as the ratio falls and saturates once the ratio reaches the dry-up threshold.
func volumeScore(ratio float64, threshold float64) float64 {
	if ratio <= 0 {
		return 1
	}

	return clamp(threshold/ratio, 0, 1)
}
