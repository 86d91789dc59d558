package indicator

import (
	"iter"

	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// ContractionConfig holds the knobs of the contraction analyzer.
type ContractionConfig struct {
	// MinAmplitude drops pullbacks shallower than this depth fraction
	MinAmplitude float64
	// MaxSegments is the size of the trailing window of retained segments
	MaxSegments int
	// Tolerance lets a depth exceed the previous one by this much and still count as tightening
	Tolerance float64
}

// ContractionResult is the outcome of one contraction analysis.
type ContractionResult struct {
	// Segments are the retained segments, oldest first
	Segments   []types.ContractionSegment
	Count      int
	Tightening bool
}

// AnalyzeContractions pairs each peak with the trough that follows it on a later bar
// and keeps the trailing MaxSegments pullbacks that are at least MinAmplitude deep.
func AnalyzeContractions(points iter.Seq[types.ExtremaPoint], config ContractionConfig) ContractionResult {
	segments := make([]types.ContractionSegment, 0)

	var (
		peak    types.ExtremaPoint
		hasPeak bool
	)

	for point := range points {
		if point.Kind == types.ExtremaKindPeak {
			peak, hasPeak = point, true

			continue
		}

		// an outside bar is both peak and trough; its own range is not a pullback
		if !hasPeak || point.Index <= peak.Index {
			continue
		}

		hasPeak = false

		segment, ok := newSegment(peak, point)
		if !ok || segment.Depth < config.MinAmplitude {
			continue
		}

		segments = append(segments, segment)
		if config.MaxSegments > 0 && len(segments) > config.MaxSegments {
			segments = segments[1:]
		}
	}

	// copy so the retained window does not pin the discarded prefix
	retained := make([]types.ContractionSegment, len(segments))
	copy(retained, segments)

	return ContractionResult{
		Segments:   retained,
		Count:      len(retained),
		Tightening: IsTightening(retained, config.Tolerance),
	}
}

// IsTightening reports whether there are at least two segments and every depth
// is at most the previous depth plus tolerance.
func IsTightening(segments []types.ContractionSegment, tolerance float64) bool {
	if len(segments) < 2 {
		return false
	}

	for i := 1; i < len(segments); i++ {
		if segments[i].Depth > segments[i-1].Depth+tolerance {
			return false
		}
	}

	return true
}

func newSegment(peak types.ExtremaPoint, trough types.ExtremaPoint) (types.ContractionSegment, bool) {
	if peak.Price <= 0 {
		return types.ContractionSegment{}, false
	}

	depth := (peak.Price - trough.Price) / peak.Price

	return types.ContractionSegment{
		StartIndex: peak.Index,
		EndIndex:   trough.Index,
		StartPrice: peak.Price,
		EndPrice:   trough.Price,
		Depth:      clamp(depth, 0, 1),
	}, true
}

func clamp(value, lower, upper float64) float64 {
	return max(lower, min(upper, value))
}
