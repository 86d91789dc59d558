package indicator

import (
	"iter"

	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// DetectExtrema scans the window for local peaks and troughs of radius k and
// yields them in index order. Each range over the returned sequence rescans
// the window, so the sequence can be restarted freely.
//
// A bar is a peak when its high is the strict maximum of [i-k, i+k], with
// equal values collapsing to the later index. Troughs are symmetric on the low.
// Bars closer than k to either edge of the window are not evaluated: near "now"
// they are provisional until k more bars arrive.
//
// The yielded points strictly alternate between peaks and troughs. Within a
// run of same-kind candidates only the most extreme one is kept.
func DetectExtrema(window types.BarWindow, k int) iter.Seq[types.ExtremaPoint] {
	return func(yield func(types.ExtremaPoint) bool) {
		if k <= 0 || window.Len() < 2*k+1 {
			return
		}

		var (
			pending    types.ExtremaPoint
			hasPending bool
		)

		// emit merges a candidate into the pending point and reports whether iteration should continue.
		emit := func(candidate types.ExtremaPoint) bool {
			if !hasPending {
				pending, hasPending = candidate, true

				return true
			}

			if pending.Kind == candidate.Kind {
				if moreExtreme(candidate, pending) {
					pending = candidate
				}

				return true
			}

			if !yield(pending) {
				return false
			}

			pending = candidate

			return true
		}

		first := window.Offset() + k
		last := window.End() - 1 - k

		for i := first; i <= last; i++ {
			if isPeak(window, i, k) {
				if !emit(types.ExtremaPoint{Index: i, Price: window.At(i).High, Kind: types.ExtremaKindPeak}) {
					return
				}
			}

			if isTrough(window, i, k) {
				if !emit(types.ExtremaPoint{Index: i, Price: window.At(i).Low, Kind: types.ExtremaKindTrough}) {
					return
				}
			}
		}

		if hasPending {
			yield(pending)
		}
	}
}

// CollectExtrema drains DetectExtrema into a slice.
func CollectExtrema(window types.BarWindow, k int) []types.ExtremaPoint {
	points := make([]types.ExtremaPoint, 0)
	for point := range DetectExtrema(window, k) {
		points = append(points, point)
	}

	return points
}

func isPeak(window types.BarWindow, i int, k int) bool {
	center := window.At(i).High

	for j := i - k; j < i; j++ {
		if window.At(j).High > center {
			return false
		}
	}

	for j := i + 1; j <= i+k; j++ {
		if window.At(j).High >= center {
			return false
		}
	}

	return true
}

func isTrough(window types.BarWindow, i int, k int) bool {
	center := window.At(i).Low

	for j := i - k; j < i; j++ {
		if window.At(j).Low < center {
			return false
		}
	}

	for j := i + 1; j <= i+k; j++ {
		if window.At(j).Low <= center {
			return false
		}
	}

	return true
}

// moreExtreme reports whether candidate should replace current of the same kind.
// candidate always has the later index, so ties go to it.
func moreExtreme(candidate, current types.ExtremaPoint) bool {
	if candidate.Kind == types.ExtremaKindPeak {
		return candidate.Price >= current.Price
	}

	return candidate.Price <= current.Price
}
