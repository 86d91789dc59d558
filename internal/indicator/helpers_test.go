package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-contraction/internal/types"
)

var testStart = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// barsFromCloses builds daily bars whose high and low sit spread away from the close.
func barsFromCloses(closes []float64, spread float64) []types.Bar {
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		bars[i] = types.Bar{
			InstrumentID: "TEST",
			Time:         testStart.AddDate(0, 0, i),
			Open:         open,
			High:         c + spread,
			Low:          c - spread,
			Close:        c,
			Volume:       1000,
			Amount:       1000 * c,
		}
	}

	return bars
}

func withVolumes(bars []types.Bar, volumes []float64) []types.Bar {
	for i := range bars {
		bars[i].Volume = volumes[i]
	}

	return bars
}

func linearCloses(start float64, step float64, n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}

	return closes
}
