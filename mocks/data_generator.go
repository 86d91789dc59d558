package mocks

import (
	"math"
	"math/rand/v2"

	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// RandomWalk describes a seeded geometric random walk of daily closes.
type RandomWalk struct {
	InstrumentID string
	Bars         int
	StartPrice   float64
	// Volatility is the standard deviation of the per-bar log return
	Volatility float64
	// Drift is the log return spread evenly over the whole walk
	Drift float64
	// Volume is the mean volume per bar, scaled by a uniform factor in
	// [1-VolumeJitter, 1+VolumeJitter]
	Volume       float64
	VolumeJitter float64
}

// DefaultRandomWalk is a driftless 1000-bar walk starting at 100.
func DefaultRandomWalk(instrumentID string) RandomWalk {
	return RandomWalk{
		InstrumentID: instrumentID,
		Bars:         1000,
		StartPrice:   100,
		Volatility:   0.015,
		Drift:        0,
		Volume:       1_000_000,
		VolumeJitter: 0.3,
	}
}

// Generate renders the walk through BarsFromVertices with one vertex per bar.
// The same seed always yields the same bars.
func (w RandomWalk) Generate(seed int64) []types.Bar {
	if w.Bars <= 0 {
		return nil
	}

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(w.Bars)))
	spread := w.StartPrice * w.Volatility / 2
	step := w.Drift / float64(w.Bars)
	logPrice := math.Log(w.StartPrice)

	vertices := make([]Vertex, w.Bars)
	volumes := make([]float64, w.Bars)

	for i := range vertices {
		if i > 0 {
			logPrice += step + w.Volatility*rng.NormFloat64()
		}

		// the floor keeps every low positive
		close := math.Max(math.Exp(logPrice), 2*spread)
		vertices[i] = Vertex{Index: i, Close: math.Round(close*1e4) / 1e4}

		jitter := 1 + (rng.Float64()*2-1)*w.VolumeJitter
		volumes[i] = math.Round(math.Max(w.Volume*jitter, 0))
	}

	return BarsFromVertices(w.InstrumentID, vertices, spread, func(i int) float64 { return volumes[i] })
}
