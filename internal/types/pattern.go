package types

// ExtremaKind tells whether an extrema point is a local high or a local low.
type ExtremaKind string

const (
	// ExtremaKindPeak is a local high, measured on the bar high
	ExtremaKindPeak ExtremaKind = "peak"
	// ExtremaKindTrough is a local low, measured on the bar low
	ExtremaKindTrough ExtremaKind = "trough"
)

// ExtremaPoint is a confirmed local extreme of the price series.
type ExtremaPoint struct {
	// Index is the absolute bar index in the instrument history
	Index int
	// Price is the bar high for peaks and the bar low for troughs
	Price float64
	Kind  ExtremaKind
}

// ContractionSegment is one pullback from a peak to the following trough.
type ContractionSegment struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	StartPrice float64 `json:"start_price"`
	EndPrice   float64 `json:"end_price"`
	// Depth is (StartPrice - EndPrice) / StartPrice, always within [0, 1]
	Depth float64 `json:"depth"`
}

// PatternState accumulates the contraction evidence for one instrument.
// It is rebuilt by the strategy on every bar and owned by the driver.
type PatternState struct {
	Segments       []ContractionSegment
	SegmentCount   int
	Tightening     bool
	TrendQualified bool
	VolumeRatio    float64
	VolumeDry      bool
	Score          float64
	// PrevScore is the score of the previous bar, used for threshold crossings
	PrevScore float64
}

// LastTrough returns the trough price of the most recent retained segment.
func (p PatternState) LastTrough() (float64, bool) {
	if len(p.Segments) == 0 {
		return 0, false
	}

	return p.Segments[len(p.Segments)-1].EndPrice, true
}
