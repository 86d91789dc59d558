package types

// BarWindow is a read-only, causal view over the bars observed so far.
// Indices passed to At are absolute positions in the instrument history, so a
// trailing view produced by Tail still reports the same index for the same bar.
type BarWindow struct {
	bars   []Bar
	offset int
}

// NewBarWindow creates a window over every bar in the slice.
// The slice is capped so the window can never be re-sliced past its length.
func NewBarWindow(bars []Bar) BarWindow {
	return BarWindow{
		bars:   bars[:len(bars):len(bars)],
		offset: 0,
	}
}

// Prefix returns the window of the first n bars of the history. It is how the
// driver advances "now" one bar at a time.
func (w BarWindow) Prefix(n int) BarWindow {
	if n < 0 {
		n = 0
	}

	if n > len(w.bars) {
		n = len(w.bars)
	}

	return BarWindow{
		bars:   w.bars[:n:n],
		offset: w.offset,
	}
}

// Tail returns a view over the last n bars, keeping absolute indices.
func (w BarWindow) Tail(n int) BarWindow {
	if n >= len(w.bars) || n < 0 {
		return w
	}

	start := len(w.bars) - n

	return BarWindow{
		bars:   w.bars[start:len(w.bars):len(w.bars)],
		offset: w.offset + start,
	}
}

// Len returns the number of bars visible in this view.
func (w BarWindow) Len() int {
	return len(w.bars)
}

// Offset returns the absolute index of the first bar in this view.
func (w BarWindow) Offset() int {
	return w.offset
}

// End returns the absolute index one past the last visible bar.
func (w BarWindow) End() int {
	return w.offset + len(w.bars)
}

// At returns the bar at absolute index i. Panics when i is outside the view.
func (w BarWindow) At(i int) Bar {
	return w.bars[i-w.offset]
}

// Last returns the most recent bar and false when the window is empty.
func (w BarWindow) Last() (Bar, bool) {
	if len(w.bars) == 0 {
		return Bar{}, false
	}

	return w.bars[len(w.bars)-1], true
}

// Closes returns a copy of the close prices in order.
func (w BarWindow) Closes() []float64 {
	return w.column(func(b Bar) float64 { return b.Close })
}

// Highs returns a copy of the high prices in order.
func (w BarWindow) Highs() []float64 {
	return w.column(func(b Bar) float64 { return b.High })
}

// Lows returns a copy of the low prices in order.
func (w BarWindow) Lows() []float64 {
	return w.column(func(b Bar) float64 { return b.Low })
}

// Volumes returns a copy of the volumes in order.
func (w BarWindow) Volumes() []float64 {
	return w.column(func(b Bar) float64 { return b.Volume })
}

// MaxHigh returns the highest high over the last n bars, or 0 for an empty window.
func (w BarWindow) MaxHigh(n int) float64 {
	tail := w.Tail(n)
	maxHigh := 0.0

	for i, bar := range tail.bars {
		if i == 0 || bar.High > maxHigh {
			maxHigh = bar.High
		}
	}

	return maxHigh
}

// MinLow returns the lowest low over the last n bars, or 0 for an empty window.
func (w BarWindow) MinLow(n int) float64 {
	tail := w.Tail(n)
	minLow := 0.0

	for i, bar := range tail.bars {
		if i == 0 || bar.Low < minLow {
			minLow = bar.Low
		}
	}

	return minLow
}

func (w BarWindow) column(get func(Bar) float64) []float64 {
	values := make([]float64, len(w.bars))
	for i, bar := range w.bars {
		values[i] = get(bar)
	}

	return values
}
