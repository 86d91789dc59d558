package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/indicator"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"github.com/shopspring/decimal"
)

// ContractionStrategyName is the registry name of the contraction strategy.
const ContractionStrategyName = "contraction"

const barsPerWeek = 5

// ContractionStrategy trades the multi-stage contraction pattern: a series of
// successively shallower pullbacks inside a qualified uptrend on drying volume.
type ContractionStrategy struct {
	config ContractionConfig
}

// NewContractionStrategy creates the strategy after validating its config.
func NewContractionStrategy(config ContractionConfig) (*ContractionStrategy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ContractionStrategy{config: config}, nil
}

// Name returns the strategy name.
func (s *ContractionStrategy) Name() string {
	return ContractionStrategyName
}

// Config returns a copy of the strategy config.
func (s *ContractionStrategy) Config() ContractionConfig {
	return s.config
}

// contractionReading is everything computed for one bar.
type contractionReading struct {
	bar         types.Bar
	index       int
	contraction indicator.ContractionResult
	trend       indicator.TrendResult
	volume      indicator.VolumeResult
	score       indicator.ScoreBreakdown
	prevScore   float64
	// ema is the exit EMA, zero when the exit is disabled or history is short
	ema       float64
	emaBroken bool
}

// Evaluate runs the pipeline on the last bar of the window and applies the
// FLAT/LONG transitions.
func (s *ContractionStrategy) Evaluate(window types.BarWindow, state State) (optional.Option[types.SignalEvent], State, error) {
	none := optional.None[types.SignalEvent]()

	bar, ok := window.Last()
	if !ok {
		return none, state, nil
	}

	index := window.End() - 1
	if index <= state.BarIndex {
		return none, state, errors.NewInvariantViolationError(state.InstrumentID, index, "bars must be evaluated in increasing order")
	}

	reading := s.read(window, bar, index, state.Pattern.Score)

	next := state
	next.BarIndex = index
	next.Pattern = types.PatternState{
		Segments:       reading.contraction.Segments,
		SegmentCount:   reading.contraction.Count,
		Tightening:     reading.contraction.Tightening,
		TrendQualified: reading.trend.Qualified,
		VolumeRatio:    reading.volume.Ratio,
		VolumeDry:      reading.volume.Dry,
		Score:          reading.score.Score,
		PrevScore:      reading.prevScore,
	}

	if next.Position.Open {
		next.BarsHeld++

		conditions := s.sellConditions(reading, next)
		if len(conditions) == 0 {
			return none, next, nil
		}

		event := s.newEvent(types.SignalTypeSell, reading, conditions)
		addExitValues(event.IndicatorValues, next, bar.Close)

		closed, err := ClosePosition(next, index)
		if err != nil {
			return none, state, err
		}

		return optional.Some(event), closed, nil
	}

	crossed := reading.prevScore < s.config.BuyThreshold && reading.score.Score >= s.config.BuyThreshold
	if !crossed {
		return none, next, nil
	}

	base, ok := s.baseConditions(reading)
	if !ok {
		return none, next, nil
	}

	event := s.newEvent(types.SignalTypeBuy, reading, s.buyConditions(reading, base))

	opened, err := OpenPosition(next, bar, index)
	if err != nil {
		return none, state, err
	}

	return optional.Some(event), opened, nil
}

func (s *ContractionStrategy) read(window types.BarWindow, bar types.Bar, index int, prevScore float64) contractionReading {
	view := window.Tail(s.config.LookbackBars)
	contraction := indicator.AnalyzeContractions(indicator.DetectExtrema(view, s.config.ExtremaRadius), s.config.contraction())
	trend := indicator.EvaluateTrend(window, s.config.trend())
	volume := indicator.EvaluateVolume(window, s.config.volume())

	score := indicator.CompositeScore(indicator.ScoreInputs{
		SegmentCount:   contraction.Count,
		Tightening:     contraction.Tightening,
		VolumeRatio:    volume.Ratio,
		TrendQualified: trend.Qualified,
	}, s.config.score())

	reading := contractionReading{
		bar:         bar,
		index:       index,
		contraction: contraction,
		trend:       trend,
		volume:      volume,
		score:       score,
		prevScore:   prevScore,
		ema:         0,
		emaBroken:   false,
	}

	if s.config.EMASellPeriod > 0 {
		reading.emaBroken, reading.ema = indicator.CrossedBelow(view, s.config.EMASellPeriod)
	}

	return reading
}

// baseBars is the base duration from the first retained peak through the current bar.
func (r contractionReading) baseBars() int {
	if len(r.contraction.Segments) == 0 {
		return 0
	}

	return r.index - r.contraction.Segments[0].StartIndex + 1
}

// baseConditions checks the enabled depth and duration limits of the base.
// ok is false when any of them fails.
func (s *ContractionStrategy) baseConditions(r contractionReading) ([]string, bool) {
	conditions := make([]string, 0, 3)

	enabled := s.config.MaxFirstDepth > 0 || s.config.MaxLastDepth > 0 || s.config.MinWeeks > 0
	if !enabled {
		return conditions, true
	}

	segments := r.contraction.Segments
	if len(segments) == 0 {
		return nil, false
	}

	if limit := s.config.MaxFirstDepth; limit > 0 {
		depth := segments[0].Depth
		if depth > limit {
			return nil, false
		}

		conditions = append(conditions, fmt.Sprintf("first contraction: %.2f ≤ %.2f", depth, limit))
	}

	if limit := s.config.MaxLastDepth; limit > 0 {
		depth := segments[len(segments)-1].Depth
		if depth > limit {
			return nil, false
		}

		conditions = append(conditions, fmt.Sprintf("last contraction: %.2f ≤ %.2f", depth, limit))
	}

	if s.config.MinWeeks > 0 {
		bars, minimum := r.baseBars(), s.config.MinWeeks*barsPerWeek
		if bars < minimum {
			return nil, false
		}

		conditions = append(conditions, fmt.Sprintf("base duration: %d ≥ %d bars", bars, minimum))
	}

	return conditions, true
}

func (s *ContractionStrategy) buyConditions(r contractionReading, base []string) []string {
	conditions := []string{"trend qualification: true"}

	if r.contraction.Count >= s.config.MinContractions {
		conditions = append(conditions, fmt.Sprintf("contractions: %d ≥ %d", r.contraction.Count, s.config.MinContractions))
	}

	if r.contraction.Tightening {
		conditions = append(conditions, "tightening: depths non-increasing")
	}

	conditions = append(conditions, base...)

	if r.volume.Dry {
		conditions = append(conditions, fmt.Sprintf("volume ratio: %.2f < %.2f", r.volume.Ratio, s.config.DryUpThreshold))
	}

	conditions = append(conditions, fmt.Sprintf("score: %.2f crossed above %.2f (previous %.2f)", r.score.Score, s.config.BuyThreshold, r.prevScore))

	return conditions
}

// sellConditions lists every exit rule that holds; an empty list keeps the position open.
func (s *ContractionStrategy) sellConditions(r contractionReading, state State) []string {
	conditions := make([]string, 0, 4)

	if r.score.Score < s.config.SellThreshold {
		conditions = append(conditions, fmt.Sprintf("score: %.2f < %.2f", r.score.Score, s.config.SellThreshold))
	}

	if trough, ok := state.Pattern.LastTrough(); ok && r.bar.Close < trough {
		conditions = append(conditions, fmt.Sprintf("close %.2f < last trough %.2f", r.bar.Close, trough))
	}

	if r.emaBroken {
		conditions = append(conditions, fmt.Sprintf("close %.2f crossed below %s %.2f",
			r.bar.Close, types.ExponentialMovingAverageKey(s.config.EMASellPeriod), r.ema))
	}

	if s.config.MaxHoldingBars > 0 && state.BarsHeld >= s.config.MaxHoldingBars {
		conditions = append(conditions, fmt.Sprintf("holding period: %d ≥ %d bars", state.BarsHeld, s.config.MaxHoldingBars))
	}

	return conditions
}

func (s *ContractionStrategy) newEvent(signalType types.SignalType, r contractionReading, conditions []string) types.SignalEvent {
	return types.SignalEvent{
		Time:              r.bar.Time,
		InstrumentID:      r.bar.InstrumentID,
		Type:              signalType,
		StrategyName:      s.Name(),
		Price:             r.bar.Close,
		IndicatorValues:   s.snapshot(r),
		TriggerConditions: conditions,
		RunID:             "",
	}
}

func (s *ContractionStrategy) snapshot(r contractionReading) map[string]float64 {
	values := map[string]float64{
		types.IndicatorKeyClose:           r.bar.Close,
		types.IndicatorKeyScore:           r.score.Score,
		types.IndicatorKeyPrevScore:       r.prevScore,
		types.IndicatorKeyCountScore:      r.score.CountScore,
		types.IndicatorKeyTighteningScore: r.score.TighteningScore,
		types.IndicatorKeyVolumeScore:     r.score.VolumeScore,
		types.IndicatorKeySegmentCount:    float64(r.contraction.Count),
		types.IndicatorKeyTightening:      types.BoolValue(r.contraction.Tightening),
		types.IndicatorKeyTrendQualified:  types.BoolValue(r.trend.Qualified),
		types.IndicatorKeyVolumeRatio:     r.volume.Ratio,
		types.IndicatorKeyVolumeShortMean: r.volume.ShortMean,
		types.IndicatorKeyVolumeBaseline:  r.volume.BaselineMean,
		types.IndicatorKeyMaxHigh:         r.trend.MaxHigh,
		types.IndicatorKeyBuyThreshold:    s.config.BuyThreshold,
		types.IndicatorKeySellThreshold:   s.config.SellThreshold,
	}

	for period, value := range r.trend.MovingAverages {
		values[types.MovingAverageKey(period)] = value
	}

	for i, segment := range r.contraction.Segments {
		values[types.SegmentDepthKey(i)] = segment.Depth
	}

	if n := len(r.contraction.Segments); n > 0 {
		values[types.IndicatorKeyLastTrough] = r.contraction.Segments[n-1].EndPrice
		values[types.IndicatorKeyBaseBars] = float64(r.baseBars())
	}

	if r.ema > 0 {
		values[types.ExponentialMovingAverageKey(s.config.EMASellPeriod)] = r.ema
	}

	return values
}

// addExitValues records the holding period and the trade return on a sell snapshot.
func addExitValues(values map[string]float64, state State, exitPrice float64) {
	values[types.IndicatorKeyBarsHeld] = float64(state.BarsHeld)
	values[types.IndicatorKeyEntryPrice] = state.Position.EntryPrice
	values[types.IndicatorKeyReturnPct] = ReturnPct(state.Position.EntryPrice, exitPrice)
}

// ReturnPct returns the percentage return from entry to exit, rounded to 6 places.
func ReturnPct(entry float64, exit float64) float64 {
	if entry == 0 {
		return 0
	}

	entryPrice := decimal.NewFromFloat(entry)
	change := decimal.NewFromFloat(exit).Sub(entryPrice)

	return change.Div(entryPrice).Mul(decimal.NewFromInt(100)).Round(6).InexactFloat64()
}
