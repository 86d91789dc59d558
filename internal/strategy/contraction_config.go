package strategy

import (
	"bytes"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-contraction/internal/indicator"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ContractionConfig is the full calibration of the contraction strategy.
// Absent YAML keys keep their DefaultContractionConfig value.
type ContractionConfig struct {
	ExtremaRadius       int     `yaml:"extrema_radius" json:"extrema_radius" validate:"min=1" jsonschema:"title=Extrema Radius,description=Bars on each side a peak or trough must dominate,minimum=1,default=10"`
	MinAmplitude        float64 `yaml:"min_amplitude" json:"min_amplitude" validate:"min=0,max=1" jsonschema:"title=Minimum Amplitude,description=Pullbacks shallower than this depth fraction are ignored,minimum=0,maximum=1,default=0.02"`
	MaxSegments         int     `yaml:"max_segments" json:"max_segments" validate:"min=1" jsonschema:"title=Retained Segments,description=Number of most recent contractions kept,minimum=1,default=4"`
	TighteningTolerance float64 `yaml:"tightening_tolerance" json:"tightening_tolerance" validate:"min=0" jsonschema:"title=Tightening Tolerance,description=How much a depth may exceed the previous one and still count as tightening,minimum=0,default=0"`
	LookbackBars        int     `yaml:"lookback_bars" json:"lookback_bars" validate:"min=1" jsonschema:"title=Lookback Bars,description=Trailing bars scanned for contractions,minimum=1,default=252"`
	MaxFirstDepth       float64 `yaml:"max_contraction_depth" json:"max_contraction_depth" validate:"min=0,max=1" jsonschema:"title=Maximum First Depth,description=Deepest allowed first retained pullback as a fraction; 0 disables the check,minimum=0,maximum=1,default=0"`
	MaxLastDepth        float64 `yaml:"min_contraction_depth" json:"min_contraction_depth" validate:"min=0,max=1" jsonschema:"title=Maximum Last Depth,description=Deepest allowed most recent pullback as a fraction; 0 disables the check,minimum=0,maximum=1,default=0"`
	MinWeeks            int     `yaml:"min_weeks" json:"min_weeks" validate:"min=0" jsonschema:"title=Minimum Base Weeks,description=Minimum base duration in weeks of five bars from the first retained peak; 0 disables the check,minimum=0,default=0"`

	MAPeriods    []int   `yaml:"ma_periods" json:"ma_periods" validate:"required,min=1,dive,min=1" jsonschema:"title=Moving Average Periods,description=Periods of the trend moving averages; the longest is the long-horizon average"`
	ProximityPct float64 `yaml:"proximity_pct" json:"proximity_pct" validate:"min=0,max=1" jsonschema:"title=Proximity To High,description=Maximum distance below the trailing high as a fraction,minimum=0,maximum=1,default=0.25"`
	HighLookback int     `yaml:"high_lookback" json:"high_lookback" validate:"min=1" jsonschema:"title=High Lookback,description=Bars used for the trailing high and low,minimum=1,default=252"`
	SlopePeriod  int     `yaml:"slope_period" json:"slope_period" validate:"min=0" jsonschema:"title=Slope Period,description=Bars over which the long moving average must rise; 0 disables the check,minimum=0,default=20"`
	AboveLowPct  float64 `yaml:"above_low_pct" json:"above_low_pct" validate:"min=0" jsonschema:"title=Above Low,description=Minimum distance above the trailing low as a fraction; 0 disables the check,minimum=0,default=0.3"`

	VolumeShortWindow    int     `yaml:"volume_short_window" json:"volume_short_window" validate:"min=1" jsonschema:"title=Short Volume Window,minimum=1,default=5"`
	VolumeBaselineWindow int     `yaml:"volume_baseline_window" json:"volume_baseline_window" validate:"min=1,gtefield=VolumeShortWindow" jsonschema:"title=Baseline Volume Window,minimum=1,default=30"`
	DryUpThreshold       float64 `yaml:"dry_up_threshold" json:"dry_up_threshold" validate:"gt=0" jsonschema:"title=Dry-Up Threshold,description=Volume ratio below which volume is considered dry,exclusiveMinimum=0,default=0.5"`

	TargetCount      int     `yaml:"target_count" json:"target_count" validate:"min=1" jsonschema:"title=Target Count,description=Contraction count at which the count sub-score saturates,minimum=1,default=3"`
	MinContractions  int     `yaml:"min_contractions" json:"min_contractions" validate:"min=1" jsonschema:"title=Minimum Contractions,description=Contraction count reported as a trigger condition,minimum=1,default=2"`
	CountWeight      float64 `yaml:"count_weight" json:"count_weight" validate:"min=0" jsonschema:"title=Count Weight,minimum=0,default=0.5"`
	TighteningWeight float64 `yaml:"tightening_weight" json:"tightening_weight" validate:"min=0" jsonschema:"title=Tightening Weight,minimum=0,default=0.2"`
	VolumeWeight     float64 `yaml:"volume_weight" json:"volume_weight" validate:"min=0" jsonschema:"title=Volume Weight,minimum=0,default=0.3"`

	BuyThreshold   float64 `yaml:"buy_threshold" json:"buy_threshold" validate:"gt=0,max=1" jsonschema:"title=Buy Threshold,description=Score that must be crossed upwards to open a position,maximum=1,default=0.8"`
	SellThreshold  float64 `yaml:"sell_threshold" json:"sell_threshold" validate:"min=0,max=1" jsonschema:"title=Sell Threshold,description=Score below which the open position is closed,minimum=0,maximum=1,default=0.3"`
	MaxHoldingBars int     `yaml:"max_holding_bars" json:"max_holding_bars" validate:"min=0" jsonschema:"title=Max Holding Bars,description=Bars after which the open position is closed; 0 disables the limit,minimum=0,default=60"`
	EMASellPeriod  int     `yaml:"ema_sell_period" json:"ema_sell_period" validate:"omitempty,min=2" jsonschema:"title=EMA Sell Period,description=Close the position when the close crosses below this exponential moving average; 0 disables the exit,minimum=0,default=0"`
}

// DefaultContractionConfig returns the documented defaults.
func DefaultContractionConfig() ContractionConfig {
	return ContractionConfig{
		ExtremaRadius:        10,
		MinAmplitude:         0.02,
		MaxSegments:          4,
		TighteningTolerance:  0,
		LookbackBars:         252,
		MaxFirstDepth:        0,
		MaxLastDepth:         0,
		MinWeeks:             0,
		MAPeriods:            []int{50, 150, 200},
		ProximityPct:         0.25,
		HighLookback:         252,
		SlopePeriod:          20,
		AboveLowPct:          0.30,
		VolumeShortWindow:    5,
		VolumeBaselineWindow: 30,
		DryUpThreshold:       0.5,
		TargetCount:          3,
		MinContractions:      2,
		CountWeight:          0.5,
		TighteningWeight:     0.2,
		VolumeWeight:         0.3,
		BuyThreshold:         0.8,
		SellThreshold:        0.3,
		MaxHoldingBars:       60,
		EMASellPeriod:        0,
	}
}

// ParseContractionConfig decodes YAML on top of the defaults and validates the result.
// Empty input yields the defaults.
func ParseContractionConfig(data []byte) (ContractionConfig, error) {
	config := DefaultContractionConfig()

	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return ContractionConfig{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse contraction config", err)
		}
	}

	if err := config.Validate(); err != nil {
		return ContractionConfig{}, err
	}

	return config, nil
}

// Validate checks field ranges and the cross-field rules.
func (c ContractionConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid contraction config", err)
	}

	if c.CountWeight+c.TighteningWeight+c.VolumeWeight <= 0 {
		return errors.New(errors.ErrCodeInvalidWeights, "score weights must not all be zero")
	}

	if c.SellThreshold >= c.BuyThreshold {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "sell threshold %.2f must be below buy threshold %.2f", c.SellThreshold, c.BuyThreshold)
	}

	return nil
}

// ContractionConfigSchema returns the JSON schema of the contraction config.
func ContractionConfigSchema() (string, error) {
	return ToJSONSchema(ContractionConfig{})
}

func (c ContractionConfig) contraction() indicator.ContractionConfig {
	return indicator.ContractionConfig{
		MinAmplitude: c.MinAmplitude,
		MaxSegments:  c.MaxSegments,
		Tolerance:    c.TighteningTolerance,
	}
}

func (c ContractionConfig) trend() indicator.TrendConfig {
	return indicator.TrendConfig{
		MAPeriods:    c.MAPeriods,
		ProximityPct: c.ProximityPct,
		HighLookback: c.HighLookback,
		SlopePeriod:  c.SlopePeriod,
		AboveLowPct:  c.AboveLowPct,
	}
}

func (c ContractionConfig) volume() indicator.VolumeConfig {
	return indicator.VolumeConfig{
		ShortWindow:    c.VolumeShortWindow,
		BaselineWindow: c.VolumeBaselineWindow,
		DryUpThreshold: c.DryUpThreshold,
	}
}

func (c ContractionConfig) score() indicator.ScoreConfig {
	return indicator.ScoreConfig{
		TargetCount:      c.TargetCount,
		CountWeight:      c.CountWeight,
		TighteningWeight: c.TighteningWeight,
		VolumeWeight:     c.VolumeWeight,
		DryUpThreshold:   c.DryUpThreshold,
	}
}
