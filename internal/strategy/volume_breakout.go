package strategy

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-contraction/internal/indicator"
	"github.com/rxtech-lab/argo-contraction/internal/types"
	"github.com/rxtech-lab/argo-contraction/pkg/errors"
	"gopkg.in/yaml.v3"
)

// VolumeBreakoutStrategyName is the registry name of the volume breakout strategy.
const VolumeBreakoutStrategyName = "volume_breakout"

// VolumeBreakoutConfig configures the volume breakout strategy.
type VolumeBreakoutConfig struct {
	BreakoutLookback int     `yaml:"breakout_lookback" json:"breakout_lookback" validate:"min=1" jsonschema:"title=Breakout Lookback,description=Prior bars whose highest high must be exceeded,minimum=1,default=20"`
	VolumeWindow     int     `yaml:"volume_window" json:"volume_window" validate:"min=1" jsonschema:"title=Volume Window,description=Prior bars averaged for the volume baseline,minimum=1,default=20"`
	VolumeMultiplier float64 `yaml:"volume_multiplier" json:"volume_multiplier" validate:"gt=0" jsonschema:"title=Volume Multiplier,description=Multiple of the baseline volume that counts as a spike,default=2"`
	ExitMAPeriod     int     `yaml:"exit_ma_period" json:"exit_ma_period" validate:"min=1" jsonschema:"title=Exit MA Period,description=A close below this moving average closes the position,minimum=1,default=10"`
	MaxHoldingBars   int     `yaml:"max_holding_bars" json:"max_holding_bars" validate:"min=0" jsonschema:"title=Max Holding Bars,description=Bars after which the position is closed; 0 disables the limit,minimum=0,default=20"`
}

// DefaultVolumeBreakoutConfig returns the documented defaults.
func DefaultVolumeBreakoutConfig() VolumeBreakoutConfig {
	return VolumeBreakoutConfig{
		BreakoutLookback: 20,
		VolumeWindow:     20,
		VolumeMultiplier: 2,
		ExitMAPeriod:     10,
		MaxHoldingBars:   20,
	}
}

// ParseVolumeBreakoutConfig decodes YAML on top of the defaults and validates the result.
func ParseVolumeBreakoutConfig(data []byte) (VolumeBreakoutConfig, error) {
	config := DefaultVolumeBreakoutConfig()

	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return VolumeBreakoutConfig{}, errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to parse volume breakout config", err)
		}
	}

	if err := config.Validate(); err != nil {
		return VolumeBreakoutConfig{}, err
	}

	return config, nil
}

// Validate checks field ranges.
func (c VolumeBreakoutConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid volume breakout config", err)
	}

	return nil
}

// VolumeBreakoutConfigSchema returns the JSON schema of the volume breakout config.
func VolumeBreakoutConfigSchema() (string, error) {
	return ToJSONSchema(VolumeBreakoutConfig{})
}

// VolumeBreakoutStrategy buys a close above the prior high on a volume spike and
// sells on a close below the exit moving average or after the holding limit.
type VolumeBreakoutStrategy struct {
	config VolumeBreakoutConfig
}

// NewVolumeBreakoutStrategy creates the strategy after validating its config.
func NewVolumeBreakoutStrategy(config VolumeBreakoutConfig) (*VolumeBreakoutStrategy, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &VolumeBreakoutStrategy{config: config}, nil
}

// Name returns the strategy name.
func (s *VolumeBreakoutStrategy) Name() string {
	return VolumeBreakoutStrategyName
}

// Evaluate checks the breakout entry while flat and the exits while long.
func (s *VolumeBreakoutStrategy) Evaluate(window types.BarWindow, state State) (optional.Option[types.SignalEvent], State, error) {
	none := optional.None[types.SignalEvent]()

	bar, ok := window.Last()
	if !ok {
		return none, state, nil
	}

	index := window.End() - 1
	if index <= state.BarIndex {
		return none, state, errors.NewInvariantViolationError(state.InstrumentID, index, "bars must be evaluated in increasing order")
	}

	next := state
	next.BarIndex = index

	exitMA, hasExitMA := indicator.SimpleMovingAverage(window, s.config.ExitMAPeriod)

	if next.Position.Open {
		next.BarsHeld++

		conditions := make([]string, 0, 2)
		if hasExitMA && bar.Close < exitMA {
			conditions = append(conditions, fmt.Sprintf("close %.2f < %s %.2f", bar.Close, types.MovingAverageKey(s.config.ExitMAPeriod), exitMA))
		}

		if s.config.MaxHoldingBars > 0 && next.BarsHeld >= s.config.MaxHoldingBars {
			conditions = append(conditions, fmt.Sprintf("holding period: %d ≥ %d bars", next.BarsHeld, s.config.MaxHoldingBars))
		}

		if len(conditions) == 0 {
			return none, next, nil
		}

		values := map[string]float64{
			types.IndicatorKeyClose:  bar.Close,
			types.IndicatorKeyExitMA: exitMA,
		}
		addExitValues(values, next, bar.Close)

		closed, err := ClosePosition(next, index)
		if err != nil {
			return none, state, err
		}

		return optional.Some(s.newEvent(types.SignalTypeSell, bar, values, conditions)), closed, nil
	}

	// the breakout is measured against the bars before the current one
	prior := window.Prefix(window.Len() - 1)
	if prior.Len() < max(s.config.BreakoutLookback, s.config.VolumeWindow) {
		return none, next, nil
	}

	breakoutLevel := prior.MaxHigh(s.config.BreakoutLookback)
	volumeMean, _ := indicator.MeanVolume(prior, s.config.VolumeWindow)

	if bar.Close <= breakoutLevel || bar.Volume <= s.config.VolumeMultiplier*volumeMean {
		return none, next, nil
	}

	values := map[string]float64{
		types.IndicatorKeyClose:         bar.Close,
		types.IndicatorKeyBreakoutLevel: breakoutLevel,
		types.IndicatorKeyVolume:        bar.Volume,
		types.IndicatorKeyVolumeMean:    volumeMean,
	}
	if hasExitMA {
		values[types.IndicatorKeyExitMA] = exitMA
	}

	conditions := []string{
		fmt.Sprintf("close %.2f > %d-bar high %.2f", bar.Close, s.config.BreakoutLookback, breakoutLevel),
		fmt.Sprintf("volume %.0f > %.1f × mean %.0f", bar.Volume, s.config.VolumeMultiplier, volumeMean),
	}

	opened, err := OpenPosition(next, bar, index)
	if err != nil {
		return none, state, err
	}

	return optional.Some(s.newEvent(types.SignalTypeBuy, bar, values, conditions)), opened, nil
}

func (s *VolumeBreakoutStrategy) newEvent(signalType types.SignalType, bar types.Bar, values map[string]float64, conditions []string) types.SignalEvent {
	return types.SignalEvent{
		Time:              bar.Time,
		InstrumentID:      bar.InstrumentID,
		Type:              signalType,
		StrategyName:      s.Name(),
		Price:             bar.Close,
		IndicatorValues:   values,
		TriggerConditions: conditions,
		RunID:             "",
	}
}
