package strategy

import (
	"slices"

	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// BuiltinStrategies returns the names NewStrategyFromConfig understands.
func BuiltinStrategies() []string {
	names := []string{ContractionStrategyName, VolumeBreakoutStrategyName}
	slices.Sort(names)

	return names
}

// NewStrategyFromConfig builds a builtin strategy from its YAML config.
func NewStrategyFromConfig(name string, config []byte) (Strategy, error) {
	switch name {
	case ContractionStrategyName:
		cfg, err := ParseContractionConfig(config)
		if err != nil {
			return nil, err
		}

		strategy, err := NewContractionStrategy(cfg)
		if err != nil {
			return nil, err
		}

		return strategy, nil
	case VolumeBreakoutStrategyName:
		cfg, err := ParseVolumeBreakoutConfig(config)
		if err != nil {
			return nil, err
		}

		strategy, err := NewVolumeBreakoutStrategy(cfg)
		if err != nil {
			return nil, err
		}

		return strategy, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q, expected one of %v", name, BuiltinStrategies())
	}
}

// ConfigSchema returns the JSON schema of a builtin strategy's config.
func ConfigSchema(name string) (string, error) {
	switch name {
	case ContractionStrategyName:
		return ContractionConfigSchema()
	case VolumeBreakoutStrategyName:
		return VolumeBreakoutConfigSchema()
	default:
		return "", errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q, expected one of %v", name, BuiltinStrategies())
	}
}
