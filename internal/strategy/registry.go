package strategy

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-contraction/pkg/errors"
)

// StrategyRegistry manages the strategies active in a run.
type StrategyRegistry interface {
	RegisterStrategy(strategy Strategy) error
	GetStrategy(name string) (Strategy, error)
	// ListStrategies returns the registered names in lexical order
	ListStrategies() []string
	RemoveStrategy(name string) error
}

// StrategyRegistryV1 is a StrategyRegistry safe for concurrent use.
type StrategyRegistryV1 struct {
	strategies map[string]Strategy
	mu         sync.RWMutex
}

// NewStrategyRegistry creates an empty strategy registry.
func NewStrategyRegistry() StrategyRegistry {
	return &StrategyRegistryV1{
		strategies: make(map[string]Strategy),
		mu:         sync.RWMutex{},
	}
}

// RegisterStrategy adds a strategy to the registry.
func (r *StrategyRegistryV1) RegisterStrategy(strategy Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strategy.Name()
	if _, exists := r.strategies[name]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "RegisterStrategy: strategy with name %s already registered", name)
	}

	r.strategies[name] = strategy

	return nil
}

// GetStrategy retrieves a strategy by name.
func (r *StrategyRegistryV1) GetStrategy(name string) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	strategy, exists := r.strategies[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "GetStrategy: strategy with name %s not found", name)
	}

	return strategy, nil
}

// ListStrategies returns a list of all registered strategy names.
func (r *StrategyRegistryV1) ListStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// RemoveStrategy removes a strategy from the registry.
func (r *StrategyRegistryV1) RemoveStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; !exists {
		return errors.Newf(errors.ErrCodeStrategyNotFound, "RemoveStrategy: strategy with name %s not found", name)
	}

	delete(r.strategies, name)

	return nil
}
