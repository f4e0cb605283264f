package application

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.StrategyRegistry = (*StrategyRegistry)(nil)

// Registration errors.
var (
	// ErrEmptyStrategyName is returned when registering under an empty name.
	ErrEmptyStrategyName = errors.New("strategy name cannot be empty")
	// ErrNilStrategy is returned when registering a nil strategy.
	ErrNilStrategy = errors.New("strategy cannot be nil")
)

// StrategyRegistry maps names to externally supplied voting strategies.
// One registry is owned by the top-level engine and shared by reference
// with every VotingAggregator built from it. Entries persist until they
// are explicitly unregistered.
//
// Registered strategies are untrusted in shape: every result returned by
// Invoke has been checked against the VotingResult contract.
type StrategyRegistry struct {
	// strategies maps registered names to their implementations.
	strategies map[string]domain.Strategy
	// mu protects concurrent access to the strategies map.
	mu sync.RWMutex
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{strategies: make(map[string]domain.Strategy)}
}

// Register stores strategy under name, replacing any previous entry.
// The last registration for a name wins.
func (r *StrategyRegistry) Register(name string, strategy domain.Strategy) error {
	if name == "" {
		return ErrEmptyStrategyName
	}
	if strategy == nil {
		return ErrNilStrategy
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[name] = strategy
	return nil
}

// RegisterFunc is a convenience wrapper around Register for plain functions.
func (r *StrategyRegistry) RegisterFunc(
	name string,
	fn func([]domain.JurorEvaluation) (domain.VotingResult, error),
) error {
	if fn == nil {
		return ErrNilStrategy
	}
	return r.Register(name, domain.StrategyFunc(fn))
}

// Unregister removes name. Removing an unknown name is a no-op.
func (r *StrategyRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.strategies, name)
}

// List returns the registered names, sorted, as of the time of the call.
func (r *StrategyRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.strategies))
}

// Has reports whether name is currently registered.
func (r *StrategyRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.strategies[name]
	return ok
}

// Invoke runs the strategy registered under name.
//
// The strategy is looked up under the read lock and executed after the lock
// is released, so a concurrent Unregister never affects a call that has
// already started. All failures are returned as *domain.StrategyError
// carrying the name.
func (r *StrategyRegistry) Invoke(
	name string,
	evaluations []domain.JurorEvaluation,
) (domain.VotingResult, error) {
	r.mu.RLock()
	strategy, ok := r.strategies[name]
	r.mu.RUnlock()

	if !ok {
		return domain.VotingResult{}, domain.NewStrategyError(name, domain.ErrUnknownStrategy)
	}

	result, err := safeCompute(strategy, evaluations)
	if err != nil {
		return domain.VotingResult{}, domain.NewStrategyError(name, err)
	}

	if err := checkStrategyResult(result, evaluations); err != nil {
		return domain.VotingResult{}, domain.NewStrategyError(name, err)
	}

	return result, nil
}

// safeCompute runs strategy and converts a panic into ErrInvalidStrategyResult.
func safeCompute(
	strategy domain.Strategy,
	evaluations []domain.JurorEvaluation,
) (result domain.VotingResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = domain.VotingResult{}
			err = fmt.Errorf("%w: strategy panicked: %v", domain.ErrInvalidStrategyResult, p)
		}
	}()
	return strategy.Compute(evaluations)
}

// checkStrategyResult enforces the VotingResult contract on a custom result:
// the winner is a scored response, the method is custom, no built-in score
// map is set, every custom score is finite and keyed by a scored response,
// and every custom data value holds a permitted variant.
func checkStrategyResult(result domain.VotingResult, evaluations []domain.JurorEvaluation) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidStrategyResult, fmt.Sprintf(format, args...))
	}

	if result.Method != domain.VotingCustom {
		return invalid("method %q, want %q", result.Method, domain.VotingCustom)
	}
	if result.Winner == "" {
		return invalid("winner is empty")
	}

	scored := make(map[string]struct{})
	for _, id := range domain.ResponseIDs(evaluations) {
		scored[id] = struct{}{}
	}
	if _, ok := scored[result.Winner]; !ok {
		return invalid("winner %q was not scored by any juror", result.Winner)
	}

	if result.VoteCounts != nil || result.AverageScores != nil || result.WeightedScores != nil ||
		result.RankedScores != nil || result.ConsensusScores != nil {
		return invalid("built-in score maps must not be set")
	}

	for id, s := range result.CustomScores {
		if _, ok := scored[id]; !ok {
			return invalid("custom score for unknown response %q", id)
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return invalid("custom score for %q is not finite", id)
		}
	}

	for k, v := range result.CustomData {
		if !v.IsValid() {
			return invalid("custom data %q holds no value", k)
		}
		if n, ok := v.Number(); ok && (math.IsNaN(n) || math.IsInf(n, 0)) {
			return invalid("custom data %q is not finite", k)
		}
	}

	return nil
}
