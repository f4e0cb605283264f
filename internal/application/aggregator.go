package application

import (
	"fmt"

	"github.com/ahrav/go-jury/infrastructure/voting"
	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

// VotingAggregator is the single entry point that turns juror evaluations
// into a VotingResult. It routes the five built-in methods to their
// strategies and delegates custom voting to a shared StrategyRegistry.
// VotingAggregator is stateless apart from the registry reference and is
// safe for concurrent use.
type VotingAggregator struct {
	builtins map[domain.VotingMethod]domain.Strategy
	registry ports.StrategyRegistry
}

// NewVotingAggregator creates an aggregator that resolves custom strategies
// through registry. A nil registry gets a fresh empty one.
func NewVotingAggregator(registry ports.StrategyRegistry) *VotingAggregator {
	if registry == nil {
		registry = NewStrategyRegistry()
	}
	return &VotingAggregator{
		builtins: voting.Builtins(),
		registry: registry,
	}
}

// Registry returns the registry used for custom voting.
func (a *VotingAggregator) Registry() ports.StrategyRegistry { return a.registry }

// Aggregate reduces evaluations to a VotingResult using method.
// strategyName selects the registered strategy for domain.VotingCustom and
// is ignored otherwise. Evaluations must be passed in a stable order since
// ties resolve to the response seen first.
func (a *VotingAggregator) Aggregate(
	evaluations []domain.JurorEvaluation,
	method domain.VotingMethod,
	strategyName string,
) (domain.VotingResult, error) {
	if method == domain.VotingCustom {
		if strategyName == "" {
			return domain.VotingResult{}, domain.ErrMissingStrategyName
		}
		return a.registry.Invoke(strategyName, evaluations)
	}

	strategy, ok := a.builtins[method]
	if !ok {
		return domain.VotingResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}
	return strategy.Compute(evaluations)
}
