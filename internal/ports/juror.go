package ports

import (
	"context"

	"github.com/ahrav/go-jury/internal/domain"
)

// JurorResult is one juror's detailed scoring of every candidate response.
// Both maps are keyed by response id, then criterion name.
type JurorResult struct {
	// Scores holds the numeric score per response and criterion.
	Scores map[string]map[string]float64

	// Explanations holds the juror's reasoning per response and criterion.
	Explanations map[string]map[string]string

	// Comments holds the juror's overall comment per response.
	Comments map[string]string
}

// Juror is an independent evaluator that scores candidate responses on a
// set of criteria.
// Implementations must be safe for concurrent use by separate evaluation
// rounds.
type Juror interface {
	// Name identifies the juror within a jury.
	Name() string

	// Weight is the juror's relative influence in weighted voting.
	Weight() float64

	// Model names the model backing the juror, if any.
	Model() string

	// Evaluate scores every response on every criterion. An error means the
	// juror produced no usable result for this round.
	Evaluate(
		ctx context.Context,
		prompt string,
		responses []domain.ResponseCandidate,
		criteria []domain.Criterion,
	) (JurorResult, error)
}

// StrategyRegistry holds externally supplied voting strategies by name.
// Implementations must serialize mutation and lookup.
type StrategyRegistry interface {
	// Register inserts or replaces the strategy stored under name.
	Register(name string, strategy domain.Strategy) error

	// Unregister removes name if present.
	Unregister(name string)

	// List returns a snapshot of the registered names in sorted order.
	List() []string

	// Has reports whether name is registered.
	Has(name string) bool

	// Invoke runs the named strategy and checks its result.
	Invoke(name string, evaluations []domain.JurorEvaluation) (domain.VotingResult, error)
}
