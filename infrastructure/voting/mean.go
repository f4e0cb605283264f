package voting

import (
	"github.com/ahrav/go-jury/internal/domain"
)

var (
	_ domain.Strategy = Average{}
	_ domain.Strategy = Ranked{}
	_ domain.Strategy = Consensus{}
)

// Average ranks responses by the mean of every juror's total. Juror weight
// is ignored.
type Average struct{}

// Compute implements domain.Strategy.
func (Average) Compute(evaluations []domain.JurorEvaluation) (domain.VotingResult, error) {
	ids, err := responseUniverse(evaluations)
	if err != nil {
		return domain.VotingResult{}, err
	}
	scores := meanTotals(ids, evaluations)
	return domain.VotingResult{
		Winner:        argmax(ids, scores),
		Method:        domain.VotingAverage,
		AverageScores: scores,
	}, nil
}

// Ranked is reported as its own method but currently uses the same
// arithmetic mean as Average.
type Ranked struct{}

// Compute implements domain.Strategy.
func (Ranked) Compute(evaluations []domain.JurorEvaluation) (domain.VotingResult, error) {
	ids, err := responseUniverse(evaluations)
	if err != nil {
		return domain.VotingResult{}, err
	}
	scores := meanTotals(ids, evaluations)
	return domain.VotingResult{
		Winner:       argmax(ids, scores),
		Method:       domain.VotingRanked,
		RankedScores: scores,
	}, nil
}

// Consensus is reported as its own method and ranks responses by the same
// arithmetic mean as Average. It does not require jurors to agree.
type Consensus struct{}

// Compute implements domain.Strategy.
func (Consensus) Compute(evaluations []domain.JurorEvaluation) (domain.VotingResult, error) {
	ids, err := responseUniverse(evaluations)
	if err != nil {
		return domain.VotingResult{}, err
	}
	scores := meanTotals(ids, evaluations)
	return domain.VotingResult{
		Winner:          argmax(ids, scores),
		Method:          domain.VotingConsensus,
		ConsensusScores: scores,
	}, nil
}
