package voting

import (
	"github.com/ahrav/go-jury/internal/domain"
)

var _ domain.Strategy = Majority{}

// Majority gives each juror exactly one vote for the response with its
// highest total. The response with the most votes wins.
type Majority struct{}

// Compute implements domain.Strategy.
// Per-juror ties and vote-count ties both resolve to the response id seen
// first while scanning the evaluations.
func (Majority) Compute(evaluations []domain.JurorEvaluation) (domain.VotingResult, error) {
	ids, err := responseUniverse(evaluations)
	if err != nil {
		return domain.VotingResult{}, err
	}

	votes := make(map[string]int, len(ids))
	totals := make(map[string]float64, len(ids))
	for _, e := range evaluations {
		for _, id := range ids {
			totals[id] = e.Total(id)
		}
		votes[argmax(ids, totals)]++
	}

	return domain.VotingResult{
		Winner:     argmax(ids, votes),
		Method:     domain.VotingMajority,
		VoteCounts: votes,
	}, nil
}
