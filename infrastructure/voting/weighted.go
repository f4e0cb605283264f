package voting

import (
	"github.com/ahrav/go-jury/internal/domain"
)

var _ domain.Strategy = Weighted{}

// Weighted ranks responses by sum(total * weight) / sum(weight) across all
// jurors. When the jurors' combined weight is zero every score is zero.
type Weighted struct{}

// Compute implements domain.Strategy.
func (Weighted) Compute(evaluations []domain.JurorEvaluation) (domain.VotingResult, error) {
	ids, err := responseUniverse(evaluations)
	if err != nil {
		return domain.VotingResult{}, err
	}

	var totalWeight float64
	for _, e := range evaluations {
		totalWeight += e.JurorWeight
	}

	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		if totalWeight <= 0 {
			scores[id] = 0
			continue
		}
		var sum float64
		for _, e := range evaluations {
			sum += e.Total(id) * e.JurorWeight
		}
		scores[id] = sum / totalWeight
	}

	return domain.VotingResult{
		Winner:         argmax(ids, scores),
		Method:         domain.VotingWeighted,
		WeightedScores: scores,
	}, nil
}
