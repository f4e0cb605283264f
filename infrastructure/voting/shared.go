// Package voting provides the built-in aggregation strategies that reduce
// juror evaluations to a single winning response.
//
// Every strategy is a pure, synchronous computation over an in-memory slice.
// Strategies are stateless and safe for concurrent use.
package voting

import (
	"github.com/ahrav/go-jury/internal/domain"
)

// responseUniverse checks the preconditions shared by every built-in
// strategy and returns the union of scored response ids in first-seen order.
func responseUniverse(evaluations []domain.JurorEvaluation) ([]string, error) {
	if len(evaluations) == 0 {
		return nil, domain.ErrEmptyInput
	}
	ids := domain.ResponseIDs(evaluations)
	if len(ids) == 0 {
		return nil, domain.ErrNoResponses
	}
	return ids, nil
}

// argmax returns the id in ids with the highest score. Ids absent from
// scores are skipped. Ties resolve to the id that appears first in ids.
func argmax[V int | float64](ids []string, scores map[string]V) string {
	var (
		best      string
		bestScore V
		found     bool
	)
	for _, id := range ids {
		s, ok := scores[id]
		if !ok {
			continue
		}
		if !found || s > bestScore {
			best, bestScore, found = id, s, true
		}
	}
	return best
}

// meanTotals returns, per response, the arithmetic mean of every juror's
// total. Jurors that did not score a response contribute 0.
func meanTotals(ids []string, evaluations []domain.JurorEvaluation) map[string]float64 {
	n := float64(len(evaluations))
	means := make(map[string]float64, len(ids))
	for _, id := range ids {
		var sum float64
		for _, e := range evaluations {
			sum += e.Total(id)
		}
		means[id] = sum / n
	}
	return means
}
