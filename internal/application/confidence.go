package application

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/ahrav/go-jury/internal/domain"
)

// CustomFallbackConfidence is reported for custom results that score fewer
// than two responses.
const CustomFallbackConfidence = 0.75

// Confidence measures how dominant the winner of result is, in [0, 1].
//
// Majority reports the winner's share of all votes cast. Scalar methods
// report (top - second) / top, capped at 1, and 1 whenever there is no
// rival or the top score is not positive. Custom results with fewer than
// two scores fall back to CustomFallbackConfidence.
func Confidence(result domain.VotingResult) (float64, error) {
	switch result.Method {
	case domain.VotingMajority:
		var total int
		for _, v := range result.VoteCounts {
			total += v
		}
		if total == 0 {
			return 0, nil
		}
		return float64(result.VoteCounts[result.Winner]) / float64(total), nil

	case domain.VotingAverage, domain.VotingWeighted, domain.VotingRanked, domain.VotingConsensus:
		top, second, ok := topTwo(result.Scores())
		if !ok {
			return 1.0, nil
		}
		return dominance(top, second), nil

	case domain.VotingCustom:
		top, second, ok := topTwo(result.CustomScores)
		if !ok {
			return CustomFallbackConfidence, nil
		}
		return dominance(top, second), nil

	default:
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, result.Method)
	}
}

// Margin returns the raw gap between the two highest scores in the result's
// scalar score map. It is nil for majority voting and when fewer than two
// responses were scored.
func Margin(result domain.VotingResult) *float64 {
	top, second, ok := topTwo(result.Scores())
	if !ok {
		return nil
	}
	m := top - second
	return &m
}

// NewFinalVerdict derives confidence and margin for result.
func NewFinalVerdict(result domain.VotingResult) (domain.FinalVerdict, error) {
	confidence, err := Confidence(result)
	if err != nil {
		return domain.FinalVerdict{}, err
	}
	return domain.FinalVerdict{
		Winner:        result.Winner,
		WinnerMargin:  Margin(result),
		VotingMethod:  result.Method,
		VotingDetails: result,
		Confidence:    confidence,
	}, nil
}

// topTwo returns the two highest values in scores. ok is false when there
// are fewer than two entries.
func topTwo(scores map[string]float64) (top, second float64, ok bool) {
	if len(scores) < 2 {
		return 0, 0, false
	}
	values := slices.SortedFunc(maps.Values(scores), func(a, b float64) int {
		return cmp.Compare(b, a)
	})
	return values[0], values[1], true
}

func dominance(top, second float64) float64 {
	if top <= 0 {
		return 1.0
	}
	return min((top-second)/top, 1.0)
}
