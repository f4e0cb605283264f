package voting

import (
	"github.com/ahrav/go-jury/internal/domain"
)

// Builtins returns a fresh map of the five built-in strategies keyed by
// method. VotingCustom is never present.
func Builtins() map[domain.VotingMethod]domain.Strategy {
	return map[domain.VotingMethod]domain.Strategy{
		domain.VotingMajority:  Majority{},
		domain.VotingAverage:   Average{},
		domain.VotingWeighted:  Weighted{},
		domain.VotingRanked:    Ranked{},
		domain.VotingConsensus: Consensus{},
	}
}
