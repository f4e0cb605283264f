package voting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/domain"
)

// eval builds an evaluation whose responses each carry a single "total"
// criterion, in the order given.
func eval(t *testing.T, name string, weight float64, scores ...any) domain.JurorEvaluation {
	t.Helper()
	require.Zero(t, len(scores)%2, "scores must be id/value pairs")

	var rs []domain.ResponseScore
	for i := 0; i < len(scores); i += 2 {
		rs = append(rs, domain.ResponseScore{
			ResponseID: scores[i].(string),
			Scores:     domain.CriterionScores{"total": scores[i+1].(float64)},
		})
	}
	e, err := domain.NewJurorEvaluation(name, weight, rs...)
	require.NoError(t, err)
	return e
}

func TestBuiltins_Preconditions(t *testing.T) {
	for method, strategy := range Builtins() {
		t.Run(string(method), func(t *testing.T) {
			_, err := strategy.Compute(nil)
			assert.ErrorIs(t, err, domain.ErrEmptyInput)

			_, err = strategy.Compute([]domain.JurorEvaluation{{JurorName: "a", JurorWeight: 1}})
			assert.ErrorIs(t, err, domain.ErrNoResponses)
		})
	}
}

func TestBuiltins_MethodAndSingleScoreMap(t *testing.T) {
	evals := []domain.JurorEvaluation{
		eval(t, "a", 1, "r1", 5.0, "r2", 3.0),
		eval(t, "b", 1, "r1", 2.0, "r2", 4.0),
	}

	for method, strategy := range Builtins() {
		t.Run(string(method), func(t *testing.T) {
			result, err := strategy.Compute(evals)
			require.NoError(t, err)
			assert.Equal(t, method, result.Method)
			assert.Contains(t, []string{"r1", "r2"}, result.Winner)

			populated := 0
			for _, m := range []bool{
				result.VoteCounts != nil,
				result.AverageScores != nil,
				result.WeightedScores != nil,
				result.RankedScores != nil,
				result.ConsensusScores != nil,
				result.CustomScores != nil,
				result.CustomData != nil,
			} {
				if m {
					populated++
				}
			}
			assert.Equal(t, 1, populated, "exactly one score map must be populated")
		})
	}
}

func TestMajority(t *testing.T) {
	tests := []struct {
		name       string
		evals      []domain.JurorEvaluation
		wantWinner string
		wantVotes  map[string]int
	}{
		{
			name: "clear majority",
			evals: []domain.JurorEvaluation{
				eval(t, "a", 1, "r1", 9.0, "r2", 3.0),
				eval(t, "b", 1, "r1", 8.0, "r2", 4.0),
				eval(t, "c", 1, "r1", 7.0, "r2", 5.0),
				eval(t, "d", 1, "r1", 1.0, "r2", 6.0),
			},
			wantWinner: "r1",
			wantVotes:  map[string]int{"r1": 3, "r2": 1},
		},
		{
			name: "per juror tie resolves to first seen",
			evals: []domain.JurorEvaluation{
				eval(t, "a", 1, "r1", 5.0, "r2", 5.0),
			},
			wantWinner: "r1",
			wantVotes:  map[string]int{"r1": 1},
		},
		{
			name: "vote tie resolves to first seen",
			evals: []domain.JurorEvaluation{
				eval(t, "a", 1, "r2", 1.0, "r1", 9.0),
				eval(t, "b", 1, "r2", 9.0, "r1", 1.0),
			},
			wantWinner: "r2",
			wantVotes:  map[string]int{"r1": 1, "r2": 1},
		},
		{
			name: "unscored response counts as zero",
			evals: []domain.JurorEvaluation{
				eval(t, "a", 1, "r1", 2.0),
				eval(t, "b", 1, "r2", 3.0),
				eval(t, "c", 1, "r2", 1.0),
			},
			wantWinner: "r2",
			wantVotes:  map[string]int{"r1": 1, "r2": 2},
		},
		{
			name: "negative totals still vote for the highest",
			evals: []domain.JurorEvaluation{
				eval(t, "a", 1, "r1", -3.0, "r2", -1.0),
			},
			wantWinner: "r2",
			wantVotes:  map[string]int{"r2": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Majority{}.Compute(tt.evals)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWinner, result.Winner)
			assert.Equal(t, tt.wantVotes, result.VoteCounts)

			total := 0
			for _, v := range result.VoteCounts {
				total += v
			}
			assert.Equal(t, len(tt.evals), total, "every juror casts exactly one vote")
		})
	}
}

func TestAverage(t *testing.T) {
	evals := []domain.JurorEvaluation{
		eval(t, "a", 10, "r1", 9.0, "r2", 6.0),
		eval(t, "b", 1, "r1", 3.0, "r3", 12.0),
	}

	result, err := Average{}.Compute(evals)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"r1": 6, "r2": 3, "r3": 6}, result.AverageScores)
	assert.Equal(t, "r1", result.Winner, "r1 ties r3 and is seen first")
}

func TestAverage_ZeroFilledResponses(t *testing.T) {
	evals := []domain.JurorEvaluation{
		eval(t, "a", 1, "r1", 4.0),
		{JurorName: "b", JurorWeight: 1},
	}
	result, err := Average{}.Compute(evals)
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.AverageScores["r1"], "juror without the response contributes zero")
}

func TestMeanVariantsMatchAverage(t *testing.T) {
	evals := []domain.JurorEvaluation{
		eval(t, "a", 2, "r1", 3.0, "r2", 7.0),
		eval(t, "b", 1, "r2", 1.0, "r3", 8.0),
		eval(t, "c", 0, "r3", 2.0),
	}

	avg, err := Average{}.Compute(evals)
	require.NoError(t, err)
	ranked, err := Ranked{}.Compute(evals)
	require.NoError(t, err)
	consensus, err := Consensus{}.Compute(evals)
	require.NoError(t, err)

	assert.Equal(t, avg.AverageScores, ranked.RankedScores)
	assert.Equal(t, avg.AverageScores, consensus.ConsensusScores)
	assert.Equal(t, avg.Winner, ranked.Winner)
	assert.Equal(t, avg.Winner, consensus.Winner)
}

func TestWeighted(t *testing.T) {
	t.Run("weighted tie resolves to first seen", func(t *testing.T) {
		evals := []domain.JurorEvaluation{
			eval(t, "a", 2, "r1", 9.0, "r2", 6.0),
			eval(t, "b", 1, "r1", 4.0, "r2", 10.0),
		}
		result, err := Weighted{}.Compute(evals)
		require.NoError(t, err)
		assert.InDelta(t, 22.0/3, result.WeightedScores["r1"], 1e-9)
		assert.InDelta(t, 22.0/3, result.WeightedScores["r2"], 1e-9)
		assert.Equal(t, "r1", result.Winner)
	})

	t.Run("weight shifts the winner", func(t *testing.T) {
		evals := []domain.JurorEvaluation{
			eval(t, "a", 3, "r1", 2.0, "r2", 8.0),
			eval(t, "b", 1, "r1", 10.0, "r2", 1.0),
		}
		result, err := Weighted{}.Compute(evals)
		require.NoError(t, err)
		assert.Equal(t, "r2", result.Winner)
		assert.InDelta(t, 4.0, result.WeightedScores["r1"], 1e-9)
		assert.InDelta(t, 6.25, result.WeightedScores["r2"], 1e-9)
	})

	t.Run("zero total weight yields zero scores", func(t *testing.T) {
		evals := []domain.JurorEvaluation{
			eval(t, "a", 0, "r2", 9.0, "r1", 6.0),
			eval(t, "b", 0, "r1", 4.0),
		}
		result, err := Weighted{}.Compute(evals)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"r1": 0, "r2": 0}, result.WeightedScores)
		assert.Equal(t, "r2", result.Winner)
	})

	t.Run("equal weights match average winner", func(t *testing.T) {
		evals := []domain.JurorEvaluation{
			eval(t, "a", 1.5, "r1", 2.0, "r2", 5.0, "r3", 4.0),
			eval(t, "b", 1.5, "r1", 7.0, "r2", 1.0, "r3", 4.5),
			eval(t, "c", 1.5, "r3", 3.0),
		}
		weighted, err := Weighted{}.Compute(evals)
		require.NoError(t, err)
		avg, err := Average{}.Compute(evals)
		require.NoError(t, err)
		assert.Equal(t, avg.Winner, weighted.Winner)
	})
}

func TestWinnerIsArgmax(t *testing.T) {
	evals := []domain.JurorEvaluation{
		eval(t, "a", 1, "r1", 1.0, "r2", 2.0, "r3", 3.0),
		eval(t, "b", 2, "r3", 0.5, "r1", 6.0),
		eval(t, "c", 0.5, "r4", 11.0),
	}

	for method, strategy := range Builtins() {
		if method == domain.VotingMajority {
			continue
		}
		t.Run(string(method), func(t *testing.T) {
			result, err := strategy.Compute(evals)
			require.NoError(t, err)
			scores := result.Scores()
			for id, s := range scores {
				assert.LessOrEqual(t, s, scores[result.Winner], "winner must hold the maximum, beaten by %s", id)
			}
		})
	}
}

func TestArgmax(t *testing.T) {
	ids := []string{"b", "a", "c"}
	assert.Equal(t, "b", argmax(ids, map[string]int{"a": 2, "b": 2, "c": 1}))
	assert.Equal(t, "c", argmax(ids, map[string]float64{"c": -1}))
	assert.Equal(t, "", argmax(ids, map[string]float64{}))
}
