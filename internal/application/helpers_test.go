package application

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/domain"
)

// evalOf builds an evaluation where each response carries one "total"
// criterion. pairs alternates response id and score.
func evalOf(t *testing.T, name string, weight float64, pairs ...any) domain.JurorEvaluation {
	t.Helper()
	var rs []domain.ResponseScore
	for i := 0; i+1 < len(pairs); i += 2 {
		rs = append(rs, domain.ResponseScore{
			ResponseID: pairs[i].(string),
			Scores:     domain.CriterionScores{"total": pairs[i+1].(float64)},
		})
	}
	e, err := domain.NewJurorEvaluation(name, weight, rs...)
	require.NoError(t, err)
	return e
}
