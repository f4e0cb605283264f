package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/internal/application"
	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/server"
)

func newAggregateCommand() *cobra.Command {
	var (
		inputPath string
		method    string
		strategy  string
	)

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate juror evaluations without calling any LLM",
		Long: `Aggregate previously collected juror evaluations.

The input is a JSON array of evaluations, or an object with an
"evaluations" array, where each evaluation has juror_name, juror_weight and
an ordered response_scores list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			voting, err := domain.ParseVotingMethod(method)
			if err != nil {
				return err
			}
			evaluations, err := readEvaluations(inputPath)
			if err != nil {
				return err
			}

			registry, err := newStrategyRegistry()
			if err != nil {
				return err
			}
			result, err := application.NewVotingAggregator(registry).Aggregate(evaluations, voting, strategy)
			if err != nil {
				return &EvaluationFailedError{Err: err}
			}
			final, err := application.NewFinalVerdict(result)
			if err != nil {
				return &EvaluationFailedError{Err: err}
			}

			return writeJSON(cmd.OutOrStdout(), server.AggregateResponse{
				Result:     result,
				Confidence: final.Confidence,
				Margin:     final.WinnerMargin,
			})
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "JSON file holding juror evaluations")
	cmd.Flags().StringVarP(&method, "method", "m", string(domain.VotingMajority), "Voting method")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Registered strategy name for the custom method")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func readEvaluations(path string) ([]domain.JurorEvaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluations: %w", err)
	}

	var raw []domain.JurorEvaluation
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped struct {
			Evaluations []domain.JurorEvaluation `json:"evaluations"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse evaluations: %w", err)
		}
		raw = wrapped.Evaluations
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse evaluations: %w", err)
	}

	evaluations := make([]domain.JurorEvaluation, 0, len(raw))
	for _, e := range raw {
		checked, err := domain.NewJurorEvaluation(e.JurorName, e.JurorWeight, e.ResponseScores...)
		if err != nil {
			return nil, err
		}
		evaluations = append(evaluations, checked)
	}
	return evaluations, nil
}
