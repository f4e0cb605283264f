// Package domain contains pure, dependency-free domain models and types
// for the jury evaluation engine.
package domain

import (
	"fmt"
	"maps"
	"math"
	"slices"
)

// CriterionScores maps a criterion identifier to the score a juror gave.
type CriterionScores map[string]float64

// Total returns the sum of all criterion scores. Criteria are summed in
// sorted key order so the result does not depend on map iteration order.
func (c CriterionScores) Total() float64 {
	var total float64
	for _, k := range slices.Sorted(maps.Keys(c)) {
		total += c[k]
	}
	return total
}

// ResponseScore holds one juror's per-criterion scores for one response.
type ResponseScore struct {
	// ResponseID identifies the candidate response.
	ResponseID string `json:"response_id"`

	// Scores maps criterion identifiers to numeric scores.
	Scores CriterionScores `json:"scores"`
}

// JurorEvaluation is one juror's judgment of all candidate responses for a
// single prompt. It is built once after the juror finishes and is not
// mutated afterwards.
//
// ResponseScores is an ordered slice rather than a map: the order in which
// response ids are first encountered drives deterministic tie-breaking in
// every voting strategy.
type JurorEvaluation struct {
	// JurorName identifies the juror within one evaluation round.
	JurorName string `json:"juror_name"`

	// JurorWeight is the juror's relative influence in weighted strategies.
	JurorWeight float64 `json:"juror_weight"`

	// ResponseScores lists the responses this juror scored, in order.
	ResponseScores []ResponseScore `json:"response_scores"`
}

// NewJurorEvaluation builds a JurorEvaluation and checks its invariants.
// The weight must be finite and non-negative and each response may appear
// at most once.
func NewJurorEvaluation(name string, weight float64, scores ...ResponseScore) (JurorEvaluation, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return JurorEvaluation{}, fmt.Errorf("juror %s: %w: %v", name, ErrInvalidWeight, weight)
	}

	seen := make(map[string]struct{}, len(scores))
	copied := make([]ResponseScore, 0, len(scores))
	for _, rs := range scores {
		if _, dup := seen[rs.ResponseID]; dup {
			return JurorEvaluation{}, fmt.Errorf("juror %s: %w: %s", name, ErrDuplicateResponse, rs.ResponseID)
		}
		seen[rs.ResponseID] = struct{}{}
		copied = append(copied, ResponseScore{ResponseID: rs.ResponseID, Scores: maps.Clone(rs.Scores)})
	}

	return JurorEvaluation{
		JurorName:      name,
		JurorWeight:    weight,
		ResponseScores: copied,
	}, nil
}

// Scores returns the criterion scores for a response and whether the juror
// scored it at all.
func (e JurorEvaluation) Scores(responseID string) (CriterionScores, bool) {
	for _, rs := range e.ResponseScores {
		if rs.ResponseID == responseID {
			return rs.Scores, true
		}
	}
	return nil, false
}

// Total returns the juror's total score for a response. A response the
// juror did not score totals 0.
func (e JurorEvaluation) Total(responseID string) float64 {
	scores, ok := e.Scores(responseID)
	if !ok {
		return 0
	}
	return scores.Total()
}

// ResponseIDs returns the union of response ids across evaluations in the
// order they are first encountered while scanning the sequence.
func ResponseIDs(evaluations []JurorEvaluation) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, e := range evaluations {
		for _, rs := range e.ResponseScores {
			if _, ok := seen[rs.ResponseID]; ok {
				continue
			}
			seen[rs.ResponseID] = struct{}{}
			ids = append(ids, rs.ResponseID)
		}
	}
	return ids
}
