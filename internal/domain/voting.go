package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VotingMethod identifies the aggregation algorithm used to reduce juror
// evaluations to a single winning response.
type VotingMethod string

// Supported voting methods.
const (
	// VotingMajority gives each juror one vote for its top-scored response.
	VotingMajority VotingMethod = "majority"
	// VotingAverage ranks responses by the mean juror total.
	VotingAverage VotingMethod = "average"
	// VotingWeighted ranks responses by the weight-adjusted mean juror total.
	VotingWeighted VotingMethod = "weighted"
	// VotingRanked currently computes the same mean as VotingAverage.
	VotingRanked VotingMethod = "ranked"
	// VotingConsensus currently computes the same mean as VotingAverage.
	VotingConsensus VotingMethod = "consensus"
	// VotingCustom delegates to a registered custom strategy.
	VotingCustom VotingMethod = "custom"
)

// VotingMethods returns every recognized method in declaration order.
func VotingMethods() []VotingMethod {
	return []VotingMethod{
		VotingMajority, VotingAverage, VotingWeighted,
		VotingRanked, VotingConsensus, VotingCustom,
	}
}

// IsValid reports whether m is one of the recognized methods.
func (m VotingMethod) IsValid() bool {
	switch m {
	case VotingMajority, VotingAverage, VotingWeighted,
		VotingRanked, VotingConsensus, VotingCustom:
		return true
	}
	return false
}

// String returns the wire identifier of the method.
func (m VotingMethod) String() string { return string(m) }

// ParseVotingMethod converts an identifier into a VotingMethod. Surrounding
// whitespace and letter case are ignored.
func ParseVotingMethod(s string) (VotingMethod, error) {
	m := VotingMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// VotingResult is the output of exactly one aggregation pass.
// Built-in strategies populate only the score map matching Method.
// CustomScores and CustomData are reserved for VotingCustom.
type VotingResult struct {
	// Winner is the selected response id. It always appears in at least one
	// input evaluation.
	Winner string `json:"winner"`

	// Method records which strategy produced this result.
	Method VotingMethod `json:"method"`

	// VoteCounts holds the votes per response for majority voting. Responses
	// that received no vote are omitted.
	VoteCounts map[string]int `json:"vote_counts,omitempty"`

	// AverageScores holds the mean juror total per response.
	AverageScores map[string]float64 `json:"average_scores,omitempty"`

	// WeightedScores holds the weight-adjusted mean juror total per response.
	WeightedScores map[string]float64 `json:"weighted_scores,omitempty"`

	// RankedScores holds the ranked mean per response.
	RankedScores map[string]float64 `json:"ranked_scores,omitempty"`

	// ConsensusScores holds the consensus mean per response.
	ConsensusScores map[string]float64 `json:"consensus_scores,omitempty"`

	// CustomScores holds per-response scores produced by a custom strategy.
	CustomScores map[string]float64 `json:"custom_scores,omitempty"`

	// CustomData carries strategy-specific diagnostics.
	CustomData map[string]CustomValue `json:"custom_data,omitempty"`
}

// Scores returns the scalar score map for the result's method. Majority has
// no scalar map and yields nil.
func (r VotingResult) Scores() map[string]float64 {
	switch r.Method {
	case VotingAverage:
		return r.AverageScores
	case VotingWeighted:
		return r.WeightedScores
	case VotingRanked:
		return r.RankedScores
	case VotingConsensus:
		return r.ConsensusScores
	case VotingCustom:
		return r.CustomScores
	default:
		return nil
	}
}

// Strategy reduces an ordered sequence of juror evaluations to a VotingResult.
// Implementations must be safe to call from multiple goroutines and must not
// retain or mutate the evaluations slice.
type Strategy interface {
	Compute(evaluations []JurorEvaluation) (VotingResult, error)
}

// StrategyFunc adapts a plain function to the Strategy interface.
type StrategyFunc func(evaluations []JurorEvaluation) (VotingResult, error)

// Compute calls f(evaluations).
func (f StrategyFunc) Compute(evaluations []JurorEvaluation) (VotingResult, error) {
	return f(evaluations)
}

// CustomValueKind enumerates the primitive types a CustomValue may hold.
type CustomValueKind uint8

// Custom value kinds.
const (
	KindNumber CustomValueKind = iota + 1
	KindString
	KindBool
)

// CustomValue is a closed variant over number, string and boolean used for
// custom strategy diagnostics. The zero value is invalid.
type CustomValue struct {
	kind CustomValueKind
	num  float64
	str  string
	b    bool
}

// Number creates a numeric CustomValue.
func Number(v float64) CustomValue { return CustomValue{kind: KindNumber, num: v} }

// String creates a string CustomValue.
func String(v string) CustomValue { return CustomValue{kind: KindString, str: v} }

// Bool creates a boolean CustomValue.
func Bool(v bool) CustomValue { return CustomValue{kind: KindBool, b: v} }

// Kind returns the variant held by v, or 0 for the zero value.
func (v CustomValue) Kind() CustomValueKind { return v.kind }

// IsValid reports whether v holds one of the permitted variants.
func (v CustomValue) IsValid() bool {
	return v.kind == KindNumber || v.kind == KindString || v.kind == KindBool
}

// Number returns the numeric payload and whether v holds a number.
func (v CustomValue) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the string payload and whether v holds a string.
func (v CustomValue) Str() (string, bool) { return v.str, v.kind == KindString }

// Bool returns the boolean payload and whether v holds a boolean.
func (v CustomValue) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// String formats the payload for display.
func (v CustomValue) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

// MarshalJSON encodes the payload as a bare JSON primitive.
func (v CustomValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("cannot marshal invalid custom value")
	}
}

// UnmarshalJSON decodes a JSON number, string or boolean. Any other JSON
// type is rejected.
func (v *CustomValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case string:
		*v = String(t)
	case bool:
		*v = Bool(t)
	default:
		return fmt.Errorf("custom value must be a number, string or boolean, got %s", string(data))
	}
	return nil
}
