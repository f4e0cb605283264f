package domain

import (
	"time"
)

// DefaultMaxScore is the upper bound of a criterion's scale when none is
// configured.
const DefaultMaxScore = 5

// Well-known criterion identifiers. Criteria are free-form strings; these
// are the names the default prompts and reports are tuned for.
const (
	CriterionFactuality    = "factuality"
	CriterionClarity       = "clarity"
	CriterionReasoning     = "logical_reasoning"
	CriterionConciseness   = "conciseness"
	CriterionOriginality   = "originality"
	CriterionRelevance     = "relevance"
	CriterionStyle         = "style"
	CriterionContextuality = "contextuality"
)

// BuiltinCriteria returns the well-known criterion identifiers in display
// order.
func BuiltinCriteria() []string {
	return []string{
		CriterionFactuality,
		CriterionClarity,
		CriterionReasoning,
		CriterionConciseness,
		CriterionOriginality,
		CriterionRelevance,
		CriterionStyle,
		CriterionContextuality,
	}
}

// ResponseCandidate is one candidate text under evaluation.
type ResponseCandidate struct {
	// ID uniquely identifies this response within an evaluation round.
	ID string `json:"id"`

	// Alias is an optional human-friendly label.
	Alias string `json:"alias,omitempty"`

	// Content is the response text.
	Content string `json:"content"`

	// ModelName names the model that produced the response, if known.
	ModelName string `json:"model_name,omitempty"`
}

// DisplayName returns the alias when set, otherwise the id.
func (c ResponseCandidate) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.ID
}

// Criterion is a named axis of evaluation.
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Weight      float64 `json:"weight"`
	MaxScore    int     `json:"max_score"`
}

// CriterionScore is one juror's score on one criterion, with its reasoning.
type CriterionScore struct {
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation,omitempty"`
	MaxScore    int     `json:"max_score"`
}

// ResponseEvaluation is one juror's detailed judgment of one response.
type ResponseEvaluation struct {
	ResponseID     string                    `json:"response_id"`
	ResponseText   string                    `json:"response_text"`
	Scores         map[string]CriterionScore `json:"scores"`
	TotalScore     float64                   `json:"total_score"`
	AverageScore   float64                   `json:"average_score"`
	OverallComment string                    `json:"overall_comment,omitempty"`
}

// JurorVerdict collects one juror's evaluations of every response it scored.
type JurorVerdict struct {
	JurorName           string               `json:"juror_name"`
	JurorModel          string               `json:"juror_model,omitempty"`
	JurorWeight         float64              `json:"juror_weight"`
	ResponseEvaluations []ResponseEvaluation `json:"response_evaluations"`
}

// FinalVerdict wraps a VotingResult with its derived confidence and margin.
type FinalVerdict struct {
	// Winner is the winning response id.
	Winner string `json:"winner"`

	// WinnerMargin is the raw gap between the top two scores. It is nil for
	// majority voting and when fewer than two responses were scored.
	WinnerMargin *float64 `json:"winner_margin"`

	// VotingMethod is the method that produced the result.
	VotingMethod VotingMethod `json:"voting_method"`

	// VotingDetails is the complete aggregation output.
	VotingDetails VotingResult `json:"voting_details"`

	// Confidence is in [0, 1] and measures the winner's relative dominance.
	Confidence float64 `json:"confidence"`
}

// Summary condenses a Verdict for headline reporting.
type Summary struct {
	TotalJurors    int          `json:"total_jurors"`
	TotalResponses int          `json:"total_responses"`
	TotalCriteria  int          `json:"total_criteria"`
	VotingMethod   VotingMethod `json:"voting_method"`
	Confidence     float64      `json:"confidence"`
	Unanimous      bool         `json:"unanimous"`
}

// Verdict is the complete report of one evaluation round.
type Verdict struct {
	// ID uniquely identifies this verdict (a UUID).
	ID string `json:"id"`

	JuryName        string `json:"jury_name"`
	JuryDescription string `json:"jury_description,omitempty"`
	Prompt          string `json:"prompt"`

	// Responses lists the candidates in evaluation order.
	Responses []ResponseCandidate `json:"responses"`

	// JurorVerdicts holds one entry per juror that completed its evaluation.
	JurorVerdicts []JurorVerdict `json:"juror_verdicts"`

	FinalVerdict FinalVerdict `json:"final_verdict"`
	Summary      Summary      `json:"summary"`

	// Timestamp records when this verdict was created.
	Timestamp time.Time `json:"timestamp"`
}

// SimpleVerdict is the condensed form returned to callers that only need
// the headline outcome.
type SimpleVerdict struct {
	Winner       string       `json:"winner"`
	Confidence   float64      `json:"confidence"`
	VotingMethod VotingMethod `json:"voting_method"`
	TotalJurors  int          `json:"total_jurors"`
	Unanimous    bool         `json:"unanimous"`
}

// Simple returns the condensed form of the verdict.
func (v *Verdict) Simple() SimpleVerdict {
	return SimpleVerdict{
		Winner:       v.FinalVerdict.Winner,
		Confidence:   v.FinalVerdict.Confidence,
		VotingMethod: v.FinalVerdict.VotingMethod,
		TotalJurors:  v.Summary.TotalJurors,
		Unanimous:    v.Summary.Unanimous,
	}
}

// Response returns the candidate with the given id.
func (v *Verdict) Response(id string) (ResponseCandidate, bool) {
	for _, r := range v.Responses {
		if r.ID == id {
			return r, true
		}
	}
	return ResponseCandidate{}, false
}
