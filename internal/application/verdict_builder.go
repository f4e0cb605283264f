package application

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-jury/internal/domain"
)

// JurorDetail carries the qualitative output of one juror that the score
// matrix does not hold.
type JurorDetail struct {
	Model string
	// Explanations is keyed by response id, then criterion name.
	Explanations map[string]map[string]string
	// Comments is keyed by response id.
	Comments map[string]string
}

// VerdictInput is everything needed to assemble the report of one round.
type VerdictInput struct {
	JuryName        string
	JuryDescription string
	Prompt          string
	Criteria        []domain.Criterion
	// Responses lists the candidates in evaluation order.
	Responses []domain.ResponseCandidate
	// Evaluations must be the exact sequence that produced Result.
	Evaluations []domain.JurorEvaluation
	// Details is keyed by juror name and may be nil.
	Details map[string]JurorDetail
	Result  domain.VotingResult
}

// VerdictBuilder assembles verdict reports.
type VerdictBuilder struct {
	now   func() time.Time
	newID func() string
}

// VerdictBuilderOption configures a VerdictBuilder.
type VerdictBuilderOption func(*VerdictBuilder)

// WithClock overrides the time source used for verdict timestamps.
func WithClock(now func() time.Time) VerdictBuilderOption {
	return func(b *VerdictBuilder) { b.now = now }
}

// WithIDGenerator overrides the verdict id generator.
func WithIDGenerator(newID func() string) VerdictBuilderOption {
	return func(b *VerdictBuilder) { b.newID = newID }
}

// NewVerdictBuilder creates a builder that stamps verdicts with a random
// UUID and the current UTC time.
func NewVerdictBuilder(opts ...VerdictBuilderOption) *VerdictBuilder {
	b := &VerdictBuilder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the full report for one round. It fails only when the
// result carries an unrecognized method.
func (b *VerdictBuilder) Build(in VerdictInput) (*domain.Verdict, error) {
	final, err := NewFinalVerdict(in.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to derive final verdict: %w", err)
	}

	maxScores := make(map[string]int, len(in.Criteria))
	for _, c := range in.Criteria {
		maxScores[c.Name] = c.MaxScore
	}

	jurorVerdicts := make([]domain.JurorVerdict, 0, len(in.Evaluations))
	for _, e := range in.Evaluations {
		jurorVerdicts = append(jurorVerdicts, jurorVerdict(e, in.Responses, maxScores, in.Details[e.JurorName]))
	}

	return &domain.Verdict{
		ID:              b.newID(),
		JuryName:        in.JuryName,
		JuryDescription: in.JuryDescription,
		Prompt:          in.Prompt,
		Responses:       in.Responses,
		JurorVerdicts:   jurorVerdicts,
		FinalVerdict:    final,
		Summary: domain.Summary{
			TotalJurors:    len(in.Evaluations),
			TotalResponses: len(in.Responses),
			TotalCriteria:  len(in.Criteria),
			VotingMethod:   in.Result.Method,
			Confidence:     final.Confidence,
			Unanimous:      final.Confidence == 1.0,
		},
		Timestamp: b.now(),
	}, nil
}

// jurorVerdict details one juror's scores for every candidate it scored,
// in candidate order.
func jurorVerdict(
	e domain.JurorEvaluation,
	responses []domain.ResponseCandidate,
	maxScores map[string]int,
	detail JurorDetail,
) domain.JurorVerdict {
	evals := make([]domain.ResponseEvaluation, 0, len(responses))
	for _, r := range responses {
		scores, ok := e.Scores(r.ID)
		if !ok {
			continue
		}

		criterionScores := make(map[string]domain.CriterionScore, len(scores))
		for name, score := range scores {
			maxScore, ok := maxScores[name]
			if !ok || maxScore == 0 {
				maxScore = domain.DefaultMaxScore
			}
			criterionScores[name] = domain.CriterionScore{
				Score:       score,
				Explanation: detail.Explanations[r.ID][name],
				MaxScore:    maxScore,
			}
		}

		total := scores.Total()
		var avg float64
		if len(scores) > 0 {
			avg = total / float64(len(scores))
		}

		evals = append(evals, domain.ResponseEvaluation{
			ResponseID:     r.ID,
			ResponseText:   r.Content,
			Scores:         criterionScores,
			TotalScore:     total,
			AverageScore:   avg,
			OverallComment: detail.Comments[r.ID],
		})
	}

	return domain.JurorVerdict{
		JurorName:           e.JurorName,
		JurorModel:          detail.Model,
		JurorWeight:         e.JurorWeight,
		ResponseEvaluations: evals,
	}
}
