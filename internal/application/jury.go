package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

const tracerName = "github.com/ahrav/go-jury/jury"

// Jury errors.
var (
	// ErrNoJurors is returned when a jury is built without jurors.
	ErrNoJurors = errors.New("jury requires at least one juror")
	// ErrNoCandidates is returned when Evaluate receives no responses.
	ErrNoCandidates = errors.New("no responses provided for evaluation")
	// ErrAllJurorsFailed is returned when no juror produced a usable result.
	ErrAllJurorsFailed = errors.New("all jurors failed to complete evaluation")
	// ErrResponseIDMismatch is returned when the number of replacement
	// response ids differs from the number of responses.
	ErrResponseIDMismatch = errors.New("number of response ids must match number of responses")
)

// Evaluation stages reported by EvaluationError.
const (
	StageAggregation = "aggregation"
	StageVerdict     = "verdict"
)

// EvaluationError reports a failure after the jurors completed, tagged with
// the stage that failed.
type EvaluationError struct {
	Stage string
	Err   error
}

// Error implements the error interface for EvaluationError.
func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed during %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *EvaluationError) Unwrap() error { return e.Err }

// Jury runs a panel of jurors over candidate responses and aggregates their
// scores into a verdict. A Jury is safe for concurrent use; each call to
// Evaluate is an independent round.
type Jury struct {
	config     *JuryConfig
	jurors     []ports.Juror
	criteria   []domain.Criterion
	aggregator *VotingAggregator
	builder    *VerdictBuilder
	logger     *slog.Logger
	metrics    ports.MetricsCollector
	tracer     trace.Tracer
}

// JuryOption configures a Jury.
type JuryOption func(*Jury)

// WithAggregator sets the aggregator, and with it the custom strategy
// registry, used by the jury.
func WithAggregator(a *VotingAggregator) JuryOption {
	return func(j *Jury) { j.aggregator = a }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) JuryOption {
	return func(j *Jury) { j.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m ports.MetricsCollector) JuryOption {
	return func(j *Jury) { j.metrics = m }
}

// WithTracer sets the tracer used for evaluation spans.
func WithTracer(t trace.Tracer) JuryOption {
	return func(j *Jury) { j.tracer = t }
}

// WithVerdictBuilder sets the builder used to assemble reports.
func WithVerdictBuilder(b *VerdictBuilder) JuryOption {
	return func(j *Jury) { j.builder = b }
}

// NewJury creates a jury from a validated configuration and its jurors.
// Jurors are consulted, and their evaluations aggregated, in the order
// given. When the configuration selects custom voting the strategy must
// already be registered with the aggregator's registry.
func NewJury(cfg *JuryConfig, jurors []ports.Juror, opts ...JuryOption) (*Jury, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil jury config", domain.ErrInvalidConfiguration)
	}
	if len(jurors) == 0 {
		return nil, ErrNoJurors
	}

	j := &Jury{
		config:   cfg,
		jurors:   jurors,
		criteria: cfg.DomainCriteria(),
		logger:   slog.Default(),
		metrics:  ports.NoopMetrics{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(j)
	}
	if j.aggregator == nil {
		j.aggregator = NewVotingAggregator(nil)
	}
	if j.builder == nil {
		j.builder = NewVerdictBuilder()
	}

	method := j.method()
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}
	if method == domain.VotingCustom {
		if cfg.CustomStrategy == "" {
			return nil, domain.ErrMissingStrategyName
		}
		if !j.aggregator.Registry().Has(cfg.CustomStrategy) {
			return nil, domain.NewStrategyError(cfg.CustomStrategy, domain.ErrUnknownStrategy)
		}
	}

	j.logger.Info("jury initialized",
		"jury", cfg.Name,
		"jurors", len(jurors),
		"criteria", len(j.criteria),
		"method", method,
	)
	return j, nil
}

// EvaluateOption configures a single evaluation round.
type EvaluateOption func(*evaluateOptions)

type evaluateOptions struct {
	responseIDs []string
}

// WithResponseIDs replaces the candidates' ids, position by position, for
// this round.
func WithResponseIDs(ids ...string) EvaluateOption {
	return func(o *evaluateOptions) { o.responseIDs = ids }
}

// jurorOutcome is the slot filled by one juror's run.
type jurorOutcome struct {
	result ports.JurorResult
	err    error
}

// Evaluate runs every juror over responses, aggregates their scores with
// the configured voting method and returns the complete verdict.
//
// Individual juror failures are logged and skipped. The round fails only
// when every juror fails or when aggregation fails.
func (j *Jury) Evaluate(
	ctx context.Context,
	prompt string,
	responses []domain.ResponseCandidate,
	opts ...EvaluateOption,
) (*domain.Verdict, error) {
	var o evaluateOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := j.tracer.Start(ctx, "jury.evaluate", trace.WithAttributes(
		attribute.String("jury.name", j.config.Name),
		attribute.Int("jury.jurors", len(j.jurors)),
		attribute.Int("jury.responses", len(responses)),
		attribute.String("jury.method", string(j.method())),
	))
	defer span.End()

	verdict, err := j.evaluate(ctx, prompt, responses, o)
	status := "success"
	if err != nil {
		status = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(
			attribute.String("jury.winner", verdict.FinalVerdict.Winner),
			attribute.Float64("jury.confidence", verdict.FinalVerdict.Confidence),
		)
	}
	j.metrics.RecordCounter("jury_evaluations_total", 1, map[string]string{
		"method": string(j.method()),
		"status": status,
	})
	return verdict, err
}

func (j *Jury) evaluate(
	ctx context.Context,
	prompt string,
	responses []domain.ResponseCandidate,
	o evaluateOptions,
) (*domain.Verdict, error) {
	if len(responses) == 0 {
		return nil, ErrNoCandidates
	}
	if len(responses) < 2 {
		j.logger.Warn("only one response provided, comparison will be limited")
	}

	candidates, err := renameCandidates(responses, o.responseIDs)
	if err != nil {
		return nil, err
	}

	j.logger.Info("starting evaluation", "jurors", len(j.jurors), "responses", len(candidates))

	outcomes := j.runJurors(ctx, prompt, candidates)

	evaluations := make([]domain.JurorEvaluation, 0, len(outcomes))
	details := make(map[string]JurorDetail, len(outcomes))
	for i, out := range outcomes {
		juror := j.jurors[i]
		if out.err != nil {
			j.logger.Error("juror failed", "juror", juror.Name(), "error", out.err)
			continue
		}

		eval, err := toJurorEvaluation(juror, candidates, out.result)
		if err != nil {
			j.logger.Error("juror result rejected", "juror", juror.Name(), "error", err)
			continue
		}
		evaluations = append(evaluations, eval)
		details[juror.Name()] = JurorDetail{
			Model:        juror.Model(),
			Explanations: out.result.Explanations,
			Comments:     out.result.Comments,
		}
	}

	if len(evaluations) == 0 {
		return nil, ErrAllJurorsFailed
	}
	if len(evaluations) < len(j.jurors) {
		j.logger.Warn("some jurors did not complete",
			"completed", len(evaluations), "jurors", len(j.jurors))
	}

	start := time.Now()
	result, err := j.aggregator.Aggregate(evaluations, j.method(), j.config.CustomStrategy)
	j.metrics.RecordLatency("aggregation", time.Since(start), map[string]string{"method": string(j.method())})
	if err != nil {
		j.logger.Error("voting aggregation failed", "method", j.method(), "error", err)
		return nil, &EvaluationError{Stage: StageAggregation, Err: err}
	}
	j.logger.Info("voting completed", "method", result.Method, "winner", result.Winner)

	verdict, err := j.builder.Build(VerdictInput{
		JuryName:        j.config.Name,
		JuryDescription: j.config.Description,
		Prompt:          prompt,
		Criteria:        j.criteria,
		Responses:       candidates,
		Evaluations:     evaluations,
		Details:         details,
		Result:          result,
	})
	if err != nil {
		return nil, &EvaluationError{Stage: StageVerdict, Err: err}
	}

	j.metrics.RecordHistogram("verdict_confidence", verdict.FinalVerdict.Confidence,
		map[string]string{"method": string(result.Method)})
	j.logger.Info("verdict created",
		"winner", verdict.FinalVerdict.Winner,
		"confidence", verdict.FinalVerdict.Confidence,
	)
	return verdict, nil
}

// runJurors evaluates every juror and returns one outcome per juror, in
// juror order regardless of completion order.
func (j *Jury) runJurors(
	ctx context.Context,
	prompt string,
	candidates []domain.ResponseCandidate,
) []jurorOutcome {
	outcomes := make([]jurorOutcome, len(j.jurors))

	if !j.config.Parallel() || len(j.jurors) == 1 {
		for i, juror := range j.jurors {
			outcomes[i] = j.runJuror(ctx, juror, prompt, candidates)
		}
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(j.config.Concurrency(len(j.jurors)))
	for i, juror := range j.jurors {
		g.Go(func() error {
			outcomes[i] = j.runJuror(ctx, juror, prompt, candidates)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (j *Jury) runJuror(
	ctx context.Context,
	juror ports.Juror,
	prompt string,
	candidates []domain.ResponseCandidate,
) (out jurorOutcome) {
	ctx, span := j.tracer.Start(ctx, "jury.juror", trace.WithAttributes(
		attribute.String("juror.name", juror.Name()),
		attribute.String("juror.model", juror.Model()),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			out = jurorOutcome{err: fmt.Errorf("juror %s panicked: %v", juror.Name(), p)}
		}
		status := "success"
		if out.err != nil {
			status = "failure"
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
		}
		labels := map[string]string{"juror": juror.Name(), "status": status}
		j.metrics.RecordCounter("juror_evaluations_total", 1, labels)
		j.metrics.RecordLatency("juror_evaluation", time.Since(start), labels)
	}()

	result, err := juror.Evaluate(ctx, prompt, candidates, j.criteria)
	if err != nil {
		return jurorOutcome{err: err}
	}
	j.logger.Debug("juror completed evaluation", "juror", juror.Name())
	return jurorOutcome{result: result}
}

// toJurorEvaluation converts a juror's scores into the score matrix,
// listing responses in candidate order.
func toJurorEvaluation(
	juror ports.Juror,
	candidates []domain.ResponseCandidate,
	result ports.JurorResult,
) (domain.JurorEvaluation, error) {
	scores := make([]domain.ResponseScore, 0, len(candidates))
	for _, c := range candidates {
		s, ok := result.Scores[c.ID]
		if !ok {
			continue
		}
		scores = append(scores, domain.ResponseScore{ResponseID: c.ID, Scores: s})
	}
	return domain.NewJurorEvaluation(juror.Name(), juror.Weight(), scores...)
}

func renameCandidates(responses []domain.ResponseCandidate, ids []string) ([]domain.ResponseCandidate, error) {
	if ids == nil {
		return responses, nil
	}
	if len(ids) != len(responses) {
		return nil, fmt.Errorf("%w: got %d ids for %d responses", ErrResponseIDMismatch, len(ids), len(responses))
	}
	renamed := make([]domain.ResponseCandidate, len(responses))
	for i, r := range responses {
		r.ID = ids[i]
		renamed[i] = r
	}
	return renamed, nil
}

func (j *Jury) method() domain.VotingMethod {
	if j.config.VotingMethod == "" {
		return domain.VotingMajority
	}
	return j.config.VotingMethod
}

// Config returns the jury's configuration. It must not be modified.
func (j *Jury) Config() *JuryConfig { return j.config }

// Aggregator returns the aggregator used by the jury.
func (j *Jury) Aggregator() *VotingAggregator { return j.aggregator }

// JurySummary describes a jury's composition.
type JurySummary struct {
	Name           string              `json:"name"`
	Description    string              `json:"description,omitempty"`
	NumJurors      int                 `json:"num_jurors"`
	NumCriteria    int                 `json:"num_criteria"`
	VotingMethod   domain.VotingMethod `json:"voting_method"`
	CustomStrategy string              `json:"custom_strategy,omitempty"`
	Jurors         []JurorSummary      `json:"jurors"`
	Criteria       []domain.Criterion  `json:"criteria"`
}

// JurorSummary describes one juror.
type JurorSummary struct {
	Name   string  `json:"name"`
	Model  string  `json:"model,omitempty"`
	Weight float64 `json:"weight"`
}

// Summary describes the jury's name, jurors, criteria and voting method.
func (j *Jury) Summary() JurySummary {
	jurors := make([]JurorSummary, 0, len(j.jurors))
	for _, juror := range j.jurors {
		jurors = append(jurors, JurorSummary{
			Name:   juror.Name(),
			Model:  juror.Model(),
			Weight: juror.Weight(),
		})
	}
	return JurySummary{
		Name:           j.config.Name,
		Description:    j.config.Description,
		NumJurors:      len(j.jurors),
		NumCriteria:    len(j.criteria),
		VotingMethod:   j.method(),
		CustomStrategy: j.config.CustomStrategy,
		Jurors:         jurors,
		Criteria:       j.criteria,
	}
}
