// Package juror implements jurors backed by a large language model.
//
// An LLMJuror renders the candidates and criteria into a prompt, asks its
// model for a JSON scoring, and interprets the reply leniently: criterion
// names and response ids are matched case-insensitively and tolerate small
// misspellings, and replies that are not JSON fall back to extracting bare
// integers. Every candidate must end up scored on every criterion or the
// attempt is retried.
package juror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

var _ ports.Juror = (*LLMJuror)(nil)

// Juror errors.
var (
	// ErrNoResponses is returned when a juror is asked to score nothing.
	ErrNoResponses = errors.New("no responses provided for evaluation")
	// ErrNoCriteria is returned when a juror is given no criteria.
	ErrNoCriteria = errors.New("no criteria provided for evaluation")
	// ErrIncompleteEvaluation is returned when a reply leaves a response or
	// criterion unscored.
	ErrIncompleteEvaluation = errors.New("incomplete evaluation")
)

// JurorError reports that a juror gave up after its attempts.
type JurorError struct {
	Juror    string
	Attempts int
	Err      error
}

// Error implements the error interface for JurorError.
func (e *JurorError) Error() string {
	return fmt.Sprintf("juror %s failed to evaluate after %d attempts: %v", e.Juror, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *JurorError) Unwrap() error { return e.Err }

// Config describes one LLM juror.
type Config struct {
	Name   string
	Weight float64
	// Model overrides the client's model name when set.
	Model string
	// SystemPrompt defaults to DefaultSystemPrompt.
	SystemPrompt string
	// EvaluationTemplate defaults to DefaultEvaluationTemplate.
	EvaluationTemplate string
	Temperature        float64
	// OptionalExplanations tells the model a bare score is acceptable.
	// By default every score must be explained.
	OptionalExplanations bool
	// MaxTokens bounds the reply; zero leaves the client default.
	MaxTokens int
	// Attempts is how many replies the juror may request per round. Values
	// below one mean one.
	Attempts int
}

// LLMJuror scores candidates by prompting an LLM.
type LLMJuror struct {
	cfg      Config
	client   ports.LLMClient
	template *template.Template
	logger   *slog.Logger
}

// Option configures an LLMJuror.
type Option func(*LLMJuror)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(j *LLMJuror) { j.logger = l }
}

// New creates a juror that prompts client.
func New(cfg Config, client ports.LLMClient, opts ...Option) (*LLMJuror, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("juror name is required")
	}
	if client == nil {
		return nil, fmt.Errorf("juror %s: LLM client is required", cfg.Name)
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	cfg.Attempts = max(cfg.Attempts, 1)

	tmpl := defaultTemplate
	if cfg.EvaluationTemplate != "" {
		var err error
		if tmpl, err = parseTemplate(cfg.EvaluationTemplate); err != nil {
			return nil, fmt.Errorf("juror %s: %w", cfg.Name, err)
		}
	}

	j := &LLMJuror{
		cfg:      cfg,
		client:   client,
		template: tmpl,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.logger = j.logger.With("juror", cfg.Name)
	return j, nil
}

// Name implements ports.Juror.
func (j *LLMJuror) Name() string { return j.cfg.Name }

// Weight implements ports.Juror.
func (j *LLMJuror) Weight() float64 { return j.cfg.Weight }

// Model implements ports.Juror.
func (j *LLMJuror) Model() string {
	if j.cfg.Model != "" {
		return j.cfg.Model
	}
	return j.client.GetModel()
}

// Evaluate prompts the model until it returns a complete scoring or the
// attempts run out.
func (j *LLMJuror) Evaluate(
	ctx context.Context,
	prompt string,
	responses []domain.ResponseCandidate,
	criteria []domain.Criterion,
) (ports.JurorResult, error) {
	if len(responses) == 0 {
		return ports.JurorResult{}, ErrNoResponses
	}
	if len(criteria) == 0 {
		return ports.JurorResult{}, ErrNoCriteria
	}

	userPrompt, err := buildEvaluationPrompt(j.template, prompt, responses, criteria, !j.cfg.OptionalExplanations)
	if err != nil {
		return ports.JurorResult{}, err
	}

	options := map[string]any{
		"system":      j.cfg.SystemPrompt,
		"temperature": j.cfg.Temperature,
	}
	if j.cfg.Model != "" {
		options["model"] = j.cfg.Model
	}
	if j.cfg.MaxTokens > 0 {
		options["max_tokens"] = j.cfg.MaxTokens
	}

	p := parser{responses: responses, criteria: criteria}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= j.cfg.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts = attempt

		result, err := j.attempt(ctx, userPrompt, options, p)
		if err == nil {
			j.logger.Debug("evaluation successful", "attempt", attempt)
			return result, nil
		}
		lastErr = err
		j.logger.Warn("evaluation attempt failed", "attempt", attempt, "error", err)
	}

	j.logger.Error("juror giving up", "attempts", attempts, "error", lastErr)
	return ports.JurorResult{}, &JurorError{Juror: j.cfg.Name, Attempts: attempts, Err: lastErr}
}

func (j *LLMJuror) attempt(
	ctx context.Context,
	userPrompt string,
	options map[string]any,
	p parser,
) (ports.JurorResult, error) {
	text, err := j.client.Complete(ctx, userPrompt, options)
	if err != nil {
		return ports.JurorResult{}, ports.NewLLMError(j.Model(), "evaluate", err)
	}

	out, err := p.parse(text)
	if err != nil {
		return ports.JurorResult{}, err
	}
	if out.fallback {
		j.logger.Warn("reply was not valid JSON, scores recovered by fallback", "reply_length", len(text))
	}

	if err := p.complete(out.result); err != nil {
		return ports.JurorResult{}, err
	}
	return out.result, nil
}
