package application

import (
	"github.com/ahrav/go-jury/internal/domain"
)

// Configuration defaults applied before validation.
const (
	DefaultMaxRetries      = 3
	DefaultMaxConcurrency  = 10
	DefaultJurorModel      = "openrouter/horizon-alpha"
	DefaultTemperature     = 0.1
	DefaultLLMTimeoutSecs  = 60
	DefaultLLMRetryAttempt = 3
)

// JuryConfig defines a jury: what it evaluates, who sits on it, and how
// their votes are combined. It is the root document accepted by
// ConfigLoader.
type JuryConfig struct {
	// Name identifies this jury configuration in reports.
	Name string `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	// Description explains what this jury evaluates.
	Description string `yaml:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
	// Criteria lists the axes every juror scores. Names must be unique.
	Criteria []CriterionConfig `yaml:"criteria" json:"criteria" validate:"required,min=1,unique=Name,dive"`
	// Jurors lists the evaluators. Names must be unique.
	Jurors []JurorConfig `yaml:"jurors" json:"jurors" validate:"required,min=1,unique=Name,dive"`
	// VotingMethod selects the aggregation algorithm.
	VotingMethod domain.VotingMethod `yaml:"voting_method,omitempty" json:"voting_method,omitempty" validate:"votingmethod"`
	// CustomStrategy names the registered strategy used when VotingMethod
	// is custom.
	CustomStrategy string `yaml:"custom_strategy,omitempty" json:"custom_strategy,omitempty" validate:"required_if=VotingMethod custom"`
	// CustomVotingFunction is an older spelling of CustomStrategy. It is
	// folded into CustomStrategy by ApplyDefaults.
	CustomVotingFunction string `yaml:"custom_voting_function,omitempty" json:"custom_voting_function,omitempty"`
	// RequireExplanation asks jurors to justify every score.
	// Defaults to true.
	RequireExplanation *bool `yaml:"require_explanation,omitempty" json:"require_explanation,omitempty"`
	// MaxRetries bounds the attempts a juror gets to produce a complete,
	// parseable evaluation. Zero is treated as a single attempt.
	MaxRetries *int `yaml:"max_retries,omitempty" json:"max_retries,omitempty" validate:"omitempty,min=0,max=10"`
	// ParallelExecution runs jurors concurrently. Defaults to true.
	ParallelExecution *bool `yaml:"parallel_execution,omitempty" json:"parallel_execution,omitempty"`
	// MaxConcurrency caps the number of jurors evaluated at once.
	MaxConcurrency int `yaml:"max_concurrency,omitempty" json:"max_concurrency,omitempty" validate:"min=1,max=10"`
	// LLM tunes the provider clients backing LLM jurors.
	LLM LLMSettings `yaml:"llm,omitempty" json:"llm,omitempty"`
	// CustomSettings carries free-form settings for custom strategies and
	// integrations.
	CustomSettings map[string]any `yaml:"custom_settings,omitempty" json:"custom_settings,omitempty"`
}

// CriterionConfig defines one evaluation criterion.
type CriterionConfig struct {
	// Name identifies the criterion. Well-known names are listed in the
	// domain package, but any identifier is accepted.
	Name string `yaml:"name" json:"name" validate:"required,min=1,max=100"`
	// Description tells jurors what the criterion measures.
	Description string `yaml:"description" json:"description" validate:"required"`
	// Weight is the criterion's relative importance. Defaults to 1.
	Weight *float64 `yaml:"weight,omitempty" json:"weight,omitempty" validate:"omitempty,min=0"`
	// MaxScore is the top of the scoring scale. Defaults to 5.
	MaxScore int `yaml:"max_score,omitempty" json:"max_score,omitempty" validate:"min=1,max=100"`
}

// JurorConfig defines one LLM-backed juror.
type JurorConfig struct {
	// Name identifies the juror within the jury.
	Name string `yaml:"name" json:"name" validate:"required,min=1,max=100"`
	// Provider selects the LLM provider. Empty means the provider resolved
	// from the environment.
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty" validate:"omitempty,oneof=openai openrouter anthropic google"`
	// Model is the model name passed to the provider.
	Model string `yaml:"model,omitempty" json:"model,omitempty" validate:"max=200"`
	// ModelName is an older spelling of Model, folded into it by
	// ApplyDefaults.
	ModelName string `yaml:"model_name,omitempty" json:"model_name,omitempty"`
	// SystemPrompt replaces the default juror system prompt.
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	// Temperature controls sampling. Defaults to 0.1.
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" validate:"omitempty,min=0,max=2"`
	// Weight is the juror's influence in weighted voting. Defaults to 1.
	Weight *float64 `yaml:"weight,omitempty" json:"weight,omitempty" validate:"omitempty,min=0"`
}

// LLMSettings tunes the provider clients.
type LLMSettings struct {
	// TimeoutSeconds bounds each provider request.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty" validate:"min=0,max=600"`
	// RateLimitRPS caps requests per second per juror. Zero disables pacing.
	RateLimitRPS float64 `yaml:"rate_limit_rps,omitempty" json:"rate_limit_rps,omitempty" validate:"min=0"`
	// RateLimitBurst is the token bucket size used with RateLimitRPS.
	RateLimitBurst int `yaml:"rate_limit_burst,omitempty" json:"rate_limit_burst,omitempty" validate:"min=0"`
	// RetryAttempts is the number of transport-level retries for retryable
	// provider errors.
	RetryAttempts *int `yaml:"retry_attempts,omitempty" json:"retry_attempts,omitempty" validate:"omitempty,min=0,max=10"`
}

// ApplyDefaults fills every unset optional field with its default value.
// It is idempotent.
func (c *JuryConfig) ApplyDefaults() {
	if c.CustomStrategy == "" {
		c.CustomStrategy = c.CustomVotingFunction
	}
	c.CustomVotingFunction = ""
	if c.VotingMethod == "" {
		c.VotingMethod = domain.VotingMajority
	}
	if c.RequireExplanation == nil {
		c.RequireExplanation = ptr(true)
	}
	if c.MaxRetries == nil {
		c.MaxRetries = ptr(DefaultMaxRetries)
	}
	if c.ParallelExecution == nil {
		c.ParallelExecution = ptr(true)
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = DefaultLLMTimeoutSecs
	}
	if c.LLM.RetryAttempts == nil {
		c.LLM.RetryAttempts = ptr(DefaultLLMRetryAttempt)
	}
	if c.LLM.RateLimitRPS > 0 && c.LLM.RateLimitBurst == 0 {
		c.LLM.RateLimitBurst = 1
	}

	for i := range c.Criteria {
		cr := &c.Criteria[i]
		if cr.Weight == nil {
			cr.Weight = ptr(1.0)
		}
		if cr.MaxScore == 0 {
			cr.MaxScore = domain.DefaultMaxScore
		}
	}

	for i := range c.Jurors {
		j := &c.Jurors[i]
		if j.Model == "" {
			j.Model = j.ModelName
		}
		j.ModelName = ""
		if j.Model == "" {
			j.Model = DefaultJurorModel
		}
		if j.Temperature == nil {
			j.Temperature = ptr(DefaultTemperature)
		}
		if j.Weight == nil {
			j.Weight = ptr(1.0)
		}
	}
}

// ExplanationRequired reports whether jurors must justify their scores.
func (c *JuryConfig) ExplanationRequired() bool {
	return c.RequireExplanation == nil || *c.RequireExplanation
}

// Parallel reports whether jurors run concurrently.
func (c *JuryConfig) Parallel() bool {
	return c.ParallelExecution == nil || *c.ParallelExecution
}

// Attempts returns how many times a juror may try to produce a usable
// evaluation. It is never less than one.
func (c *JuryConfig) Attempts() int {
	if c.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return max(*c.MaxRetries, 1)
}

// Concurrency returns the juror pool size for n jurors.
func (c *JuryConfig) Concurrency(n int) int {
	limit := c.MaxConcurrency
	if limit <= 0 || limit > DefaultMaxConcurrency {
		limit = DefaultMaxConcurrency
	}
	return max(min(n, limit), 1)
}

// TotalJurorWeight returns the sum of all juror weights.
func (c *JuryConfig) TotalJurorWeight() float64 {
	var total float64
	for _, j := range c.Jurors {
		total += j.EffectiveWeight()
	}
	return total
}

// TotalCriteriaWeight returns the sum of all criterion weights.
func (c *JuryConfig) TotalCriteriaWeight() float64 {
	var total float64
	for _, cr := range c.Criteria {
		total += cr.EffectiveWeight()
	}
	return total
}

// DomainCriteria converts the configured criteria to domain criteria.
func (c *JuryConfig) DomainCriteria() []domain.Criterion {
	out := make([]domain.Criterion, 0, len(c.Criteria))
	for _, cr := range c.Criteria {
		out = append(out, cr.Domain())
	}
	return out
}

// EffectiveWeight returns the configured weight or 1.
func (c CriterionConfig) EffectiveWeight() float64 {
	if c.Weight == nil {
		return 1
	}
	return *c.Weight
}

// Domain converts the configuration to a domain.Criterion.
func (c CriterionConfig) Domain() domain.Criterion {
	maxScore := c.MaxScore
	if maxScore == 0 {
		maxScore = domain.DefaultMaxScore
	}
	return domain.Criterion{
		Name:        c.Name,
		Description: c.Description,
		Weight:      c.EffectiveWeight(),
		MaxScore:    maxScore,
	}
}

// EffectiveWeight returns the configured weight or 1.
func (j JurorConfig) EffectiveWeight() float64 {
	if j.Weight == nil {
		return 1
	}
	return *j.Weight
}

// EffectiveTemperature returns the configured temperature or the default.
func (j JurorConfig) EffectiveTemperature() float64 {
	if j.Temperature == nil {
		return DefaultTemperature
	}
	return *j.Temperature
}

func ptr[T any](v T) *T { return &v }
