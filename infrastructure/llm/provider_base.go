package llm

import (
	"sync"
)

// DefaultMaxTokens is the completion budget used when a request does not set
// max_tokens. Juror replies carry one explanation per response and
// criterion, so the budget is generous.
const DefaultMaxTokens = 2048

// BaseProvider provides thread-safe model name storage shared by providers.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the provider-neutral form of a request's option map.
type RequestOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int
	// Model overrides the provider's configured model for one request.
	Model string
	// Temperature is nil when the provider default should be used.
	Temperature *float64
	// TopP is nil when the provider default should be used.
	TopP *float64
	// System holds the system prompt.
	System string
	// Extra holds options the standard set does not cover.
	Extra map[string]any
}

// ParseRequestOptions extracts the standard options from opts. Invalid
// values fall back to defaults; unknown keys are collected into Extra.
//
// Recognized keys: max_tokens, model, system (or system_prompt),
// temperature, top_p.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: extractInt(opts, "max_tokens", DefaultMaxTokens, IsPositiveInt),
		Model:     extractString(opts, "model", defaultModel, IsNonEmptyString),
		System:    extractString(opts, "system", "", nil),
		Extra:     make(map[string]any),
	}
	if options.System == "" {
		options.System = extractString(opts, "system_prompt", "", nil)
	}

	if temp, ok := extractFloat(opts, "temperature", IsValidTemperature); ok {
		options.Temperature = &temp
	}
	if topP, ok := extractFloat(opts, "top_p", IsValidTopP); ok {
		options.TopP = &topP
	}

	for k, v := range opts {
		switch k {
		case "max_tokens", "model", "system", "system_prompt", "temperature", "top_p":
		default:
			options.Extra[k] = v
		}
	}

	return options
}

func extractInt(opts map[string]any, key string, defaultVal int, valid func(int) bool) int {
	v, ok := SafeInt(opts[key])
	if !ok || (valid != nil && !valid(v)) {
		return defaultVal
	}
	return v
}

func extractString(opts map[string]any, key, defaultVal string, valid func(string) bool) string {
	v, ok := opts[key].(string)
	if !ok || (valid != nil && !valid(v)) {
		return defaultVal
	}
	return v
}

// extractFloat accepts any numeric type so that options decoded from JSON or
// YAML work the same as literals.
func extractFloat(opts map[string]any, key string, valid func(float64) bool) (float64, bool) {
	var v float64
	switch n := opts[key].(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	default:
		return 0, false
	}
	if valid != nil && !valid(v) {
		return 0, false
	}
	return v, true
}

// TokenCounter estimates token counts when a provider does not report them.
type TokenCounter struct {
	// CharactersPerToken is the average number of characters per token.
	CharactersPerToken float64
}

// NewTokenCounter creates a counter using four characters per token.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{CharactersPerToken: 4.0}
}

// EstimateTokens returns an approximate token count for text.
func (tc *TokenCounter) EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / tc.CharactersPerToken)
}

// GetTokenCount returns actualCount when the provider reported one and an
// estimate otherwise.
func (tc *TokenCounter) GetTokenCount(actualCount int, text string) int {
	if actualCount > 0 {
		return actualCount
	}
	return tc.EstimateTokens(text)
}
