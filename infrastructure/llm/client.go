// Package llm provides the provider clients that back LLM jurors.
//
// Every provider (OpenAI, OpenRouter, Anthropic, Google) is hidden behind the
// CoreLLM interface and exposed as a ports.LLMClient. Cross-cutting concerns
// such as retries, pacing, timeouts, metrics and tracing are layered on with
// middleware so juror code never sees provider details.
//
// Basic usage:
//
//	client, err := llm.NewClient("openrouter", llm.ClientConfig{
//	    APIKey: creds.APIKey,
//	    Model:  "openrouter/horizon-alpha",
//	    Middleware: []llm.Middleware{
//	        llm.TracingMiddleware("jury"),
//	        llm.RetryMiddleware(3, time.Second, 10*time.Second),
//	        llm.RateLimitMiddleware(2, 4),
//	    },
//	})
//	reply, err := client.Complete(ctx, prompt, map[string]any{"system": sys})
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-jury/internal/ports"
)

var _ ports.LLMClient = (*Client)(nil)

// CoreLLM is the minimal surface a provider implements. Middleware wraps a
// CoreLLM and returns another one.
type CoreLLM interface {
	// DoRequest sends prompt to the provider and returns the reply text
	// along with input and output token counts.
	DoRequest(
		ctx context.Context,
		prompt string,
		opts map[string]any,
	) (
		response string,
		tokensIn, tokensOut int,
		err error,
	)

	// GetModel returns the configured model name.
	GetModel() string

	// SetModel changes the model used for subsequent requests.
	SetModel(model string)
}

// ClientConfig holds the settings for creating a Client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model is the model name sent with each request.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string

	// Timeout bounds the underlying HTTP client. Zero leaves it unbounded.
	Timeout time.Duration

	// Middleware is applied in order; the first entry is the outermost.
	Middleware []Middleware
}

// Middleware wraps a CoreLLM to add behavior around each request.
type Middleware func(CoreLLM) CoreLLM

// Client implements ports.LLMClient on top of a middleware-wrapped CoreLLM.
type Client struct {
	core    CoreLLM
	counter *TokenCounter
}

// NewClient creates a client for providerType. Providers register
// themselves in init; see RegisterProviderFactory.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	// Apply middleware in reverse order so the first middleware is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return NewClientFromCore(core), nil
}

// NewClientFromCore wraps an already assembled CoreLLM.
func NewClientFromCore(core CoreLLM) *Client {
	return &Client{core: core, counter: NewTokenCounter()}
}

// Complete sends prompt to the provider and returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	response, _, _, err := c.CompleteWithUsage(ctx, prompt, options)
	return response, err
}

// CompleteWithUsage is Complete plus the provider's token counts.
func (c *Client) CompleteWithUsage(
	ctx context.Context,
	prompt string,
	options map[string]any,
) (string, int, int, error) {
	return c.core.DoRequest(ctx, prompt, options)
}

// EstimateTokens returns an approximate token count for text.
func (c *Client) EstimateTokens(text string) (int, error) {
	return c.counter.EstimateTokens(text), nil
}

// GetModel returns the model name of the underlying provider.
func (c *Client) GetModel() string { return c.core.GetModel() }

// ProviderFactory creates a CoreLLM from configuration.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory makes a provider available to NewClient.
// It is intended to be called from init functions.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}

// HasProvider reports whether a factory is registered for providerType.
func HasProvider(providerType string) bool {
	_, ok := providerFactories[providerType]
	return ok
}
