package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		config   ClientConfig
		wantErr  error
		wantMsg  string
	}{
		{
			name:     "missing api key",
			provider: "openai",
			config:   ClientConfig{Model: "gpt-4o"},
			wantErr:  ErrEmptyAPIKey,
		},
		{
			name:     "missing model",
			provider: "openai",
			config:   ClientConfig{APIKey: "k"},
			wantMsg:  "model is required",
		},
		{
			name:     "unknown provider",
			provider: "bogus",
			config:   ClientConfig{APIKey: "k", Model: "m"},
			wantErr:  ErrUnsupportedProvider,
		},
		{
			name:     "invalid base url",
			provider: "openai",
			config:   ClientConfig{APIKey: "k", Model: "m", BaseURL: "ftp://example.com"},
			wantMsg:  "invalid BaseURL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.provider, tt.config)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNewClient_RegisteredProviders(t *testing.T) {
	for _, name := range []string{"openai", "openrouter", "anthropic", "google"} {
		assert.True(t, HasProvider(name), name)
	}

	client, err := NewClient("openrouter", ClientConfig{APIKey: "k", Model: "openrouter/horizon-alpha"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter/horizon-alpha", client.GetModel())
}

func TestNewClient_MiddlewareOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next CoreLLM) CoreLLM {
			return &orderLLM{CoreLLM: next, name: name, order: &order}
		}
	}

	RegisterProviderFactory("test-order", func(ClientConfig) (CoreLLM, error) {
		return newMockCoreLLM(), nil
	})

	client, err := NewClient("test-order", ClientConfig{
		APIKey:     "k",
		Model:      "m",
		Middleware: []Middleware{tag("outer"), tag("inner")},
	})
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", reply)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

type orderLLM struct {
	CoreLLM
	name  string
	order *[]string
}

func (o *orderLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error) {
	*o.order = append(*o.order, o.name)
	return o.CoreLLM.DoRequest(ctx, prompt, opts)
}

func TestClient_CompleteWithUsageAndEstimate(t *testing.T) {
	core := newMockCoreLLM()
	client := NewClientFromCore(core)

	reply, in, out, err := client.CompleteWithUsage(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "test response", reply)
	assert.Equal(t, 10, in)
	assert.Equal(t, 20, out)

	n, err := client.EstimateTokens("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "test-model", client.GetModel())
}

func TestParseRequestOptions(t *testing.T) {
	opts := ParseRequestOptions(map[string]any{
		"max_tokens":      512,
		"temperature":     0.3,
		"top_p":           float32(0.5),
		"system_prompt":   "be fair",
		"response_format": "json_object",
	}, "default-model")

	assert.Equal(t, 512, opts.MaxTokens)
	assert.Equal(t, "default-model", opts.Model)
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.3, *opts.Temperature, 1e-9)
	require.NotNil(t, opts.TopP)
	assert.InDelta(t, 0.5, *opts.TopP, 1e-6)
	assert.Equal(t, "be fair", opts.System)
	assert.Equal(t, map[string]any{"response_format": "json_object"}, opts.Extra)

	defaults := ParseRequestOptions(map[string]any{"temperature": 5.0, "max_tokens": -1}, "m")
	assert.Nil(t, defaults.Temperature)
	assert.Equal(t, DefaultMaxTokens, defaults.MaxTokens)
}
