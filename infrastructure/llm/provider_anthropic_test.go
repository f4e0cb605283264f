package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/ports"
)

func TestAnthropicProvider_DoRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "scored"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 15, "output_tokens": 4}
		}`))
	}))
	defer server.Close()

	provider, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	reply, in, out, err := provider.DoRequest(context.Background(), "judge", map[string]any{
		"system":      "you are a juror",
		"temperature": 1.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "scored", reply)
	assert.Equal(t, 15, in)
	assert.Equal(t, 4, out)

	assert.Equal(t, AnthropicDefaultModel, captured["model"])
	assert.Equal(t, float64(DefaultMaxTokens), captured["max_tokens"])
	assert.Equal(t, 1.0, captured["temperature"], "temperature is clamped to the provider maximum")
	system := captured["system"].([]any)
	require.Len(t, system, 1)
	assert.Equal(t, "you are a juror", system[0].(map[string]any)["text"])
}

func TestAnthropicProvider_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	provider, err := newAnthropicProvider(ClientConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	_, _, _, err = provider.DoRequest(context.Background(), "judge", nil)
	assert.ErrorIs(t, err, ports.ErrAuthenticationFailed)
	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, http.StatusUnauthorized, providerErr.StatusCode)
	assert.False(t, providerErr.IsRetryable())
}

func TestNewAnthropicProvider_Validation(t *testing.T) {
	_, err := newAnthropicProvider(ClientConfig{})
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	_, err = newAnthropicProvider(ClientConfig{APIKey: "k", BaseURL: "not a url"})
	assert.Error(t, err)

	p, err := newAnthropicProvider(ClientConfig{APIKey: "k", Model: "claude-3-opus-20240229"})
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus-20240229", p.GetModel())
}
