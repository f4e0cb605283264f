package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     Credentials
		wantErr  error
	}{
		{
			name: "defaults to openrouter",
			env:  map[string]string{"OPENROUTER_API_KEY": "or-key"},
			want: Credentials{Provider: "openrouter", APIKey: "or-key", BaseURL: OpenRouterBaseURL},
		},
		{
			name: "provider from environment",
			env:  map[string]string{"LLM_PROVIDER": "OpenAI", "OPENAI_API_KEY": "sk"},
			want: Credentials{Provider: "openai", APIKey: "sk", BaseURL: "https://api.openai.com/v1"},
		},
		{
			name:     "explicit provider wins",
			provider: "anthropic",
			env:      map[string]string{"LLM_PROVIDER": "openai", "ANTHROPIC_API_KEY": "ak"},
			want:     Credentials{Provider: "anthropic", APIKey: "ak"},
		},
		{
			name:     "google",
			provider: "google",
			env:      map[string]string{"GOOGLE_API_KEY": "gk"},
			want:     Credentials{Provider: "google", APIKey: "gk"},
		},
		{
			name:     "missing key",
			provider: "openai",
			wantErr:  ErrMissingCredentials,
		},
		{
			name:     "unsupported provider",
			provider: "cohere",
			wantErr:  ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveCredentials(tt.provider, func(k string) string { return tt.env[k] })
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCredentials_ReadsProcessEnvironment(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "from-env")

	got, err := ResolveCredentials("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got.APIKey)
}
