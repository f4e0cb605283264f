package llm

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables read by ResolveCredentials.
const (
	EnvProvider = "LLM_PROVIDER"
	// DefaultProvider is used when neither the caller nor LLM_PROVIDER names
	// a provider.
	DefaultProvider = "openrouter"
)

// Credentials is the resolved connection information for one provider.
type Credentials struct {
	Provider string
	APIKey   string
	// BaseURL is empty when the provider SDK's default endpoint applies.
	BaseURL string
}

type providerEnv struct {
	keyVar  string
	baseURL string
}

var providerEnvs = map[string]providerEnv{
	"openai":     {keyVar: "OPENAI_API_KEY", baseURL: "https://api.openai.com/v1"},
	"openrouter": {keyVar: "OPENROUTER_API_KEY", baseURL: OpenRouterBaseURL},
	"anthropic":  {keyVar: "ANTHROPIC_API_KEY"},
	"google":     {keyVar: "GOOGLE_API_KEY"},
}

// ResolveCredentials looks up the API key and endpoint for provider from the
// environment. An empty provider falls back to LLM_PROVIDER, then to
// DefaultProvider.
func ResolveCredentials(provider string) (Credentials, error) {
	return resolveCredentials(provider, os.Getenv)
}

func resolveCredentials(provider string, getenv func(string) string) (Credentials, error) {
	if provider == "" {
		provider = getenv(EnvProvider)
	}
	if provider == "" {
		provider = DefaultProvider
	}
	provider = strings.ToLower(strings.TrimSpace(provider))

	env, ok := providerEnvs[provider]
	if !ok {
		return Credentials{}, fmt.Errorf("%w: %s", ErrUnsupportedProvider, provider)
	}

	key := getenv(env.keyVar)
	if key == "" {
		return Credentials{}, fmt.Errorf("%w: %s is not set", ErrMissingCredentials, env.keyVar)
	}

	return Credentials{Provider: provider, APIKey: key, BaseURL: env.baseURL}, nil
}
