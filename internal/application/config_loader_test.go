package application

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

const validJuryYAML = `
name: answer-quality
description: Compares candidate answers
criteria:
  - name: factuality
    description: Is it true?
    max_score: 10
  - name: clarity
    description: Is it easy to follow?
    weight: 0.5
jurors:
  - name: strict
    provider: openai
    model: gpt-4o
    weight: 2
  - name: lenient
    temperature: 0.7
voting_method: weighted
`

func TestConfigLoader_LoadAppliesDefaults(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	cfg, err := loader.Load([]byte(validJuryYAML))
	require.NoError(t, err)

	assert.Equal(t, "answer-quality", cfg.Name)
	assert.Equal(t, domain.VotingWeighted, cfg.VotingMethod)
	assert.True(t, cfg.ExplanationRequired())
	assert.True(t, cfg.Parallel())
	assert.Equal(t, DefaultMaxRetries, cfg.Attempts())
	assert.Equal(t, DefaultMaxConcurrency, cfg.MaxConcurrency)
	assert.Equal(t, DefaultLLMTimeoutSecs, cfg.LLM.TimeoutSeconds)

	require.Len(t, cfg.Criteria, 2)
	assert.Equal(t, 10, cfg.Criteria[0].MaxScore)
	assert.Equal(t, domain.DefaultMaxScore, cfg.Criteria[1].MaxScore)
	assert.Equal(t, 1.5, cfg.TotalCriteriaWeight())

	require.Len(t, cfg.Jurors, 2)
	assert.Equal(t, DefaultJurorModel, cfg.Jurors[1].Model)
	assert.Equal(t, 0.7, cfg.Jurors[1].EffectiveTemperature())
	assert.Equal(t, DefaultTemperature, cfg.Jurors[0].EffectiveTemperature())
	assert.Equal(t, 3.0, cfg.TotalJurorWeight())

	criteria := cfg.DomainCriteria()
	assert.Equal(t, domain.Criterion{Name: "clarity", Description: "Is it easy to follow?", Weight: 0.5, MaxScore: 5}, criteria[1])
}

func TestConfigLoader_AcceptsJSON(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	cfg, err := loader.Load([]byte(`{
		"name": "json-jury",
		"criteria": [{"name": "relevance", "description": "On topic?"}],
		"jurors": [{"name": "one"}],
		"max_retries": 0,
		"parallel_execution": false
	}`))
	require.NoError(t, err)
	assert.Equal(t, domain.VotingMajority, cfg.VotingMethod)
	assert.Equal(t, 1, cfg.Attempts(), "zero retries still allows one attempt")
	assert.False(t, cfg.Parallel())
}

func TestConfigLoader_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name:    "missing name",
			yaml:    "criteria: [{name: a, description: d}]\njurors: [{name: j}]\n",
			wantMsg: "Name is required",
		},
		{
			name:    "no jurors",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: []\n",
			wantMsg: "Jurors",
		},
		{
			name:    "duplicate juror names",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j}, {name: j}]\n",
			wantMsg: "unique",
		},
		{
			name:    "unknown voting method",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j}]\nvoting_method: borda\n",
			wantMsg: "not a recognized voting method",
		},
		{
			name:    "custom without strategy",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j}]\nvoting_method: custom\n",
			wantMsg: "CustomStrategy is required",
		},
		{
			name:    "temperature out of range",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j, temperature: 3}]\n",
			wantMsg: "Temperature must be at most 2",
		},
		{
			name:    "negative juror weight",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j, weight: -1}]\n",
			wantMsg: "Weight must be at least 0",
		},
		{
			name:    "concurrency above cap",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j}]\nmax_concurrency: 11\n",
			wantMsg: "MaxConcurrency must be at most 10",
		},
		{
			name:    "unsupported provider",
			yaml:    "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j, provider: cohere}]\n",
			wantMsg: "Provider must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewConfigLoader(nil)
			require.NoError(t, err)

			_, err = loader.Load([]byte(tt.yaml))
			require.Error(t, err)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, errors.Is(err, domain.ErrInvalidConfiguration))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfigLoader_ParseErrors(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	_, err = loader.Load([]byte("name: x\nunknown_field: 1\n"))
	assert.ErrorContains(t, err, "unknown_field")

	_, err = loader.Load([]byte(""))
	assert.ErrorContains(t, err, "empty document")

	_, err = loader.Load([]byte("name: [unterminated"))
	assert.Error(t, err)
}

func TestConfigLoader_CustomStrategyMustBeRegistered(t *testing.T) {
	registry := NewStrategyRegistry()
	loader, err := NewConfigLoader(registry)
	require.NoError(t, err)

	doc := "name: x\ncriteria: [{name: a, description: d}]\njurors: [{name: j}]\nvoting_method: custom\ncustom_strategy: mine\n"

	_, err = loader.Load([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `custom_strategy "mine" is not registered`)

	require.NoError(t, registry.RegisterFunc("mine", pickFirst))
	cfg, err := loader.Load([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "mine", cfg.CustomStrategy)

	registry.Unregister("mine")
	_, err = loader.Load([]byte(doc))
	require.Error(t, err, "a cached config must still name a registered strategy")
	assert.Contains(t, err.Error(), `custom_strategy "mine" is not registered`)
}

func TestConfigLoader_AcceptsLegacyKeys(t *testing.T) {
	registry := NewStrategyRegistry()
	require.NoError(t, registry.RegisterFunc("mine", pickFirst))
	loader, err := NewConfigLoader(registry)
	require.NoError(t, err)

	legacy := `
name: x
criteria: [{name: a, description: d}]
jurors:
  - name: j
    model_name: gpt-4o
  - name: k
    model: claude
    model_name: ignored
voting_method: custom
custom_voting_function: mine
`
	cfg, err := loader.Load([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, "mine", cfg.CustomStrategy)
	assert.Empty(t, cfg.CustomVotingFunction)
	assert.Equal(t, "gpt-4o", cfg.Jurors[0].Model)
	assert.Equal(t, "claude", cfg.Jurors[1].Model)
	assert.Empty(t, cfg.Jurors[0].ModelName)

	current := strings.NewReplacer("model_name: gpt-4o", "model: gpt-4o", "    model_name: ignored\n", "", "custom_voting_function", "custom_strategy").Replace(legacy)
	same, err := loader.Load([]byte(current))
	require.NoError(t, err)
	assert.Same(t, cfg, same)
}

func TestConfigLoader_CachesByNormalizedContent(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	a, err := loader.Load([]byte(validJuryYAML))
	require.NoError(t, err)
	b, err := loader.Load([]byte(strings.Replace(validJuryYAML, "name: answer-quality", "name: \"answer-quality\"  # quoted", 1)))
	require.NoError(t, err)
	assert.Same(t, a, b)

	loader.ClearCache()
	c, err := loader.Load([]byte(validJuryYAML))
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, a, c)
}

func TestConfigLoader_ConcurrentLoads(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	results := make([]*JuryConfig, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg, err := loader.Load([]byte(validJuryYAML))
			assert.NoError(t, err)
			results[i] = cfg
		}()
	}
	wg.Wait()

	for _, cfg := range results {
		assert.Equal(t, results[0], cfg)
	}
}

func TestConfigLoader_LoadFromFile(t *testing.T) {
	loader, err := NewConfigLoader(nil)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "jury.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validJuryYAML), 0o600))

	cfg, err := loader.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "answer-quality", cfg.Name)

	_, err = loader.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ports.ErrConfigNotFound)

	cfg, err = loader.LoadFromReader(strings.NewReader(validJuryYAML))
	require.NoError(t, err)
	assert.Equal(t, "answer-quality", cfg.Name)
}

func TestJuryConfig_Concurrency(t *testing.T) {
	cfg := &JuryConfig{MaxConcurrency: 4}
	assert.Equal(t, 3, cfg.Concurrency(3))
	assert.Equal(t, 4, cfg.Concurrency(12))

	cfg.MaxConcurrency = 0
	assert.Equal(t, 10, cfg.Concurrency(25))
	assert.Equal(t, 1, cfg.Concurrency(0))
}
