package juror

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
	"github.com/ahrav/go-jury/internal/testutils"
)

const completeReply = "```json\n" + `{"evaluations": [
  {"response_id": "r1", "scores": {"factuality": {"score": 5, "explanation": "right"}}, "overall_comment": "good"},
  {"response_id": "r2", "scores": {"factuality": {"score": 2, "explanation": "wrong"}}}
]}` + "\n```"

const partialReply = `{"evaluations": [
  {"response_id": "r1", "scores": {"factuality": 5}}
]}`

func testCandidates() []domain.ResponseCandidate {
	return []domain.ResponseCandidate{
		{ID: "r1", Content: "Paris"},
		{ID: "r2", Content: "Lyon"},
	}
}

func testCriteria() []domain.Criterion {
	return []domain.Criterion{{Name: "factuality", Weight: 1, MaxScore: 5}}
}

func newTestJuror(t *testing.T, client ports.LLMClient, cfg Config) *LLMJuror {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = "alice"
	}
	j, err := New(cfg, client)
	require.NoError(t, err)
	return j
}

func TestNew(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o")

	tests := []struct {
		name    string
		cfg     Config
		client  ports.LLMClient
		wantErr string
	}{
		{name: "valid", cfg: Config{Name: "alice"}, client: client},
		{name: "missing name", cfg: Config{}, client: client, wantErr: "juror name is required"},
		{name: "missing client", cfg: Config{Name: "alice"}, wantErr: "LLM client is required"},
		{
			name:    "bad template",
			cfg:     Config{Name: "alice", EvaluationTemplate: "{{.Prompt"},
			client:  client,
			wantErr: "failed to parse evaluation template",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := New(tt.cfg, tt.client)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultSystemPrompt, j.cfg.SystemPrompt)
			assert.Equal(t, 1, j.cfg.Attempts)
		})
	}
}

func TestLLMJuror_Accessors(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o")

	j := newTestJuror(t, client, Config{Name: "alice", Weight: 2})
	assert.Equal(t, "alice", j.Name())
	assert.Equal(t, 2.0, j.Weight())
	assert.Equal(t, "gpt-4o", j.Model())

	j = newTestJuror(t, client, Config{Model: "claude-3-5-sonnet"})
	assert.Equal(t, "claude-3-5-sonnet", j.Model())
}

func TestLLMJuror_Evaluate(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o").Enqueue(testutils.MockResponse{Response: completeReply})
	j := newTestJuror(t, client, Config{
		SystemPrompt: "be strict",
		Temperature:  0.2,
		MaxTokens:    512,
		Model:        "gpt-4o-mini",
	})

	result, err := j.Evaluate(context.Background(), "Capital of France?", testCandidates(), testCriteria())
	require.NoError(t, err)

	assert.Equal(t, map[string]map[string]float64{
		"r1": {"factuality": 5},
		"r2": {"factuality": 2},
	}, result.Scores)
	assert.Equal(t, "right", result.Explanations["r1"]["factuality"])
	assert.Equal(t, "good", result.Comments["r1"])

	calls := client.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Capital of France?")
	assert.Equal(t, map[string]any{
		"system":      "be strict",
		"temperature": 0.2,
		"model":       "gpt-4o-mini",
		"max_tokens":  512,
	}, calls[0].Options)
}

func TestLLMJuror_ExplanationInstruction(t *testing.T) {
	tests := []struct {
		name     string
		optional bool
		want     string
	}{
		{"required by default", false, "Provide a brief explanation for each score"},
		{"optional", true, "Explanations are optional"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutils.NewMockLLMClient("gpt-4o").Enqueue(testutils.MockResponse{Response: completeReply})
			j := newTestJuror(t, client, Config{OptionalExplanations: tt.optional})

			_, err := j.Evaluate(context.Background(), "q", testCandidates(), testCriteria())
			require.NoError(t, err)

			calls := client.Calls()
			require.Len(t, calls, 1)
			assert.Contains(t, calls[0].Prompt, tt.want)
		})
	}
}

func TestLLMJuror_FallbackReply(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o").Enqueue(testutils.MockResponse{
		Response: "The first answer deserves a 4, the second a 1.",
	})
	j := newTestJuror(t, client, Config{})

	result, err := j.Evaluate(context.Background(), "q", testCandidates(), testCriteria())
	require.NoError(t, err)
	assert.Equal(t, 4.0, result.Scores["r1"]["factuality"])
	assert.Equal(t, 1.0, result.Scores["r2"]["factuality"])
}

func TestLLMJuror_Retries(t *testing.T) {
	tests := []struct {
		name      string
		replies   []testutils.MockResponse
		attempts  int
		wantErr   error
		wantCalls int
	}{
		{
			name: "incomplete then complete",
			replies: []testutils.MockResponse{
				{Response: partialReply},
				{Response: completeReply},
			},
			attempts:  3,
			wantCalls: 2,
		},
		{
			name: "llm error then complete",
			replies: []testutils.MockResponse{
				{Err: ports.ErrServiceUnavailable},
				{Response: completeReply},
			},
			attempts:  2,
			wantCalls: 2,
		},
		{
			name: "always incomplete",
			replies: []testutils.MockResponse{
				{Response: partialReply},
				{Response: partialReply},
			},
			attempts:  2,
			wantErr:   ErrIncompleteEvaluation,
			wantCalls: 2,
		},
		{
			name: "out of range score",
			replies: []testutils.MockResponse{
				{Response: `{"evaluations": [{"response_id": "r1", "scores": {"factuality": 9}}]}`},
			},
			attempts:  1,
			wantErr:   ports.ErrInvalidResponse,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutils.NewMockLLMClient("gpt-4o").Enqueue(tt.replies...)
			j := newTestJuror(t, client, Config{Attempts: tt.attempts})

			result, err := j.Evaluate(context.Background(), "q", testCandidates(), testCriteria())
			assert.Len(t, client.Calls(), tt.wantCalls)

			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Len(t, result.Scores, 2)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
			var jurorErr *JurorError
			require.True(t, errors.As(err, &jurorErr))
			assert.Equal(t, "alice", jurorErr.Juror)
			assert.Equal(t, tt.wantCalls, jurorErr.Attempts)
		})
	}
}

func TestLLMJuror_LLMErrorIsWrapped(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o").Enqueue(testutils.MockResponse{Err: ports.ErrRateLimited})
	j := newTestJuror(t, client, Config{})

	_, err := j.Evaluate(context.Background(), "q", testCandidates(), testCriteria())

	var llmErr *ports.LLMError
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, "gpt-4o", llmErr.Model)
	assert.Equal(t, "evaluate", llmErr.Operation)
	assert.True(t, llmErr.IsRetryable())
	assert.ErrorContains(t, err, "juror alice failed to evaluate after 1 attempts")
}

func TestLLMJuror_InvalidInput(t *testing.T) {
	j := newTestJuror(t, testutils.NewMockLLMClient("gpt-4o"), Config{})

	_, err := j.Evaluate(context.Background(), "q", nil, testCriteria())
	assert.ErrorIs(t, err, ErrNoResponses)

	_, err = j.Evaluate(context.Background(), "q", testCandidates(), nil)
	assert.ErrorIs(t, err, ErrNoCriteria)
}

func TestLLMJuror_ContextCanceled(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o").AddResponse(testutils.MockResponse{Response: completeReply})
	j := newTestJuror(t, client, Config{Attempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := j.Evaluate(ctx, "q", testCandidates(), testCriteria())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.Calls())

	var jurorErr *JurorError
	require.True(t, errors.As(err, &jurorErr))
	assert.Equal(t, 0, jurorErr.Attempts)
}

func TestLLMJuror_CustomTemplate(t *testing.T) {
	client := testutils.NewMockLLMClient("gpt-4o").AddResponse(testutils.MockResponse{
		Pattern:  "JUDGE:",
		Response: completeReply,
	})
	j := newTestJuror(t, client, Config{EvaluationTemplate: "JUDGE: {{.Prompt}} {{len .Responses}}"})

	_, err := j.Evaluate(context.Background(), "q", testCandidates(), testCriteria())
	require.NoError(t, err)
	assert.Equal(t, "JUDGE: q 2", client.Calls()[0].Prompt)
}
