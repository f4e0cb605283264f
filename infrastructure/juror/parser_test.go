package juror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

func testParser() parser {
	return parser{
		responses: []domain.ResponseCandidate{
			{ID: "response_1", Alias: "gpt", Content: "a"},
			{ID: "response_2", Content: "b"},
		},
		criteria: []domain.Criterion{
			{Name: "factuality", MaxScore: 5},
			{Name: "clarity", MaxScore: 5},
		},
	}
}

func TestParser_FencedJSON(t *testing.T) {
	text := "Here is my evaluation:\n```json\n" + `{
  "evaluations": [
    {
      "response_id": "response_1",
      "scores": {
        "CriterionType.FACTUALITY": {"score": 5, "explanation": "accurate"},
        "Clarity": {"score": "4", "explanation": "clear"}
      },
      "overall_comment": "strong"
    },
    {
      "response_id": "Response_2",
      "scores": {"factuality": 2, "clarty": {"score": 3}},
      "overall_comment": "weak"
    }
  ]
}` + "\n```\nThanks."

	out, err := testParser().parse(text)
	require.NoError(t, err)
	assert.False(t, out.fallback)

	assert.Equal(t, map[string]map[string]float64{
		"response_1": {"factuality": 5, "clarity": 4},
		"response_2": {"factuality": 2, "clarity": 3},
	}, out.result.Scores)
	assert.Equal(t, "accurate", out.result.Explanations["response_1"]["factuality"])
	assert.Equal(t, "weak", out.result.Explanations["response_2"]["factuality"], "bare numbers take the overall comment")
	assert.Equal(t, "weak", out.result.Explanations["response_2"]["clarity"])
	assert.Equal(t, map[string]string{"response_1": "strong", "response_2": "weak"}, out.result.Comments)
	require.NoError(t, testParser().complete(out.result))
}

func TestParser_RawJSONAndAliases(t *testing.T) {
	text := `Sure. {"evaluations": [
		{"response_id": "GPT", "scores": {"factuality": 1, "clarity": 1}},
		{"response_id": "unknown", "scores": {"factuality": 5}},
		{"response_id": "response_2", "scores": {"factuality": 3, "tone": 5}}
	]}`

	out, err := testParser().parse(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]float64{
		"response_1": {"factuality": 1, "clarity": 1},
		"response_2": {"factuality": 3},
	}, out.result.Scores)

	err = testParser().complete(out.result)
	assert.ErrorIs(t, err, ErrIncompleteEvaluation)
	assert.Contains(t, err.Error(), "response_2, criterion clarity")
}

func TestParser_DuplicateKeysResolveDeterministically(t *testing.T) {
	tests := []struct {
		name   string
		scores string
		want   float64
	}{
		{"exact beats case folded", `{"Clarity": 5, "clarity": 2}`, 2},
		{"exact beats fuzzy", `{"clarty": 4, "clarity": 1}`, 1},
		{"case folded beats fuzzy", `{"clarty": 4, "CLARITY": 3}`, 3},
		{"equal matches keep the first sorted key", `{"Clarity": 5, "CLARITY": 2}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := `{"evaluations": [{"response_id": "response_1", "scores": ` + tt.scores + `}]}`
			for range 50 {
				out, err := testParser().parse(text)
				require.NoError(t, err)
				require.Equal(t, tt.want, out.result.Scores["response_1"]["clarity"])
			}
		})
	}
}

func TestParser_InvalidScores(t *testing.T) {
	tests := []struct {
		name  string
		score string
	}{
		{"out of range", `7`},
		{"zero", `0`},
		{"not a number", `"excellent"`},
		{"null", `null`},
		{"object without score", `{"explanation": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := `{"evaluations": [{"response_id": "response_1", "scores": {"factuality": ` + tt.score + `}}]}`
			_, err := testParser().parse(text)
			assert.ErrorIs(t, err, ports.ErrInvalidResponse)
		})
	}
}

func TestParser_Fallback(t *testing.T) {
	t.Run("enough integers", func(t *testing.T) {
		out, err := testParser().parse("Response one: 4 and 5. Response two: 2, 3.")
		require.NoError(t, err)
		assert.True(t, out.fallback)
		assert.Equal(t, map[string]map[string]float64{
			"response_1": {"factuality": 4, "clarity": 5},
			"response_2": {"factuality": 2, "clarity": 3},
		}, out.result.Scores)
		assert.Equal(t, fallbackExplanation, out.result.Explanations["response_2"]["clarity"])
	})

	t.Run("too few integers", func(t *testing.T) {
		out, err := testParser().parse("I liked the first one best, 9 out of 10.")
		require.NoError(t, err)
		assert.True(t, out.fallback)
		for _, id := range []string{"response_1", "response_2"} {
			assert.Equal(t, map[string]float64{"factuality": 3, "clarity": 3}, out.result.Scores[id])
			assert.Equal(t, defaultExplanation, out.result.Explanations[id]["factuality"])
		}
		require.NoError(t, testParser().complete(out.result))
	})

	t.Run("midpoint follows the scale", func(t *testing.T) {
		p := parser{
			responses: []domain.ResponseCandidate{{ID: "r"}},
			criteria:  []domain.Criterion{{Name: "depth", MaxScore: 10}},
		}
		out, err := p.parse("no numbers here")
		require.NoError(t, err)
		assert.Equal(t, 5.5, out.result.Scores["r"]["depth"])
	})
}

func TestBestMatch(t *testing.T) {
	names := []string{"factuality", "clarity", "logical_reasoning"}

	tests := []struct {
		key     string
		want    int
		quality matchQuality
		found   bool
	}{
		{"factuality", 0, matchExact, true},
		{"CLARITY", 1, matchFolded, true},
		{"logical_reasonin", 2, matchFuzzy, true},
		{"logicalreasoning", 2, matchFuzzy, true},
		{"style", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, quality, ok := bestMatch(tt.key, names)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.quality, quality)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("café", "café"))
	assert.InDelta(t, 0.75, similarity("café", "cafe"), 1e-9)
	assert.Equal(t, 0.0, similarity("abc", "xyz"))
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a": 1}`, extractJSON("```json\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": 1}`, extractJSON("```\n{\"a\": 1}\n```"))
	assert.Equal(t, `{"a": {"b": 2}}`, extractJSON(`prefix {"a": {"b": 2}} suffix`))
	assert.Equal(t, "plain text", extractJSON("  plain text  "))
}
