package juror

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/ahrav/go-jury/internal/domain"
)

// DefaultSystemPrompt is used when a juror has no system prompt configured.
const DefaultSystemPrompt = `You are an expert evaluator tasked with judging the quality of responses.
You will evaluate responses based on specific criteria and provide scores with explanations.
Be objective, fair, and consistent in your evaluations.`

// DefaultEvaluationTemplate is the text/template used to build the user
// prompt. It is executed with a promptData value.
const DefaultEvaluationTemplate = `Please evaluate the following responses to the given prompt.

**Original Prompt:**
{{.Prompt}}

**Responses to Evaluate:**
{{range $i, $r := .Responses}}
**Response {{add $i 1}} - {{$r.DisplayName}}{{if $r.ModelName}} (Model: {{$r.ModelName}}){{end}}:**
{{$r.Content}}
{{end}}
**Evaluation Criteria:**
{{range $i, $c := .Criteria}}{{add $i 1}}. **{{$c.Name}}** (Weight: {{formatWeight $c.Weight}}): {{$c.Description}}
{{end}}
**Instructions:**
1. Rate each response for each criterion on a scale of 1 to {{.MaxScore}}
2. {{if .RequireExplanation}}Provide a brief explanation for each score{{else}}Explanations are optional, a score alone is enough{{end}}
3. Be objective and consider only the quality relative to the criteria
4. Use the exact response_id values listed below
5. Format your response as JSON with the following structure:

` + "```json" + `
{
  "evaluations": [
    {
      "response_id": "{{.ExampleResponseID}}",
      "scores": {
        "{{.ExampleCriterion}}": {
          "score": X,
          "explanation": "Brief explanation for this score"
        }
      },
      "overall_comment": "Optional overall comment about this response"
    }
  ]
}
` + "```" + `

Response ids: {{join .ResponseIDs ", "}}

Please provide your evaluation now.`

// promptData is the value the evaluation template is executed with.
type promptData struct {
	Prompt             string
	Responses          []domain.ResponseCandidate
	Criteria           []domain.Criterion
	MaxScore           int
	ExampleResponseID  string
	ExampleCriterion   string
	ResponseIDs        []string
	RequireExplanation bool
}

// templateFuncs are the helpers available to evaluation templates.
var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"join": strings.Join,
	// formatWeight prints weights without trailing zeros: 1, 0.5, 1.25.
	"formatWeight": func(w float64) string {
		return strconv.FormatFloat(w, 'f', -1, 64)
	},
}

// parseTemplate compiles an evaluation template with the helper functions.
func parseTemplate(text string) (*template.Template, error) {
	tmpl, err := template.New("evaluation").Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse evaluation template: %w", err)
	}
	return tmpl, nil
}

var defaultTemplate = template.Must(parseTemplate(DefaultEvaluationTemplate))

// maxScore is the largest scale top among criteria, or the default scale.
func maxScore(criteria []domain.Criterion) int {
	top := 0
	for _, c := range criteria {
		top = max(top, c.MaxScore)
	}
	if top == 0 {
		return domain.DefaultMaxScore
	}
	return top
}

// buildEvaluationPrompt renders tmpl for one round.
func buildEvaluationPrompt(
	tmpl *template.Template,
	prompt string,
	responses []domain.ResponseCandidate,
	criteria []domain.Criterion,
	requireExplanation bool,
) (string, error) {
	ids := make([]string, len(responses))
	for i, r := range responses {
		ids[i] = r.ID
	}

	data := promptData{
		Prompt:             prompt,
		Responses:          responses,
		Criteria:           criteria,
		MaxScore:           maxScore(criteria),
		ExampleResponseID:  "response_1",
		ExampleCriterion:   "CRITERION_NAME",
		ResponseIDs:        ids,
		RequireExplanation: requireExplanation,
	}
	if len(responses) > 0 {
		data.ExampleResponseID = responses[0].ID
	}
	if len(criteria) > 0 {
		data.ExampleCriterion = criteria[0].Name
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render evaluation prompt: %w", err)
	}
	return b.String(), nil
}
