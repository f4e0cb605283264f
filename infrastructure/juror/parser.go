package juror

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

// MinSimilarity is the Levenshtein similarity at or above which a reply key
// is accepted as a misspelling of a known criterion or response id.
const MinSimilarity = 0.8

// Explanations attached to scores produced by the fallback parser.
const (
	fallbackExplanation = "Parsed from fallback method"
	defaultExplanation  = "Could not parse score from response"
)

var (
	foldCaser     = cases.Fold()
	jsonFence     = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	integerTokens = regexp.MustCompile(`\b(\d+)\b`)
)

// reply is the JSON document jurors are asked to produce.
type reply struct {
	Evaluations []replyEvaluation `json:"evaluations"`
}

type replyEvaluation struct {
	ResponseID     string                     `json:"response_id"`
	Scores         map[string]json.RawMessage `json:"scores"`
	OverallComment string                     `json:"overall_comment"`
}

type replyScore struct {
	Score       json.RawMessage `json:"score"`
	Explanation string          `json:"explanation"`
}

// parsed is the outcome of interpreting one reply.
type parsed struct {
	result   ports.JurorResult
	fallback bool
}

// parser interprets juror replies against the candidates and criteria of
// one round.
type parser struct {
	responses []domain.ResponseCandidate
	criteria  []domain.Criterion
}

// parse interprets text. A reply that is not valid JSON is handled by the
// fallback parser; a JSON reply with unusable scores is an error.
func (p parser) parse(text string) (parsed, error) {
	doc := extractJSON(text)

	var r reply
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return parsed{result: p.fallback(text), fallback: true}, nil
	}

	result := newResult()
	// Several reply keys may resolve to the same score slot. The closest
	// match wins; equal matches keep the first seen, with keys walked in
	// sorted order.
	quality := make(map[[2]string]matchQuality)
	for _, ev := range r.Evaluations {
		id, rq, ok := p.matchResponse(ev.ResponseID)
		if !ok {
			continue
		}
		if ev.OverallComment != "" {
			result.Comments[id] = ev.OverallComment
		}

		for _, key := range slices.Sorted(maps.Keys(ev.Scores)) {
			criterion, cq, ok := p.matchCriterion(key)
			if !ok {
				continue
			}

			score, explanation, err := decodeScore(ev.Scores[key])
			if err != nil {
				return parsed{}, fmt.Errorf("%w: response %s, criterion %s: %v",
					ports.ErrInvalidResponse, id, criterion.Name, err)
			}
			if explanation == "" {
				explanation = ev.OverallComment
			}
			if score < 1 || score > float64(scaleTop(criterion)) {
				return parsed{}, fmt.Errorf("%w: score %g for response %s, criterion %s is outside [1, %d]",
					ports.ErrInvalidResponse, score, id, criterion.Name, scaleTop(criterion))
			}

			slot, q := [2]string{id, criterion.Name}, max(rq, cq)
			if prev, seen := quality[slot]; seen && prev <= q {
				continue
			}
			quality[slot] = q
			setScore(result, id, criterion.Name, score, explanation)
		}
	}

	return parsed{result: result}, nil
}

// complete checks that every candidate was scored on every criterion.
func (p parser) complete(result ports.JurorResult) error {
	for _, r := range p.responses {
		scores, ok := result.Scores[r.ID]
		if !ok {
			return fmt.Errorf("%w: missing scores for %s", ErrIncompleteEvaluation, r.ID)
		}
		for _, c := range p.criteria {
			if _, ok := scores[c.Name]; !ok {
				return fmt.Errorf("%w: missing score for %s, criterion %s", ErrIncompleteEvaluation, r.ID, c.Name)
			}
		}
	}
	return nil
}

// fallback recovers scores from free text. When the reply holds at least
// one in-range integer per response and criterion they are assigned in
// response-major order; otherwise every score is the scale midpoint.
func (p parser) fallback(text string) ports.JurorResult {
	top := maxScore(p.criteria)
	var numbers []float64
	for _, m := range integerTokens.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= top {
			numbers = append(numbers, float64(n))
		}
	}

	result := newResult()
	useNumbers := len(numbers) >= len(p.responses)*len(p.criteria)
	idx := 0
	for _, r := range p.responses {
		for _, c := range p.criteria {
			if useNumbers {
				setScore(result, r.ID, c.Name, min(numbers[idx], float64(scaleTop(c))), fallbackExplanation)
				idx++
				continue
			}
			setScore(result, r.ID, c.Name, midpoint(c), defaultExplanation)
		}
	}
	return result
}

// matchQuality ranks how a reply key matched a known name. Lower is closer.
type matchQuality int

const (
	matchExact matchQuality = iota
	matchFolded
	matchFuzzy
)

// matchCriterion resolves a reply key such as "Factuality" or
// "CriterionType.factuality" to a configured criterion.
func (p parser) matchCriterion(key string) (domain.Criterion, matchQuality, bool) {
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	names := make([]string, len(p.criteria))
	for i, c := range p.criteria {
		names[i] = c.Name
	}
	i, q, ok := bestMatch(key, names)
	if !ok {
		return domain.Criterion{}, 0, false
	}
	return p.criteria[i], q, true
}

// matchResponse resolves a reply response_id to a candidate id. Aliases
// are accepted as well since they are what the prompt displays.
func (p parser) matchResponse(id string) (string, matchQuality, bool) {
	ids := make([]string, 0, 2*len(p.responses))
	owners := make([]string, 0, 2*len(p.responses))
	for _, r := range p.responses {
		ids = append(ids, r.ID)
		owners = append(owners, r.ID)
		if r.Alias != "" {
			ids = append(ids, r.Alias)
			owners = append(owners, r.ID)
		}
	}
	i, q, ok := bestMatch(id, ids)
	if !ok {
		return "", 0, false
	}
	return owners[i], q, true
}

// bestMatch finds key among candidates: an exact match first, then a
// case-folded match, then the most similar candidate at or above
// MinSimilarity. Ties go to the earlier candidate.
func bestMatch(key string, candidates []string) (int, matchQuality, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, 0, false
	}
	for i, c := range candidates {
		if c == key {
			return i, matchExact, true
		}
	}

	folded := foldCaser.String(key)
	for i, c := range candidates {
		if foldCaser.String(c) == folded {
			return i, matchFolded, true
		}
	}

	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if s := similarity(folded, foldCaser.String(c)); s >= MinSimilarity && s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, matchFuzzy, best >= 0
}

// similarity is 1 - distance/maxRuneLength, in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return max(1-float64(levenshtein.ComputeDistance(a, b))/float64(maxLen), 0)
}

// decodeScore accepts {"score": n, "explanation": "..."} or a bare number.
// Numbers may be quoted.
func decodeScore(raw json.RawMessage) (float64, string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var s replyScore
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, "", err
		}
		n, err := decodeNumber(s.Score)
		return n, s.Explanation, err
	}
	n, err := decodeNumber(raw)
	return n, "", err
}

func decodeNumber(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, errors.New("score is missing")
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, fmt.Errorf("score %s is not a number", raw)
		}
		if n, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return 0, fmt.Errorf("score %q is not a number", s)
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("score %v is not finite", n)
	}
	return n, nil
}

// extractJSON returns the JSON object inside a fenced code block if there
// is one, otherwise the outermost braces of the reply, otherwise the
// trimmed reply.
func extractJSON(text string) string {
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	text = strings.TrimSpace(text)
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func newResult() ports.JurorResult {
	return ports.JurorResult{
		Scores:       make(map[string]map[string]float64),
		Explanations: make(map[string]map[string]string),
		Comments:     make(map[string]string),
	}
}

func setScore(result ports.JurorResult, id, criterion string, score float64, explanation string) {
	if result.Scores[id] == nil {
		result.Scores[id] = make(map[string]float64)
		result.Explanations[id] = make(map[string]string)
	}
	result.Scores[id][criterion] = score
	result.Explanations[id][criterion] = explanation
}

func scaleTop(c domain.Criterion) int {
	if c.MaxScore <= 0 {
		return domain.DefaultMaxScore
	}
	return c.MaxScore
}

// midpoint is the center of the criterion's 1..max scale.
func midpoint(c domain.Criterion) float64 {
	return float64(1+scaleTop(c)) / 2
}
