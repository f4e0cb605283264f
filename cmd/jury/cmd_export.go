package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/internal/domain"
)

// Export formats.
const (
	exportCSV  = "csv"
	exportJSON = "json"
	exportText = "text"
)

// errUnrecognizedResults is returned for files that are neither a verdict
// nor an aggregate result.
var errUnrecognizedResults = errors.New("unrecognized results file, want the JSON output of run or aggregate")

// exportedResults is the common view of a verdict and an aggregate result.
type exportedResults struct {
	Winner     string
	Method     domain.VotingMethod
	Confidence float64
	Scores     []exportedScore
}

type exportedScore struct {
	ResponseID string
	Score      float64
}

func newExportCommand() *cobra.Command {
	var (
		inputPath  string
		outputPath string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert a results file to csv, json or text",
		Long: `Convert results to another format.

The input is the JSON written by "run --format json" (a full verdict) or by
"aggregate". Scores follow the response order of the verdict; aggregate
results list responses by id.`,
		Example: `  jury export -i verdict.json -o verdict.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != exportCSV && format != exportJSON && format != exportText {
				return fmt.Errorf("unsupported format %q, want csv, json or text", format)
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("failed to read results: %w", err)
			}
			results, err := parseResults(data)
			if err != nil {
				return err
			}

			write := func(w io.Writer) error {
				switch format {
				case exportCSV:
					return writeResultsCSV(w, results)
				case exportJSON:
					return writeIndentedJSON(w, data)
				default:
					return writeResultsText(w, results)
				}
			}

			if outputPath == "" {
				return write(cmd.OutOrStdout())
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := writeAndClose(f, write); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Results exported to %s\n", outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Results JSON file")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", exportCSV, "Export format: csv, json or text")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// parseResults accepts a full verdict or an aggregate response.
func parseResults(data []byte) (exportedResults, error) {
	var doc struct {
		FinalVerdict *domain.FinalVerdict       `json:"final_verdict"`
		Responses    []domain.ResponseCandidate `json:"responses"`
		Result       *domain.VotingResult       `json:"result"`
		Confidence   float64                    `json:"confidence"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return exportedResults{}, fmt.Errorf("failed to parse results: %w", err)
	}

	var (
		result     domain.VotingResult
		confidence float64
		order      []string
	)
	switch {
	case doc.FinalVerdict != nil:
		result, confidence = doc.FinalVerdict.VotingDetails, doc.FinalVerdict.Confidence
		for _, r := range doc.Responses {
			order = append(order, r.ID)
		}
	case doc.Result != nil:
		result, confidence = *doc.Result, doc.Confidence
	default:
		return exportedResults{}, errUnrecognizedResults
	}
	if result.Winner == "" {
		return exportedResults{}, errUnrecognizedResults
	}

	scores := result.Scores()
	if scores == nil {
		scores = make(map[string]float64, len(result.VoteCounts))
		for id, n := range result.VoteCounts {
			scores[id] = float64(n)
		}
	}

	out := exportedResults{Winner: result.Winner, Method: result.Method, Confidence: confidence}
	seen := make(map[string]bool, len(scores))
	for _, id := range order {
		if s, ok := scores[id]; ok && !seen[id] {
			out.Scores = append(out.Scores, exportedScore{ResponseID: id, Score: s})
			seen[id] = true
		}
	}
	for _, id := range slices.Sorted(maps.Keys(scores)) {
		if !seen[id] {
			out.Scores = append(out.Scores, exportedScore{ResponseID: id, Score: scores[id]})
		}
	}
	return out, nil
}

func writeResultsCSV(w io.Writer, r exportedResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"response", "score", "winner", "confidence"}); err != nil {
		return err
	}
	confidence := formatFloat(r.Confidence)
	for _, s := range r.Scores {
		if err := cw.Write([]string{s.ResponseID, formatFloat(s.Score), r.Winner, confidence}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeResultsText(w io.Writer, r exportedResults) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Winner: %s\n", r.Winner)
	fmt.Fprintf(&b, "Method: %s\n", r.Method)
	fmt.Fprintf(&b, "Confidence: %.2f%%\n\n", r.Confidence*100)
	fmt.Fprintln(&b, "Scores:")
	for _, s := range r.Scores {
		fmt.Fprintf(&b, "  %s: %s\n", s.ResponseID, formatFloat(s.Score))
	}
	_, err := w.Write(b.Bytes())
	return err
}

func writeIndentedJSON(w io.Writer, data []byte) error {
	var b bytes.Buffer
	if err := json.Indent(&b, bytes.TrimSpace(data), "", "  "); err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	b.WriteByte('\n')
	_, err := w.Write(b.Bytes())
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
