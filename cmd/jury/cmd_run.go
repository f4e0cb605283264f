package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/internal/application"
	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

type runOptions struct {
	configPath    string
	prompt        string
	responses     []string
	responseFiles []string
	responseIDs   []string
	format        string
	outputPath    string
	simple        bool
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate responses to a prompt with the configured jury",
		Long: `Evaluate candidate responses to a prompt.

Responses are given inline with --response or read from files with
--response-file, and are numbered response_1, response_2, ... unless
--response-id supplies ids for them.`,
		Example: `  jury run --config jury.yaml --prompt "Capital of France?" \
    --response "Paris." --response "Lyon, I think."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, a, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the jury configuration (YAML or JSON)")
	cmd.Flags().StringVarP(&opts.prompt, "prompt", "p", "", "Prompt the responses answer")
	cmd.Flags().StringArrayVarP(&opts.responses, "response", "r", nil, "Candidate response text (repeatable)")
	cmd.Flags().StringArrayVar(&opts.responseFiles, "response-file", nil, "File holding a candidate response (repeatable)")
	cmd.Flags().StringSliceVar(&opts.responseIDs, "response-id", nil, "Ids for the responses, in order")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write the verdict to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.simple, "simple", false, "Emit only the headline verdict")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}

func runEvaluation(cmd *cobra.Command, a *app, opts runOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unsupported format %q, want text or json", opts.format)
	}

	candidates, err := readCandidates(opts)
	if err != nil {
		return err
	}

	registry, err := newStrategyRegistry()
	if err != nil {
		return err
	}
	jury, err := buildJury(opts.configPath, registry, a.newJurors, ports.NoopMetrics{})
	if err != nil {
		return err
	}

	var evalOpts []application.EvaluateOption
	if len(opts.responseIDs) > 0 {
		evalOpts = append(evalOpts, application.WithResponseIDs(opts.responseIDs...))
	}

	verdict, err := jury.Evaluate(cmd.Context(), opts.prompt, candidates, evalOpts...)
	if err != nil {
		if errors.Is(err, application.ErrResponseIDMismatch) || errors.Is(err, application.ErrNoCandidates) {
			return err
		}
		return &EvaluationFailedError{Err: err}
	}

	write := func(w io.Writer) error {
		switch {
		case opts.format == "json" && opts.simple:
			return writeJSON(w, verdict.Simple())
		case opts.format == "json":
			return writeJSON(w, verdict)
		default:
			return writeVerdictText(w, verdict, opts.simple)
		}
	}

	if opts.outputPath == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(opts.outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return writeAndClose(f, write)
}

// writeAndClose runs write against wc and closes it. A failed close is
// reported since buffered output may not have reached the file.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return write(wc)
}

func readCandidates(opts runOptions) ([]domain.ResponseCandidate, error) {
	texts := slices.Clone(opts.responses)
	for _, path := range opts.responseFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read response file: %w", err)
		}
		texts = append(texts, strings.TrimSpace(string(data)))
	}
	if len(texts) == 0 {
		return nil, errors.New("at least one --response or --response-file is required")
	}

	candidates := make([]domain.ResponseCandidate, len(texts))
	for i, text := range texts {
		candidates[i] = domain.ResponseCandidate{ID: fmt.Sprintf("response_%d", i+1), Content: text}
	}
	return candidates, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeVerdictText(w io.Writer, v *domain.Verdict, simple bool) error {
	final := v.FinalVerdict
	fmt.Fprintf(w, "Jury:       %s\n", v.JuryName)
	fmt.Fprintf(w, "Winner:     %s\n", final.Winner)
	fmt.Fprintf(w, "Method:     %s\n", final.VotingMethod)
	fmt.Fprintf(w, "Confidence: %.2f\n", final.Confidence)
	if final.WinnerMargin != nil {
		fmt.Fprintf(w, "Margin:     %.2f\n", *final.WinnerMargin)
	}
	fmt.Fprintf(w, "Jurors:     %d (unanimous: %t)\n", v.Summary.TotalJurors, v.Summary.Unanimous)
	if simple {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JUROR\tRESPONSE\tTOTAL\tAVERAGE")
	for _, jv := range v.JurorVerdicts {
		for _, re := range jv.ResponseEvaluations {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", jv.JurorName, re.ResponseID, re.TotalScore, re.AverageScore)
		}
	}
	return tw.Flush()
}
