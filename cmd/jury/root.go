package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "dev"

// app carries the dependencies commands share. Tests replace newJurors to
// avoid talking to real providers.
type app struct {
	newJurors jurorFactory
}

func newApp() *app {
	return &app{newJurors: newLLMJurors}
}

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jury",
		Short: "Jury - evaluate responses with a panel of LLM jurors",
		Long: `Jury scores candidate responses with several independent LLM jurors and
combines their scores into a single verdict using a configurable voting
method (majority, average, weighted, ranked, consensus or a registered
custom strategy).`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newRunCommand(a))
	cmd.AddCommand(newAggregateCommand())
	cmd.AddCommand(newStrategiesCommand())
	cmd.AddCommand(newJurorsCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newServeCommand(a))

	return cmd
}

func execute() error {
	return newRootCommand(newApp()).Execute()
}
