package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/internal/domain"
)

func newStrategiesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List voting methods and registered custom strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newStrategyRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Voting methods:")
			for _, m := range domain.VotingMethods() {
				fmt.Fprintf(out, "  %s\n", m)
			}
			fmt.Fprintln(out, "Custom strategies:")
			for _, name := range registry.List() {
				fmt.Fprintf(out, "  %s\n", name)
			}
			return nil
		},
	}
}
