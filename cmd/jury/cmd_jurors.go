package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/internal/domain"
)

func newJurorsCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "jurors",
		Short: "List the jurors of a configuration, or the built-in criteria and methods",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if configPath == "" {
				fmt.Fprintln(out, "Built-in criteria:")
				for _, c := range domain.BuiltinCriteria() {
					fmt.Fprintf(out, "  %s\n", c)
				}
				fmt.Fprintln(out, "Voting methods:")
				for _, m := range domain.VotingMethods() {
					fmt.Fprintf(out, "  %s\n", m)
				}
				return nil
			}

			registry, err := newStrategyRegistry()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath, registry)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Jurors in %s:\n", cfg.Name)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPROVIDER\tMODEL\tWEIGHT\tTEMPERATURE")
			for _, j := range cfg.Jurors {
				provider := j.Provider
				if provider == "" {
					provider = "auto"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					j.Name,
					provider,
					j.Model,
					strconv.FormatFloat(j.EffectiveWeight(), 'f', -1, 64),
					strconv.FormatFloat(j.EffectiveTemperature(), 'f', -1, 64),
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the jury configuration (YAML or JSON)")

	return cmd
}
