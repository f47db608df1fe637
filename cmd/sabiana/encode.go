package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/sabiana/internal/command"
)

func newEncodeCmd() *cobra.Command {
	flags := &settingsFlags{}
	var explain bool

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the command string for a set of settings",
		Long: `Build the 20-character command string without contacting the cloud.

Unset flags take the defaults (off, 25 °C, auto fan, full swing, no preset).`,
		Example: `  sabiana encode --mode cool --temp 22 --fan low
  sabiana encode --mode heat --temp 20 --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := flags.apply(cmd, command.DefaultSettings())
			if err != nil {
				return err
			}

			encoded, err := command.Encode(settings)
			if err != nil {
				return fmt.Errorf("cannot encode %s: %w", settings, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, encoded)
			if explain {
				fmt.Fprintln(out)
				fmt.Fprintln(out, command.Describe(encoded))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&explain, "explain", false, "Show what each position means")
	return cmd
}
