// Sabiana-bridge exposes the Sabiana units of one account over a local HTTP
// API for home-automation systems.
//
// It signs in to the vendor cloud, discovers the account's devices and
// serves device state, climate commands, a websocket event stream and
// Prometheus metrics. Settings come from flags, SABIANA_* environment
// variables or a YAML config file.
//
// Usage:
//
//	sabiana-bridge serve [flags]
//
// See 'sabiana-bridge serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/sabiana/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sabiana-bridge",
		Short: "Sabiana Cloud HTTP Bridge",
		Long: `A local HTTP bridge for Sabiana HVAC units.

The bridge keeps a cloud session, discovers the devices of the account and
serves them to home-automation systems as a small JSON API with a websocket
event stream.

For one-off commands, use the separate 'sabiana' utility.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sabiana-bridge %s (commit: %s)\n", version.Version, version.Commit)
		},
	})
	return rootCmd
}
