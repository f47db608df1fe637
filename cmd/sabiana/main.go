// Sabiana is a command-line client for Sabiana HVAC units registered to the
// vendor cloud.
//
// It signs in to the cloud, lists the devices of the account and sends
// climate commands (mode, fan, swing, target temperature, sleep preset).
// The session token and the last acknowledged settings of every device are
// kept in the user's config directory.
//
// Usage:
//
//	sabiana [command] [flags]
//
// See 'sabiana --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/sabiana/internal/logging"
	"github.com/muurk/sabiana/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "sabiana",
		Short: "Sabiana Cloud HVAC Client",
		Long: `A command-line client for Sabiana HVAC units.

Sign in once with 'sabiana login', then list devices and send commands.
Every command carries the complete settings of a unit, so changes start
from the last settings acknowledged for that device.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Initialize(opts.logLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
	}

	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	opts.register(rootCmd)

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
	rootCmd.AddCommand(newDevicesCmd(opts))
	rootCmd.AddCommand(newSetCmd(opts))
	rootCmd.AddCommand(newPowerCmd(opts, true))
	rootCmd.AddCommand(newPowerCmd(opts, false))
	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sabiana %s (commit: %s)\n", version.Version, version.Commit)
		},
	}
}
