package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/sabiana/internal/ui"
)

func newLoginCmd(opts *options) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Sabiana cloud",
		Long: `Sign in with the email and password of the Sabiana app.

The session token is saved in the config file; the password is never
stored. When it is not given through SABIANA_PASSWORD it is prompted for
without echo.`,
		Example: `  # Prompt for email and password
  sabiana login

  # Non-interactive
  SABIANA_PASSWORD=secret sabiana login --email me@example.com

  # Use a different API root and remember it
  sabiana login --base-url http://127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			registry, err := opts.loadRegistry()
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not load config", err)
			}

			prompter := &ui.Prompter{In: cmd.InOrStdin(), Out: cmd.ErrOrStderr()}
			if email == "" {
				if email, err = prompter.Line("Email"); err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
			}
			password := os.Getenv(passwordEnvVar)
			if password == "" {
				if password, err = prompter.Password("Password"); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}

			if opts.baseURL != "" {
				registry.BaseURL = opts.baseURL
			}
			registry.SetEmail(email)

			manager := opts.newManager(registry)
			if err := manager.Login(cmd.Context(), email, password); err != nil {
				return fail(cmd.ErrOrStderr(), "Login failed", err)
			}

			details := []ui.Detail{{Key: "Email", Value: email}}

			// The device list is a convenience; a failure here does not undo the login
			if thermostats, err := discover(cmd, manager, registry); err == nil {
				details = append(details, ui.Detail{Key: "Devices", Value: strconv.Itoa(len(thermostats))})
			}

			if path := registry.Path(); path != "" {
				details = append(details, ui.Detail{Key: "Config", Value: path})
			}
			ui.PrintSuccess(out, "Logged in", details...)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted when empty)")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token and device cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := opts.loadRegistry()
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not load config", err)
			}

			registry.Logout()
			if err := registry.Save(); err != nil {
				return fail(cmd.ErrOrStderr(), "Could not save config", err)
			}

			ui.PrintSuccess(cmd.OutOrStdout(), "Logged out", ui.Detail{Key: "Config", Value: registry.Path()})
			return nil
		},
	}
}
