package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/config"
	"github.com/muurk/sabiana/internal/logging"
	"github.com/muurk/sabiana/internal/ui"
)

// passwordEnvVar supplies the password for login and automatic re-login
const passwordEnvVar = "SABIANA_PASSWORD"

// options holds the persistent flags shared by all commands
type options struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	retries    int
	logLevel   string
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Config file path (default: user config dir)")
	flags.StringVar(&o.baseURL, "base-url", "", "Sabiana cloud API root (default: "+cloud.DefaultBaseURL+")")
	flags.DurationVar(&o.timeout, "timeout", cloud.DefaultTimeout, "HTTP request timeout")
	flags.IntVar(&o.retries, "retries", 1, "Retries for network failures")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")
}

// loadRegistry opens the config file named by --config or the default one
func (o *options) loadRegistry() (*config.Registry, error) {
	if o.configPath != "" {
		return config.LoadRegistryFrom(o.configPath)
	}
	return config.LoadRegistry()
}

// newClient builds a cloud client. --base-url wins over the URL saved at
// login, which wins over the production endpoint.
func (o *options) newClient(registry *config.Registry) *cloud.Client {
	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = registry.BaseURL
	}
	if baseURL == "" {
		baseURL = cloud.DefaultBaseURL
	}

	client := cloud.NewClientWithURL(baseURL)
	client.SetTimeout(o.timeout)
	return client
}

// newManager builds a manager on the registry. When SABIANA_PASSWORD is set
// the manager may log in again on its own after the session expires.
func (o *options) newManager(registry *config.Registry) *climate.Manager {
	opts := []climate.Option{
		climate.WithRetry(o.retries),
		climate.WithSettingsSource(registry.LastSettings),
	}
	if password := os.Getenv(passwordEnvVar); password != "" {
		registry.WithPassword(password)
		opts = append(opts, climate.WithReauth(true))
	}
	return climate.NewManager(o.newClient(registry), registry, opts...)
}

// saveRegistry writes the registry back, logging instead of failing the
// command: the cloud has already accepted the change at this point.
func saveRegistry(registry *config.Registry) {
	if err := registry.Save(); err != nil {
		logging.Warn("Failed to save config", zap.Error(err))
	}
}

// hintsFor returns troubleshooting tips for a failed command
func hintsFor(err error) []string {
	switch {
	case errors.Is(err, climate.ErrNotAuthenticated):
		return []string{"Run 'sabiana login' to sign in"}
	case errors.Is(err, climate.ErrUnknownDevice):
		return []string{"Run 'sabiana devices' to list the device ids of this account"}
	case errors.Is(err, climate.ErrNotAcknowledged):
		return []string{
			"The cloud accepted the command but the unit did not confirm it.",
			"Check that the unit is powered and online",
		}
	case errors.Is(err, climate.ErrInvalidTemperature):
		return []string{fmt.Sprintf("Use a whole number between %.0f and %.0f °C", climate.MinTemperature, climate.MaxTemperature)}
	}
	return cloud.GetTroubleshootingHint(err)
}

// fail prints a failure box and returns err so the command exits non-zero
func fail(w io.Writer, title string, err error) error {
	ui.PrintFailure(w, title, err, hintsFor(err))
	return err
}
