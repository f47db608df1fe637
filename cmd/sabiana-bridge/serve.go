package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/sabiana/internal/bridge"
	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/config"
	"github.com/muurk/sabiana/internal/logging"
	"github.com/muurk/sabiana/internal/version"
)

// flagKeys maps command-line flags to viper keys
var flagKeys = map[string]string{
	"listen":    "listen",
	"tls-cert":  "tls_cert",
	"tls-key":   "tls_key",
	"email":     "email",
	"base-url":  "base_url",
	"timeout":   "timeout",
	"retries":   "retries",
	"reauth":    "reauth",
	"log-level": "log_level",
	"registry":  "registry",
	"mdns":      "mdns",
	"mdns-name": "mdns_name",
}

func newServeCmd() *cobra.Command {
	var (
		v          *viper.Viper
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP bridge",
		Long: `Start the bridge and serve until interrupted.

Every flag can also be set through an environment variable (SABIANA_LISTEN,
SABIANA_EMAIL, ...) or a YAML config file with the same keys using
underscores (listen, tls_cert, base_url, ...). The password is only read
from SABIANA_PASSWORD or the config file, never from a flag.

With a password the bridge signs in on start when no session token is
saved, and signs in again when the cloud rejects the session.`,
		Example: `  # Use the session saved by 'sabiana login'
  sabiana-bridge serve

  # Headless, with automatic re-login
  SABIANA_EMAIL=me@example.com SABIANA_PASSWORD=secret sabiana-bridge serve --listen :9000

  # HTTPS
  sabiana-bridge serve --tls-cert cert.pem --tls-key key.pem

  # Do not announce on the LAN
  sabiana-bridge serve --mdns=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, configFile)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("listen", ":8088", "Listen address")
	flags.String("tls-cert", "", "TLS certificate file (serves HTTPS with --tls-key)")
	flags.String("tls-key", "", "TLS private key file")
	flags.String("email", "", "Account email for automatic login")
	flags.String("base-url", "", "Sabiana cloud API root (default: "+cloud.DefaultBaseURL+")")
	flags.Duration("timeout", cloud.DefaultTimeout, "HTTP request timeout towards the cloud")
	flags.Int("retries", 2, "Retries for network failures")
	flags.Bool("reauth", true, "Log in again when the session expires (needs a password)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("registry", "", "Device registry file (default: user config dir)")
	flags.Bool("mdns", true, "Advertise the bridge on the LAN as "+bridge.ServiceType)
	flags.String("mdns-name", "", "mDNS instance name (default: derived from hostname)")

	v = newServeViper(flags)
	return cmd
}

// newServeViper layers defaults, SABIANA_* env vars and flags
func newServeViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	config.SetBridgeDefaults(v)
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return v
}

// loadConfig reads the optional config file and builds the bridge settings
func loadConfig(v *viper.Viper, configFile string) (*config.Bridge, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg, err := config.LoadBridgeFromViper(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Bridge) error {
	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	logging.Info("Starting Sabiana bridge",
		zap.String("version", version.Full()),
		zap.String("listen", cfg.Listen),
		zap.Bool("tls", cfg.TLSEnabled()),
		zap.Int("retries", cfg.Retries),
		zap.Bool("reauth", cfg.Reauth),
		zap.Bool("mdns", cfg.MDNS),
	)

	var (
		registry *config.Registry
		err      error
	)
	if cfg.Registry != "" {
		registry, err = config.LoadRegistryFrom(cfg.Registry)
	} else {
		registry, err = config.LoadRegistry()
	}
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if cfg.Email != "" {
		registry.SetEmail(cfg.Email)
	}
	if cfg.Password != "" {
		registry.WithPassword(cfg.Password)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := cloud.NewMetrics(promRegistry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = registry.BaseURL
	}
	if baseURL == "" {
		baseURL = cloud.DefaultBaseURL
	}
	client := cloud.NewClientWithURL(baseURL)
	client.SetTimeout(cfg.Timeout)
	client.Metrics = metrics

	manager := climate.NewManager(client, registry,
		climate.WithRetry(cfg.Retries),
		climate.WithReauth(cfg.Reauth),
		climate.WithSettingsSource(registry.LastSettings),
	)

	// A failed first discovery is not fatal: POST /api/devices/refresh retries it
	if thermostats, err := manager.Discover(ctx); err != nil {
		logging.Warn("Initial device discovery failed",
			zap.String("error", cloud.GetShortErrorMessage(err)),
			zap.Strings("hints", cloud.GetTroubleshootingHint(err)),
		)
	} else {
		devices := make([]cloud.Device, 0, len(thermostats))
		for _, t := range thermostats {
			devices = append(devices, cloud.Device{ID: t.ID(), Name: t.Name()})
		}
		registry.RecordDevices(devices)
		if err := registry.Save(); err != nil {
			logging.Warn("Failed to save registry", zap.Error(err))
		}
	}

	srv, err := bridge.New(&bridge.Config{
		Listen:   cfg.Listen,
		CertPath: cfg.TLSCert,
		KeyPath:  cfg.TLSKey,
		Announce: cfg.MDNS,
		Instance: cfg.MDNSName,
	}, manager, registry, promRegistry)
	if err != nil {
		return fmt.Errorf("failed to create bridge: %w", err)
	}

	return srv.Start(ctx)
}
