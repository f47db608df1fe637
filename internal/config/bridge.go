package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by the bridge
// (SABIANA_LISTEN, SABIANA_PASSWORD, ...).
const EnvPrefix = "SABIANA"

// Bridge holds the settings of the bridge daemon.
type Bridge struct {
	Listen   string
	TLSCert  string
	TLSKey   string
	Email    string
	Password string
	BaseURL  string
	Timeout  time.Duration
	Retries  int
	Reauth   bool
	LogLevel string
	Registry string // Registry file path ("" = default)
	MDNS     bool   // Advertise the bridge on the LAN
	MDNSName string // mDNS instance name ("" = derived from hostname)
}

// SetBridgeDefaults registers default values on v and binds SABIANA_* env vars.
func SetBridgeDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8088")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("retries", 2)
	v.SetDefault("reauth", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("mdns", true)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// LoadBridgeFromViper loads the bridge configuration from Viper and checks it.
func LoadBridgeFromViper(v *viper.Viper) (*Bridge, error) {
	var cfg Bridge

	cfg.Listen = v.GetString("listen")
	cfg.TLSCert = v.GetString("tls_cert")
	cfg.TLSKey = v.GetString("tls_key")
	cfg.Email = v.GetString("email")
	cfg.Password = v.GetString("password")
	cfg.BaseURL = v.GetString("base_url")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.Retries = v.GetInt("retries")
	cfg.Reauth = v.GetBool("reauth")
	cfg.LogLevel = v.GetString("log_level")
	cfg.Registry = v.GetString("registry")
	cfg.MDNS = v.GetBool("mdns")
	cfg.MDNSName = v.GetString("mdns_name")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks for inconsistent settings.
func (c *Bridge) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative (got %d)", c.Retries)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", c.Timeout)
	}
	return nil
}

// TLSEnabled reports whether the bridge should serve HTTPS
func (c *Bridge) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}
