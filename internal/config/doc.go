// Package config provides configuration management for the Sabiana tools.
//
// The CLI keeps its state in a YAML registry: the account email, the current
// session token, and for each unit its name and the last settings it
// acknowledged. The cloud cannot report a unit's state, so those recorded
// settings are the starting point for the next command.
//
// # Configuration File Location
//
// The registry is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/sabiana/config.yaml or $HOME/.config/sabiana/config.yaml
//   - macOS: $HOME/.config/sabiana/config.yaml
//   - Windows: %LOCALAPPDATA%\sabiana\config.yaml
//
// # Security
//
// The account password is NEVER written to disk. A password given at runtime
// (WithPassword) is kept in memory only, for re-authentication. The session
// token is stored and the file is written with 0600 permissions.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	mgr := climate.NewManager(cloud.NewClient(), registry,
//	    climate.WithSettingsSource(registry.LastSettings),
//	)
//
// # Bridge Settings
//
// The bridge daemon reads its settings through viper (LoadBridgeFromViper):
// flags, an optional config file, and SABIANA_* environment variables.
package config
