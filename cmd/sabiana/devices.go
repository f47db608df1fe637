package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/config"
	"github.com/muurk/sabiana/internal/ui"
)

// deviceJSON is the --format json representation of a device
type deviceJSON struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	LastSettings *command.Settings `json:"last_settings,omitempty"`
	LastSeen     time.Time         `json:"last_seen"`
}

func newDevicesCmd(opts *options) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List the devices of the account",
		Long: `List the devices registered to the signed-in account.

The last settings shown are the ones this client last saw acknowledged;
the cloud does not report the current state of a unit.`,
		Example: `  # Cards with name, id and last settings
  sabiana devices

  # One line per device
  sabiana devices --format compact

  # JSON output for scripting
  sabiana devices --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := opts.loadRegistry()
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not load config", err)
			}

			manager := opts.newManager(registry)
			thermostats, err := discover(cmd, manager, registry)
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not list devices", err)
			}

			out := cmd.OutOrStdout()
			switch outputFormat {
			case "json":
				list := make([]deviceJSON, 0, len(thermostats))
				for _, t := range thermostats {
					entry := deviceJSON{ID: t.ID(), Name: t.Name()}
					if device, ok := registry.GetDevice(t.ID()); ok {
						entry.LastSettings = device.LastSettings
						entry.LastSeen = device.LastSeen
					}
					list = append(list, entry)
				}
				data, err := json.MarshalIndent(list, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
			case "compact":
				fmt.Fprintln(out, ui.RenderDeviceCompact(deviceRows(thermostats, registry)))
			case "detailed", "":
				fmt.Fprintln(out, ui.RenderDeviceList(deviceRows(thermostats, registry), ui.GetTerminalWidth()))
			default:
				return fmt.Errorf("unknown format %q (use detailed, compact or json)", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputFormat, "format", "detailed", "Output format (detailed, compact, json)")
	return cmd
}

// discover lists the devices and records them in the registry
func discover(cmd *cobra.Command, manager *climate.Manager, registry *config.Registry) ([]*climate.Thermostat, error) {
	thermostats, err := manager.Discover(cmd.Context())
	if err != nil {
		return nil, err
	}

	devices := make([]cloud.Device, 0, len(thermostats))
	for _, t := range thermostats {
		devices = append(devices, cloud.Device{ID: t.ID(), Name: t.Name()})
	}
	registry.RecordDevices(devices)
	saveRegistry(registry)
	return thermostats, nil
}

func deviceRows(thermostats []*climate.Thermostat, registry *config.Registry) []ui.DeviceRow {
	rows := make([]ui.DeviceRow, 0, len(thermostats))
	for _, t := range thermostats {
		row := ui.DeviceRow{ID: t.ID(), Name: t.Name()}
		if device, ok := registry.GetDevice(t.ID()); ok {
			if device.LastSettings != nil {
				row.Settings = device.LastSettings.String()
				row.Mode = string(device.LastSettings.Mode)
			}
			if !device.LastSeen.IsZero() {
				row.LastSeen = device.LastSeen.Local().Format(time.DateTime)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
