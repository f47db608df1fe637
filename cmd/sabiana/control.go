package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/muurk/sabiana/internal/climate"
	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/config"
	"github.com/muurk/sabiana/internal/ui"
)

// maxParallel bounds concurrent commands for --all
const maxParallel = 4

// settingsFlags are the climate flags shared by set and encode
type settingsFlags struct {
	mode  string
	fan   string
	swing string
	temp  float64
	sleep bool
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.mode, "mode", "", "HVAC mode (off, cool, heat, fan_only)")
	cmd.Flags().StringVar(&f.fan, "fan", "", "Fan speed (low, medium, high, auto)")
	cmd.Flags().StringVar(&f.swing, "swing", "", "Swing (vertical, horizontal, 45_degrees, swing)")
	cmd.Flags().Float64Var(&f.temp, "temp", 0, "Target temperature in °C")
	cmd.Flags().BoolVar(&f.sleep, "sleep", false, "Enable the sleep preset (--sleep=false clears it)")
}

// apply overlays the flags the user set on s
func (f *settingsFlags) apply(cmd *cobra.Command, s command.Settings) (command.Settings, error) {
	var err error
	flags := cmd.Flags()

	if flags.Changed("mode") {
		if s.Mode, err = command.ParseHVACMode(f.mode); err != nil {
			return s, err
		}
	}
	if flags.Changed("fan") {
		if s.Fan, err = command.ParseFanMode(f.fan); err != nil {
			return s, err
		}
	}
	if flags.Changed("swing") {
		if s.Swing, err = command.ParseSwingMode(f.swing); err != nil {
			return s, err
		}
	}
	if flags.Changed("temp") {
		s.Temperature = f.temp
	}
	if flags.Changed("sleep") {
		s.Preset = command.PresetNone
		if f.sleep {
			s.Preset = command.PresetSleep
		}
	}
	return s, nil
}

func (f *settingsFlags) anyChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"mode", "fan", "swing", "temp", "sleep"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func newSetCmd(opts *options) *cobra.Command {
	flags := &settingsFlags{}

	cmd := &cobra.Command{
		Use:   "set <device-id>",
		Short: "Change the climate settings of a device",
		Long: `Send new climate settings to a device.

Only the given flags change. The other fields are taken from the last
settings acknowledged for the device, or the defaults (off, 25 °C, auto
fan, full swing) when none are known.`,
		Example: `  # Cool to 22 °C
  sabiana set 1234 --mode cool --temp 22

  # Quiet night
  sabiana set 1234 --fan low --sleep

  # Fixed louver
  sabiana set 1234 --swing 45`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.anyChanged(cmd) {
				return fmt.Errorf("nothing to change: pass at least one of --mode, --fan, --swing, --temp, --sleep")
			}

			registry, err := opts.loadRegistry()
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not load config", err)
			}

			thermostat, err := findThermostat(cmd, opts, registry, args[0])
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not find device", err)
			}

			next, err := flags.apply(cmd, thermostat.Settings())
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Invalid settings", err)
			}

			if err := thermostat.Apply(cmd.Context(), next); err != nil {
				return fail(cmd.ErrOrStderr(), "Command failed", err)
			}

			settings := thermostat.Settings()
			registry.RecordSettings(thermostat.ID(), settings)
			saveRegistry(registry)

			encoded, _ := command.Encode(settings)
			ui.PrintSuccess(cmd.OutOrStdout(), "Settings applied",
				ui.Detail{Key: "Device", Value: deviceLabel(thermostat)},
				ui.Detail{Key: "Settings", Value: settings.String()},
				ui.Detail{Key: "Command", Value: encoded},
			)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newPowerCmd(opts *options, on bool) *cobra.Command {
	var all bool

	name, title, effect := "off", "Turn Off", "Switch devices off, keeping their other settings"
	if on {
		name, title, effect = "on", "Turn On", "Switch devices to cooling, keeping their other settings"
	}

	cmd := &cobra.Command{
		Use:   name + " [device-id...]",
		Short: effect,
		Example: fmt.Sprintf(`  sabiana %s 1234
  sabiana %s 1234 5678
  sabiana %s --all`, name, name, name),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return fmt.Errorf("pass either device ids or --all")
			}

			registry, err := opts.loadRegistry()
			if err != nil {
				return fail(cmd.ErrOrStderr(), "Could not load config", err)
			}

			manager := opts.newManager(registry)
			if _, err := discover(cmd, manager, registry); err != nil {
				return fail(cmd.ErrOrStderr(), "Could not list devices", err)
			}

			var thermostats []*climate.Thermostat
			if all {
				thermostats = manager.Thermostats()
			} else {
				for _, id := range args {
					t, err := manager.Thermostat(id)
					if err != nil {
						return fail(cmd.ErrOrStderr(), "Could not find device", err)
					}
					thermostats = append(thermostats, t)
				}
			}
			if len(thermostats) == 0 {
				ui.PrintWarning(cmd.OutOrStdout(), "No devices", ui.Detail{Key: "Account", Value: "no devices registered"})
				return nil
			}

			names := make([]string, len(thermostats))
			for i, t := range thermostats {
				names[i] = deviceLabel(t)
			}

			runner := ui.NewRunner(ui.RunnerConfig{
				Title:           title,
				Command:         "sabiana " + name + " " + strings.Join(cmdArgs(all, args), " "),
				Params:          []ui.Detail{{Key: "Devices", Value: fmt.Sprintf("%d", len(thermostats))}},
				StepNames:       names,
				Troubleshooting: []string{"Run the command again for the failed devices", "Use --log-level debug for request details"},
				Output:          cmd.OutOrStdout(),
			})

			op := func(onStep ui.StepCallback) ([]ui.Detail, error) {
				var err error
				if on || !all {
					err = switchEach(cmd.Context(), thermostats, on, onStep)
				} else {
					err = turnAllOff(cmd.Context(), manager, thermostats, onStep)
				}
				return nil, err
			}
			err = runner.Run(op)

			// Acknowledged devices are recorded even when others failed
			for _, t := range thermostats {
				if t.Settings().Mode == targetMode(on) {
					registry.RecordSettings(t.ID(), t.Settings())
				}
			}
			saveRegistry(registry)
			return err
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Apply to every device of the account")
	return cmd
}

func targetMode(on bool) command.HVACMode {
	if on {
		return command.ModeCool
	}
	return command.ModeOff
}

func cmdArgs(all bool, args []string) []string {
	if all {
		return []string{"--all"}
	}
	return args
}

// switchEach turns the given thermostats on or off concurrently. A failing
// device does not stop the others; all failures are returned.
func switchEach(ctx context.Context, thermostats []*climate.Thermostat, on bool, onStep ui.StepCallback) error {
	var g errgroup.Group
	g.SetLimit(maxParallel)

	errs := make([]error, len(thermostats))
	for i, t := range thermostats {
		step := i + 1
		g.Go(func() error {
			onStep(step, ui.StepRunning, "")
			var err error
			if on {
				err = t.TurnOn(ctx)
			} else {
				err = t.TurnOff(ctx)
			}
			if err != nil {
				onStep(step, ui.StepFailed, err.Error())
				errs[i] = fmt.Errorf("%s: %w", t.ID(), err)
				return nil
			}
			onStep(step, ui.StepComplete, t.Settings().String())
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// turnAllOff uses the manager's fan-out and follows progress through its
// event stream.
func turnAllOff(ctx context.Context, manager *climate.Manager, thermostats []*climate.Thermostat, onStep ui.StepCallback) error {
	steps := make(map[string]int, len(thermostats))
	for i, t := range thermostats {
		steps[t.ID()] = i + 1
		onStep(i+1, ui.StepRunning, "")
	}

	events, unsubscribe := manager.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			step, ok := steps[ev.DeviceID]
			if !ok {
				continue
			}
			if ev.Err != nil {
				onStep(step, ui.StepFailed, ev.Err.Error())
			} else {
				onStep(step, ui.StepComplete, ev.Settings.String())
			}
		}
	}()

	err := manager.TurnAllOff(ctx)
	unsubscribe()
	<-done
	return err
}

// findThermostat discovers the account's devices and returns one of them
func findThermostat(cmd *cobra.Command, opts *options, registry *config.Registry, id string) (*climate.Thermostat, error) {
	manager := opts.newManager(registry)
	if _, err := discover(cmd, manager, registry); err != nil {
		return nil, err
	}
	return manager.Thermostat(id)
}

func deviceLabel(t *climate.Thermostat) string {
	if t.Name() == "" || t.Name() == t.ID() {
		return t.ID()
	}
	return fmt.Sprintf("%s (%s)", t.Name(), t.ID())
}
