package climate

import (
	"context"
	"sync"

	"github.com/muurk/sabiana/internal/command"
	"github.com/muurk/sabiana/internal/logging"
)

// Thermostat is one Sabiana unit. Commands to the same thermostat are
// serialized; different thermostats are independent.
type Thermostat struct {
	manager *Manager
	id      string

	// mu is held for the whole send; name has its own lock so discovery
	// never waits on a command in flight
	mu       sync.Mutex
	settings command.Settings

	nameMu sync.Mutex
	name   string
}

// ID returns the cloud device id
func (t *Thermostat) ID() string {
	return t.id
}

// Name returns the device name from the last discovery
func (t *Thermostat) Name() string {
	t.nameMu.Lock()
	defer t.nameMu.Unlock()
	return t.name
}

func (t *Thermostat) setName(name string) {
	t.nameMu.Lock()
	t.name = name
	t.nameMu.Unlock()
}

// Settings returns the last acknowledged settings
func (t *Thermostat) Settings() command.Settings {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

// SetHVACMode changes the operating mode.
func (t *Thermostat) SetHVACMode(ctx context.Context, mode command.HVACMode) error {
	parsed, err := command.ParseHVACMode(string(mode))
	if err != nil {
		return err
	}
	return t.update(ctx, func(s *command.Settings) { s.Mode = parsed })
}

// SetTemperature changes the target temperature. The mode is left as is.
func (t *Thermostat) SetTemperature(ctx context.Context, celsius float64) error {
	if err := ValidateTemperature(celsius); err != nil {
		return err
	}
	return t.update(ctx, func(s *command.Settings) { s.Temperature = celsius })
}

// SetFanMode changes the fan speed.
func (t *Thermostat) SetFanMode(ctx context.Context, fan command.FanMode) error {
	parsed, err := command.ParseFanMode(string(fan))
	if err != nil {
		return err
	}
	return t.update(ctx, func(s *command.Settings) { s.Fan = parsed })
}

// SetSwingMode changes the louver position.
func (t *Thermostat) SetSwingMode(ctx context.Context, swing command.SwingMode) error {
	parsed, err := command.ParseSwingMode(string(swing))
	if err != nil {
		return err
	}
	return t.update(ctx, func(s *command.Settings) { s.Swing = parsed })
}

// SetPreset sets or clears (PresetNone) the preset.
func (t *Thermostat) SetPreset(ctx context.Context, preset command.Preset) error {
	parsed, err := command.ParsePreset(string(preset))
	if err != nil {
		return err
	}
	return t.update(ctx, func(s *command.Settings) { s.Preset = parsed })
}

// TurnOn switches the unit to cooling.
func (t *Thermostat) TurnOn(ctx context.Context) error {
	return t.SetHVACMode(ctx, command.ModeCool)
}

// TurnOff switches the unit off, keeping the other settings.
func (t *Thermostat) TurnOff(ctx context.Context) error {
	return t.SetHVACMode(ctx, command.ModeOff)
}

// Apply sends a complete settings value in one command.
func (t *Thermostat) Apply(ctx context.Context, s command.Settings) error {
	next, err := normalizeSettings(s)
	if err != nil {
		return err
	}
	return t.update(ctx, func(cur *command.Settings) { *cur = next })
}

// update derives the next state, sends it, and commits it on acknowledgement.
func (t *Thermostat) update(ctx context.Context, mutate func(*command.Settings)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.settings
	mutate(&next)

	err := t.send(ctx, next)
	if err == nil {
		t.settings = next
	}

	t.manager.publish(Event{
		DeviceID: t.id,
		Name:     t.Name(),
		Settings: t.settings,
		Err:      err,
	})
	return err
}

func (t *Thermostat) send(ctx context.Context, s command.Settings) error {
	payload, err := command.Encode(s)
	if err != nil {
		return err
	}
	logging.LogCommand(t.id, payload, s)

	var acked bool
	err = t.manager.call(ctx, func(token string) error {
		var err error
		acked, err = t.manager.api.SendCommand(ctx, token, t.id, payload)
		return err
	})
	if err != nil {
		return err
	}
	if !acked {
		return ErrNotAcknowledged
	}
	return nil
}

// normalizeSettings checks every field and returns the canonical values.
func normalizeSettings(s command.Settings) (command.Settings, error) {
	var (
		out command.Settings
		err error
	)
	if out.Mode, err = command.ParseHVACMode(string(s.Mode)); err != nil {
		return out, err
	}
	if out.Fan, err = command.ParseFanMode(string(s.Fan)); err != nil {
		return out, err
	}
	if out.Swing, err = command.ParseSwingMode(string(s.Swing)); err != nil {
		return out, err
	}
	if out.Preset, err = command.ParsePreset(string(s.Preset)); err != nil {
		return out, err
	}
	if err = ValidateTemperature(s.Temperature); err != nil {
		return out, err
	}
	out.Temperature = s.Temperature
	return out, nil
}
