package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownValue is returned by the Parse functions for input outside the
// known modes. Encode never returns it.
var ErrUnknownValue = errors.New("unknown value")

// HVACMode is the operating mode of the unit.
type HVACMode string

const (
	ModeOff     HVACMode = "off"
	ModeCool    HVACMode = "cool"
	ModeHeat    HVACMode = "heat"
	ModeFanOnly HVACMode = "fan_only"
)

// FanMode is the fan speed.
type FanMode string

const (
	FanLow    FanMode = "low"
	FanMedium FanMode = "medium"
	FanHigh   FanMode = "high"
	FanAuto   FanMode = "auto"
)

// SwingMode is the louvre movement pattern.
type SwingMode string

const (
	SwingVertical   SwingMode = "vertical"
	SwingHorizontal SwingMode = "horizontal"
	Swing45Degrees  SwingMode = "45_degrees"
	SwingFull       SwingMode = "swing"
)

// Preset is an optional operating preset. The zero value means no preset.
type Preset string

const (
	PresetNone  Preset = ""
	PresetSleep Preset = "sleep"
)

// Settings is the complete control state sent to a unit. Every command
// carries all fields, so callers always send a full Settings value.
type Settings struct {
	Mode        HVACMode  `json:"mode" yaml:"mode"`
	Fan         FanMode   `json:"fan" yaml:"fan"`
	Swing       SwingMode `json:"swing" yaml:"swing"`
	Temperature float64   `json:"temperature" yaml:"temperature"`
	Preset      Preset    `json:"preset,omitempty" yaml:"preset,omitempty"`
}

// DefaultSettings returns the state assumed for a unit nothing has been sent
// to yet: off, 25 °C, automatic fan, full swing, no preset.
func DefaultSettings() Settings {
	return Settings{
		Mode:        ModeOff,
		Fan:         FanAuto,
		Swing:       SwingFull,
		Temperature: 25.0,
		Preset:      PresetNone,
	}
}

// String renders the settings for logs and terminal output.
func (s Settings) String() string {
	preset := string(s.Preset)
	if preset == "" {
		preset = "none"
	}
	return fmt.Sprintf("mode=%s fan=%s swing=%s temp=%.1f preset=%s", s.Mode, s.Fan, s.Swing, s.Temperature, preset)
}

// HVACModes lists the supported modes in display order.
var HVACModes = []HVACMode{ModeOff, ModeCool, ModeHeat, ModeFanOnly}

// FanModes lists the supported fan speeds in display order.
var FanModes = []FanMode{FanLow, FanMedium, FanHigh, FanAuto}

// SwingModes lists the supported swing patterns in display order.
var SwingModes = []SwingMode{SwingVertical, SwingHorizontal, Swing45Degrees, SwingFull}

// ParseHVACMode parses user input such as "cool" or "fan-only".
func ParseHVACMode(s string) (HVACMode, error) {
	mode := HVACMode(normalize(s))
	if _, ok := modeDigits[mode]; !ok {
		return "", fmt.Errorf("hvac mode %q: %w", s, ErrUnknownValue)
	}
	return mode, nil
}

// ParseFanMode parses user input such as "low" or "AUTO".
func ParseFanMode(s string) (FanMode, error) {
	fan := FanMode(normalize(s))
	if _, ok := fanDigits[fan]; !ok {
		return "", fmt.Errorf("fan mode %q: %w", s, ErrUnknownValue)
	}
	return fan, nil
}

// ParseSwingMode parses user input. "45" and "45-degrees" are accepted for
// the 45 degree pattern.
func ParseSwingMode(s string) (SwingMode, error) {
	n := normalize(s)
	if n == "45" {
		n = string(Swing45Degrees)
	}
	swing := SwingMode(n)
	if _, ok := swingDigits[swing]; !ok {
		return "", fmt.Errorf("swing mode %q: %w", s, ErrUnknownValue)
	}
	return swing, nil
}

// ParsePreset parses user input. "", "none" and "off" clear the preset.
func ParsePreset(s string) (Preset, error) {
	switch normalize(s) {
	case "", "none", "off":
		return PresetNone, nil
	case string(PresetSleep):
		return PresetSleep, nil
	}
	return "", fmt.Errorf("preset %q: %w", s, ErrUnknownValue)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
