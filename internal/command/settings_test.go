package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHVACMode(t *testing.T) {
	tests := []struct {
		in      string
		want    HVACMode
		wantErr bool
	}{
		{"off", ModeOff, false},
		{"COOL", ModeCool, false},
		{" heat ", ModeHeat, false},
		{"fan_only", ModeFanOnly, false},
		{"fan-only", ModeFanOnly, false},
		{"dry", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseHVACMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownValue, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseFanMode(t *testing.T) {
	for _, fan := range FanModes {
		got, err := ParseFanMode(string(fan))
		require.NoError(t, err)
		assert.Equal(t, fan, got)
	}

	_, err := ParseFanMode("turbo")
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestParseSwingMode(t *testing.T) {
	tests := map[string]SwingMode{
		"vertical":   SwingVertical,
		"Horizontal": SwingHorizontal,
		"45":         Swing45Degrees,
		"45-degrees": Swing45Degrees,
		"45 Degrees": Swing45Degrees,
		"swing":      SwingFull,
	}

	for in, want := range tests {
		got, err := ParseSwingMode(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseSwingMode("circular")
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestParsePreset(t *testing.T) {
	for _, in := range []string{"", "none", "off", "NONE"} {
		got, err := ParsePreset(in)
		require.NoError(t, err)
		assert.Equal(t, PresetNone, got)
	}

	got, err := ParsePreset("Sleep")
	require.NoError(t, err)
	assert.Equal(t, PresetSleep, got)

	_, err = ParsePreset("eco")
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, ModeOff, s.Mode)
	assert.Equal(t, FanAuto, s.Fan)
	assert.Equal(t, SwingFull, s.Swing)
	assert.Equal(t, 25.0, s.Temperature)
	assert.Equal(t, PresetNone, s.Preset)
	assert.Equal(t, "mode=off fan=auto swing=swing temp=25.0 preset=none", s.String())
}
