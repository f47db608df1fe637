package climate

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/sabiana/internal/cloud"
	"github.com/muurk/sabiana/internal/command"
)

func discovered(t *testing.T, api *fakeAPI, opts ...Option) *Thermostat {
	t.Helper()

	m := newTestManager(api, &memStore{token: "tok-1"}, opts...)
	_, err := m.Discover(context.Background())
	require.NoError(t, err)

	th, err := m.Thermostat("d1")
	require.NoError(t, err)
	return th
}

func TestThermostat_SetTemperature(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)

	require.NoError(t, th.SetTemperature(context.Background(), 22))

	require.Len(t, api.sends, 1)
	sent := api.sends[0]
	assert.Equal(t, "d1", sent.deviceID)
	assert.Equal(t, "tok-1", sent.token)
	assert.Equal(t, "040000dc04"+command.FixedSegment+"0", sent.payload)
	assert.Equal(t, 22.0, th.Settings().Temperature)
	assert.Equal(t, command.ModeOff, th.Settings().Mode, "mode is kept")
}

func TestThermostat_SetTemperatureRejected(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)

	for _, c := range []float64{9, 31, 21.5, math.NaN()} {
		err := th.SetTemperature(context.Background(), c)
		assert.ErrorIs(t, err, ErrInvalidTemperature, "temp %v", c)
	}
	assert.Empty(t, api.sends)
	assert.Equal(t, 25.0, th.Settings().Temperature)
}

func TestThermostat_Setters(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)
	ctx := context.Background()

	require.NoError(t, th.SetHVACMode(ctx, command.ModeHeat))
	require.NoError(t, th.SetFanMode(ctx, command.FanHigh))
	require.NoError(t, th.SetSwingMode(ctx, "45"))
	require.NoError(t, th.SetPreset(ctx, command.PresetSleep))

	want := command.Settings{
		Mode:        command.ModeHeat,
		Fan:         command.FanHigh,
		Swing:       command.Swing45Degrees,
		Temperature: 25,
		Preset:      command.PresetSleep,
	}
	assert.Equal(t, want, th.Settings())

	require.Len(t, api.sends, 4)
	assert.Equal(t, "030200fa03"+command.FixedSegment+"2", api.sends[3].payload)
}

func TestThermostat_SettersRejectUnknown(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)
	ctx := context.Background()

	assert.ErrorIs(t, th.SetHVACMode(ctx, "dry"), command.ErrUnknownValue)
	assert.ErrorIs(t, th.SetFanMode(ctx, "turbo"), command.ErrUnknownValue)
	assert.ErrorIs(t, th.SetSwingMode(ctx, "circular"), command.ErrUnknownValue)
	assert.ErrorIs(t, th.SetPreset(ctx, "eco"), command.ErrUnknownValue)
	assert.Empty(t, api.sends)
}

func TestThermostat_TurnOnOff(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)
	ctx := context.Background()

	require.NoError(t, th.TurnOn(ctx))
	assert.Equal(t, command.ModeCool, th.Settings().Mode)

	require.NoError(t, th.TurnOff(ctx))
	assert.Equal(t, command.ModeOff, th.Settings().Mode)
}

func TestThermostat_NotAcknowledged(t *testing.T) {
	api := newFakeAPI()
	api.result = false
	th := discovered(t, api)

	err := th.TurnOn(context.Background())
	assert.ErrorIs(t, err, ErrNotAcknowledged)
	assert.Equal(t, command.ModeOff, th.Settings().Mode, "settings are only committed on acknowledgement")
}

func TestThermostat_ErrorKeepsSettings(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)

	api.sendErrs = []error{cloud.NewAuthError("session expired", 200, 103)}
	err := th.SetTemperature(context.Background(), 18)

	assert.True(t, cloud.IsAuthError(err))
	assert.Equal(t, 25.0, th.Settings().Temperature)
}

func TestThermostat_Apply(t *testing.T) {
	api := newFakeAPI()
	th := discovered(t, api)

	s := command.Settings{Mode: "HEAT", Fan: "low", Swing: "swing", Temperature: 20}
	require.NoError(t, th.Apply(context.Background(), s))

	assert.Equal(t, command.ModeHeat, th.Settings().Mode)
	require.Len(t, api.sends, 1)
	assert.Equal(t, "010200c804"+command.FixedSegment+"0", api.sends[0].payload)

	s.Temperature = 40
	assert.ErrorIs(t, th.Apply(context.Background(), s), ErrInvalidTemperature)
	assert.Len(t, api.sends, 1)
}

func TestValidateTemperature(t *testing.T) {
	for c := MinTemperature; c <= MaxTemperature; c += TemperatureStep {
		assert.NoError(t, ValidateTemperature(c), "temp %v", c)
	}

	for _, c := range []float64{9.9, 30.5, 0, -5, 22.5, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, ValidateTemperature(c), ErrInvalidTemperature, "temp %v", c)
	}
}
