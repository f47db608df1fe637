package command

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// Length is the exact length of an encoded command.
	Length = 20

	// FixedSegment fills positions 11-19. The firmware requires it verbatim;
	// its meaning is not documented by the vendor.
	FixedSegment = "00000ff00"

	// fallbackDigit is used for any fan, mode or swing value not in the tables.
	fallbackDigit = '4'

	reserved     = '0'
	presetSleep  = '2'
	presetNone   = '0'
	maxTempValue = 0xffff
)

// ErrTemperatureOutOfRange is returned when a temperature cannot be
// represented in the four hex digits of positions 5-8.
var ErrTemperatureOutOfRange = errors.New("temperature out of encodable range")

var fanDigits = map[FanMode]byte{
	FanLow:    '1',
	FanMedium: '2',
	FanHigh:   '3',
	FanAuto:   '4',
}

var modeDigits = map[HVACMode]byte{
	ModeOff:     '0',
	ModeCool:    '1',
	ModeHeat:    '2',
	ModeFanOnly: '3',
}

var swingDigits = map[SwingMode]byte{
	SwingVertical:   '1',
	SwingHorizontal: '2',
	Swing45Degrees:  '3',
	SwingFull:       '4',
}

// Encode builds the 20-character command for the given settings.
//
// Unknown fan, mode and swing values encode as '4' and an unknown preset as
// '0'. The only failure is a temperature outside the encodable range.
func Encode(s Settings) (string, error) {
	temp, err := EncodeTemperature(s.Temperature)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.Grow(Length)
	b.WriteByte(reserved)
	b.WriteByte(lookup(fanDigits, s.Fan))
	b.WriteByte(reserved)
	b.WriteByte(lookup(modeDigits, s.Mode))
	b.WriteString(temp)
	b.WriteByte(reserved)
	b.WriteByte(lookup(swingDigits, s.Swing))
	b.WriteString(FixedSegment)
	b.WriteByte(presetDigit(s.Preset))

	return b.String(), nil
}

// EncodeTemperature converts degrees Celsius to the 4-digit hex field.
// Tenths are truncated, so 22.39 encodes as 223 (00df).
func EncodeTemperature(celsius float64) (string, error) {
	if math.IsNaN(celsius) || math.IsInf(celsius, 0) || celsius < 0 {
		return "", fmt.Errorf("%w: %v", ErrTemperatureOutOfRange, celsius)
	}
	tenths := math.Trunc(celsius * 10)
	if tenths < 0 || tenths > maxTempValue {
		return "", fmt.Errorf("%w: %.1f°C", ErrTemperatureOutOfRange, celsius)
	}
	return fmt.Sprintf("%04x", int(tenths)), nil
}

// Describe returns a positional breakdown of an encoded command for
// diagnostics. It does not validate the digits.
func Describe(encoded string) string {
	if len(encoded) != Length {
		return fmt.Sprintf("invalid command %q: length %d, want %d", encoded, len(encoded), Length)
	}

	fields := []struct {
		pos   string
		value string
		name  string
	}{
		{"1", encoded[0:1], "reserved"},
		{"2", encoded[1:2], "fan"},
		{"3", encoded[2:3], "reserved"},
		{"4", encoded[3:4], "mode"},
		{"5-8", encoded[4:8], "temperature"},
		{"9", encoded[8:9], "reserved"},
		{"10", encoded[9:10], "swing"},
		{"11-19", encoded[10:19], "fixed"},
		{"20", encoded[19:20], "preset"},
	}

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-6s %-10s %s", f.pos, f.value, f.name)
	}
	return b.String()
}

func lookup[K comparable](table map[K]byte, key K) byte {
	if d, ok := table[key]; ok {
		return d
	}
	return fallbackDigit
}

func presetDigit(p Preset) byte {
	if p == PresetSleep {
		return presetSleep
	}
	return presetNone
}
