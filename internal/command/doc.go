// Package command encodes climate settings into the fixed-width command string
// accepted by the Sabiana cloud `devices/cmd` endpoint.
//
// The command is a 20-character ASCII string. Every position is drawn from a
// fixed alphabet and the whole string is derived from a Settings value; it is
// never stored or decoded.
//
// # Layout
//
// Positions are 1-indexed:
//
//	pos  1      '0'            reserved
//	pos  2      fan digit      low=1 medium=2 high=3 auto=4
//	pos  3      '0'            reserved
//	pos  4      mode digit     off=0 cool=1 heat=2 fan_only=3
//	pos  5-8    temperature    int(celsius*10) as 4-digit lowercase hex
//	pos  9      '0'            reserved
//	pos 10      swing digit    vertical=1 horizontal=2 45_degrees=3 swing=4
//	pos 11-19   FixedSegment   opaque firmware payload
//	pos 20      preset digit   sleep=2, otherwise 0
//
// Any fan, mode or swing value missing from the lookup tables encodes as '4'.
//
// # Usage
//
//	settings := command.DefaultSettings()
//	settings.Mode = command.ModeCool
//	settings.Temperature = 22
//
//	payload, err := command.Encode(settings)
//	if err != nil {
//	    return err // only possible for an unencodable temperature
//	}
//	// payload == "040100dc0400000ff000"
//
// Range and step rules for the target temperature (10-30 °C, 1 °C steps) belong
// to the caller. Encode only refuses values that cannot be represented in four
// hex digits.
package command
