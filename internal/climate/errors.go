package climate

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNotAcknowledged is returned when the cloud accepted a command but
	// reported result=false.
	ErrNotAcknowledged = errors.New("command not acknowledged by device")

	// ErrUnknownDevice is returned for a device id that discovery has not seen.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrNotAuthenticated is returned when no session token is stored and
	// none can be obtained.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidTemperature is returned for a target outside the supported
	// range or off the 1°C step.
	ErrInvalidTemperature = errors.New("invalid target temperature")
)

// Supported target range in °C.
const (
	MinTemperature  = 10.0
	MaxTemperature  = 30.0
	TemperatureStep = 1.0
)

// ValidateTemperature checks a target against the range the units accept.
func ValidateTemperature(celsius float64) error {
	if math.IsNaN(celsius) || celsius < MinTemperature || celsius > MaxTemperature {
		return fmt.Errorf("%w: %v°C (must be %.0f-%.0f)", ErrInvalidTemperature, celsius, MinTemperature, MaxTemperature)
	}
	if math.Mod(celsius-MinTemperature, TemperatureStep) != 0 {
		return fmt.Errorf("%w: %v°C (must be a multiple of %.0f)", ErrInvalidTemperature, celsius, TemperatureStep)
	}
	return nil
}
