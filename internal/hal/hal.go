// Package hal is the hardware boundary for the cure chamber: button and
// thermistor inputs, relay and LED outputs. The real implementation uses the
// Linux GPIO character device and IIO sysfs; the fakes allow testing without
// hardware.
package hal

import "github.com/sweeney/cure-chamber/internal/cycle"

// Inputs reads the chamber's sensors.
type Inputs interface {
	// Button returns the raw button level (true = high). Polarity is
	// interpreted by the debouncer, not here.
	Button() (bool, error)

	// Analog returns the raw ADC code for a channel, 0..1023.
	Analog(channel int) (int, error)

	// Close releases input resources.
	Close() error
}

// Outputs drives the chamber's relays and LEDs.
type Outputs interface {
	// Apply drives every actuator to the levels in the frame. Polarity
	// (normally-open vs normally-closed relays, LED wiring) is applied
	// here so the logic layer stays in logical on/off terms.
	Apply(cycle.Outputs) error

	// Close de-energizes the relays and releases output resources.
	Close() error
}

// RelayPin describes one relay's wiring.
type RelayPin struct {
	Pin int
	// ClosesOnHigh is true when a logic-high energizes the relay coil
	// (normally-open module). False inverts the drive.
	ClosesOnHigh bool
}

// LEDPin describes one indicator LED's wiring.
type LEDPin struct {
	Pin        int
	ActiveHigh bool
}

// ButtonPin describes the start/abort switch wiring.
type ButtonPin struct {
	Pin int
	// ActiveLow is true when the switch pulls the line to ground.
	ActiveLow bool
}

// OutputPins is the full actuator pin map.
type OutputPins struct {
	Heater RelayPin
	Lamp   RelayPin
	Amber  LEDPin
	Red1   LEDPin
	Red2   LEDPin
}

// Default pin assignments (BCM numbering).
var (
	DefaultButton = ButtonPin{Pin: 17, ActiveLow: true}
	DefaultPins   = OutputPins{
		Heater: RelayPin{Pin: 22, ClosesOnHigh: false},
		Lamp:   RelayPin{Pin: 23, ClosesOnHigh: false},
		Amber:  LEDPin{Pin: 5, ActiveHigh: true},
		Red1:   LEDPin{Pin: 6, ActiveHigh: true},
		Red2:   LEDPin{Pin: 13, ActiveHigh: true},
	}
)

// Analog channel assignments on the ADC.
const (
	ChannelBox   = 0 // box air thermistor
	ChannelPlate = 1 // build plate thermistor
)

func relayLevel(on, closesOnHigh bool) int {
	if on == closesOnHigh {
		return 1
	}
	return 0
}

func ledLevel(on, activeHigh bool) int {
	if on == activeHigh {
		return 1
	}
	return 0
}
