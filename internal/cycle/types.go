// Package cycle contains the pure decision logic for a timed curing run.
// This package has NO external dependencies (no GPIO, MQTT, OS, or
// time.Sleep). Time is always injectable via time.Time parameters.
package cycle

import "time"

// Phase is the controller's observable state for one tick.
type Phase string

const (
	PhaseIdle          Phase = "IDLE"
	PhaseHeating       Phase = "HEATING"
	PhaseAtTemperature Phase = "AT_TEMPERATURE"
)

// EventType labels a cycle transition.
type EventType string

const (
	EventCycleStart    EventType = "CYCLE_START"
	EventCycleAbort    EventType = "CYCLE_ABORT"
	EventCycleComplete EventType = "CYCLE_COMPLETE"
	EventHeaterOn      EventType = "HEATER_ON"
	EventHeaterOff     EventType = "HEATER_OFF"
)

// Event represents a transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Phase     Phase
	PlateTemp float64
}

// Outputs is the logical actuator frame for one tick. Levels are logical
// on/off; relay and LED polarity is a wiring detail applied at the HAL.
type Outputs struct {
	Heater bool // heater relay
	Lamp   bool // UV lamp relay
	Amber  bool // idle indicator LED
	Red1   bool // run indicator LED
	Red2   bool // active-heating indicator LED
}

// idleOutputs is the everything-off frame: relays open, amber on.
func idleOutputs() Outputs {
	return Outputs{Amber: true}
}

// Counts tracks cycle lifecycle totals since startup.
type Counts struct {
	Started   int
	Completed int
	Aborted   int
}
