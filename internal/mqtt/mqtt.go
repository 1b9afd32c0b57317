// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"math"
	"time"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// Topic is the MQTT topic for cycle transition events.
const Topic = "chamber/cure/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "chamber/cure/system"

// TopicReadings is the MQTT topic for periodic temperature readings.
const TopicReadings = "chamber/cure/readings"

// Publisher publishes chamber telemetry to MQTT.
type Publisher interface {
	// Publish sends a cycle event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event cycle.Event) error

	// PublishReading sends a periodic temperature reading to the broker.
	PublishReading(reading Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Reading is one periodic temperature sample for telemetry.
type Reading struct {
	Timestamp        time.Time
	BoxTemp          float64
	PlateTemp        float64
	Phase            cycle.Phase
	Running          bool
	RemainingMinutes float64
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the cycle event message structure.
type Payload struct {
	Cure CurePayload `json:"cure"`
}

// CurePayload contains the cycle event details. The temperature is a
// pointer so an event raised during a sensor fault (NaN reading) renders
// as null instead of failing to marshal.
type CurePayload struct {
	Timestamp  string   `json:"timestamp"`
	Event      string   `json:"event"`
	Phase      string   `json:"phase"`
	PlateTempC *float64 `json:"plate_temp_c"`
}

// jsonTemp maps a temperature to its JSON value, nil (null) when the
// reading is not a finite number.
func jsonTemp(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FormatPayload creates the JSON payload for a cycle event.
func FormatPayload(event cycle.Event) ([]byte, error) {
	payload := Payload{
		Cure: CurePayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Event:      string(event.Type),
			Phase:      string(event.Phase),
			PlateTempC: jsonTemp(event.PlateTemp),
		},
	}
	return json.Marshal(payload)
}

// ReadingPayload represents the periodic reading message structure.
type ReadingPayload struct {
	Reading ReadingInner `json:"reading"`
}

// ReadingInner contains the reading details.
type ReadingInner struct {
	Timestamp        string   `json:"timestamp"`
	BoxTempC         *float64 `json:"box_temp_c"`
	PlateTempC       *float64 `json:"plate_temp_c"`
	Phase            string   `json:"phase"`
	Running          bool     `json:"running"`
	RemainingMinutes float64  `json:"remaining_minutes"`
}

// FormatReadingPayload creates the JSON payload for a periodic reading.
func FormatReadingPayload(reading Reading) ([]byte, error) {
	payload := ReadingPayload{
		Reading: ReadingInner{
			Timestamp:        reading.Timestamp.UTC().Format(time.RFC3339),
			BoxTempC:         jsonTemp(reading.BoxTemp),
			PlateTempC:       jsonTemp(reading.PlateTemp),
			Phase:            string(reading.Phase),
			Running:          reading.Running,
			RemainingMinutes: reading.RemainingMinutes,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
