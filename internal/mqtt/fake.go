package mqtt

import (
	"github.com/sweeney/cure-chamber/internal/cycle"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Events contains all cycle events that were published.
	Events []cycle.Event

	// Payloads contains the JSON payloads for cycle events.
	Payloads [][]byte

	// Readings contains all periodic readings that were published.
	Readings []Reading

	// ReadingPayloads contains the JSON payloads for readings.
	ReadingPayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishReadingError, if set, will be returned by PublishReading.
	PublishReadingError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the cycle event.
func (f *FakePublisher) Publish(event cycle.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Events = append(f.Events, event)

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishReading records the periodic reading.
func (f *FakePublisher) PublishReading(reading Reading) error {
	if f.PublishReadingError != nil {
		return f.PublishReadingError
	}

	f.Readings = append(f.Readings, reading)

	payload, err := FormatReadingPayload(reading)
	if err != nil {
		return err
	}
	f.ReadingPayloads = append(f.ReadingPayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.Events = nil
	f.Payloads = nil
	f.Readings = nil
	f.ReadingPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishReadingError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
