package hal

import (
	"errors"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// Sample is one scripted input frame: the raw button level plus the ADC
// code per channel.
type Sample struct {
	Button bool
	Codes  map[int]int
}

// FakeInputs is a test double that returns scripted sensor values. Analog
// reads from the current sample; Button returns the current sample's level
// and then advances, since the loop reads it exactly once per tick, last.
// When samples are exhausted the last one repeats.
type FakeInputs struct {
	Samples []Sample

	// ButtonError and AnalogError, if set, are returned by the matching
	// read.
	ButtonError error
	AnalogError error

	// Closed tracks if Close was called.
	Closed bool

	index int
}

// NewFakeInputs creates a FakeInputs with the given samples.
func NewFakeInputs(samples []Sample) *FakeInputs {
	return &FakeInputs{Samples: samples}
}

func (f *FakeInputs) current() (Sample, error) {
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}
	return f.Samples[f.index], nil
}

// Button returns the current sample's raw level and advances to the next
// sample.
func (f *FakeInputs) Button() (bool, error) {
	if f.ButtonError != nil {
		return false, f.ButtonError
	}
	s, err := f.current()
	if err != nil {
		return false, err
	}
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s.Button, nil
}

// Analog returns the scripted code for the channel from the current sample.
// A channel with no scripted code reads as mid-scale.
func (f *FakeInputs) Analog(channel int) (int, error) {
	if f.AnalogError != nil {
		return 0, f.AnalogError
	}
	s, err := f.current()
	if err != nil {
		return 0, err
	}
	code, ok := s.Codes[channel]
	if !ok {
		return 512, nil
	}
	return code, nil
}

// Close marks the inputs as closed.
func (f *FakeInputs) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first sample.
func (f *FakeInputs) Reset() {
	f.index = 0
	f.Closed = false
}

// FakeOutputs records every applied actuator frame.
type FakeOutputs struct {
	// Frames contains each frame passed to Apply, in order.
	Frames []cycle.Outputs

	// ApplyError, if set, is returned by Apply without recording.
	ApplyError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutputs creates an empty FakeOutputs.
func NewFakeOutputs() *FakeOutputs {
	return &FakeOutputs{}
}

// Apply records the frame.
func (f *FakeOutputs) Apply(o cycle.Outputs) error {
	if f.ApplyError != nil {
		return f.ApplyError
	}
	f.Frames = append(f.Frames, o)
	return nil
}

// Last returns the most recent frame, or the zero frame if none applied.
func (f *FakeOutputs) Last() cycle.Outputs {
	if len(f.Frames) == 0 {
		return cycle.Outputs{}
	}
	return f.Frames[len(f.Frames)-1]
}

// Close marks the outputs as closed.
func (f *FakeOutputs) Close() error {
	f.Closed = true
	return nil
}
