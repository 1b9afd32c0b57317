//go:build !linux

package hal

import (
	"errors"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// RealIO is not available on non-Linux platforms.
type RealIO struct{}

// NewRealIO returns an error on non-Linux platforms.
func NewRealIO(chipName string, button ButtonPin, pins OutputPins, iioDevice string) (*RealIO, error) {
	return nil, errors.New("hal: not supported on this platform (requires Linux)")
}

// Button is not implemented on non-Linux platforms.
func (io *RealIO) Button() (bool, error) {
	return false, errors.New("hal: not supported")
}

// Analog is not implemented on non-Linux platforms.
func (io *RealIO) Analog(channel int) (int, error) {
	return 0, errors.New("hal: not supported")
}

// Apply is not implemented on non-Linux platforms.
func (io *RealIO) Apply(cycle.Outputs) error {
	return errors.New("hal: not supported")
}

// Close is not implemented on non-Linux platforms.
func (io *RealIO) Close() error {
	return nil
}
