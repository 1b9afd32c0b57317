//go:build linux

package hal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/cure-chamber/internal/cycle"
)

// DefaultIIODevice is the sysfs directory of the ADC the thermistors hang
// off (an IIO-exposed converter such as an MCP3008 or ADS1015).
const DefaultIIODevice = "/sys/bus/iio/devices/iio:device0"

// RealIO drives actual chamber hardware: GPIO character device for the
// button, relays and LEDs, IIO sysfs for the analog channels.
type RealIO struct {
	chip   *gpiocdev.Chip
	button *gpiocdev.Line

	heater *gpiocdev.Line
	lamp   *gpiocdev.Line
	amber  *gpiocdev.Line
	red1   *gpiocdev.Line
	red2   *gpiocdev.Line

	pins      OutputPins
	iioDevice string
}

// NewRealIO requests all chamber lines on the given chip. Relays start
// de-energized and the amber LED lit, matching the idle frame.
func NewRealIO(chipName string, button ButtonPin, pins OutputPins, iioDevice string) (*RealIO, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	io := &RealIO{chip: chip, pins: pins, iioDevice: iioDevice}

	// Pull direction follows wiring: an active-low switch needs the line
	// held high when open.
	pull := gpiocdev.WithPullUp
	if !button.ActiveLow {
		pull = gpiocdev.WithPullDown
	}
	io.button, err = chip.RequestLine(button.Pin, gpiocdev.AsInput, pull)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", button.Pin, err)
	}

	idle := cycle.Outputs{Amber: true}
	outputs := []struct {
		line    **gpiocdev.Line
		pin     int
		initial int
		name    string
	}{
		{&io.heater, pins.Heater.Pin, relayLevel(idle.Heater, pins.Heater.ClosesOnHigh), "heater"},
		{&io.lamp, pins.Lamp.Pin, relayLevel(idle.Lamp, pins.Lamp.ClosesOnHigh), "lamp"},
		{&io.amber, pins.Amber.Pin, ledLevel(idle.Amber, pins.Amber.ActiveHigh), "amber led"},
		{&io.red1, pins.Red1.Pin, ledLevel(idle.Red1, pins.Red1.ActiveHigh), "red led 1"},
		{&io.red2, pins.Red2.Pin, ledLevel(idle.Red2, pins.Red2.ActiveHigh), "red led 2"},
	}
	for _, o := range outputs {
		line, err := chip.RequestLine(o.pin, gpiocdev.AsOutput(o.initial))
		if err != nil {
			io.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", o.name, o.pin, err)
		}
		*o.line = line
	}

	return io, nil
}

// Button returns the raw button level.
func (io *RealIO) Button() (bool, error) {
	v, err := io.button.Value()
	if err != nil {
		return false, fmt.Errorf("read button: %w", err)
	}
	return v != 0, nil
}

// Analog reads one raw code from the IIO converter's sysfs attribute.
func (io *RealIO) Analog(channel int) (int, error) {
	path := fmt.Sprintf("%s/in_voltage%d_raw", io.iioDevice, channel)
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read adc channel %d: %w", channel, err)
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse adc channel %d: %w", channel, err)
	}
	return code, nil
}

// Apply drives every actuator, translating logical levels through the
// configured polarities.
func (io *RealIO) Apply(o cycle.Outputs) error {
	sets := []struct {
		line  *gpiocdev.Line
		level int
		name  string
	}{
		{io.heater, relayLevel(o.Heater, io.pins.Heater.ClosesOnHigh), "heater"},
		{io.lamp, relayLevel(o.Lamp, io.pins.Lamp.ClosesOnHigh), "lamp"},
		{io.amber, ledLevel(o.Amber, io.pins.Amber.ActiveHigh), "amber led"},
		{io.red1, ledLevel(o.Red1, io.pins.Red1.ActiveHigh), "red led 1"},
		{io.red2, ledLevel(o.Red2, io.pins.Red2.ActiveHigh), "red led 2"},
	}
	for _, s := range sets {
		if err := s.line.SetValue(s.level); err != nil {
			return fmt.Errorf("set %s: %w", s.name, err)
		}
	}
	return nil
}

// Close de-energizes the relays, reconfigures every line to input with the
// boot-default pull, and releases the chip. Relays open before anything else
// so a shutdown never leaves the heater latched on.
func (io *RealIO) Close() error {
	var errs []error

	if io.heater != nil && io.lamp != nil && io.amber != nil && io.red1 != nil && io.red2 != nil {
		if err := io.Apply(cycle.Outputs{}); err != nil {
			errs = append(errs, fmt.Errorf("de-energize: %w", err))
		}
	}

	lines := []struct {
		line *gpiocdev.Line
		name string
	}{
		{io.button, "button"},
		{io.heater, "heater"},
		{io.lamp, "lamp"},
		{io.amber, "amber led"},
		{io.red1, "red led 1"},
		{io.red2, "red led 2"},
	}
	for _, l := range lines {
		if l.line == nil {
			continue
		}
		if err := l.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", l.name, err))
		}
		if err := l.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", l.name, err))
		}
	}
	if io.chip != nil {
		if err := io.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
