// Package thermistor converts raw ADC codes from an NTC thermistor in a
// voltage divider into temperatures, using the simplified single-B-coefficient
// Steinhart-Hart model. The conversion is pure; sampling delays are injected
// so tests run with zero real delay.
package thermistor

import (
	"fmt"
	"math"
	"time"
)

const kelvinOffset = 273.15

// AnalogReader is the analog input a probe samples from.
type AnalogReader interface {
	// Analog returns the raw ADC code for the given channel, 0..ADCMax.
	Analog(channel int) (int, error)
}

// Config holds the divider and thermistor constants for one probe type.
type Config struct {
	// Samples is the number of consecutive ADC reads averaged per conversion.
	Samples int
	// SampleDelay is the pause between consecutive reads. It rejects
	// correlated circuit noise, not slow drift.
	SampleDelay time.Duration
	// NominalR is the thermistor resistance at NominalTempC.
	NominalR float64
	// NominalTempC is the reference temperature for NominalR.
	NominalTempC float64
	// BCoefficient is the thermistor B (beta) parameter.
	BCoefficient float64
	// SeriesR is the fixed divider resistor. This must match the installed
	// resistor, not the thermistor nominal — the two are often the same
	// magnitude and easy to conflate.
	SeriesR float64
	// ADCMax is the full-scale ADC code (1023 for a 10-bit converter).
	ADCMax int
	// MinTemp and MaxTemp bound the reported temperature. Codes at the
	// rails (open or shorted sensor) saturate here instead of producing
	// NaN or infinities.
	MinTemp float64
	MaxTemp float64
}

// DefaultConfig returns constants for a common 100K NTC with a 100K divider
// resistor on a 10-bit converter.
func DefaultConfig() Config {
	return Config{
		Samples:      5,
		SampleDelay:  10 * time.Millisecond,
		NominalR:     100000,
		NominalTempC: 25,
		BCoefficient: 3950,
		SeriesR:      100000,
		ADCMax:       1023,
		MinTemp:      -55,
		MaxTemp:      300,
	}
}

// Resistance converts a mean ADC code into the thermistor resistance via the
// divider relation R = SeriesR / (ADCMax/mean - 1). The code is pulled half
// a count off the rails first so the formula stays finite.
func (c Config) Resistance(mean float64) float64 {
	max := float64(c.ADCMax)
	if mean < 0.5 {
		mean = 0.5
	}
	if mean > max-0.5 {
		mean = max - 0.5
	}
	return c.SeriesR / (max/mean - 1)
}

// Temperature converts a resistance into degrees Celsius using
// 1/T = 1/T0 + ln(R/R0)/B, clamped into [MinTemp, MaxTemp].
func (c Config) Temperature(resistance float64) float64 {
	t0 := c.NominalTempC + kelvinOffset
	invT := 1/t0 + math.Log(resistance/c.NominalR)/c.BCoefficient
	t := 1/invT - kelvinOffset

	if math.IsNaN(t) || t < c.MinTemp {
		return c.MinTemp
	}
	if t > c.MaxTemp {
		return c.MaxTemp
	}
	return t
}

// Convert runs the full pipeline from a mean ADC code to Celsius.
func (c Config) Convert(mean float64) float64 {
	return c.Temperature(c.Resistance(mean))
}

// Probe is one thermistor bound to an analog channel.
type Probe struct {
	cfg     Config
	channel int
	sleep   func(time.Duration)
}

// NewProbe creates a probe on the given channel. sleep is called between
// consecutive samples; pass nil to sample back to back.
func NewProbe(cfg Config, channel int, sleep func(time.Duration)) *Probe {
	if cfg.Samples <= 0 {
		cfg.Samples = 1
	}
	return &Probe{cfg: cfg, channel: channel, sleep: sleep}
}

// Channel returns the analog channel this probe samples.
func (p *Probe) Channel() int {
	return p.channel
}

// Read takes cfg.Samples consecutive codes, averages them, and converts to
// Celsius. Blocks for roughly (Samples-1) x SampleDelay.
func (p *Probe) Read(in AnalogReader) (float64, error) {
	sum := 0
	for i := 0; i < p.cfg.Samples; i++ {
		if i > 0 && p.sleep != nil && p.cfg.SampleDelay > 0 {
			p.sleep(p.cfg.SampleDelay)
		}
		code, err := in.Analog(p.channel)
		if err != nil {
			return 0, fmt.Errorf("sample channel %d: %w", p.channel, err)
		}
		sum += code
	}
	mean := float64(sum) / float64(p.cfg.Samples)
	return p.cfg.Convert(mean), nil
}
