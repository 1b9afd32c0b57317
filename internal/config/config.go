// Package config loads the chamber configuration from a YAML file. All
// values are fixed at startup; nothing is reloadable.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/cure-chamber/internal/hal"
	"github.com/sweeney/cure-chamber/internal/thermistor"
)

// Config holds all configuration for the cure-chamber daemon.
type Config struct {
	Control    ControlConfig    `yaml:"control"`
	Thermistor ThermistorConfig `yaml:"thermistor"`
	Pins       PinsConfig       `yaml:"pins"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
}

// ControlConfig contains the cure targets and loop timing.
type ControlConfig struct {
	TargetTempC   float64       `yaml:"target_temp_c"`
	CycleDuration time.Duration `yaml:"cycle_duration"`
	PollInterval  time.Duration `yaml:"poll_interval"`
	Debounce      time.Duration `yaml:"debounce"`
	Heartbeat     time.Duration `yaml:"heartbeat"`
}

// ThermistorConfig contains the divider constants and channel map.
type ThermistorConfig struct {
	Samples      int           `yaml:"samples"`
	SampleDelay  time.Duration `yaml:"sample_delay"`
	NominalR     float64       `yaml:"nominal_r"`
	NominalTempC float64       `yaml:"nominal_temp_c"`
	BCoefficient float64       `yaml:"b_coefficient"`
	SeriesR      float64       `yaml:"series_r"`
	ADCMax       int           `yaml:"adc_max"`
	MinTempC     float64       `yaml:"min_temp_c"`
	MaxTempC     float64       `yaml:"max_temp_c"`
	BoxChannel   int           `yaml:"box_channel"`
	PlateChannel int           `yaml:"plate_channel"`
}

// PinConfig describes one GPIO line with its polarity.
type PinConfig struct {
	Pin int `yaml:"pin"`
	// ClosesOnHigh applies to relays, ActiveHigh to LEDs, ActiveLow to
	// the button; only the matching field is read for each role.
	ClosesOnHigh bool `yaml:"closes_on_high"`
	ActiveHigh   bool `yaml:"active_high"`
	ActiveLow    bool `yaml:"active_low"`
}

// PinsConfig is the full pin map.
type PinsConfig struct {
	Chip      string    `yaml:"chip"`
	IIODevice string    `yaml:"iio_device"`
	Button    PinConfig `yaml:"button"`
	Heater    PinConfig `yaml:"heater"`
	Lamp      PinConfig `yaml:"lamp"`
	Amber     PinConfig `yaml:"amber"`
	Red1      PinConfig `yaml:"red1"`
	Red2      PinConfig `yaml:"red2"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Enabled bool   `yaml:"enabled"`
	Broker  string `yaml:"broker"`
}

// HTTPConfig contains the status server settings.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// DatabaseConfig contains the telemetry history settings.
type DatabaseConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Default returns a configuration with sensible values for the reference
// chamber build.
func Default() *Config {
	therm := thermistor.DefaultConfig()
	return &Config{
		Control: ControlConfig{
			TargetTempC:   60,
			CycleDuration: 30 * time.Minute,
			PollInterval:  time.Second,
			Debounce:      50 * time.Millisecond,
			Heartbeat:     15 * time.Minute,
		},
		Thermistor: ThermistorConfig{
			Samples:      therm.Samples,
			SampleDelay:  therm.SampleDelay,
			NominalR:     therm.NominalR,
			NominalTempC: therm.NominalTempC,
			BCoefficient: therm.BCoefficient,
			SeriesR:      therm.SeriesR,
			ADCMax:       therm.ADCMax,
			MinTempC:     therm.MinTemp,
			MaxTempC:     therm.MaxTemp,
			BoxChannel:   hal.ChannelBox,
			PlateChannel: hal.ChannelPlate,
		},
		Pins: PinsConfig{
			Chip:      "gpiochip0",
			IIODevice: hal.DefaultIIODevice,
			Button:    PinConfig{Pin: hal.DefaultButton.Pin, ActiveLow: hal.DefaultButton.ActiveLow},
			Heater:    PinConfig{Pin: hal.DefaultPins.Heater.Pin, ClosesOnHigh: hal.DefaultPins.Heater.ClosesOnHigh},
			Lamp:      PinConfig{Pin: hal.DefaultPins.Lamp.Pin, ClosesOnHigh: hal.DefaultPins.Lamp.ClosesOnHigh},
			Amber:     PinConfig{Pin: hal.DefaultPins.Amber.Pin, ActiveHigh: hal.DefaultPins.Amber.ActiveHigh},
			Red1:      PinConfig{Pin: hal.DefaultPins.Red1.Pin, ActiveHigh: hal.DefaultPins.Red1.ActiveHigh},
			Red2:      PinConfig{Pin: hal.DefaultPins.Red2.Pin, ActiveHigh: hal.DefaultPins.Red2.ActiveHigh},
		},
		MQTT: MQTTConfig{
			Enabled: true,
			Broker:  "tcp://192.168.1.200:1883",
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
		Database: DatabaseConfig{
			Enabled:       true,
			Path:          "/var/lib/cure-chamber/history.db",
			RetentionDays: 30,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the control loop cannot run with.
func (c *Config) Validate() error {
	if c.Control.CycleDuration <= 0 {
		return fmt.Errorf("control.cycle_duration must be positive, got %v", c.Control.CycleDuration)
	}
	if c.Control.PollInterval <= 0 {
		return fmt.Errorf("control.poll_interval must be positive, got %v", c.Control.PollInterval)
	}
	if c.Control.Debounce < 0 {
		return fmt.Errorf("control.debounce must not be negative, got %v", c.Control.Debounce)
	}
	if c.Thermistor.Samples <= 0 {
		return fmt.Errorf("thermistor.samples must be positive, got %d", c.Thermistor.Samples)
	}
	if c.Thermistor.SeriesR <= 0 {
		return fmt.Errorf("thermistor.series_r must be positive, got %v", c.Thermistor.SeriesR)
	}
	if c.Thermistor.NominalR <= 0 {
		return fmt.Errorf("thermistor.nominal_r must be positive, got %v", c.Thermistor.NominalR)
	}
	if c.Thermistor.BCoefficient <= 0 {
		return fmt.Errorf("thermistor.b_coefficient must be positive, got %v", c.Thermistor.BCoefficient)
	}
	if c.Thermistor.ADCMax <= 0 {
		return fmt.Errorf("thermistor.adc_max must be positive, got %d", c.Thermistor.ADCMax)
	}
	if c.Thermistor.BoxChannel == c.Thermistor.PlateChannel {
		return fmt.Errorf("thermistor channels must differ, both are %d", c.Thermistor.BoxChannel)
	}
	if c.Thermistor.MinTempC >= c.Thermistor.MaxTempC {
		return fmt.Errorf("thermistor.min_temp_c must be below max_temp_c")
	}
	if c.Database.Enabled && c.Database.Path == "" {
		return fmt.Errorf("database.path required when database is enabled")
	}
	return nil
}

// ThermistorConverter converts the YAML section into the converter's config.
func (c *Config) ThermistorConverter() thermistor.Config {
	return thermistor.Config{
		Samples:      c.Thermistor.Samples,
		SampleDelay:  c.Thermistor.SampleDelay,
		NominalR:     c.Thermistor.NominalR,
		NominalTempC: c.Thermistor.NominalTempC,
		BCoefficient: c.Thermistor.BCoefficient,
		SeriesR:      c.Thermistor.SeriesR,
		ADCMax:       c.Thermistor.ADCMax,
		MinTemp:      c.Thermistor.MinTempC,
		MaxTemp:      c.Thermistor.MaxTempC,
	}
}

// ButtonPin converts the YAML section into the HAL button description.
func (c *Config) ButtonPin() hal.ButtonPin {
	return hal.ButtonPin{Pin: c.Pins.Button.Pin, ActiveLow: c.Pins.Button.ActiveLow}
}

// OutputPins converts the YAML section into the HAL pin map.
func (c *Config) OutputPins() hal.OutputPins {
	return hal.OutputPins{
		Heater: hal.RelayPin{Pin: c.Pins.Heater.Pin, ClosesOnHigh: c.Pins.Heater.ClosesOnHigh},
		Lamp:   hal.RelayPin{Pin: c.Pins.Lamp.Pin, ClosesOnHigh: c.Pins.Lamp.ClosesOnHigh},
		Amber:  hal.LEDPin{Pin: c.Pins.Amber.Pin, ActiveHigh: c.Pins.Amber.ActiveHigh},
		Red1:   hal.LEDPin{Pin: c.Pins.Red1.Pin, ActiveHigh: c.Pins.Red1.ActiveHigh},
		Red2:   hal.LEDPin{Pin: c.Pins.Red2.Pin, ActiveHigh: c.Pins.Red2.ActiveHigh},
	}
}
