package strategy

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the physical, electrical and race-environment constants for one
// optimization run. A Config is built once (DefaultConfig, optionally overlaid
// from YAML by LoadConfig) and treated read-only afterwards; derived
// quantities are methods so no hidden package state exists.
type Config struct {
	// Race window, seconds from local midnight.
	RaceStartTime float64 `yaml:"race_start_time"`
	RaceEndTime   float64 `yaml:"race_end_time"`
	RaceDayOfYear int     `yaml:"race_day_of_year"` // 1..366, drives the geometric solar model

	// Battery pack.
	BatteryCapacity       float64  `yaml:"battery_capacity"`        // Wh
	DeepDischargeCap      float64  `yaml:"deep_discharge_cap"`      // fraction of capacity kept as floor
	InitialChargeFraction float64  `yaml:"initial_charge_fraction"` // fraction of capacity at the start line
	FinishChargeFraction  *float64 `yaml:"finish_charge_fraction"`  // fraction required at the finish; nil = deep_discharge_cap

	// Vehicle body and wheels.
	Mass         float64 `yaml:"mass"`           // kg
	WheelRadius  float64 `yaml:"wheel_radius"`   // outer wheel radius, m
	ZeroSpeedCrr float64 `yaml:"zero_speed_crr"` // rolling resistance coefficient
	Cd           float64 `yaml:"cd"`             // drag coefficient
	FrontalArea  float64 `yaml:"frontal_area"`   // m^2

	// Electrical bus.
	BusVoltage      float64 `yaml:"bus_voltage"`       // V
	MaxCurrent      float64 `yaml:"max_current"`       // A
	EnforcePowerCap bool    `yaml:"enforce_power_cap"` // opt-in bus power constraint

	// Solar array.
	PanelArea       float64 `yaml:"panel_area"` // m^2
	PanelEfficiency float64 `yaml:"panel_efficiency"`

	// Environment.
	AirDensity         float64 `yaml:"air_density"`         // kg/m^3
	Gravity            float64 `yaml:"gravity"`             // m/s^2
	AmbientTemperature float64 `yaml:"ambient_temperature"` // K

	// Speed limits and solver seed.
	MaxVelocity          float64 `yaml:"max_velocity"`           // m/s
	InitialGuessVelocity float64 `yaml:"initial_guess_velocity"` // m/s
}

// DefaultConfig returns the Agnirath vehicle constants. Loading a YAML file
// overrides only the keys it names.
func DefaultConfig() Config {
	return Config{
		RaceStartTime: 9 * 3600,
		RaceEndTime:   17 * 3600,
		RaceDayOfYear: 295, // late October, the World Solar Challenge window

		BatteryCapacity:       3055,
		DeepDischargeCap:      0.2,
		InitialChargeFraction: 0.36,

		Mass:         260,
		WheelRadius:  0.2785,
		ZeroSpeedCrr: 0.0045,
		Cd:           0.092,
		FrontalArea:  1,

		BusVoltage: 4.2 * 38, // 38S pack at full cell voltage
		MaxCurrent: 12.3,

		PanelArea:       6,
		PanelEfficiency: 0.19,

		AirDensity:         1.192,
		Gravity:            9.81,
		AmbientTemperature: 295,

		MaxVelocity:          35,
		InitialGuessVelocity: 25,
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected
// so typos in a config file fail loudly instead of silently keeping defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every constant against its physical domain.
func (c *Config) Validate() error {
	checks := []struct {
		field  string
		ok     bool
		reason string
	}{
		{"mass", c.Mass > 0, "must be positive (kg)"},
		{"wheel_radius", c.WheelRadius > 0, "must be positive (m)"},
		{"zero_speed_crr", c.ZeroSpeedCrr >= 0, "must be non-negative"},
		{"cd", c.Cd >= 0, "must be non-negative"},
		{"frontal_area", c.FrontalArea > 0, "must be positive (m^2)"},
		{"battery_capacity", c.BatteryCapacity > 0, "must be positive (Wh)"},
		{"deep_discharge_cap", c.DeepDischargeCap >= 0 && c.DeepDischargeCap < 1, "must be in [0, 1)"},
		{"initial_charge_fraction", c.InitialChargeFraction > 0 && c.InitialChargeFraction <= 1, "must be in (0, 1]"},
		{"bus_voltage", c.BusVoltage > 0, "must be positive (V)"},
		{"max_current", c.MaxCurrent > 0, "must be positive (A)"},
		{"panel_area", c.PanelArea >= 0, "must be non-negative (m^2)"},
		{"panel_efficiency", c.PanelEfficiency >= 0 && c.PanelEfficiency <= 1, "must be in [0, 1]"},
		{"air_density", c.AirDensity > 0, "must be positive (kg/m^3)"},
		{"gravity", c.Gravity > 0, "must be positive (m/s^2)"},
		{"ambient_temperature", c.AmbientTemperature > 200 && c.AmbientTemperature < 400, "must be in Kelvin, (200, 400)"},
		{"race_start_time", c.RaceStartTime >= 0 && c.RaceStartTime < 24*3600, "must be seconds from midnight"},
		{"race_end_time", c.RaceEndTime > c.RaceStartTime && c.RaceEndTime <= 24*3600, "must fall after race_start_time, within the day"},
		{"race_day_of_year", c.RaceDayOfYear >= 1 && c.RaceDayOfYear <= 366, "must be in 1..366"},
		{"max_velocity", c.MaxVelocity > 0, "must be positive (m/s)"},
		{"initial_guess_velocity", c.InitialGuessVelocity > 0 && c.InitialGuessVelocity <= c.MaxVelocity, "must be in (0, max_velocity]"},
	}
	for _, ch := range checks {
		if !ch.ok {
			return &ValidationError{Field: ch.field, Row: -1, Reason: ch.reason}
		}
	}
	if f := c.FinishChargeFraction; f != nil {
		if math.IsNaN(*f) || *f < 0 || *f >= 1 {
			return &ValidationError{Field: "finish_charge_fraction", Row: -1, Reason: "must be in [0, 1)"}
		}
	}
	return nil
}

// CDA is the drag area Cd*A, m^2.
func (c *Config) CDA() float64 { return c.Cd * c.FrontalArea }

// RaceDuration is the drivable window length per day, s.
func (c *Config) RaceDuration() float64 { return c.RaceEndTime - c.RaceStartTime }

// InitialBatteryCapacity is the energy on board at the start line, Wh.
func (c *Config) InitialBatteryCapacity() float64 {
	return c.BatteryCapacity * c.InitialChargeFraction
}

// SafeBatteryLevel is the deep-discharge floor the pack must never cross, Wh.
func (c *Config) SafeBatteryLevel() float64 {
	return c.BatteryCapacity * c.DeepDischargeCap
}

// FinishBatteryLevel is the charge required at the finish line, Wh. Defaults
// to the deep-discharge floor unless finish_charge_fraction raises it.
func (c *Config) FinishBatteryLevel() float64 {
	if c.FinishChargeFraction != nil {
		return c.BatteryCapacity * *c.FinishChargeFraction
	}
	return c.SafeBatteryLevel()
}

// MaxPower is the bus power ceiling MaxCurrent*BusVoltage, W.
func (c *Config) MaxPower() float64 { return c.MaxCurrent * c.BusVoltage }
