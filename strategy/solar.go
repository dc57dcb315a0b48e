package strategy

import (
	"fmt"
	"math"
)

// Names for the two incident-power strategies. The caller must pick one
// explicitly; the two models disagree on purpose and there is no default.
const (
	SolarModelGaussian  = "gaussian"
	SolarModelGeometric = "geometric"
)

// SolarModel estimates the electrical power the array captures at a moment of
// the race. elapsed is seconds since the race start and is wrapped modulo the
// daily race window, so multi-day elapsed times reuse the same irradiance
// curve. Implementations are pure and safe for concurrent use.
type SolarModel interface {
	IncidentPower(elapsed, latitude, longitude float64) float64
}

// NewSolarModel selects a strategy by name: SolarModelGaussian is the
// empirical race-day fit, SolarModelGeometric the clear-day sun-position
// model.
func NewSolarModel(name string, cfg *Config) (SolarModel, error) {
	switch name {
	case SolarModelGaussian:
		return NewGaussianSolarModel(cfg), nil
	case SolarModelGeometric:
		return NewGeometricSolarModel(cfg), nil
	case "":
		return nil, fmt.Errorf("no solar model selected; valid models: %q, %q", SolarModelGaussian, SolarModelGeometric)
	default:
		return nil, fmt.Errorf("unknown solar model %q; valid models: %q, %q", name, SolarModelGaussian, SolarModelGeometric)
	}
}

// Empirical irradiance fit: a single gaussian over local clock time, fitted
// to measured race-day data.
const (
	gaussianPeakIrradiance = 1073.099  // W/m^2
	gaussianPeakTime       = 51908.735 // s from midnight
	gaussianWidth          = 11484.950 // s
)

// GaussianSolarModel scales the fitted irradiance curve by the array's
// collecting power. Position arguments are accepted for interface
// compatibility but do not influence the fit.
type GaussianSolarModel struct {
	powerCoeff float64 // panel area * efficiency, m^2
	raceStart  float64
	duration   float64
}

func NewGaussianSolarModel(cfg *Config) *GaussianSolarModel {
	return &GaussianSolarModel{
		powerCoeff: cfg.PanelArea * cfg.PanelEfficiency,
		raceStart:  cfg.RaceStartTime,
		duration:   cfg.RaceDuration(),
	}
}

func (m *GaussianSolarModel) IncidentPower(elapsed, _, _ float64) float64 {
	clock := m.raceStart + math.Mod(elapsed, m.duration)
	z := (clock - gaussianPeakTime) / gaussianWidth
	return gaussianPeakIrradiance * math.Exp(-0.5*z*z) * m.powerCoeff
}

// Clear-day beam irradiance reaching the ground, as a fraction of the solar
// constant.
const (
	solarConstant    = 1366.0 // W/m^2
	clearDayFraction = 0.7
)

// GeometricSolarModel computes horizontal-surface irradiance from the sun's
// position: declination and equation of time for the configured race day,
// hour angle from longitude-corrected solar time. Deterministic in
// (elapsed, latitude, longitude) for a fixed Config.
type GeometricSolarModel struct {
	powerCoeff  float64
	raceStart   float64
	duration    float64
	eqTime      float64 // equation of time for the race day, minutes
	declination float64 // solar declination for the race day, deg
}

func NewGeometricSolarModel(cfg *Config) *GeometricSolarModel {
	n := cfg.RaceDayOfYear
	return &GeometricSolarModel{
		powerCoeff:  cfg.PanelArea * cfg.PanelEfficiency,
		raceStart:   cfg.RaceStartTime,
		duration:    cfg.RaceDuration(),
		eqTime:      equationOfTime(float64(n-1) * 360 / 365),
		declination: 23.45 * math.Sin(radians(360.0/365.0*float64(284+n))),
	}
}

func (m *GeometricSolarModel) IncidentPower(elapsed, latitude, longitude float64) float64 {
	clock := (m.raceStart + math.Mod(elapsed, m.duration)) / 3600 // local clock, h

	// Solar time: shift clock time by the longitude offset from the standard
	// meridian plus the equation-of-time correction.
	meridian := 15 * math.Trunc(longitude/15)
	solarTime := clock + (4*(meridian-longitude)+m.eqTime)/60
	hourAngle := radians(15 * (solarTime - 12))

	lat := radians(latitude)
	decl := radians(m.declination)
	cosZenith := math.Cos(lat)*math.Cos(decl)*math.Cos(hourAngle) + math.Sin(lat)*math.Sin(decl)

	irradiance := clearDayFraction * solarConstant * cosZenith
	if irradiance < 0 {
		return 0 // sun below the horizon
	}
	return irradiance * m.powerCoeff
}

// equationOfTime is the day-angle correction between clock time and solar
// time, minutes. bDeg is the day angle (n-1)*360/365 in degrees.
func equationOfTime(bDeg float64) float64 {
	b := radians(bDeg)
	return 229.2 * (0.00018865*math.Cos(b) - 0.0032077*math.Sin(b) +
		0.041016*math.Cos(2*b) - 0.048093*math.Sin(2*b))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
